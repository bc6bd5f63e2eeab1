package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
)

// VerifyDocumentRequest is the POST /api/v1/verifications payload.
type VerifyDocumentRequest struct {
	ExtractedData   *policy.ExtractedPolicyData   `json:"extracted_data" validate:"required"`
	Requirements    []policy.InsuranceRequirement `json:"requirements" validate:"required"`
	Metadata        *policy.DocumentMetadata      `json:"metadata,omitempty"`
	FileName        string                        `json:"file_name,omitempty"`
	DocumentHash    string                        `json:"document_hash,omitempty"`
	SubcontractorID string                        `json:"subcontractor_id,omitempty"`
	ProjectState    string                        `json:"project_state,omitempty" validate:"omitempty,oneof=NSW VIC QLD SA WA TAS NT ACT"`

	// ProjectEndDate accepts either an ISO date string or epoch milliseconds.
	ProjectEndDate *FlexibleDate `json:"project_end_date,omitempty"`
}

// FlexibleDate unmarshals from an ISO date / RFC 3339 string or a JSON number
// of epoch milliseconds.
type FlexibleDate struct {
	time.Time
}

func (d *FlexibleDate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := policy.ParsePolicyDate(s)
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
		}
		d.Time = t
		return nil
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid date %s: expected string or epoch milliseconds", raw)
	}
	d.Time = time.UnixMilli(ms).UTC()
	return nil
}

func (d FlexibleDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}
