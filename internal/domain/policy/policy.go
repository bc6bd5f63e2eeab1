package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoverageType identifies the class of insurance cover on a certificate.
type CoverageType string

const (
	CoveragePublicLiability       CoverageType = "public_liability"
	CoverageProductsLiability     CoverageType = "products_liability"
	CoverageWorkersComp           CoverageType = "workers_comp"
	CoverageProfessionalIndemnity CoverageType = "professional_indemnity"
	CoverageMotorVehicle          CoverageType = "motor_vehicle"
	CoverageContractWorks         CoverageType = "contract_works"
)

var supportedCoverageTypes = map[CoverageType]bool{
	CoveragePublicLiability:       true,
	CoverageProductsLiability:     true,
	CoverageWorkersComp:           true,
	CoverageProfessionalIndemnity: true,
	CoverageMotorVehicle:          true,
	CoverageContractWorks:         true,
}

// IsValid reports whether the coverage type is one of the supported classes
func (t CoverageType) IsValid() bool {
	return supportedCoverageTypes[t]
}

func (t CoverageType) String() string {
	return string(t)
}

// LimitType describes how a coverage limit applies.
type LimitType string

const (
	LimitPerOccurrence LimitType = "per_occurrence"
	LimitAggregate     LimitType = "aggregate"
	LimitStatutory     LimitType = "statutory"
	LimitPerClaim      LimitType = "per_claim"
)

// AustralianStates holds the 8 state/territory codes accepted as a project
// state or workers compensation jurisdiction.
var AustralianStates = map[string]bool{
	"NSW": true,
	"VIC": true,
	"QLD": true,
	"SA":  true,
	"WA":  true,
	"TAS": true,
	"NT":  true,
	"ACT": true,
}

// Coverage is one line of cover extracted from a Certificate of Currency.
// At most one entry per coverage type appears on a document.
type Coverage struct {
	Type               CoverageType    `json:"coverage_type"`
	Limit              decimal.Decimal `json:"limit"`
	LimitType          LimitType       `json:"limit_type"`
	Excess             decimal.Decimal `json:"excess"`
	PrincipalIndemnity bool            `json:"principal_indemnity,omitempty"`
	CrossLiability     bool            `json:"cross_liability,omitempty"`
	State              string          `json:"state,omitempty"`
	EmployerIndemnity  bool            `json:"employer_indemnity,omitempty"`
	RetroactiveDate    string          `json:"retroactive_date,omitempty"`
}

// ExtractedPolicyData is the structured output of the AI document-extraction
// collaborator for a single uploaded certificate. It is immutable input to
// both decision engines.
type ExtractedPolicyData struct {
	InsuredName    string `json:"insured_name"`
	InsuredABN     string `json:"insured_abn"`
	InsuredAddress string `json:"insured_address,omitempty"`

	InsurerName string `json:"insurer_name"`
	InsurerABN  string `json:"insurer_abn,omitempty"`

	PolicyNumber           string `json:"policy_number"`
	PeriodOfInsuranceStart string `json:"period_of_insurance_start"`
	PeriodOfInsuranceEnd   string `json:"period_of_insurance_end"`

	Coverages []Coverage `json:"coverages"`

	BrokerName  string `json:"broker_name,omitempty"`
	BrokerPhone string `json:"broker_phone,omitempty"`
	BrokerEmail string `json:"broker_email,omitempty"`

	Currency  string `json:"currency,omitempty"`
	Territory string `json:"territory,omitempty"`

	// ExtractionConfidence is the extraction collaborator's confidence in
	// [0,1]; it is copied onto the verification outcome untouched.
	ExtractionConfidence float64 `json:"extraction_confidence"`
}

// FindCoverage returns the coverage entry for the given type, if present
func (d *ExtractedPolicyData) FindCoverage(t CoverageType) (*Coverage, bool) {
	for i := range d.Coverages {
		if d.Coverages[i].Type == t {
			return &d.Coverages[i], true
		}
	}
	return nil, false
}

// InsuranceRequirement is one per-project coverage rule the certificate must
// satisfy. The set is immutable for the duration of an evaluation.
type InsuranceRequirement struct {
	CoverageType               CoverageType     `json:"coverage_type"`
	MinimumLimit               *decimal.Decimal `json:"minimum_limit,omitempty"`
	MaximumExcess              *decimal.Decimal `json:"maximum_excess,omitempty"`
	PrincipalIndemnityRequired bool             `json:"principal_indemnity_required,omitempty"`
	CrossLiabilityRequired     bool             `json:"cross_liability_required,omitempty"`
}

// DocumentMetadata carries the PDF-level metadata of the uploaded file, when
// the extraction collaborator could read it.
type DocumentMetadata struct {
	CreationDate     *time.Time `json:"creation_date,omitempty"`
	ModificationDate *time.Time `json:"modification_date,omitempty"`
	Producer         string     `json:"producer,omitempty"`
	Creator          string     `json:"creator,omitempty"`
}

// PriorSubmission is one historical upload by the same subcontractor, as
// recorded by the history collaborator. Field names follow the collaborator's
// wire format.
type PriorSubmission struct {
	Hash       string       `json:"hash"`
	FileName   string       `json:"fileName"`
	UploadDate time.Time    `json:"uploadDate"`
	Extracted  PriorExtract `json:"extractedData"`
}

// PriorExtract is the subset of extracted fields the history collaborator
// retains per submission.
type PriorExtract struct {
	PolicyNumber string `json:"policyNumber"`
	ExpiryDate   string `json:"expiryDate"`
}

// PolicyDateLayouts are the accepted date formats for policy period fields,
// tried in order.
var PolicyDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

// ParsePolicyDate parses a policy period date string
func ParsePolicyDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range PolicyDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
