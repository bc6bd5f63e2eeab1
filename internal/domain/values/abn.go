package values

import (
	"encoding/json"
	"strings"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
)

// ABN represents a validated Australian Business Number (11 digits with a
// modulus-89 checksum).
type ABN struct {
	abn string // digits only, no whitespace
}

// abnWeights is the ATO weighting vector applied to the 11 digits, with 1
// subtracted from the leading digit before weighting.
var abnWeights = [11]int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

const abnModulus = 89

// NewABN creates a new ABN value object with checksum validation
func NewABN(abn string) (ABN, error) {
	normalized := stripWhitespace(abn)

	if err := validateABNDigits(normalized); err != nil {
		return ABN{}, err
	}

	return ABN{abn: normalized}, nil
}

// MustNewABN creates an ABN and panics on error (for constants/tests)
func MustNewABN(abn string) ABN {
	a, err := NewABN(abn)
	if err != nil {
		panic(err)
	}
	return a
}

// ValidateABN reports whether a string is a checksum-valid ABN. The returned
// error carries the exact failure reason.
func ValidateABN(abn string) error {
	return validateABNDigits(stripWhitespace(abn))
}

func validateABNDigits(digits string) error {
	if len(digits) != 11 || !isAllDigits(digits) {
		return errors.NewValidationError("INVALID_ABN_LENGTH",
			"ABN must be exactly 11 digits")
	}

	sum := 0
	for i, ch := range digits {
		d := int(ch - '0')
		if i == 0 {
			d--
		}
		sum += d * abnWeights[i]
	}

	if sum%abnModulus != 0 {
		return errors.NewValidationError("INVALID_ABN_CHECKSUM",
			"ABN checksum validation failed")
	}

	return nil
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isAllDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// String returns the normalized 11-digit ABN
func (a ABN) String() string {
	return a.abn
}

// IsEmpty checks if the ABN is empty
func (a ABN) IsEmpty() bool {
	return a.abn == ""
}

// Equal checks if two ABN values are equal
func (a ABN) Equal(other ABN) bool {
	return a.abn == other.abn
}

// Formatted returns the ABN in the conventional "XX XXX XXX XXX" display form
func (a ABN) Formatted() string {
	if len(a.abn) != 11 {
		return a.abn
	}
	return a.abn[:2] + " " + a.abn[2:5] + " " + a.abn[5:8] + " " + a.abn[8:11]
}

// MarshalJSON implements JSON marshaling
func (a ABN) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.abn)
}

// UnmarshalJSON implements JSON unmarshaling
func (a *ABN) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	abn, err := NewABN(raw)
	if err != nil {
		return err
	}

	*a = abn
	return nil
}
