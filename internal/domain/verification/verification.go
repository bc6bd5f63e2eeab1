package verification

import "fmt"

// Status is the overall verdict of a requirement evaluation.
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusReview Status = "review"
)

// CheckStatus is the verdict of a single rule instance.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckWarning CheckStatus = "warning"
)

// Severity grades how serious a deficiency is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// DeficiencyType is the closed vocabulary of compliance gaps.
type DeficiencyType string

const (
	DeficiencyExpiredPolicy              DeficiencyType = "expired_policy"
	DeficiencyPolicyExpiresBeforeProject DeficiencyType = "policy_expires_before_project"
	DeficiencyMissingCoverage            DeficiencyType = "missing_coverage"
	DeficiencyInsufficientLimit          DeficiencyType = "insufficient_limit"
	DeficiencyExcessTooHigh              DeficiencyType = "excess_too_high"
	DeficiencyMissingEndorsement         DeficiencyType = "missing_endorsement"
	DeficiencyStateMismatch              DeficiencyType = "state_mismatch"
)

// Check is one pass/fail/warning verdict from a single rule instance. A
// requirement may produce zero, one, or several checks.
type Check struct {
	CheckType   string      `json:"check_type"`
	Description string      `json:"description"`
	Status      CheckStatus `json:"status"`
	Details     string      `json:"details,omitempty"`
}

// Deficiency is a specific compliance gap. Deficiencies are produced only for
// failing conditions, never for pass or warning checks.
type Deficiency struct {
	Type          DeficiencyType `json:"type"`
	Severity      Severity       `json:"severity"`
	Description   string         `json:"description"`
	RequiredValue *string        `json:"required_value,omitempty"`
	ActualValue   *string        `json:"actual_value,omitempty"`
}

// Per-type constructors fix the severity and wording for each deficiency
// type, so severity/wording stays exhaustive per type at the call sites.

func NewExpiredPolicyDeficiency(expiryDate string) Deficiency {
	return Deficiency{
		Type:        DeficiencyExpiredPolicy,
		Severity:    SeverityCritical,
		Description: fmt.Sprintf("Policy expired on %s", expiryDate),
		ActualValue: ptr(expiryDate),
	}
}

func NewPolicyExpiresBeforeProjectDeficiency(policyEnd, projectEnd string) Deficiency {
	return Deficiency{
		Type:          DeficiencyPolicyExpiresBeforeProject,
		Severity:      SeverityCritical,
		Description:   fmt.Sprintf("Policy expires %s, before project completion %s", policyEnd, projectEnd),
		RequiredValue: ptr(projectEnd),
		ActualValue:   ptr(policyEnd),
	}
}

func NewMissingCoverageDeficiency(coverageType string) Deficiency {
	return Deficiency{
		Type:          DeficiencyMissingCoverage,
		Severity:      SeverityCritical,
		Description:   fmt.Sprintf("Required coverage %s is not present on the certificate", coverageType),
		RequiredValue: ptr(coverageType),
	}
}

func NewInsufficientLimitDeficiency(coverageType, required, actual string) Deficiency {
	return Deficiency{
		Type:          DeficiencyInsufficientLimit,
		Severity:      SeverityMajor,
		Description:   fmt.Sprintf("%s limit %s is below the required %s", coverageType, actual, required),
		RequiredValue: ptr(required),
		ActualValue:   ptr(actual),
	}
}

func NewExcessTooHighDeficiency(coverageType, maximum, actual string) Deficiency {
	return Deficiency{
		Type:          DeficiencyExcessTooHigh,
		Severity:      SeverityMinor,
		Description:   fmt.Sprintf("%s excess %s exceeds the allowed maximum %s", coverageType, actual, maximum),
		RequiredValue: ptr(maximum),
		ActualValue:   ptr(actual),
	}
}

func NewMissingEndorsementDeficiency(coverageType, endorsement string) Deficiency {
	return Deficiency{
		Type:          DeficiencyMissingEndorsement,
		Severity:      SeverityMajor,
		Description:   fmt.Sprintf("%s cover lacks the required %s endorsement", coverageType, endorsement),
		RequiredValue: ptr(endorsement),
	}
}

func NewStateMismatchDeficiency(required, actual string) Deficiency {
	return Deficiency{
		Type:          DeficiencyStateMismatch,
		Severity:      SeverityCritical,
		Description:   fmt.Sprintf("Workers compensation cover is registered for %s, project is in %s", actual, required),
		RequiredValue: ptr(required),
		ActualValue:   ptr(actual),
	}
}

func ptr(s string) *string {
	return &s
}

// VerificationOutcome is the full result of one requirement evaluation. A
// fresh outcome is computed on every evaluation; it is never mutated.
type VerificationOutcome struct {
	Status          Status       `json:"status"`
	Checks          []Check      `json:"checks"`
	Deficiencies    []Deficiency `json:"deficiencies"`
	ConfidenceScore float64      `json:"confidence_score"`
}

// DeriveStatus computes the overall status. A single failing check or a
// single critical deficiency forces fail even if the other list disagrees;
// a warning with no failures yields review.
func DeriveStatus(checks []Check, deficiencies []Deficiency) Status {
	for _, c := range checks {
		if c.Status == CheckFail {
			return StatusFail
		}
	}
	for _, d := range deficiencies {
		if d.Severity == SeverityCritical {
			return StatusFail
		}
	}
	for _, c := range checks {
		if c.Status == CheckWarning {
			return StatusReview
		}
	}
	return StatusPass
}
