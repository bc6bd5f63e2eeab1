package verification

import (
	"fmt"
	"strings"
	"time"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	"github.com/covertrack/coc-verification-backend/internal/domain/verification"
)

// defaultExpiryWarningDays is the window before policy expiry that downgrades
// an otherwise valid policy to a review-level warning.
const defaultExpiryWarningDays = 30

// Check type keys emitted by the evaluator.
const (
	CheckPolicyValidity     = "policy_validity"
	CheckProjectPeriod      = "project_period"
	CheckABNVerification    = "abn_verification"
	CheckCoveragePresent    = "coverage_present"
	CheckCoverageLimit      = "coverage_limit"
	CheckCoverageExcess     = "coverage_excess"
	CheckPrincipalIndemnity = "endorsement_principal_indemnity"
	CheckCrossLiability     = "endorsement_cross_liability"
	CheckWorkersCompState   = "workers_comp_state"
	CheckDataIntegrity      = "data_integrity"
)

// EvaluateOptions carries the optional project context for an evaluation.
type EvaluateOptions struct {
	ProjectEndDate *time.Time
	ProjectState   string
}

// Evaluator runs per-project insurance requirements against extracted
// certificate data. It is pure and side-effect free; the evaluation clock is
// injectable so results are reproducible under test.
type Evaluator struct {
	now               func() time.Time
	expiryWarningDays int
}

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithClock fixes the evaluation clock
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

// WithExpiryWarningDays overrides the expiry warning window
func WithExpiryWarningDays(days int) EvaluatorOption {
	return func(e *Evaluator) {
		if days > 0 {
			e.expiryWarningDays = days
		}
	}
}

// NewEvaluator creates a requirement evaluator
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		now:               time.Now,
		expiryWarningDays: defaultExpiryWarningDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate produces a fresh VerificationOutcome for one document. A nil data
// payload or nil requirement list is a caller contract violation; malformed
// field values inside the payload are reported as failing checks instead.
func (e *Evaluator) Evaluate(
	data *policy.ExtractedPolicyData,
	requirements []policy.InsuranceRequirement,
	opts EvaluateOptions,
) (*verification.VerificationOutcome, error) {
	if data == nil {
		return nil, errors.ErrMissingExtractedData
	}
	if requirements == nil {
		return nil, errors.ErrMissingRequirements
	}

	var (
		checks       []verification.Check
		deficiencies []verification.Deficiency
	)

	now := e.now()

	// Policy validity and project-period coverage both need the policy end
	// date; an unparsable date fails once as a data integrity check and the
	// date-driven rules are skipped.
	policyEnd, endErr := policy.ParsePolicyDate(data.PeriodOfInsuranceEnd)
	if endErr != nil {
		checks = append(checks, verification.Check{
			CheckType:   CheckDataIntegrity,
			Description: "Policy period dates are well formed",
			Status:      verification.CheckFail,
			Details:     fmt.Sprintf("unparsable period_of_insurance_end %q", data.PeriodOfInsuranceEnd),
		})
	} else {
		validityCheck, validityDefs := e.evaluatePolicyValidity(policyEnd, now, data.PeriodOfInsuranceEnd)
		checks = append(checks, validityCheck)
		deficiencies = append(deficiencies, validityDefs...)

		if opts.ProjectEndDate != nil {
			periodCheck, periodDefs := evaluateProjectPeriod(policyEnd, *opts.ProjectEndDate, data.PeriodOfInsuranceEnd)
			checks = append(checks, periodCheck)
			deficiencies = append(deficiencies, periodDefs...)
		}
	}

	// The ABN presence check never runs the checksum; checksum enforcement
	// belongs to the fraud path.
	checks = append(checks, verification.Check{
		CheckType:   CheckABNVerification,
		Description: "Insured ABN is present on the certificate",
		Status:      verification.CheckPass,
		Details:     fmt.Sprintf("insured ABN %s recorded", data.InsuredABN),
	})

	for _, req := range requirements {
		reqChecks, reqDeficiencies := evaluateRequirement(data, req, opts.ProjectState)
		checks = append(checks, reqChecks...)
		deficiencies = append(deficiencies, reqDeficiencies...)
	}

	return &verification.VerificationOutcome{
		Status:          verification.DeriveStatus(checks, deficiencies),
		Checks:          checks,
		Deficiencies:    deficiencies,
		ConfidenceScore: data.ExtractionConfidence,
	}, nil
}

func (e *Evaluator) evaluatePolicyValidity(policyEnd, now time.Time, rawEnd string) (verification.Check, []verification.Deficiency) {
	daysUntilExpiry := int(policyEnd.Sub(now).Hours() / 24)

	switch {
	case policyEnd.Before(now):
		return verification.Check{
			CheckType:   CheckPolicyValidity,
			Description: "Policy is current",
			Status:      verification.CheckFail,
			Details:     fmt.Sprintf("policy expired on %s", rawEnd),
		}, []verification.Deficiency{verification.NewExpiredPolicyDeficiency(rawEnd)}

	case daysUntilExpiry <= e.expiryWarningDays:
		return verification.Check{
			CheckType:   CheckPolicyValidity,
			Description: "Policy is current",
			Status:      verification.CheckWarning,
			Details:     fmt.Sprintf("policy expires in %d days", daysUntilExpiry),
		}, nil

	default:
		return verification.Check{
			CheckType:   CheckPolicyValidity,
			Description: "Policy is current",
			Status:      verification.CheckPass,
			Details:     fmt.Sprintf("policy valid until %s", rawEnd),
		}, nil
	}
}

func evaluateProjectPeriod(policyEnd, projectEnd time.Time, rawEnd string) (verification.Check, []verification.Deficiency) {
	if policyEnd.Before(projectEnd) {
		projectEndStr := projectEnd.Format("2006-01-02")
		return verification.Check{
			CheckType:   CheckProjectPeriod,
			Description: "Policy covers the full project period",
			Status:      verification.CheckFail,
			Details:     fmt.Sprintf("policy ends %s before project completion %s", rawEnd, projectEndStr),
		}, []verification.Deficiency{verification.NewPolicyExpiresBeforeProjectDeficiency(rawEnd, projectEndStr)}
	}

	return verification.Check{
		CheckType:   CheckProjectPeriod,
		Description: "Policy covers the full project period",
		Status:      verification.CheckPass,
		Details:     fmt.Sprintf("policy valid until %s", rawEnd),
	}, nil
}

func evaluateRequirement(
	data *policy.ExtractedPolicyData,
	req policy.InsuranceRequirement,
	projectState string,
) ([]verification.Check, []verification.Deficiency) {
	var (
		checks       []verification.Check
		deficiencies []verification.Deficiency
	)

	cover, found := data.FindCoverage(req.CoverageType)
	if !found {
		checks = append(checks, verification.Check{
			CheckType:   CheckCoveragePresent,
			Description: fmt.Sprintf("%s cover is present", req.CoverageType),
			Status:      verification.CheckFail,
			Details:     fmt.Sprintf("no %s coverage on the certificate", req.CoverageType),
		})
		deficiencies = append(deficiencies, verification.NewMissingCoverageDeficiency(req.CoverageType.String()))
		return checks, deficiencies
	}

	checks = append(checks, verification.Check{
		CheckType:   CheckCoveragePresent,
		Description: fmt.Sprintf("%s cover is present", req.CoverageType),
		Status:      verification.CheckPass,
		Details:     fmt.Sprintf("%s coverage found with limit %s", req.CoverageType, cover.Limit),
	})

	if req.MinimumLimit != nil {
		if cover.Limit.LessThan(*req.MinimumLimit) {
			checks = append(checks, verification.Check{
				CheckType:   CheckCoverageLimit,
				Description: fmt.Sprintf("%s limit meets the project minimum", req.CoverageType),
				Status:      verification.CheckFail,
				Details:     fmt.Sprintf("limit %s below required %s", cover.Limit, req.MinimumLimit),
			})
			deficiencies = append(deficiencies, verification.NewInsufficientLimitDeficiency(
				req.CoverageType.String(), req.MinimumLimit.String(), cover.Limit.String()))
		} else {
			checks = append(checks, verification.Check{
				CheckType:   CheckCoverageLimit,
				Description: fmt.Sprintf("%s limit meets the project minimum", req.CoverageType),
				Status:      verification.CheckPass,
				Details:     fmt.Sprintf("limit %s meets required %s", cover.Limit, req.MinimumLimit),
			})
		}
	}

	if req.MaximumExcess != nil && cover.Excess.GreaterThan(*req.MaximumExcess) {
		checks = append(checks, verification.Check{
			CheckType:   CheckCoverageExcess,
			Description: fmt.Sprintf("%s excess within the allowed maximum", req.CoverageType),
			Status:      verification.CheckFail,
			Details:     fmt.Sprintf("excess %s above allowed %s", cover.Excess, req.MaximumExcess),
		})
		deficiencies = append(deficiencies, verification.NewExcessTooHighDeficiency(
			req.CoverageType.String(), req.MaximumExcess.String(), cover.Excess.String()))
	}

	if req.PrincipalIndemnityRequired && !cover.PrincipalIndemnity {
		checks = append(checks, verification.Check{
			CheckType:   CheckPrincipalIndemnity,
			Description: fmt.Sprintf("%s cover extends to the principal", req.CoverageType),
			Status:      verification.CheckFail,
			Details:     "principal indemnity extension not noted on the certificate",
		})
		deficiencies = append(deficiencies, verification.NewMissingEndorsementDeficiency(
			req.CoverageType.String(), "principal indemnity"))
	}

	if req.CrossLiabilityRequired && !cover.CrossLiability {
		checks = append(checks, verification.Check{
			CheckType:   CheckCrossLiability,
			Description: fmt.Sprintf("%s cover includes a cross liability clause", req.CoverageType),
			Status:      verification.CheckFail,
			Details:     "cross liability clause not noted on the certificate",
		})
		deficiencies = append(deficiencies, verification.NewMissingEndorsementDeficiency(
			req.CoverageType.String(), "cross liability"))
	}

	if req.CoverageType == policy.CoverageWorkersComp && projectState != "" && cover.State != "" {
		if strings.EqualFold(cover.State, projectState) {
			checks = append(checks, verification.Check{
				CheckType:   CheckWorkersCompState,
				Description: "Workers compensation cover matches the project state",
				Status:      verification.CheckPass,
				Details:     fmt.Sprintf("registered in %s", cover.State),
			})
		} else {
			checks = append(checks, verification.Check{
				CheckType:   CheckWorkersCompState,
				Description: "Workers compensation cover matches the project state",
				Status:      verification.CheckFail,
				Details:     fmt.Sprintf("registered in %s, project is in %s", cover.State, projectState),
			})
			deficiencies = append(deficiencies, verification.NewStateMismatchDeficiency(projectState, cover.State))
		}
	}

	return checks, deficiencies
}
