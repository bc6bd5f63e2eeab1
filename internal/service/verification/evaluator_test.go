package verification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	"github.com/covertrack/coc-verification-backend/internal/domain/verification"
	"github.com/covertrack/coc-verification-backend/internal/testutil/fixtures"
)

func checkByType(t *testing.T, checks []verification.Check, checkType string) verification.Check {
	t.Helper()
	for _, c := range checks {
		if c.CheckType == checkType {
			return c
		}
	}
	t.Fatalf("no check of type %q in %+v", checkType, checks)
	return verification.Check{}
}

func TestEvaluate_CompliantCertificate(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).
		WithoutCoverages().
		WithCoverage(policy.Coverage{
			Type:               policy.CoveragePublicLiability,
			Limit:              decimal.NewFromInt(20_000_000),
			Excess:             decimal.NewFromInt(1_000),
			PrincipalIndemnity: true,
		}).
		WithWorkersComp("NSW").
		Build()

	outcome, err := evaluator.Evaluate(data, fixtures.StandardRequirements(), EvaluateOptions{
		ProjectState: "NSW",
	})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusPass, outcome.Status)
	assert.Empty(t, outcome.Deficiencies)
	assert.Equal(t, data.ExtractionConfidence, outcome.ConfidenceScore)
	assert.Equal(t, verification.CheckPass, checkByType(t, outcome.Checks, CheckPolicyValidity).Status)
	assert.Equal(t, verification.CheckPass, checkByType(t, outcome.Checks, CheckABNVerification).Status)
	assert.Equal(t, verification.CheckPass, checkByType(t, outcome.Checks, CheckWorkersCompState).Status)
}

func TestEvaluate_MissingCoverage(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).Build() // public liability only

	requirements := []policy.InsuranceRequirement{
		fixtures.NewRequirement(policy.CoverageProfessionalIndemnity).
			WithMinimumLimit(5_000_000).
			Build(),
	}

	outcome, err := evaluator.Evaluate(data, requirements, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyMissingCoverage, outcome.Deficiencies[0].Type)
	assert.Equal(t, verification.SeverityCritical, outcome.Deficiencies[0].Severity)
	assert.Equal(t, verification.CheckFail, checkByType(t, outcome.Checks, CheckCoveragePresent).Status)
}

func TestEvaluate_MissingCoverageSkipsDependentRules(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).WithoutCoverages().Build()

	requirements := []policy.InsuranceRequirement{
		fixtures.NewRequirement(policy.CoveragePublicLiability).
			WithMinimumLimit(20_000_000).
			WithMaximumExcess(1_000).
			RequirePrincipalIndemnity().
			RequireCrossLiability().
			Build(),
	}

	outcome, err := evaluator.Evaluate(data, requirements, EvaluateOptions{})
	require.NoError(t, err)

	// Absent cover produces exactly one deficiency; limit, excess and
	// endorsement rules never run against a missing line.
	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyMissingCoverage, outcome.Deficiencies[0].Type)
	for _, c := range outcome.Checks {
		assert.NotEqual(t, CheckCoverageLimit, c.CheckType)
		assert.NotEqual(t, CheckCoverageExcess, c.CheckType)
	}
}

func TestEvaluate_ExpiredPolicy(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).Expired().Build()

	outcome, err := evaluator.Evaluate(data, []policy.InsuranceRequirement{}, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	assert.Equal(t, verification.CheckFail, checkByType(t, outcome.Checks, CheckPolicyValidity).Status)
	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyExpiredPolicy, outcome.Deficiencies[0].Type)
}

func TestEvaluate_ExpiringSoonIsReviewWithoutDeficiency(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).ExpiringIn(14).Build()

	outcome, err := evaluator.Evaluate(data, []policy.InsuranceRequirement{}, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusReview, outcome.Status)
	assert.Equal(t, verification.CheckWarning, checkByType(t, outcome.Checks, CheckPolicyValidity).Status)
	assert.Empty(t, outcome.Deficiencies)
}

func TestEvaluate_PolicyEndsBeforeProject(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).ExpiringIn(60).Build()

	projectEnd := time.Now().AddDate(0, 6, 0)
	outcome, err := evaluator.Evaluate(data, []policy.InsuranceRequirement{}, EvaluateOptions{
		ProjectEndDate: &projectEnd,
	})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	assert.Equal(t, verification.CheckFail, checkByType(t, outcome.Checks, CheckProjectPeriod).Status)
	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyPolicyExpiresBeforeProject, outcome.Deficiencies[0].Type)
}

func TestEvaluate_InsufficientLimit(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).
		WithoutCoverages().
		WithCoverage(policy.Coverage{
			Type:   policy.CoveragePublicLiability,
			Limit:  decimal.NewFromInt(10_000_000),
			Excess: decimal.NewFromInt(1_000),
		}).
		Build()

	requirements := []policy.InsuranceRequirement{
		fixtures.NewRequirement(policy.CoveragePublicLiability).
			WithMinimumLimit(20_000_000).
			Build(),
	}

	outcome, err := evaluator.Evaluate(data, requirements, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyInsufficientLimit, outcome.Deficiencies[0].Type)
	assert.Equal(t, verification.SeverityMajor, outcome.Deficiencies[0].Severity)
}

func TestEvaluate_ExcessAboveMaximum(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).
		WithoutCoverages().
		WithCoverage(policy.Coverage{
			Type:   policy.CoveragePublicLiability,
			Limit:  decimal.NewFromInt(20_000_000),
			Excess: decimal.NewFromInt(25_000),
		}).
		Build()

	requirements := []policy.InsuranceRequirement{
		fixtures.NewRequirement(policy.CoveragePublicLiability).
			WithMaximumExcess(10_000).
			Build(),
	}

	outcome, err := evaluator.Evaluate(data, requirements, EvaluateOptions{})
	require.NoError(t, err)

	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyExcessTooHigh, outcome.Deficiencies[0].Type)
	assert.Equal(t, verification.SeverityMinor, outcome.Deficiencies[0].Severity)
}

func TestEvaluate_MissingEndorsements(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).Build() // no endorsements on base cover

	requirements := []policy.InsuranceRequirement{
		fixtures.NewRequirement(policy.CoveragePublicLiability).
			RequirePrincipalIndemnity().
			RequireCrossLiability().
			Build(),
	}

	outcome, err := evaluator.Evaluate(data, requirements, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	assert.Len(t, outcome.Deficiencies, 2)
	for _, d := range outcome.Deficiencies {
		assert.Equal(t, verification.DeficiencyMissingEndorsement, d.Type)
	}
}

func TestEvaluate_WorkersCompStateMismatch(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).WithWorkersComp("VIC").Build()

	requirements := []policy.InsuranceRequirement{
		fixtures.NewRequirement(policy.CoverageWorkersComp).Build(),
	}

	outcome, err := evaluator.Evaluate(data, requirements, EvaluateOptions{ProjectState: "NSW"})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	require.Len(t, outcome.Deficiencies, 1)
	assert.Equal(t, verification.DeficiencyStateMismatch, outcome.Deficiencies[0].Type)
}

func TestEvaluate_UnparsableEndDate(t *testing.T) {
	evaluator := NewEvaluator()
	data := fixtures.NewPolicyDataBuilder(t).
		WithPeriod("2025-01-01", "not-a-date").
		Build()

	outcome, err := evaluator.Evaluate(data, []policy.InsuranceRequirement{}, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, outcome.Status)
	assert.Equal(t, verification.CheckFail, checkByType(t, outcome.Checks, CheckDataIntegrity).Status)
	for _, c := range outcome.Checks {
		assert.NotEqual(t, CheckPolicyValidity, c.CheckType)
	}
}

func TestEvaluate_NilInputs(t *testing.T) {
	evaluator := NewEvaluator()

	_, err := evaluator.Evaluate(nil, []policy.InsuranceRequirement{}, EvaluateOptions{})
	assert.ErrorIs(t, err, errors.ErrMissingExtractedData)

	data := fixtures.NewPolicyDataBuilder(t).Build()
	_, err = evaluator.Evaluate(data, nil, EvaluateOptions{})
	assert.ErrorIs(t, err, errors.ErrMissingRequirements)
}

func TestEvaluate_IdempotentUnderFrozenClock(t *testing.T) {
	frozen := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	evaluator := NewEvaluator(WithClock(func() time.Time { return frozen }))

	data := fixtures.NewPolicyDataBuilder(t).
		WithPeriod("2025-10-01", "2026-09-30").
		Build()
	requirements := fixtures.StandardRequirements()

	first, err := evaluator.Evaluate(data, requirements, EvaluateOptions{ProjectState: "NSW"})
	require.NoError(t, err)
	second, err := evaluator.Evaluate(data, requirements, EvaluateOptions{ProjectState: "NSW"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
