package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name         string
		checks       []Check
		deficiencies []Deficiency
		want         Status
	}{
		{
			name: "all passing",
			checks: []Check{
				{Status: CheckPass},
				{Status: CheckPass},
			},
			want: StatusPass,
		},
		{
			name: "failing check forces fail",
			checks: []Check{
				{Status: CheckPass},
				{Status: CheckFail},
			},
			want: StatusFail,
		},
		{
			name:   "critical deficiency forces fail without failing check",
			checks: []Check{{Status: CheckPass}},
			deficiencies: []Deficiency{
				NewMissingCoverageDeficiency("public_liability"),
			},
			want: StatusFail,
		},
		{
			name: "warning without failure yields review",
			checks: []Check{
				{Status: CheckPass},
				{Status: CheckWarning},
			},
			want: StatusReview,
		},
		{
			name: "failure outranks warning",
			checks: []Check{
				{Status: CheckWarning},
				{Status: CheckFail},
			},
			want: StatusFail,
		},
		{
			name:   "minor deficiency alone does not fail",
			checks: []Check{{Status: CheckPass}},
			deficiencies: []Deficiency{
				NewExcessTooHighDeficiency("public_liability", "10000", "25000"),
			},
			want: StatusPass,
		},
		{
			name: "no checks",
			want: StatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.checks, tt.deficiencies))
		})
	}
}

func TestDeficiencyConstructorSeverities(t *testing.T) {
	assert.Equal(t, SeverityCritical, NewExpiredPolicyDeficiency("2025-01-01").Severity)
	assert.Equal(t, SeverityCritical, NewPolicyExpiresBeforeProjectDeficiency("2025-01-01", "2025-06-30").Severity)
	assert.Equal(t, SeverityCritical, NewMissingCoverageDeficiency("workers_comp").Severity)
	assert.Equal(t, SeverityCritical, NewStateMismatchDeficiency("NSW", "VIC").Severity)
	assert.Equal(t, SeverityMajor, NewInsufficientLimitDeficiency("public_liability", "20000000", "10000000").Severity)
	assert.Equal(t, SeverityMajor, NewMissingEndorsementDeficiency("public_liability", "cross liability").Severity)
	assert.Equal(t, SeverityMinor, NewExcessTooHighDeficiency("public_liability", "10000", "25000").Severity)
}
