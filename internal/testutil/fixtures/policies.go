package fixtures

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
)

// PolicyDataBuilder constructs ExtractedPolicyData fixtures for tests.
type PolicyDataBuilder struct {
	t    *testing.T
	data policy.ExtractedPolicyData
}

// NewPolicyDataBuilder creates a builder seeded with a plausible certificate:
// a current QBE public liability policy held by a validly numbered company.
func NewPolicyDataBuilder(t *testing.T) *PolicyDataBuilder {
	t.Helper()
	return &PolicyDataBuilder{
		t: t,
		data: policy.ExtractedPolicyData{
			InsuredName:            "Meridian Civil Constructions Pty Ltd",
			InsuredABN:             "51824753556",
			InsurerName:            "QBE Insurance (Australia) Limited",
			PolicyNumber:           "AB1234567",
			PeriodOfInsuranceStart: time.Now().AddDate(0, -6, 0).Format("2006-01-02"),
			PeriodOfInsuranceEnd:   time.Now().AddDate(0, 6, 0).Format("2006-01-02"),
			Coverages: []policy.Coverage{
				{
					Type:      policy.CoveragePublicLiability,
					Limit:     decimal.NewFromInt(20_000_000),
					LimitType: policy.LimitPerOccurrence,
					Excess:    decimal.NewFromInt(1_000),
				},
			},
			BrokerName:           "Aon Risk Services Australia",
			ExtractionConfidence: 0.94,
		},
	}
}

func (b *PolicyDataBuilder) WithInsuredName(name string) *PolicyDataBuilder {
	b.data.InsuredName = name
	return b
}

func (b *PolicyDataBuilder) WithABN(abn string) *PolicyDataBuilder {
	b.data.InsuredABN = abn
	return b
}

func (b *PolicyDataBuilder) WithInsurer(name string) *PolicyDataBuilder {
	b.data.InsurerName = name
	return b
}

func (b *PolicyDataBuilder) WithPolicyNumber(number string) *PolicyDataBuilder {
	b.data.PolicyNumber = number
	return b
}

func (b *PolicyDataBuilder) WithPeriod(start, end string) *PolicyDataBuilder {
	b.data.PeriodOfInsuranceStart = start
	b.data.PeriodOfInsuranceEnd = end
	return b
}

// Expired shifts the policy period fully into the past.
func (b *PolicyDataBuilder) Expired() *PolicyDataBuilder {
	b.data.PeriodOfInsuranceStart = time.Now().AddDate(-1, -6, 0).Format("2006-01-02")
	b.data.PeriodOfInsuranceEnd = time.Now().AddDate(0, -2, 0).Format("2006-01-02")
	return b
}

// ExpiringIn sets the policy end date the given number of days from now.
func (b *PolicyDataBuilder) ExpiringIn(days int) *PolicyDataBuilder {
	b.data.PeriodOfInsuranceEnd = time.Now().AddDate(0, 0, days).Format("2006-01-02")
	return b
}

// WithCoverage appends a coverage line.
func (b *PolicyDataBuilder) WithCoverage(c policy.Coverage) *PolicyDataBuilder {
	b.data.Coverages = append(b.data.Coverages, c)
	return b
}

// WithoutCoverages clears all coverage lines.
func (b *PolicyDataBuilder) WithoutCoverages() *PolicyDataBuilder {
	b.data.Coverages = nil
	return b
}

// WithWorkersComp adds an icare-style workers compensation line for a state.
func (b *PolicyDataBuilder) WithWorkersComp(state string) *PolicyDataBuilder {
	return b.WithCoverage(policy.Coverage{
		Type:              policy.CoverageWorkersComp,
		Limit:             decimal.NewFromInt(50_000_000),
		LimitType:         policy.LimitStatutory,
		State:             state,
		EmployerIndemnity: true,
	})
}

// WithProfessionalIndemnity adds a PI line with the given limit.
func (b *PolicyDataBuilder) WithProfessionalIndemnity(limit int64) *PolicyDataBuilder {
	return b.WithCoverage(policy.Coverage{
		Type:      policy.CoverageProfessionalIndemnity,
		Limit:     decimal.NewFromInt(limit),
		LimitType: policy.LimitPerClaim,
		Excess:    decimal.NewFromInt(5_000),
	})
}

func (b *PolicyDataBuilder) WithConfidence(confidence float64) *PolicyDataBuilder {
	b.data.ExtractionConfidence = confidence
	return b
}

// Build returns the constructed data.
func (b *PolicyDataBuilder) Build() *policy.ExtractedPolicyData {
	data := b.data
	return &data
}

// RequirementBuilder constructs InsuranceRequirement fixtures.
type RequirementBuilder struct {
	req policy.InsuranceRequirement
}

// NewRequirement starts a requirement for a coverage type.
func NewRequirement(coverageType policy.CoverageType) *RequirementBuilder {
	return &RequirementBuilder{req: policy.InsuranceRequirement{CoverageType: coverageType}}
}

func (b *RequirementBuilder) WithMinimumLimit(limit int64) *RequirementBuilder {
	d := decimal.NewFromInt(limit)
	b.req.MinimumLimit = &d
	return b
}

func (b *RequirementBuilder) WithMaximumExcess(excess int64) *RequirementBuilder {
	d := decimal.NewFromInt(excess)
	b.req.MaximumExcess = &d
	return b
}

func (b *RequirementBuilder) RequirePrincipalIndemnity() *RequirementBuilder {
	b.req.PrincipalIndemnityRequired = true
	return b
}

func (b *RequirementBuilder) RequireCrossLiability() *RequirementBuilder {
	b.req.CrossLiabilityRequired = true
	return b
}

func (b *RequirementBuilder) Build() policy.InsuranceRequirement {
	return b.req
}

// StandardRequirements returns the requirement set a typical head contractor
// imposes: $20M public liability with principal indemnity, and statutory
// workers compensation.
func StandardRequirements() []policy.InsuranceRequirement {
	return []policy.InsuranceRequirement{
		NewRequirement(policy.CoveragePublicLiability).
			WithMinimumLimit(20_000_000).
			WithMaximumExcess(5_000).
			RequirePrincipalIndemnity().
			Build(),
		NewRequirement(policy.CoverageWorkersComp).Build(),
	}
}

// MetadataBuilder constructs DocumentMetadata fixtures for fraud tests.
type MetadataBuilder struct {
	meta policy.DocumentMetadata
}

// NewMetadata starts from clean metadata: created and never modified, produced
// by mainstream insurer document tooling.
func NewMetadata() *MetadataBuilder {
	created := time.Now().AddDate(0, -1, 0)
	return &MetadataBuilder{
		meta: policy.DocumentMetadata{
			CreationDate:     &created,
			ModificationDate: &created,
			Producer:         "Adobe PDF Library 17.0",
			Creator:          "Guidewire PolicyCenter",
		},
	}
}

// ModifiedDaysAfterCreation moves the modification date the given number of
// days after creation.
func (b *MetadataBuilder) ModifiedDaysAfterCreation(days int) *MetadataBuilder {
	if b.meta.CreationDate != nil {
		modified := b.meta.CreationDate.AddDate(0, 0, days)
		b.meta.ModificationDate = &modified
	}
	return b
}

func (b *MetadataBuilder) WithProducer(producer string) *MetadataBuilder {
	b.meta.Producer = producer
	return b
}

func (b *MetadataBuilder) WithCreator(creator string) *MetadataBuilder {
	b.meta.Creator = creator
	return b
}

func (b *MetadataBuilder) Build() *policy.DocumentMetadata {
	meta := b.meta
	return &meta
}
