package fraud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	"github.com/covertrack/coc-verification-backend/internal/domain/fraud"
	"github.com/covertrack/coc-verification-backend/internal/domain/insurer"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	"github.com/covertrack/coc-verification-backend/internal/domain/values"
)

// Analyzer runs the document fraud checks over one extracted certificate and
// aggregates them into a single risk verdict. All checks are deterministic
// functions of the input; the analyzer holds no mutable state.
type Analyzer struct {
	catalog *insurer.Catalog
	rules   Rules
	logger  *slog.Logger
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithRules overrides the default rule set
func WithRules(rules Rules) AnalyzerOption {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// WithLogger sets the analyzer's logger
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates a fraud analyzer backed by the given insurer catalog
func NewAnalyzer(catalog *insurer.Catalog, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		catalog: catalog,
		rules:   DefaultRules(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs every check family and aggregates the results
func (a *Analyzer) Analyze(ctx context.Context, input Input) (*fraud.AnalysisResult, error) {
	if input.Data == nil {
		return nil, errors.ErrMissingExtractedData
	}

	var checks []fraud.CheckResult
	checks = append(checks, a.analyzeMetadata(input.Metadata)...)
	checks = append(checks, a.analyzeTemplate(input.Data)...)
	checks = append(checks, a.analyzeExtractedData(input.Data)...)
	checks = append(checks, a.analyzeHistory(input)...)

	result := fraud.Aggregate(checks)

	a.logger.InfoContext(ctx, "fraud analysis complete",
		"file_name", input.FileName,
		"risk_score", result.OverallRiskScore,
		"risk_level", result.RiskLevel,
		"blocked", result.IsBlocked,
	)
	return result, nil
}

// analyzeMetadata inspects the PDF-level metadata for signs of post-issue
// editing. Absent metadata is common for scanned certificates and is not held
// against the document.
func (a *Analyzer) analyzeMetadata(meta *policy.DocumentMetadata) []fraud.CheckResult {
	if meta == nil {
		return []fraud.CheckResult{{
			CheckType: CheckMetadataAnalysis,
			CheckName: "Document metadata",
			Status:    fraud.CheckPass,
			Details:   "no document metadata available",
		}}
	}

	var checks []fraud.CheckResult

	if meta.CreationDate != nil && meta.ModificationDate != nil {
		gap := meta.ModificationDate.Sub(*meta.CreationDate)
		if gap > time.Duration(a.rules.TamperThresholdDays)*24*time.Hour {
			gapDays := int(gap.Hours() / 24)
			score := float64(gapDays) * a.rules.TamperScorePerDay
			if score > a.rules.TamperScoreCap {
				score = a.rules.TamperScoreCap
			}
			checks = append(checks, fraud.CheckResult{
				CheckType: CheckMetadataTampering,
				CheckName: "Modification date analysis",
				Status:    fraud.CheckWarning,
				RiskScore: score,
				Details:   fmt.Sprintf("document modified %d days after creation", gapDays),
			})
		} else {
			checks = append(checks, fraud.CheckResult{
				CheckType: CheckMetadataAnalysis,
				CheckName: "Document metadata",
				Status:    fraud.CheckPass,
				Details:   "creation and modification dates are consistent",
			})
		}
	}

	checks = append(checks, a.analyzeProducer(meta))
	return checks
}

func (a *Analyzer) analyzeProducer(meta *policy.DocumentMetadata) fraud.CheckResult {
	software := strings.ToLower(strings.TrimSpace(meta.Producer + " " + meta.Creator))
	if software == "" {
		return fraud.CheckResult{
			CheckType: CheckSoftwareAnalysis,
			CheckName: "Producer software reputation",
			Status:    fraud.CheckPass,
			Details:   "no producer software declared",
		}
	}

	for _, s := range a.rules.SuspiciousProducers {
		if strings.Contains(software, s) {
			return fraud.CheckResult{
				CheckType: CheckSoftwareAnalysis,
				CheckName: "Producer software reputation",
				Status:    fraud.CheckFail,
				RiskScore: a.rules.SuspiciousProducerScore,
				Details:   fmt.Sprintf("document produced by editing software %q", s),
				Evidence:  []string{meta.Producer, meta.Creator},
			}
		}
	}

	for _, l := range a.rules.LegitimateProducers {
		if strings.Contains(software, l) {
			return fraud.CheckResult{
				CheckType: CheckSoftwareAnalysis,
				CheckName: "Producer software reputation",
				Status:    fraud.CheckPass,
				Details:   "document produced by recognised software",
			}
		}
	}

	return fraud.CheckResult{
		CheckType: CheckSoftwareAnalysis,
		CheckName: "Producer software reputation",
		Status:    fraud.CheckWarning,
		RiskScore: a.rules.UnknownProducerScore,
		Details:   fmt.Sprintf("unrecognised producer software %q", strings.TrimSpace(meta.Producer+" "+meta.Creator)),
	}
}

// analyzeTemplate matches the declared insurer against the known-template
// catalog. An unknown insurer yields a single warning; template-specific
// checks only run for recognised insurers.
func (a *Analyzer) analyzeTemplate(data *policy.ExtractedPolicyData) []fraud.CheckResult {
	tmpl, ok := a.catalog.Lookup(data.InsurerName)
	if !ok {
		return []fraud.CheckResult{{
			CheckType: CheckTemplateMatch,
			CheckName: "Insurer template match",
			Status:    fraud.CheckWarning,
			RiskScore: a.rules.UnknownInsurerScore,
			Details:   fmt.Sprintf("insurer %q is not in the known template catalog", data.InsurerName),
		}}
	}

	checks := []fraud.CheckResult{{
		CheckType: CheckTemplateMatch,
		CheckName: "Insurer template match",
		Status:    fraud.CheckPass,
		Details:   fmt.Sprintf("matched template for %s", tmpl.Name),
	}}

	if tmpl.MatchesPolicyNumber(data.PolicyNumber) {
		checks = append(checks, fraud.CheckResult{
			CheckType: CheckPolicyNumberFormat,
			CheckName: "Policy number format",
			Status:    fraud.CheckPass,
			Details:   fmt.Sprintf("policy number matches the %s format", tmpl.Name),
		})
	} else {
		checks = append(checks, fraud.CheckResult{
			CheckType: CheckPolicyNumberFormat,
			CheckName: "Policy number format",
			Status:    fraud.CheckFail,
			RiskScore: a.rules.PatternMismatchScore,
			Details:   fmt.Sprintf("policy number %q does not match the %s format", data.PolicyNumber, tmpl.Name),
			Evidence:  []string{data.PolicyNumber},
		})
	}

	var missing []string
	for _, element := range tmpl.ExpectedElements {
		if !elementPresent(data, element) {
			missing = append(missing, element)
		}
	}
	if len(missing) > 0 {
		checks = append(checks, fraud.CheckResult{
			CheckType: CheckTemplateElements,
			CheckName: "Expected certificate elements",
			Status:    fraud.CheckWarning,
			RiskScore: a.rules.MissingElementScore * float64(len(missing)),
			Details:   fmt.Sprintf("certificate is missing expected elements: %s", strings.Join(missing, ", ")),
			Evidence:  missing,
		})
	} else {
		checks = append(checks, fraud.CheckResult{
			CheckType: CheckTemplateElements,
			CheckName: "Expected certificate elements",
			Status:    fraud.CheckPass,
			Details:   "all expected certificate elements are present",
		})
	}

	return checks
}

func elementPresent(data *policy.ExtractedPolicyData, element string) bool {
	switch element {
	case insurer.ElementPolicyNumber:
		return data.PolicyNumber != ""
	case insurer.ElementPeriodOfInsurance:
		return data.PeriodOfInsuranceStart != "" && data.PeriodOfInsuranceEnd != ""
	case insurer.ElementInsuredName:
		return data.InsuredName != ""
	case insurer.ElementInsuredABN:
		return data.InsuredABN != ""
	case insurer.ElementCoverageTable:
		return len(data.Coverages) > 0
	case insurer.ElementBrokerDetails:
		return data.BrokerName != ""
	default:
		return true
	}
}

// analyzeExtractedData sanity-checks the extracted content itself: ABN
// checksum, policy period arithmetic, and coverage limit plausibility.
func (a *Analyzer) analyzeExtractedData(data *policy.ExtractedPolicyData) []fraud.CheckResult {
	checks := make([]fraud.CheckResult, 0, 3)

	if err := values.ValidateABN(data.InsuredABN); err != nil {
		checks = append(checks, fraud.CheckResult{
			CheckType: CheckABNValidation,
			CheckName: "ABN checksum",
			Status:    fraud.CheckFail,
			RiskScore: a.rules.InvalidABNScore,
			Details:   fmt.Sprintf("insured ABN %q failed validation: %v", data.InsuredABN, err),
			Evidence:  []string{data.InsuredABN},
		})
	} else {
		checks = append(checks, fraud.CheckResult{
			CheckType: CheckABNValidation,
			CheckName: "ABN checksum",
			Status:    fraud.CheckPass,
			Details:   "insured ABN passes checksum validation",
		})
	}

	checks = append(checks, a.analyzeDateLogic(data))
	checks = append(checks, a.analyzeCoverageLimits(data))
	return checks
}

func (a *Analyzer) analyzeDateLogic(data *policy.ExtractedPolicyData) fraud.CheckResult {
	start, startErr := policy.ParsePolicyDate(data.PeriodOfInsuranceStart)
	end, endErr := policy.ParsePolicyDate(data.PeriodOfInsuranceEnd)
	if startErr != nil || endErr != nil {
		return fraud.CheckResult{
			CheckType: CheckDateLogic,
			CheckName: "Policy period logic",
			Status:    fraud.CheckWarning,
			RiskScore: a.rules.OddPeriodScore,
			Details:   "policy period dates could not be parsed",
			Evidence:  []string{data.PeriodOfInsuranceStart, data.PeriodOfInsuranceEnd},
		}
	}

	if !end.After(start) {
		return fraud.CheckResult{
			CheckType: CheckDateLogic,
			CheckName: "Policy period logic",
			Status:    fraud.CheckFail,
			RiskScore: a.rules.InvertedDatesScore,
			Details:   fmt.Sprintf("policy end %s is not after start %s", data.PeriodOfInsuranceEnd, data.PeriodOfInsuranceStart),
		}
	}

	periodDays := int(end.Sub(start) / (24 * time.Hour))
	if periodDays < a.rules.MinPolicyDays || periodDays > a.rules.MaxPolicyDays {
		return fraud.CheckResult{
			CheckType: CheckDateLogic,
			CheckName: "Policy period logic",
			Status:    fraud.CheckWarning,
			RiskScore: a.rules.OddPeriodScore,
			Details:   fmt.Sprintf("unusual policy period of %d days", periodDays),
		}
	}

	return fraud.CheckResult{
		CheckType: CheckDateLogic,
		CheckName: "Policy period logic",
		Status:    fraud.CheckPass,
		Details:   fmt.Sprintf("policy period of %d days is plausible", periodDays),
	}
}

func (a *Analyzer) analyzeCoverageLimits(data *policy.ExtractedPolicyData) fraud.CheckResult {
	minLiability := decimal.NewFromInt(a.rules.MinLiabilityLimit)

	for _, c := range data.Coverages {
		if !c.Limit.IsPositive() {
			return fraud.CheckResult{
				CheckType: CheckCoverageLimits,
				CheckName: "Coverage limit plausibility",
				Status:    fraud.CheckFail,
				RiskScore: a.rules.NonPositiveLimitScore,
				Details:   fmt.Sprintf("%s limit %s is not a positive amount", c.Type, c.Limit),
			}
		}
	}

	for _, c := range data.Coverages {
		if c.Type != policy.CoveragePublicLiability && c.Type != policy.CoverageProductsLiability {
			continue
		}
		if c.Limit.LessThan(minLiability) {
			return fraud.CheckResult{
				CheckType: CheckCoverageLimits,
				CheckName: "Coverage limit plausibility",
				Status:    fraud.CheckWarning,
				RiskScore: a.rules.LowLiabilityLimitScore,
				Details:   fmt.Sprintf("%s limit %s is implausibly low for a commercial policy", c.Type, c.Limit),
			}
		}
	}

	return fraud.CheckResult{
		CheckType: CheckCoverageLimits,
		CheckName: "Coverage limit plausibility",
		Status:    fraud.CheckPass,
		Details:   "coverage limits are within plausible commercial ranges",
	}
}

// analyzeHistory compares the upload against the subcontractor's prior
// submissions: exact duplicates are informational, while a re-used policy
// number with a changed expiry date is treated as manipulation.
func (a *Analyzer) analyzeHistory(input Input) []fraud.CheckResult {
	if len(input.PriorSubmissions) == 0 {
		return nil
	}

	hash := input.DocumentHash
	if hash == "" {
		hash = contentHash(input.Data)
	}

	duplicate := fraud.CheckResult{
		CheckType: CheckDuplicateSubmission,
		CheckName: "Duplicate submission",
		Status:    fraud.CheckPass,
		Details:   "no identical prior submission",
	}
	manipulation := fraud.CheckResult{
		CheckType: CheckDateManipulation,
		CheckName: "Expiry date manipulation",
		Status:    fraud.CheckPass,
		Details:   "no expiry changes across resubmissions of the same policy",
	}

	for _, prior := range input.PriorSubmissions {
		if prior.Hash != "" && prior.Hash == hash {
			duplicate = fraud.CheckResult{
				CheckType: CheckDuplicateSubmission,
				CheckName: "Duplicate submission",
				Status:    fraud.CheckInfo,
				RiskScore: a.rules.DuplicateScore,
				Details:   fmt.Sprintf("identical document previously uploaded as %q", prior.FileName),
				Evidence:  []string{prior.FileName},
			}
			continue
		}

		if prior.Extracted.PolicyNumber != "" &&
			prior.Extracted.PolicyNumber == input.Data.PolicyNumber &&
			prior.Extracted.ExpiryDate != "" &&
			prior.Extracted.ExpiryDate != input.Data.PeriodOfInsuranceEnd {
			manipulation = fraud.CheckResult{
				CheckType: CheckDateManipulation,
				CheckName: "Expiry date manipulation",
				Status:    fraud.CheckFail,
				RiskScore: a.rules.DateManipulationScore,
				Details: fmt.Sprintf("policy %s previously submitted with expiry %s, now %s",
					input.Data.PolicyNumber, prior.Extracted.ExpiryDate, input.Data.PeriodOfInsuranceEnd),
				Evidence: []string{prior.FileName},
			}
		}
	}

	return []fraud.CheckResult{duplicate, manipulation}
}

// contentHash derives a stable identity for the document from its extracted
// fields when the caller did not supply a file hash.
func contentHash(data *policy.ExtractedPolicyData) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
