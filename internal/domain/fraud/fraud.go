package fraud

// CheckStatus is the verdict of a single fraud check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckWarning CheckStatus = "warning"
	CheckInfo    CheckStatus = "info"
)

// RiskLevel is the coarse bucket derived from the numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Risk level thresholds on the 0-100 score.
const (
	criticalThreshold = 80
	highThreshold     = 60
	mediumThreshold   = 40
)

// RiskLevelForScore maps a 0-100 risk score onto its level
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= criticalThreshold:
		return RiskCritical
	case score >= highThreshold:
		return RiskHigh
	case score >= mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CheckResult is the outcome of one independent fraud check. Invariant: a
// failing check carries a positive risk score; a passing check carries zero.
type CheckResult struct {
	CheckType string      `json:"check_type"`
	CheckName string      `json:"check_name"`
	Status    CheckStatus `json:"status"`
	RiskScore float64     `json:"risk_score"`
	Details   string      `json:"details"`
	Evidence  []string    `json:"evidence,omitempty"`
}

// AnalysisResult is the aggregated fraud verdict for one document.
type AnalysisResult struct {
	OverallRiskScore float64       `json:"overall_risk_score"`
	RiskLevel        RiskLevel     `json:"risk_level"`
	IsBlocked        bool          `json:"is_blocked"`
	Checks           []CheckResult `json:"checks"`
	Recommendation   string        `json:"recommendation"`
	EvidenceSummary  []string      `json:"evidence_summary"`
}

// Fixed recommendation templates keyed by (is_blocked, risk_level).
const (
	recommendationBlocked = "Submission blocked. Manual review is required before this certificate can be accepted."
	recommendationHigh    = "High fraud risk detected. Escalate to the compliance team for manual document review."
	recommendationMedium  = "Moderate fraud indicators present. Verify the certificate directly with the issuing insurer."
	recommendationLow     = "No significant fraud indicators detected. Certificate can proceed through standard processing."
)

// Aggregate combines independent check results into one analysis. The overall
// score is the maximum individual score, with a surcharge of 10 points per
// warning beyond the second, capped at 100. A document is blocked at critical
// risk or when at least two checks failed.
func Aggregate(checks []CheckResult) *AnalysisResult {
	var (
		overall  float64
		warnings int
		failures int
		evidence []string
	)

	for _, c := range checks {
		if c.RiskScore > overall {
			overall = c.RiskScore
		}
		switch c.Status {
		case CheckWarning:
			warnings++
		case CheckFail:
			failures++
		}
		if c.Status != CheckPass {
			evidence = append(evidence, c.Details)
		}
	}

	if warnings > 2 {
		overall += float64(10 * (warnings - 2))
	}
	if overall > 100 {
		overall = 100
	}

	level := RiskLevelForScore(overall)
	blocked := level == RiskCritical || failures >= 2

	return &AnalysisResult{
		OverallRiskScore: overall,
		RiskLevel:        level,
		IsBlocked:        blocked,
		Checks:           checks,
		Recommendation:   recommendationFor(blocked, level),
		EvidenceSummary:  evidence,
	}
}

func recommendationFor(blocked bool, level RiskLevel) string {
	if blocked {
		return recommendationBlocked
	}
	switch level {
	case RiskHigh:
		return recommendationHigh
	case RiskMedium:
		return recommendationMedium
	default:
		return recommendationLow
	}
}
