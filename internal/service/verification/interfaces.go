package verification

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainfraud "github.com/covertrack/coc-verification-backend/internal/domain/fraud"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	"github.com/covertrack/coc-verification-backend/internal/domain/verification"
	fraudsvc "github.com/covertrack/coc-verification-backend/internal/service/fraud"
)

// VerificationResult is the persisted record of one document verification:
// both engine verdicts plus identity and provenance.
type VerificationResult struct {
	ID              uuid.UUID                         `json:"id"`
	SubcontractorID string                            `json:"subcontractor_id,omitempty"`
	FileName        string                            `json:"file_name,omitempty"`
	DocumentHash    string                            `json:"document_hash,omitempty"`
	PolicyNumber    string                            `json:"policy_number,omitempty"`
	PolicyExpiry    string                            `json:"policy_expiry,omitempty"`
	Outcome         *verification.VerificationOutcome `json:"verification"`
	Fraud           *domainfraud.AnalysisResult       `json:"fraud_analysis"`
	CreatedAt       time.Time                         `json:"created_at"`
}

// Repository persists verification results and serves submission history.
type Repository interface {
	SaveResult(ctx context.Context, result *VerificationResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*VerificationResult, error)
	ListPriorSubmissions(ctx context.Context, subcontractorID string) ([]policy.PriorSubmission, error)
}

// OutcomeCache is a best-effort cache of results. The caller derives the key;
// it must cover everything the verdict depends on, not just the document.
// Implementations must degrade gracefully; callers treat errors as misses.
type OutcomeCache interface {
	Get(ctx context.Context, key string) (*VerificationResult, error)
	Set(ctx context.Context, key string, result *VerificationResult) error
}

// Notifier receives results that need human attention.
type Notifier interface {
	NotifyBlocked(ctx context.Context, result *VerificationResult) error
}

// FraudAnalyzer is the fraud engine as consumed by the combiner.
type FraudAnalyzer interface {
	Analyze(ctx context.Context, input fraudsvc.Input) (*domainfraud.AnalysisResult, error)
}
