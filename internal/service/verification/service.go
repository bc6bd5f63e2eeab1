package verification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	domainfraud "github.com/covertrack/coc-verification-backend/internal/domain/fraud"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	"github.com/covertrack/coc-verification-backend/internal/domain/verification"
	"github.com/covertrack/coc-verification-backend/internal/metrics"
	fraudsvc "github.com/covertrack/coc-verification-backend/internal/service/fraud"
)

// VerifyDocumentRequest carries one document through the pipeline.
type VerifyDocumentRequest struct {
	Data            *policy.ExtractedPolicyData
	Requirements    []policy.InsuranceRequirement
	Metadata        *policy.DocumentMetadata
	FileName        string
	DocumentHash    string
	SubcontractorID string
	ProjectEndDate  *time.Time
	ProjectState    string
}

// cacheKey identifies a verdict by the document and the evaluation context
// together. Requirements, project end date and project state all change the
// outcome, so two projects never share a cached result for the same file.
func (req VerifyDocumentRequest) cacheKey() string {
	h := sha256.New()
	h.Write([]byte(req.DocumentHash))
	if payload, err := json.Marshal(req.Requirements); err == nil {
		h.Write(payload)
	}
	if req.ProjectEndDate != nil {
		h.Write([]byte(req.ProjectEndDate.UTC().Format(time.RFC3339)))
	}
	h.Write([]byte(strings.ToUpper(req.ProjectState)))
	return hex.EncodeToString(h.Sum(nil))
}

// Service combines the requirement evaluator and the fraud analyzer into the
// single verification entry point, and hands results to the storage and
// notification collaborators.
type Service struct {
	evaluator *Evaluator
	analyzer  FraudAnalyzer
	repo      Repository

	cache    OutcomeCache
	notifier Notifier
	metrics  *metrics.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

func WithCache(cache OutcomeCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithNotifier(notifier Notifier) ServiceOption {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(registry *metrics.Registry) ServiceOption {
	return func(s *Service) { s.metrics = registry }
}

func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService wires the two engines and the repository together
func NewService(evaluator *Evaluator, analyzer FraudAnalyzer, repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		evaluator: evaluator,
		analyzer:  analyzer,
		repo:      repo,
		logger:    slog.Default(),
		tracer:    otel.Tracer("coc.verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyDocument runs both engines over one document and persists the
// combined result. The engines run concurrently and share no mutable state;
// either engine's contract error aborts the whole verification.
func (s *Service) VerifyDocument(ctx context.Context, req VerifyDocumentRequest) (*VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.VerifyDocument")
	defer span.End()
	started := time.Now()

	if req.Data == nil {
		return nil, errors.ErrMissingExtractedData
	}

	var cacheKey string
	if s.cache != nil && req.DocumentHash != "" {
		cacheKey = req.cacheKey()
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	priors, err := s.loadPriorSubmissions(ctx, req.SubcontractorID)
	if err != nil {
		return nil, err
	}

	var (
		outcome     *verification.VerificationOutcome
		fraudResult *domainfraud.AnalysisResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var evalErr error
		outcome, evalErr = s.evaluator.Evaluate(req.Data, req.Requirements, EvaluateOptions{
			ProjectEndDate: req.ProjectEndDate,
			ProjectState:   req.ProjectState,
		})
		return evalErr
	})
	g.Go(func() error {
		var fraudErr error
		fraudResult, fraudErr = s.analyzer.Analyze(gctx, fraudsvc.Input{
			Data:             req.Data,
			Metadata:         req.Metadata,
			FileName:         req.FileName,
			DocumentHash:     req.DocumentHash,
			PriorSubmissions: priors,
		})
		return fraudErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &VerificationResult{
		ID:              uuid.New(),
		SubcontractorID: req.SubcontractorID,
		FileName:        req.FileName,
		DocumentHash:    req.DocumentHash,
		PolicyNumber:    req.Data.PolicyNumber,
		PolicyExpiry:    req.Data.PeriodOfInsuranceEnd,
		Outcome:         outcome,
		Fraud:           fraudResult,
		CreatedAt:       time.Now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.SaveResult(ctx, result); err != nil {
			return nil, errors.NewInternalError("failed to persist verification result").WithCause(err)
		}
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, result); err != nil {
			s.logger.WarnContext(ctx, "outcome cache write failed", "error", err)
		}
	}

	if fraudResult.IsBlocked {
		s.metrics.RecordFraudBlock(ctx, string(fraudResult.RiskLevel))
		if s.notifier != nil {
			if err := s.notifier.NotifyBlocked(ctx, result); err != nil {
				s.logger.WarnContext(ctx, "blocked-document notification failed", "error", err)
			}
		}
	}

	span.SetAttributes(
		attribute.String("verification.status", string(outcome.Status)),
		attribute.String("fraud.risk_level", string(fraudResult.RiskLevel)),
		attribute.Bool("fraud.blocked", fraudResult.IsBlocked),
	)
	s.metrics.RecordVerification(ctx, string(outcome.Status), string(fraudResult.RiskLevel), time.Since(started))
	s.logger.InfoContext(ctx, "document verified",
		"verification_id", result.ID,
		"status", outcome.Status,
		"risk_level", fraudResult.RiskLevel,
		"blocked", fraudResult.IsBlocked,
		"deficiencies", len(outcome.Deficiencies),
	)

	return result, nil
}

// GetVerification loads a stored result by ID
func (s *Service) GetVerification(ctx context.Context, id uuid.UUID) (*VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.GetVerification")
	defer span.End()

	result, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) loadPriorSubmissions(ctx context.Context, subcontractorID string) ([]policy.PriorSubmission, error) {
	if s.repo == nil || subcontractorID == "" {
		return nil, nil
	}
	priors, err := s.repo.ListPriorSubmissions(ctx, subcontractorID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load submission history").WithCause(err)
	}
	return priors, nil
}
