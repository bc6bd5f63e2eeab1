package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	domainfraud "github.com/covertrack/coc-verification-backend/internal/domain/fraud"
	"github.com/covertrack/coc-verification-backend/internal/domain/insurer"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	"github.com/covertrack/coc-verification-backend/internal/domain/verification"
	fraudsvc "github.com/covertrack/coc-verification-backend/internal/service/fraud"
	"github.com/covertrack/coc-verification-backend/internal/testutil/fixtures"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) SaveResult(ctx context.Context, result *VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*VerificationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VerificationResult), args.Error(1)
}

func (m *mockRepository) ListPriorSubmissions(ctx context.Context, subcontractorID string) ([]policy.PriorSubmission, error) {
	args := m.Called(ctx, subcontractorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]policy.PriorSubmission), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyBlocked(ctx context.Context, result *VerificationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func newTestService(t *testing.T, repo Repository, opts ...ServiceOption) *Service {
	t.Helper()
	analyzer := fraudsvc.NewAnalyzer(insurer.DefaultCatalog())
	return NewService(NewEvaluator(), analyzer, repo, opts...)
}

func TestVerifyDocument_CombinesBothEngines(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SaveResult", mock.Anything, mock.AnythingOfType("*verification.VerificationResult")).Return(nil)

	svc := newTestService(t, repo)
	data := fixtures.NewPolicyDataBuilder(t).Build()

	result, err := svc.VerifyDocument(context.Background(), VerifyDocumentRequest{
		Data:         data,
		Requirements: []policy.InsuranceRequirement{},
		FileName:     "certificate.pdf",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, result.ID)
	require.NotNil(t, result.Outcome)
	require.NotNil(t, result.Fraud)
	assert.Equal(t, verification.StatusPass, result.Outcome.Status)
	assert.Equal(t, domainfraud.RiskLow, result.Fraud.RiskLevel)
	repo.AssertExpectations(t)
}

func TestVerifyDocument_NilDataRejected(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.VerifyDocument(context.Background(), VerifyDocumentRequest{
		Requirements: []policy.InsuranceRequirement{},
	})
	assert.ErrorIs(t, err, errors.ErrMissingExtractedData)
}

func TestVerifyDocument_LoadsSubmissionHistory(t *testing.T) {
	priorUpload := []policy.PriorSubmission{
		{
			Hash:     "old-hash",
			FileName: "coc_last_year.pdf",
			Extracted: policy.PriorExtract{
				PolicyNumber: "AB1234567",
				ExpiryDate:   "2025-01-31",
			},
		},
	}

	repo := new(mockRepository)
	repo.On("ListPriorSubmissions", mock.Anything, "sub-42").Return(priorUpload, nil)
	repo.On("SaveResult", mock.Anything, mock.Anything).Return(nil)

	notifier := new(mockNotifier)
	notifier.On("NotifyBlocked", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(t, repo, WithNotifier(notifier))
	data := fixtures.NewPolicyDataBuilder(t).
		WithPolicyNumber("AB1234567").
		WithPeriod("2025-10-01", "2026-09-30").
		Build()

	result, err := svc.VerifyDocument(context.Background(), VerifyDocumentRequest{
		Data:            data,
		Requirements:    []policy.InsuranceRequirement{},
		SubcontractorID: "sub-42",
		DocumentHash:    "new-hash",
	})
	require.NoError(t, err)

	// Same policy number with a different expiry in history blocks the
	// document and triggers the notifier.
	assert.True(t, result.Fraud.IsBlocked)
	notifier.AssertCalled(t, "NotifyBlocked", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestVerifyDocument_RepositoryFailureIsInternal(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SaveResult", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestService(t, repo)
	data := fixtures.NewPolicyDataBuilder(t).Build()

	_, err := svc.VerifyDocument(context.Background(), VerifyDocumentRequest{
		Data:         data,
		Requirements: []policy.InsuranceRequirement{},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
}

type stubCache struct {
	stored map[string]*VerificationResult
}

func newStubCache() *stubCache {
	return &stubCache{stored: make(map[string]*VerificationResult)}
}

func (c *stubCache) Get(_ context.Context, key string) (*VerificationResult, error) {
	if r, ok := c.stored[key]; ok {
		return r, nil
	}
	return nil, errors.ErrVerificationNotFound
}

func (c *stubCache) Set(_ context.Context, key string, result *VerificationResult) error {
	c.stored[key] = result
	return nil
}

func TestVerifyDocument_CacheHitShortCircuits(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SaveResult", mock.Anything, mock.Anything).Return(nil).Once()

	cache := newStubCache()
	svc := newTestService(t, repo, WithCache(cache))
	data := fixtures.NewPolicyDataBuilder(t).Build()
	req := VerifyDocumentRequest{
		Data:         data,
		Requirements: []policy.InsuranceRequirement{},
		DocumentHash: "doc-hash-1",
	}

	first, err := svc.VerifyDocument(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.VerifyDocument(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	repo.AssertNumberOfCalls(t, "SaveResult", 1)
}

func TestVerifyDocument_CacheScopedToEvaluationContext(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SaveResult", mock.Anything, mock.Anything).Return(nil)

	cache := newStubCache()
	svc := newTestService(t, repo, WithCache(cache))
	data := fixtures.NewPolicyDataBuilder(t).Build()

	// Same document, two projects: the first has no requirements, the second
	// requires professional indemnity the certificate does not carry.
	lenient, err := svc.VerifyDocument(context.Background(), VerifyDocumentRequest{
		Data:         data,
		Requirements: []policy.InsuranceRequirement{},
		DocumentHash: "doc-hash-1",
	})
	require.NoError(t, err)
	require.Equal(t, verification.StatusPass, lenient.Outcome.Status)

	strict, err := svc.VerifyDocument(context.Background(), VerifyDocumentRequest{
		Data: data,
		Requirements: []policy.InsuranceRequirement{
			{CoverageType: policy.CoverageProfessionalIndemnity},
		},
		DocumentHash: "doc-hash-1",
	})
	require.NoError(t, err)

	assert.Equal(t, verification.StatusFail, strict.Outcome.Status)
	assert.NotEqual(t, lenient.ID, strict.ID)
	repo.AssertNumberOfCalls(t, "SaveResult", 2)
}

func TestGetVerification(t *testing.T) {
	id := uuid.New()
	stored := &VerificationResult{ID: id, CreatedAt: time.Now().UTC()}

	repo := new(mockRepository)
	repo.On("GetByID", mock.Anything, id).Return(stored, nil)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, errors.ErrVerificationNotFound)

	svc := newTestService(t, repo)

	got, err := svc.GetVerification(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = svc.GetVerification(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrVerificationNotFound)
}
