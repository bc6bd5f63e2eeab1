package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	domainfraud "github.com/covertrack/coc-verification-backend/internal/domain/fraud"
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
	domainverification "github.com/covertrack/coc-verification-backend/internal/domain/verification"
	"github.com/covertrack/coc-verification-backend/internal/service/verification"
)

// VerificationRepository stores verification results and the per-subcontractor
// submission history in PostgreSQL. Engine verdicts are kept as JSONB; the
// hot query columns (status, risk, hash) are lifted out for indexing.
type VerificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository creates a repository on the given pool
func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

// SaveResult persists one verification result and records the upload in the
// submission history so later uploads by the same subcontractor can be
// compared against it.
func (r *VerificationRepository) SaveResult(ctx context.Context, result *verification.VerificationResult) error {
	outcomeJSON, err := json.Marshal(result.Outcome)
	if err != nil {
		return fmt.Errorf("marshaling outcome: %w", err)
	}
	fraudJSON, err := json.Marshal(result.Fraud)
	if err != nil {
		return fmt.Errorf("marshaling fraud analysis: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO verifications (
			id, subcontractor_id, file_name, document_hash,
			status, risk_level, is_blocked, outcome, fraud_analysis, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.ID,
		nullable(result.SubcontractorID),
		nullable(result.FileName),
		nullable(result.DocumentHash),
		string(result.Outcome.Status),
		string(result.Fraud.RiskLevel),
		result.Fraud.IsBlocked,
		outcomeJSON,
		fraudJSON,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting verification: %w", err)
	}

	if result.SubcontractorID != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO prior_submissions (
				id, subcontractor_id, document_hash, file_name,
				policy_number, expiry_date, uploaded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(),
			result.SubcontractorID,
			nullable(result.DocumentHash),
			nullable(result.FileName),
			nullable(result.PolicyNumber),
			nullable(result.PolicyExpiry),
			result.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("recording submission history: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID loads one stored verification result
func (r *VerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*verification.VerificationResult, error) {
	var (
		result          verification.VerificationResult
		subcontractorID *string
		fileName        *string
		documentHash    *string
		outcomeJSON     []byte
		fraudJSON       []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, subcontractor_id, file_name, document_hash,
		       outcome, fraud_analysis, created_at
		FROM verifications
		WHERE id = $1`,
		id,
	).Scan(&result.ID, &subcontractorID, &fileName, &documentHash,
		&outcomeJSON, &fraudJSON, &result.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying verification: %w", err)
	}

	if subcontractorID != nil {
		result.SubcontractorID = *subcontractorID
	}
	if fileName != nil {
		result.FileName = *fileName
	}
	if documentHash != nil {
		result.DocumentHash = *documentHash
	}

	result.Outcome = &domainverification.VerificationOutcome{}
	if err := json.Unmarshal(outcomeJSON, result.Outcome); err != nil {
		return nil, fmt.Errorf("unmarshaling outcome: %w", err)
	}
	result.Fraud = &domainfraud.AnalysisResult{}
	if err := json.Unmarshal(fraudJSON, result.Fraud); err != nil {
		return nil, fmt.Errorf("unmarshaling fraud analysis: %w", err)
	}

	return &result, nil
}

// ListPriorSubmissions returns the submission history for a subcontractor,
// newest first.
func (r *VerificationRepository) ListPriorSubmissions(ctx context.Context, subcontractorID string) ([]policy.PriorSubmission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT document_hash, file_name, policy_number, expiry_date, uploaded_at
		FROM prior_submissions
		WHERE subcontractor_id = $1
		ORDER BY uploaded_at DESC`,
		subcontractorID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying submission history: %w", err)
	}
	defer rows.Close()

	var submissions []policy.PriorSubmission
	for rows.Next() {
		var (
			sub          policy.PriorSubmission
			documentHash *string
			fileName     *string
			policyNumber *string
			expiryDate   *string
			uploadedAt   time.Time
		)
		if err := rows.Scan(&documentHash, &fileName, &policyNumber, &expiryDate, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		if documentHash != nil {
			sub.Hash = *documentHash
		}
		if fileName != nil {
			sub.FileName = *fileName
		}
		if policyNumber != nil {
			sub.Extracted.PolicyNumber = *policyNumber
		}
		if expiryDate != nil {
			sub.Extracted.ExpiryDate = *expiryDate
		}
		sub.UploadDate = uploadedAt
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
