// internal/repository/postgres/submission_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

const submissionColumns = `id, campaign_id, worker_id, proof_text, proof_file_name, started_at,
	auto_approve_at, status, reviewed_at, created_at`

// SubmissionRepository implements repository.SubmissionRepository for PostgreSQL.
type SubmissionRepository struct{}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) repository.SubmissionRepository {
	return &SubmissionRepository{}
}

// CreateSubmission inserts a pending submission using the provided DBExecutor.
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, q repository.DBExecutor, sub *domain.Submission) error {
	query := `INSERT INTO submissions (campaign_id, worker_id, proof_text, proof_file_name, started_at,
                auto_approve_at, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		sub.CampaignID,
		sub.WorkerID,
		sub.ProofText,
		sub.ProofFileName,
		sub.StartedAt,
		sub.AutoApproveAt,
		sub.Status,
		sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("failed to create submission for campaign %d: %w", sub.CampaignID, err)
	}
	return nil
}

// GetSubmissionByID retrieves a submission without locking.
func (r *SubmissionRepository) GetSubmissionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Submission, error) {
	var sub domain.Submission
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	err := q.GetContext(ctx, &sub, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", id, err)
	}
	return &sub, nil
}

// GetSubmissionByIDForUpdate retrieves the submission row under an exclusive
// row lock. Must be called inside a transaction.
func (r *SubmissionRepository) GetSubmissionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Submission, error) {
	var sub domain.Submission
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &sub, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to lock submission %d: %w", id, err)
	}
	return &sub, nil
}

// MarkSubmissionResolved sets the terminal status and review time.
func (r *SubmissionRepository) MarkSubmissionResolved(ctx context.Context, q repository.DBExecutor, id int64, status domain.SubmissionStatus, reviewedAt time.Time) error {
	query := `UPDATE submissions SET status = $1, reviewed_at = $2 WHERE id = $3 AND status = $4`
	result, err := q.ExecContext(ctx, query, status, reviewedAt, id, domain.SubmissionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve submission %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected resolving submission %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrAlreadyResolved
	}
	return nil
}

// ListExpiredFreeText returns ids of pending free-text submissions whose
// auto-approve window elapsed at or before now.
func (r *SubmissionRepository) ListExpiredFreeText(ctx context.Context, q repository.DBExecutor, now time.Time, limit int) ([]int64, error) {
	ids := []int64{}
	query := `SELECT id FROM submissions
              WHERE status = $1 AND auto_approve_at IS NOT NULL AND auto_approve_at <= $2
              ORDER BY auto_approve_at ASC
              LIMIT $3`
	err := q.SelectContext(ctx, &ids, query, domain.SubmissionStatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired free-text submissions: %w", err)
	}
	return ids, nil
}

// RecordTaskStart upserts the server-observed task start for a worker on a
// campaign. A repeat start keeps the earliest observation so a client cannot
// reset its own dwell clock.
func (r *SubmissionRepository) RecordTaskStart(ctx context.Context, q repository.DBExecutor, campaignID, workerID int64, startedAt time.Time) error {
	query := `INSERT INTO task_starts (campaign_id, worker_id, started_at)
              VALUES ($1, $2, $3)
              ON CONFLICT (campaign_id, worker_id) DO NOTHING`
	if _, err := q.ExecContext(ctx, query, campaignID, workerID, startedAt); err != nil {
		return fmt.Errorf("failed to record task start for campaign %d worker %d: %w", campaignID, workerID, err)
	}
	return nil
}

// GetTaskStart retrieves the recorded task start, if any.
func (r *SubmissionRepository) GetTaskStart(ctx context.Context, q repository.DBExecutor, campaignID, workerID int64) (*time.Time, error) {
	var startedAt time.Time
	query := `SELECT started_at FROM task_starts WHERE campaign_id = $1 AND worker_id = $2`
	err := q.GetContext(ctx, &startedAt, query, campaignID, workerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task start for campaign %d worker %d: %w", campaignID, workerID, err)
	}
	return &startedAt, nil
}
