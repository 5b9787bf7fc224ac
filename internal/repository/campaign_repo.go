// internal/repository/campaign_repo.go
package repository

import (
	"context"
	"time"

	"taskpay-engine/internal/domain"
)

// CampaignRepository defines the interface for campaign data operations.
type CampaignRepository interface {
	// CreateCampaign inserts a new campaign and fills in its id.
	CreateCampaign(ctx context.Context, q DBExecutor, campaign *domain.Campaign) error
	// GetCampaignByID retrieves a campaign without locking.
	GetCampaignByID(ctx context.Context, q DBExecutor, id int64) (*domain.Campaign, error)
	// DecrementRemainingUnits decreases remaining_units by one, guarded so it
	// can never go below zero, and returns the post-decrement count. ok is
	// false when no row qualified; the caller treats that as a consistency
	// fault, never a silent clamp.
	DecrementRemainingUnits(ctx context.Context, q DBExecutor, id int64) (remaining int, ok bool, err error)
	// UpdateCampaignStatus sets the campaign lifecycle status.
	UpdateCampaignStatus(ctx context.Context, q DBExecutor, id int64, status domain.CampaignStatus) error
	// DeleteCampaign removes the campaign row.
	DeleteCampaign(ctx context.Context, q DBExecutor, id int64) error
}

// SubmissionRepository defines the interface for proof submission data
// operations, including the server-side task-start records backing dwell
// checks.
type SubmissionRepository interface {
	// CreateSubmission inserts a pending submission and fills in its id.
	CreateSubmission(ctx context.Context, q DBExecutor, sub *domain.Submission) error
	// GetSubmissionByID retrieves a submission without locking.
	GetSubmissionByID(ctx context.Context, q DBExecutor, id int64) (*domain.Submission, error)
	// GetSubmissionByIDForUpdate retrieves the submission row under an
	// exclusive row lock so the pending->terminal transition is single-fire.
	GetSubmissionByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Submission, error)
	// MarkSubmissionResolved sets the terminal status and review time.
	MarkSubmissionResolved(ctx context.Context, q DBExecutor, id int64, status domain.SubmissionStatus, reviewedAt time.Time) error
	// ListExpiredFreeText returns ids of pending free-text submissions whose
	// auto-approve window has elapsed at the given instant.
	ListExpiredFreeText(ctx context.Context, q DBExecutor, now time.Time, limit int) ([]int64, error)
	// RecordTaskStart upserts the server-observed task start for a worker on
	// a campaign.
	RecordTaskStart(ctx context.Context, q DBExecutor, campaignID, workerID int64, startedAt time.Time) error
	// GetTaskStart retrieves the recorded task start, if any.
	GetTaskStart(ctx context.Context, q DBExecutor, campaignID, workerID int64) (*time.Time, error)
}
