// internal/domain/campaign.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// ProofMethod is how a worker demonstrates completion of a campaign unit.
type ProofMethod string

const (
	ProofMethodScreenshot    ProofMethod = "screenshot"
	ProofMethodFreeText      ProofMethod = "free-text"
	ProofMethodQuiz          ProofMethod = "quiz"
	ProofMethodFileNameMatch ProofMethod = "file-name-match"
	ProofMethodTimerOnly     ProofMethod = "timer-only"
)

// IsValidProofMethod reports whether m names a supported proof method.
func IsValidProofMethod(m ProofMethod) bool {
	switch m {
	case ProofMethodScreenshot, ProofMethodFreeText, ProofMethodQuiz,
		ProofMethodFileNameMatch, ProofMethodTimerOnly:
		return true
	default:
		return false
	}
}

// CampaignStatus is the lifecycle state of an advertised campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign is an advertised task whose total budget is escrowed from the
// funder's deposit balance at creation. RemainingUnits only ever decreases,
// and only on approval of a submission.
type Campaign struct {
	ID              int64           `db:"id" json:"id"`
	FunderID        int64           `db:"funder_id" json:"funder_id"`
	Title           string          `db:"title" json:"title"`
	TotalUnits      int             `db:"total_units" json:"total_units"`
	RemainingUnits  int             `db:"remaining_units" json:"remaining_units"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unit_price"`
	WorkerReward    decimal.Decimal `db:"worker_reward" json:"worker_reward"`
	ProofMethod     ProofMethod     `db:"proof_method" json:"proof_method"`
	MinDwellSeconds int             `db:"min_dwell_seconds" json:"min_dwell_seconds"`
	QuizKey         *string         `db:"quiz_key" json:"quiz_key,omitempty"`
	FilePattern     *string         `db:"file_pattern" json:"file_pattern,omitempty"`
	Status          CampaignStatus  `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// TotalBudget is the escrow amount reserved at creation.
func (c *Campaign) TotalBudget() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.TotalUnits)))
}

// WorkerRewardFor computes the per-unit worker reward for a unit price after
// the platform fee: unitPrice * (1 - feePercent/100).
func WorkerRewardFor(unitPrice, feePercent decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return unitPrice.Mul(one.Sub(feePercent.Div(hundred)))
}

// NewCampaign creates an active campaign with its full unit pool available.
func NewCampaign(
	funderID int64,
	title string,
	totalUnits int,
	unitPrice decimal.Decimal,
	feePercent decimal.Decimal,
	proofMethod ProofMethod,
	minDwellSeconds int,
	quizKey *string,
	filePattern *string,
) *Campaign {
	now := time.Now().UTC()
	return &Campaign{
		FunderID:        funderID,
		Title:           title,
		TotalUnits:      totalUnits,
		RemainingUnits:  totalUnits,
		UnitPrice:       unitPrice,
		WorkerReward:    WorkerRewardFor(unitPrice, feePercent),
		ProofMethod:     proofMethod,
		MinDwellSeconds: minDwellSeconds,
		QuizKey:         quizKey,
		FilePattern:     filePattern,
		Status:          CampaignStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SubmissionStatus is the review state of a proof submission. The terminal
// states are set exactly once, by review or auto-timeout.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Submission is one worker's proof for one campaign unit. StartedAt is the
// server-recorded task start used for dwell checks; a client-reported timer
// is never trusted. AutoApproveAt, when set, is the instant past which a
// still-pending free-text submission resolves to approved.
type Submission struct {
	ID            int64            `db:"id" json:"id"`
	CampaignID    int64            `db:"campaign_id" json:"campaign_id"`
	WorkerID      int64            `db:"worker_id" json:"worker_id"`
	ProofText     *string          `db:"proof_text" json:"proof_text,omitempty"`
	ProofFileName *string          `db:"proof_file_name" json:"proof_file_name,omitempty"`
	StartedAt     *time.Time       `db:"started_at" json:"started_at,omitempty"`
	AutoApproveAt *time.Time       `db:"auto_approve_at" json:"auto_approve_at,omitempty"`
	Status        SubmissionStatus `db:"status" json:"status"`
	ReviewedAt    *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// NewSubmission creates a pending submission.
func NewSubmission(campaignID, workerID int64, proofText, proofFileName *string) *Submission {
	return &Submission{
		CampaignID:    campaignID,
		WorkerID:      workerID,
		ProofText:     proofText,
		ProofFileName: proofFileName,
		Status:        SubmissionStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

// Resolved reports whether the submission has reached a terminal state.
func (s *Submission) Resolved() bool {
	return s.Status != SubmissionStatusPending
}

// ReviewDecision is the verdict applied to a pending submission.
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionReject  ReviewDecision = "reject"
)
