// internal/api/handler/campaign.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/service"
	"taskpay-engine/internal/util"
)

// CampaignHandler handles HTTP requests for the escrow/campaign engine.
type CampaignHandler struct {
	campaigns service.CampaignService
	logger    *slog.Logger
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(campaigns service.CampaignService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		logger:    logger,
	}
}

// CreateCampaignRequest represents the request body for campaign creation.
type CreateCampaignRequest struct {
	FunderID        int64              `json:"funder_id"`
	Title           string             `json:"title"`
	TotalUnits      int                `json:"total_units"`
	UnitPrice       decimal.Decimal    `json:"unit_price"`
	ProofMethod     domain.ProofMethod `json:"proof_method"`
	MinDwellSeconds int                `json:"min_dwell_seconds,omitempty"`
	QuizKey         *string            `json:"quiz_key,omitempty"`
	FilePattern     *string            `json:"file_pattern,omitempty"`
}

// CreateCampaign handles campaign creation and budget escrow.
// POST /campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	campaign, err := h.campaigns.CreateCampaign(r.Context(), service.CreateCampaignInput{
		FunderID:        req.FunderID,
		Title:           req.Title,
		TotalUnits:      req.TotalUnits,
		UnitPrice:       req.UnitPrice,
		ProofMethod:     req.ProofMethod,
		MinDwellSeconds: req.MinDwellSeconds,
		QuizKey:         req.QuizKey,
		FilePattern:     req.FilePattern,
	})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusCreated, campaign)
}

// GetCampaign returns one campaign.
// GET /campaigns/{campaignID}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseID(r, "campaignID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	campaign, err := h.campaigns.GetCampaign(r.Context(), campaignID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, campaign)
}

// StartTaskRequest represents the request body for a task start.
type StartTaskRequest struct {
	WorkerID int64 `json:"worker_id"`
}

// StartTask records the server-side task start used for dwell checks.
// POST /campaigns/{campaignID}/tasks/start
func (h *CampaignHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseID(r, "campaignID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	var req StartTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	if err := h.campaigns.StartTask(r.Context(), campaignID, req.WorkerID); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, nil)
}

// SubmitProofRequest represents the request body for a proof submission.
type SubmitProofRequest struct {
	WorkerID    int64    `json:"worker_id"`
	ProofText   *string  `json:"proof_text,omitempty"`
	FileName    *string  `json:"file_name,omitempty"`
	QuizAnswers []string `json:"quiz_answers,omitempty"`
}

// SubmitProof handles a worker's proof submission.
// POST /campaigns/{campaignID}/submissions
func (h *CampaignHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseID(r, "campaignID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	var req SubmitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	sub, err := h.campaigns.SubmitProof(r.Context(), service.SubmitProofInput{
		CampaignID:  campaignID,
		WorkerID:    req.WorkerID,
		ProofText:   req.ProofText,
		FileName:    req.FileName,
		QuizAnswers: req.QuizAnswers,
	})
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusCreated, sub)
}

// ReviewSubmissionRequest represents the request body for a review verdict.
type ReviewSubmissionRequest struct {
	Decision domain.ReviewDecision `json:"decision"`
}

// ReviewSubmission applies the terminal decision to a pending submission.
// POST /submissions/{submissionID}/review
func (h *CampaignHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := parseID(r, "submissionID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	var req ReviewSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	sub, err := h.campaigns.ReviewSubmission(r.Context(), submissionID, req.Decision)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, sub)
}

// ToggleCampaign pauses or resumes a campaign.
// POST /campaigns/{campaignID}/toggle
func (h *CampaignHandler) ToggleCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseID(r, "campaignID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	campaign, err := h.campaigns.ToggleCampaign(r.Context(), campaignID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, campaign)
}

// DeleteCampaign removes a campaign.
// DELETE /campaigns/{campaignID}
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, err := parseID(r, "campaignID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	if err := h.campaigns.DeleteCampaign(r.Context(), campaignID); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, nil)
}
