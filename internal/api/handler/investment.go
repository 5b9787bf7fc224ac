// internal/api/handler/investment.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"taskpay-engine/internal/service"
	"taskpay-engine/internal/util"
)

// InvestmentHandler handles HTTP requests for investment plans and positions.
type InvestmentHandler struct {
	investments service.InvestmentService
	logger      *slog.Logger
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investments service.InvestmentService, logger *slog.Logger) *InvestmentHandler {
	return &InvestmentHandler{
		investments: investments,
		logger:      logger,
	}
}

// OpenPositionRequest represents the request body for opening a position.
type OpenPositionRequest struct {
	OwnerID int64           `json:"owner_id"`
	PlanID  int64           `json:"plan_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// OpenPosition opens a position against an active plan.
// POST /investments
func (h *InvestmentHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req OpenPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	position, err := h.investments.Open(r.Context(), req.OwnerID, req.PlanID, req.Amount)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusCreated, position)
}

// claimResponse pairs the updated position with the payout just credited.
type claimResponse struct {
	Position interface{}     `json:"position"`
	Payout   decimal.Decimal `json:"payout"`
}

// Claim pays out one accrual window on a position.
// POST /investments/{positionID}/claim
func (h *InvestmentHandler) Claim(w http.ResponseWriter, r *http.Request) {
	positionID, err := parseID(r, "positionID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	position, payout, err := h.investments.Claim(r.Context(), positionID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, claimResponse{Position: position, Payout: payout})
}

// ListPlans returns all active investment plans.
// GET /plans
func (h *InvestmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.investments.ListPlans(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, plans)
}

// GetPosition returns one position.
// GET /investments/{positionID}
func (h *InvestmentHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	positionID, err := parseID(r, "positionID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	position, err := h.investments.GetPosition(r.Context(), positionID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, position)
}
