// internal/api/handler/wallet.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"taskpay-engine/internal/api/types"
	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/service"
	"taskpay-engine/internal/util"
)

// WalletHandler handles HTTP requests for wallets, deposits, transfers and
// ledger history.
type WalletHandler struct {
	wallets   service.WalletService
	transfers service.TransferService
	logger    *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets service.WalletService, transfers service.TransferService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		wallets:   wallets,
		transfers: transfers,
		logger:    logger,
	}
}

func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		return 0, util.ErrInvalidInput
	}
	return id, nil
}

// CreateUserRequest represents the request body for account provisioning.
type CreateUserRequest struct {
	Username   string `json:"username"`
	ReferrerID *int64 `json:"referrer_id,omitempty"`
}

// CreateUser handles account provisioning.
// POST /users
func (h *WalletHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if req.Username == "" {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	user, wallet, err := h.wallets.CreateUserAndWallet(r.Context(), req.Username, req.ReferrerID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusCreated, map[string]any{
		"user":   user,
		"wallet": wallet,
	})
}

// DepositRequest represents the request body for an external top-up.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Deposit handles an external top-up of the deposit balance.
// POST /wallets/{ownerID}/deposit
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseID(r, "ownerID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	wallet, err := h.wallets.Deposit(r.Context(), ownerID, req.Amount)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, wallet)
}

// GetWallet returns the owner's balances.
// GET /wallets/{ownerID}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseID(r, "ownerID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	wallet, err := h.wallets.GetWallet(r.Context(), ownerID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, wallet)
}

// GetLedger returns a page of the owner's audit trail.
// GET /wallets/{ownerID}/ledger?limit=&offset=
func (h *WalletHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseID(r, "ownerID")
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	limit := 20
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 || limit > 100 {
			respondWithError(w, h.logger, util.ErrInvalidInput)
			return
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			respondWithError(w, h.logger, util.ErrInvalidInput)
			return
		}
	}

	entries, total, err := h.wallets.GetLedger(r.Context(), ownerID, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.LedgerEntry]{
		Data:       entries,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// TransferRequest represents the request body for an internal transfer.
type TransferRequest struct {
	OwnerID int64              `json:"owner_id"`
	From    domain.BalanceName `json:"from"`
	To      domain.BalanceName `json:"to"`
	Amount  decimal.Decimal    `json:"amount"`
}

// Transfer handles an internal move between two named balances of one owner.
// POST /transfers
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	wallet, err := h.transfers.Transfer(r.Context(), req.OwnerID, req.From, req.To, req.Amount)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithData(w, h.logger, http.StatusOK, wallet)
}
