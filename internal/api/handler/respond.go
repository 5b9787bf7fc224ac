// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"taskpay-engine/internal/api/types"
	"taskpay-engine/internal/util"
)

// DefaultTimeout bounds request handling at the router level.
const DefaultTimeout = 30 * time.Second

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithData(w http.ResponseWriter, logger *slog.Logger, code int, data any) {
	respondWithJSON(w, logger, code, types.Envelope{Success: true, Data: data})
}

// respondWithError maps the service error chain to an HTTP status and a
// stable reason code.
func respondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	reason := util.ReasonCode(err)

	var statusCode int
	switch reason {
	case util.CodeInvalidInput, util.CodeNonPositiveAmount:
		statusCode = http.StatusBadRequest
	case util.CodeInvalidDestination, util.CodeCampaignExhausted,
		util.CodeDwellNotMet, util.CodeNotYetEligible:
		statusCode = http.StatusUnprocessableEntity
	case util.CodeInsufficientFunds:
		statusCode = http.StatusPaymentRequired
	case util.CodeAlreadyResolved, util.CodeConsistencyFault, util.CodeDuplicateEntry:
		statusCode = http.StatusConflict
	case util.CodeNotFound:
		statusCode = http.StatusNotFound
	default:
		statusCode = http.StatusInternalServerError
		logger.Error("Unhandled service error", "error", err)
	}

	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		message = "Internal server error"
	}

	respondWithJSON(w, logger, statusCode, types.Envelope{
		Success:    false,
		ReasonCode: reason,
		Message:    message,
	})
}
