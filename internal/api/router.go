// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskpay-engine/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	walletHandler *handler.WalletHandler,
	campaignHandler *handler.CampaignHandler,
	investmentHandler *handler.InvestmentHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Users and wallets
	r.Post("/users", walletHandler.CreateUser)
	r.Route("/wallets", func(r chi.Router) {
		r.Post("/{ownerID}/deposit", walletHandler.Deposit)
		r.Get("/{ownerID}", walletHandler.GetWallet)
		r.Get("/{ownerID}/ledger", walletHandler.GetLedger)
	})

	// Transfer is a separate top-level endpoint as it moves value between sub-balances
	r.Post("/transfers", walletHandler.Transfer)

	// Campaigns and the proof workflow
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", campaignHandler.CreateCampaign)
		r.Get("/{campaignID}", campaignHandler.GetCampaign)
		r.Post("/{campaignID}/toggle", campaignHandler.ToggleCampaign)
		r.Delete("/{campaignID}", campaignHandler.DeleteCampaign)
		r.Post("/{campaignID}/tasks/start", campaignHandler.StartTask)
		r.Post("/{campaignID}/submissions", campaignHandler.SubmitProof)
	})
	r.Post("/submissions/{submissionID}/review", campaignHandler.ReviewSubmission)

	// Investments
	r.Route("/investments", func(r chi.Router) {
		r.Post("/", investmentHandler.OpenPosition)
		r.Get("/{positionID}", investmentHandler.GetPosition)
		r.Post("/{positionID}/claim", investmentHandler.Claim)
	})
	r.Get("/plans", investmentHandler.ListPlans)

	return r
}
