// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "taskpay-engine/internal"
	"taskpay-engine/internal/domain"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	// 1. Set up environment variables (ensure DB_NAME points to the test database).
	setupEnvVars()

	// 2. Initialize the application. Migrations run as part of Initialize.
	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	// 3. Start an httptest server to test the HTTP handling layer.
	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	// 4. Run all tests.
	code := m.Run()

	// 5. Shut down application resources after tests.
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// setupEnvVars sets the database environment variables required for testing.
func setupEnvVars() {
	if os.Getenv("SERVER_PORT") == "" {
		os.Setenv("SERVER_PORT", "8080")
	}
	if os.Getenv("DB_HOST") == "" {
		os.Setenv("DB_HOST", "localhost")
	}
	if os.Getenv("DB_PORT") == "" {
		os.Setenv("DB_PORT", "5432")
	}
	if os.Getenv("DB_USER") == "" {
		os.Setenv("DB_USER", "user")
	}
	if os.Getenv("DB_PASSWORD") == "" {
		os.Setenv("DB_PASSWORD", "password")
	}
	if os.Getenv("DB_NAME") == "" {
		os.Setenv("DB_NAME", "taskpaydb_test")
	}
	if os.Getenv("DB_SSLMODE") == "" {
		os.Setenv("DB_SSLMODE", "disable")
	}
}

// clearDatabase truncates the mutable tables so each test starts clean. Seeded
// configuration (referral tiers, investment plans) survives.
func clearDatabase(t *testing.T) {
	tables := []string{"ledger_entries", "task_starts", "submissions", "campaigns", "investment_positions", "wallets", "users"}
	for _, table := range tables {
		_, err := testApp.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", table))
		require.NoError(t, err, "Failed to truncate table %s", table)
	}
}

// envelope mirrors the API response wrapper with a raw payload.
type envelope struct {
	Success    bool            `json:"success"`
	ReasonCode string          `json:"reason_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// makeRequest sends an HTTP request to the test server.
func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, envelope) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(respBody, &env), "response body: %s", string(respBody))
	return resp, env
}

// createTestUser provisions a user and wallet through the API and returns the
// user id (which is also the wallet owner id).
func createTestUser(t *testing.T, username string, referrerID *int64) int64 {
	payload := map[string]any{"username": username}
	if referrerID != nil {
		payload["referrer_id"] = *referrerID
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, env := makeRequest(t, "POST", "/users", strings.NewReader(string(body)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var data struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.User.ID
}

// deposit tops up an owner's deposit balance through the API.
func deposit(t *testing.T, ownerID int64, amount string) {
	body := fmt.Sprintf(`{"amount": "%s"}`, amount)
	resp, _ := makeRequest(t, "POST", fmt.Sprintf("/wallets/%d/deposit", ownerID), strings.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// getWallet fetches an owner's wallet through the API.
func getWallet(t *testing.T, ownerID int64) domain.Wallet {
	resp, env := makeRequest(t, "GET", fmt.Sprintf("/wallets/%d", ownerID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wallet domain.Wallet
	require.NoError(t, json.Unmarshal(env.Data, &wallet))
	return wallet
}

func TestDepositCascadeIntegration(t *testing.T) {
	clearDatabase(t)

	// A three-deep referral chain: worker3 <- worker2 <- worker1.
	user1 := createTestUser(t, "cascade_user1", nil)
	user2 := createTestUser(t, "cascade_user2", &user1)
	user3 := createTestUser(t, "cascade_user3", &user2)

	deposit(t, user3, "100")

	wallet3 := getWallet(t, user3)
	assert.True(t, decimal.NewFromInt(100).Equal(wallet3.Deposit))

	// The seeded deposit tiers pay 10% at level 1 and 5% at level 2.
	wallet2 := getWallet(t, user2)
	assert.True(t, decimal.NewFromInt(10).Equal(wallet2.Commission), "level 1 commission, got %s", wallet2.Commission)

	wallet1 := getWallet(t, user1)
	assert.True(t, decimal.NewFromInt(5).Equal(wallet1.Commission), "level 2 commission, got %s", wallet1.Commission)
}

func TestTransferIntegration(t *testing.T) {
	clearDatabase(t)
	ownerID := createTestUser(t, "transfer_user", nil)
	deposit(t, ownerID, "200")

	t.Run("AllowedDestination", func(t *testing.T) {
		body := fmt.Sprintf(`{"owner_id": %d, "from": "deposit", "to": "investment", "amount": "50"}`, ownerID)
		resp, env := makeRequest(t, "POST", "/transfers", strings.NewReader(body))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var wallet domain.Wallet
		require.NoError(t, json.Unmarshal(env.Data, &wallet))
		assert.True(t, decimal.NewFromInt(150).Equal(wallet.Deposit))
		assert.True(t, decimal.NewFromInt(50).Equal(wallet.Investment))
		assert.True(t, decimal.NewFromInt(200).Equal(wallet.Aggregate), "aggregate unchanged by internal moves")
	})

	t.Run("DisallowedDestination", func(t *testing.T) {
		body := fmt.Sprintf(`{"owner_id": %d, "from": "deposit", "to": "main", "amount": "10"}`, ownerID)
		resp, env := makeRequest(t, "POST", "/transfers", strings.NewReader(body))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "INVALID_DESTINATION", env.ReasonCode)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		body := fmt.Sprintf(`{"owner_id": %d, "from": "deposit", "to": "game", "amount": "9999"}`, ownerID)
		resp, env := makeRequest(t, "POST", "/transfers", strings.NewReader(body))

		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Equal(t, "INSUFFICIENT_FUNDS", env.ReasonCode)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		body := fmt.Sprintf(`{"owner_id": %d, "from": "main", "to": "game", "amount": "0"}`, ownerID)
		resp, env := makeRequest(t, "POST", "/transfers", strings.NewReader(body))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NON_POSITIVE_AMOUNT", env.ReasonCode)
	})
}

func TestCampaignLifecycleIntegration(t *testing.T) {
	clearDatabase(t)
	funderID := createTestUser(t, "campaign_funder", nil)
	workerID := createTestUser(t, "campaign_worker", nil)
	deposit(t, funderID, "100")

	// Create a 10-unit screenshot campaign at 5.00 per unit.
	createBody := fmt.Sprintf(`{"funder_id": %d, "title": "install app", "total_units": 10, "unit_price": "5", "proof_method": "screenshot"}`, funderID)
	resp, env := makeRequest(t, "POST", "/campaigns", strings.NewReader(createBody))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var campaign domain.Campaign
	require.NoError(t, json.Unmarshal(env.Data, &campaign))
	assert.Equal(t, 10, campaign.RemainingUnits)

	// 50.00 escrowed out of the funder's deposit balance.
	funderWallet := getWallet(t, funderID)
	assert.True(t, decimal.NewFromInt(50).Equal(funderWallet.Deposit))

	submit := func() domain.Submission {
		body := fmt.Sprintf(`{"worker_id": %d, "file_name": "proof.png"}`, workerID)
		resp, env := makeRequest(t, "POST", fmt.Sprintf("/campaigns/%d/submissions", campaign.ID), strings.NewReader(body))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var sub domain.Submission
		require.NoError(t, json.Unmarshal(env.Data, &sub))
		return sub
	}

	t.Run("ApprovalPaysWorker", func(t *testing.T) {
		sub := submit()

		resp, env := makeRequest(t, "POST", fmt.Sprintf("/submissions/%d/review", sub.ID), strings.NewReader(`{"decision": "approve"}`))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var resolved domain.Submission
		require.NoError(t, json.Unmarshal(env.Data, &resolved))
		assert.Equal(t, domain.SubmissionStatusApproved, resolved.Status)

		// Default 20% platform fee leaves 4.00 of the 5.00 unit.
		workerWallet := getWallet(t, workerID)
		assert.True(t, decimal.NewFromInt(4).Equal(workerWallet.Earning), "got %s", workerWallet.Earning)
	})

	t.Run("DoubleReviewConflicts", func(t *testing.T) {
		sub := submit()
		resp, _ := makeRequest(t, "POST", fmt.Sprintf("/submissions/%d/review", sub.ID), strings.NewReader(`{"decision": "approve"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, env := makeRequest(t, "POST", fmt.Sprintf("/submissions/%d/review", sub.ID), strings.NewReader(`{"decision": "reject"}`))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_RESOLVED", env.ReasonCode)
	})

	t.Run("RejectionRefundsFunder", func(t *testing.T) {
		before := getWallet(t, funderID)
		sub := submit()

		resp, _ := makeRequest(t, "POST", fmt.Sprintf("/submissions/%d/review", sub.ID), strings.NewReader(`{"decision": "reject"}`))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		after := getWallet(t, funderID)
		assert.True(t, before.Deposit.Add(decimal.NewFromInt(5)).Equal(after.Deposit), "full unit price returns on rejection")
	})

	t.Run("PausedCampaignRejectsSubmissions", func(t *testing.T) {
		resp, _ := makeRequest(t, "POST", fmt.Sprintf("/campaigns/%d/toggle", campaign.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := fmt.Sprintf(`{"worker_id": %d, "file_name": "proof.png"}`, workerID)
		resp, env := makeRequest(t, "POST", fmt.Sprintf("/campaigns/%d/submissions", campaign.ID), strings.NewReader(body))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "CAMPAIGN_EXHAUSTED", env.ReasonCode)

		resp, _ = makeRequest(t, "POST", fmt.Sprintf("/campaigns/%d/toggle", campaign.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestInvestmentIntegration(t *testing.T) {
	clearDatabase(t)
	ownerID := createTestUser(t, "investor", nil)
	deposit(t, ownerID, "500")

	// Move funds to the investment balance first; deposits cannot be invested
	// directly.
	body := fmt.Sprintf(`{"owner_id": %d, "from": "deposit", "to": "investment", "amount": "300"}`, ownerID)
	resp, _ := makeRequest(t, "POST", "/transfers", strings.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Pick a seeded plan.
	resp, env := makeRequest(t, "GET", "/plans", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var plans []domain.InvestmentPlan
	require.NoError(t, json.Unmarshal(env.Data, &plans))
	require.NotEmpty(t, plans)
	plan := plans[0]

	openBody := fmt.Sprintf(`{"owner_id": %d, "plan_id": %d, "amount": "%s"}`, ownerID, plan.ID, plan.MinInvest.String())
	resp, env = makeRequest(t, "POST", "/investments", strings.NewReader(openBody))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pos domain.InvestmentPosition
	require.NoError(t, json.Unmarshal(env.Data, &pos))
	assert.Equal(t, domain.PositionStatusActive, pos.Status)

	wallet := getWallet(t, ownerID)
	assert.True(t, decimal.NewFromInt(300).Sub(plan.MinInvest).Equal(wallet.Investment))

	t.Run("ClaimBeforeWindowRejected", func(t *testing.T) {
		resp, env := makeRequest(t, "POST", fmt.Sprintf("/investments/%d/claim", pos.ID), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "NOT_YET_ELIGIBLE", env.ReasonCode)
	})
}

func TestLedgerIntegration(t *testing.T) {
	clearDatabase(t)
	ownerID := createTestUser(t, "ledger_user", nil)
	deposit(t, ownerID, "100")

	body := fmt.Sprintf(`{"owner_id": %d, "from": "deposit", "to": "game", "amount": "30"}`, ownerID)
	resp, _ := makeRequest(t, "POST", "/transfers", strings.NewReader(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := makeRequest(t, "GET", fmt.Sprintf("/wallets/%d/ledger?limit=10&offset=0", ownerID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Data       []domain.LedgerEntry `json:"data"`
		TotalCount int64                `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	// One deposit credit plus two transfer legs.
	assert.Equal(t, int64(3), page.TotalCount)

	sum := decimal.Zero
	for _, entry := range page.Data {
		assert.Equal(t, ownerID, entry.OwnerID)
		switch {
		case entry.BalanceAfter.GreaterThanOrEqual(entry.BalanceBefore):
			sum = sum.Add(entry.Amount)
		default:
			sum = sum.Sub(entry.Amount)
		}
	}
	// 100 in, minus 30 and plus 30 across the transfer legs.
	assert.True(t, decimal.NewFromInt(100).Equal(sum), "ledger movements must reconcile, got %s", sum)

	wallet := getWallet(t, ownerID)
	assert.True(t, decimal.NewFromInt(100).Equal(wallet.Aggregate))
}
