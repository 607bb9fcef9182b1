package integration

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"fundflow/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrency_SubmissionsCannotOvercommit fires parallel withdrawal
// submissions against a single campaign and verifies the reserved-balance
// check never lets the combined reservations exceed the raised total. The
// campaign row lock serializes the balance validation, so losers observe
// the winners' pending requests.
func TestConcurrency_SubmissionsCannotOvercommit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	const raised = int64(100000)
	const perRequest = int64(40000)
	const workers = 8

	organizer, campaign := app.seedCampaign(raised)
	token := app.token(t, organizer)

	var wg sync.WaitGroup
	var created atomic.Int64
	var rejected atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, env := app.doJSON(t, http.MethodPost, "/api/v1/withdrawals", token,
				submissionBody(campaign.ID, perRequest), nil)
			switch status {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusBadRequest:
				if env["error_code"] == "WDR_001" {
					rejected.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	t.Logf("concurrent submissions: %d created, %d rejected", created.Load(), rejected.Load())

	// 100000 raised / 40000 each: at most 2 requests fit.
	assert.Equal(t, int64(2), created.Load(), "exactly two submissions fit the raised total")
	assert.Equal(t, int64(workers-2), rejected.Load(), "the rest must fail with insufficient funds")

	// The persisted reservations never exceed what was raised.
	reserved, err := app.withdrawalRepo.SumByCampaignAndStatuses(
		context.Background(), campaign.ID, domain.ReservedStatuses)
	require.NoError(t, err)
	assert.LessOrEqual(t, reserved, raised)
}

// TestConcurrency_StatusTransitionRace has two admins act on the same
// pending request at once. The conditional update lets exactly one
// transition through; the loser gets a state conflict.
func TestConcurrency_StatusTransitionRace(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	organizer, campaign := app.seedCampaign(200000)
	admin := app.seedAdmin()
	orgToken := app.token(t, organizer)
	adminToken := app.token(t, admin)

	status, env := app.doJSON(t, http.MethodPost, "/api/v1/withdrawals", orgToken,
		submissionBody(campaign.ID, 50000), nil)
	require.Equal(t, http.StatusCreated, status, "body: %v", env)
	requestID := env["data"].(map[string]interface{})["id"].(string)

	const workers = 4
	var wg sync.WaitGroup
	var succeeded atomic.Int64
	var conflicted atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, env := app.doJSON(t, http.MethodPatch,
				"/api/v1/admin/withdrawals/"+requestID+"/status", adminToken,
				`{"status": "approved", "review_notes": "race"}`, nil)
			switch status {
			case http.StatusOK:
				succeeded.Add(1)
			case http.StatusConflict:
				if env["error_code"] == "WDR_002" {
					conflicted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), succeeded.Load(), "exactly one transition may win")
	assert.Equal(t, int64(workers-1), conflicted.Load(), "losers must see a state conflict")

	stored, err := app.withdrawalRepo.GetByID(context.Background(), uuid.MustParse(requestID))
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.WithdrawalStatusApproved, stored.Status)
}

// TestConcurrency_SequentialAfterCompletion verifies a full drain: once
// completed requests consume the balance, further submissions fail even
// without racing.
func TestConcurrency_SequentialAfterCompletion(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	organizer, campaign := app.seedCampaign(60000)
	admin := app.seedAdmin()
	orgToken := app.token(t, organizer)
	adminToken := app.token(t, admin)

	status, env := app.doJSON(t, http.MethodPost, "/api/v1/withdrawals", orgToken,
		submissionBody(campaign.ID, 60000), nil)
	require.Equal(t, http.StatusCreated, status, "body: %v", env)
	requestID := env["data"].(map[string]interface{})["id"].(string)

	status, _ = app.doJSON(t, http.MethodPatch, "/api/v1/admin/withdrawals/"+requestID+"/status", adminToken,
		`{"status": "approved"}`, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = app.doJSON(t, http.MethodPatch, "/api/v1/admin/withdrawals/"+requestID+"/status", adminToken,
		`{"status": "completed", "transaction_reference": "WIRE-DRAIN-1"}`, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = app.doJSON(t, http.MethodPost, "/api/v1/withdrawals", orgToken,
		submissionBody(campaign.ID, 1000), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "WDR_001", env["error_code"])

	details := env["details"].(map[string]interface{})
	assert.Equal(t, float64(0), details["available"])
}
