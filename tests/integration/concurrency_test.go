package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentCreates_SameKey fires many concurrent create requests
// carrying the same Idempotency-Key. Exactly one payout row may exist
// afterwards, the wallet may be debited exactly once, and every request
// must receive that same payout back.
func TestConcurrentCreates_SameKey(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "racer")
	benefID := createBeneficiary(t, app, token)

	concurrency := 20
	body := fmt.Sprintf(`{"beneficiary_id":"%s","amount":"50"}`, benefID)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	payoutIDs := make([]string, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payouts", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Idempotency-Key", "race-key-001")

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()

			if r.StatusCode == http.StatusCreated || r.StatusCode == http.StatusOK {
				successCount.Add(1)
				var result struct {
					Data struct {
						Payout struct {
							ID string `json:"id"`
						} `json:"payout"`
					} `json:"data"`
				}
				_ = json.NewDecoder(r.Body).Decode(&result)
				payoutIDs[idx] = result.Data.Payout.ID
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int64(concurrency), successCount.Load(), "every request should resolve to the payout")

	uniqueIDs := make(map[string]struct{})
	for _, id := range payoutIDs {
		if id != "" {
			uniqueIDs[id] = struct{}{}
		}
	}
	assert.Len(t, uniqueIDs, 1, "same key must resolve to a single payout")

	// Debited exactly once
	assert.Equal(t, "950", walletBalance(t, app, token))

	// And the list confirms a single row
	listResp := doAuthed(t, app, token, http.MethodGet, "/api/v1/payouts", nil, nil)
	defer listResp.Body.Close()
	listData := decodeData(t, listResp)
	assert.Equal(t, float64(1), listData["total"])
}

// TestConcurrentCreates_Overspend fires concurrent payouts whose total
// exceeds the wallet balance. The conditional debit must admit only as
// many as the balance covers, and the balance must never go negative.
func TestConcurrentCreates_Overspend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "spender")
	benefID := createBeneficiary(t, app, token)

	// Balance 1000, 10 concurrent payouts of 200 each: exactly 5 fit.
	concurrency := 10
	body := fmt.Sprintf(`{"beneficiary_id":"%s","amount":"200"}`, benefID)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var rejectedCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payouts", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusCreated:
				successCount.Add(1)
			case http.StatusBadRequest:
				rejectedCount.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(5), successCount.Load(), "only what the balance covers may be created")
	assert.Equal(t, int64(5), rejectedCount.Load())
	assert.Equal(t, "0", walletBalance(t, app, token))
}

// TestConcurrentSettles verifies that racing settlement requests produce
// exactly one winner and exactly one balance movement.
func TestConcurrentSettles(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "settler")
	benefID := createBeneficiary(t, app, token)

	resp, data := createPayout(t, app, token, benefID, "50", "")
	resp.Body.Close()
	payoutID := data["payout"].(map[string]interface{})["id"].(string)

	concurrency := 20
	var wg sync.WaitGroup
	var winners atomic.Int64
	var losers atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body := bytes.NewBufferString(`{"outcome":"success"}`)
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payouts/"+payoutID+"/settle", body)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			if r.StatusCode == http.StatusOK {
				winners.Add(1)
			} else {
				losers.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), winners.Load(), "exactly one settle may win")
	assert.Equal(t, int64(concurrency-1), losers.Load())

	// Beneficiary credited exactly once
	listResp := doAuthed(t, app, token, http.MethodGet, "/api/v1/beneficiaries", nil, nil)
	defer listResp.Body.Close()
	listData := decodeData(t, listResp)
	items := listData["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "50", items[0].(map[string]interface{})["balance"])
}

// TestConcurrentSettles_MixedOutcomes races success against failure on the
// same payout. Whichever wins, value is conserved: the amount lands either
// with the beneficiary or back in the wallet, never both and never neither.
func TestConcurrentSettles_MixedOutcomes(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "mixer")
	benefID := createBeneficiary(t, app, token)

	resp, data := createPayout(t, app, token, benefID, "50", "")
	resp.Body.Close()
	payoutID := data["payout"].(map[string]interface{})["id"].(string)

	outcomes := []string{"success", "failure", "success", "failure", "success", "failure"}
	var wg sync.WaitGroup
	var winners atomic.Int64

	for _, outcome := range outcomes {
		wg.Add(1)
		go func(outcome string) {
			defer wg.Done()

			body := bytes.NewBufferString(fmt.Sprintf(`{"outcome":"%s"}`, outcome))
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/payouts/"+payoutID+"/settle", body)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			if r.StatusCode == http.StatusOK {
				winners.Add(1)
			}
		}(outcome)
	}

	wg.Wait()

	assert.Equal(t, int64(1), winners.Load())

	wallet := decimal.RequireFromString(walletBalance(t, app, token))

	listResp := doAuthed(t, app, token, http.MethodGet, "/api/v1/beneficiaries", nil, nil)
	defer listResp.Body.Close()
	listData := decodeData(t, listResp)
	items := listData["items"].([]interface{})
	require.Len(t, items, 1)
	benef := decimal.RequireFromString(items[0].(map[string]interface{})["balance"].(string))

	// Conservation: seed amount fully accounted for across the two balances.
	assert.True(t, wallet.Add(benef).Equal(decimal.NewFromInt(1000)),
		"wallet %s + beneficiary %s must equal the seeded 1000", wallet, benef)
}
