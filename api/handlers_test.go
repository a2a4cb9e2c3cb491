package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartranch/ranch-engine/api"
	"github.com/smartranch/ranch-engine/farm"
	"github.com/smartranch/ranch-engine/ledger"
	"github.com/smartranch/ranch-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := ledger.FixedClock{On: ledger.NewDate(2024, time.March, 15)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := farm.NewService(store, clock, nil, logger)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createFarmer(t *testing.T, srv *httptest.Server, name string) int64 {
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/farmers", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var farmer struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &farmer)
	return farmer.ID
}

func createPen(t *testing.T, srv *httptest.Server, farmerID int64) int64 {
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/pens", map[string]any{
		"farmer_id":      farmerID,
		"name":           "North pen",
		"livestock_type": "cattle",
		"capacity":       20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pen struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &pen)
	return pen.ID
}

// =============================================================================
// FARMER ENDPOINTS
// =============================================================================

func TestCreateAndGetFarmer(t *testing.T) {
	srv := newTestServer(t)
	id := createFarmer(t, srv, "Amina")

	resp, err := http.Get(fmt.Sprintf("%s/api/farmers/%d", srv.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var farmer struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, resp, &farmer)
	assert.Equal(t, id, farmer.ID)
	assert.Equal(t, "Amina", farmer.Name)
}

func TestGetFarmer_Missing_Returns404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/farmers/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateFarmer_MissingName_Returns400(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/farmers", map[string]any{"phone": "+255"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// FEED LOG ENDPOINTS
// =============================================================================

func TestCreateFeedLog_ReturnsRecordAndLedgerEntry(t *testing.T) {
	// GIVEN: A farmer with a pen
	// WHEN: Posting a 50 kg / 45-per-kg feed log
	// THEN: The response carries the record and its 2250.00 ledger entry

	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")
	penID := createPen(t, srv, farmerID)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/feed", map[string]any{
		"pen_id":      penID,
		"log_date":    "2024-03-10",
		"feed_type":   "hay",
		"quantity_kg": "50",
		"cost_per_kg": "45",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Record struct {
			ID        int64  `json:"id"`
			TotalCost string `json:"total_cost"`
		} `json:"record"`
		Entry *struct {
			Amount   string `json:"amount"`
			Category string `json:"category"`
			FarmerID int64  `json:"farmer_id"`
		} `json:"ledger_entry"`
	}
	decodeBody(t, resp, &out)

	assert.NotZero(t, out.Record.ID)
	require.NotNil(t, out.Entry)
	assert.True(t, ledger.MustDecimal(out.Entry.Amount).Equal(ledger.MustDecimal("2250")))
	assert.Equal(t, "Feed", out.Entry.Category)
	assert.Equal(t, farmerID, out.Entry.FarmerID)

	// The farmer's ledger shows the synced entry.
	ledgerResp, err := http.Get(fmt.Sprintf("%s/api/farmers/%d/ledger", srv.URL, farmerID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, ledgerResp.StatusCode)

	var entries []struct {
		Amount      string `json:"amount"`
		SourceTable string `json:"source_table"`
	}
	decodeBody(t, ledgerResp, &entries)
	require.Len(t, entries, 1)
	assert.True(t, ledger.MustDecimal(entries[0].Amount).Equal(ledger.MustDecimal("2250")))
	assert.Equal(t, "feed_logs", entries[0].SourceTable)
}

func TestDeleteFeedLog_RemovesLedgerEntry(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")
	penID := createPen(t, srv, farmerID)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/feed", map[string]any{
		"pen_id":      penID,
		"log_date":    "2024-03-10",
		"feed_type":   "hay",
		"quantity_kg": "50",
		"cost_per_kg": "45",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Record struct {
			ID int64 `json:"id"`
		} `json:"record"`
	}
	decodeBody(t, resp, &out)

	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/feed/%d", srv.URL, out.Record.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	ledgerResp, err := http.Get(fmt.Sprintf("%s/api/farmers/%d/ledger", srv.URL, farmerID))
	require.NoError(t, err)

	var entries []json.RawMessage
	decodeBody(t, ledgerResp, &entries)
	assert.Empty(t, entries)
}

func TestDeleteFeedLog_Missing_Returns404(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/feed/42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateFeedLog_BadDate_Returns400(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/feed", map[string]any{
		"pen_id":      1,
		"log_date":    "03/10/2024",
		"feed_type":   "hay",
		"quantity_kg": "50",
		"cost_per_kg": "45",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func TestCreateHealthRecord_NoCost_NullLedgerEntry(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")

	animalResp := doJSON(t, http.MethodPost, srv.URL+"/api/animals", map[string]any{
		"farmer_id":  farmerID,
		"tag_number": "COW-001",
		"sex":        "F",
	})
	require.Equal(t, http.StatusCreated, animalResp.StatusCode)
	var animal struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, animalResp, &animal)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/health", map[string]any{
		"animal_id":  animal.ID,
		"event_date": "2024-03-12",
		"event_type": "Checkup",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Entry *json.RawMessage `json:"ledger_entry"`
	}
	decodeBody(t, resp, &out)
	assert.Nil(t, out.Entry)
}

// =============================================================================
// FINANCE ENDPOINTS
// =============================================================================

func TestCreateManualEntry_Income(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/finance/entries", map[string]any{
		"farmer_id":   farmerID,
		"kind":        "Income",
		"category":    "Milk Sales",
		"description": "Weekly delivery",
		"amount":      "3400",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry struct {
		Kind   string `json:"kind"`
		Amount string `json:"amount"`
		Date   string `json:"date"`
	}
	decodeBody(t, resp, &entry)
	assert.Equal(t, "Income", entry.Kind)
	assert.True(t, ledger.MustDecimal(entry.Amount).Equal(ledger.MustDecimal("3400")))
	// Empty date defaults to the injected clock's today.
	assert.Equal(t, "2024-03-15", entry.Date)
}

func TestCreateManualEntry_BadKind_Returns400(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/finance/entries", map[string]any{
		"farmer_id": farmerID,
		"kind":      "Transfer",
		"category":  "Misc",
		"amount":    "10",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// PRODUCTION ENDPOINTS
// =============================================================================

func createAnimal(t *testing.T, srv *httptest.Server, farmerID int64, tag string) int64 {
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/animals", map[string]any{
		"farmer_id":  farmerID,
		"tag_number": tag,
		"sex":        "F",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var animal struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &animal)
	return animal.ID
}

func TestCreateMilkProduction_ListedPerAnimal_NoLedgerEntry(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")
	animalID := createAnimal(t, srv, farmerID, "COW-001")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/production/milk", map[string]any{
		"animal_id":       animalID,
		"production_date": "2024-03-10",
		"quantity_liters": "12.5",
		"notes":           "morning milking",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID             int64  `json:"id"`
		AnimalID       int64  `json:"animal_id"`
		ProductionDate string `json:"production_date"`
		QuantityLiters string `json:"quantity_liters"`
	}
	decodeBody(t, resp, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, animalID, created.AnimalID)
	assert.Equal(t, "2024-03-10", created.ProductionDate)
	assert.True(t, ledger.MustDecimal(created.QuantityLiters).Equal(ledger.MustDecimal("12.5")))

	resp, err := http.Get(fmt.Sprintf("%s/api/production/milk/animal/%d", srv.URL, animalID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var yields []struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &yields)
	assert.Len(t, yields, 1)

	// Production never touches the ledger.
	resp, err = http.Get(fmt.Sprintf("%s/api/farmers/%d/ledger", srv.URL, farmerID))
	require.NoError(t, err)
	var entries []json.RawMessage
	decodeBody(t, resp, &entries)
	assert.Empty(t, entries)
}

func TestCreateWeightRecord_NonPositiveWeight_Returns400(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")
	animalID := createAnimal(t, srv, farmerID, "COW-001")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/production/weight", map[string]any{
		"animal_id": animalID,
		"weight_kg": "0",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateWeightRecord_ListedPerAnimal(t *testing.T) {
	srv := newTestServer(t)
	farmerID := createFarmer(t, srv, "Amina")
	animalID := createAnimal(t, srv, farmerID, "COW-001")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/production/weight", map[string]any{
		"animal_id":   animalID,
		"record_date": "2024-03-12",
		"weight_kg":   "245.5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/production/weight/animal/%d", srv.URL, animalID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []struct {
		RecordDate string `json:"record_date"`
		WeightKg   string `json:"weight_kg"`
	}
	decodeBody(t, resp, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-03-12", records[0].RecordDate)
	assert.True(t, ledger.MustDecimal(records[0].WeightKg).Equal(ledger.MustDecimal("245.5")))
}
