package submitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftmerch/spod-order-importer/internal/config"
	"github.com/craftmerch/spod-order-importer/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		TestMode:    true,
		AccessToken: "test-token",
		Submission: config.SubmissionSettings{
			Concurrency:            5,
			TimeoutSeconds:         30,
			ReceiveTimeoutSeconds:  5,
			MaxIdleConns:           5,
			IdleConnTimeoutSeconds: 30,
		},
	}
}

func makeOrder(ref string) types.ConsolidatedOrder {
	return types.ConsolidatedOrder{
		OrderItems: []types.OrderItem{{
			SKU:                        "SKU1",
			ExternalOrderItemReference: ref + "-1",
			Quantity:                   1,
			CustomerPrice:              types.Price{Amount: 18.98, Currency: "EUR"},
		}},
		Phone: "+4915224260416",
		Shipping: types.Shipping{
			PreferredType: types.PreferredShippingType,
			Address:       types.Address{FirstName: "Shane", LastName: "Ogilvie", Country: "DE", City: "Berlin", Street: "Musterstrasse 1", ZipCode: "10115"},
			CustomerPrice: types.Price{Amount: 4.99, Currency: "EUR"},
		},
		ExternalOrderReference: ref,
		Currency:               "EUR",
		Email:                  "shane@example.com",
	}
}

func TestSubmitAllMixedResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		if payload["externalOrderReference"] == "2" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"error": "invalid order"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"orderReference": "remote-id"}`)
	}))
	defer server.Close()

	s := New(testConfig(), server.URL)
	results := s.SubmitAll(context.Background(), []types.ConsolidatedOrder{
		makeOrder("1"), makeOrder("2"), makeOrder("3"),
	})

	require.Len(t, results, 3)
	for i, result := range results {
		assert.Equal(t, i, result.Index)
	}

	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusCreated, results[0].Status)

	assert.False(t, results[1].Success)
	assert.Equal(t, http.StatusUnprocessableEntity, results[1].Status)
	assert.Equal(t, "invalid order", results[1].ErrorMessage())

	assert.True(t, results[2].Success)
}

func TestSubmitAllUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	s := New(testConfig(), server.URL)
	orders := []types.ConsolidatedOrder{makeOrder("1"), makeOrder("2"), makeOrder("3"), makeOrder("4")}
	results := s.SubmitAll(context.Background(), orders)

	require.Len(t, results, len(orders))
	for _, result := range results {
		assert.False(t, result.Success)
		assert.Equal(t, http.StatusInternalServerError, result.Status)
		assert.NotEmpty(t, result.ErrorMessage())
	}
}

func TestSubmitOneUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "whatever the server says"}`)
	}))
	defer server.Close()

	s := New(testConfig(), server.URL)
	result := s.SubmitOne(context.Background(), 0, makeOrder("1"))

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusUnauthorized, result.Status)
	// The actual body is ignored for 401.
	assert.Equal(t, "Unauthorized access", result.ErrorMessage())
}

func TestSubmitOneUnparsableSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	s := New(testConfig(), server.URL)
	result := s.SubmitOne(context.Background(), 0, makeOrder("1"))

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, "Invalid JSON response format", result.ErrorMessage())
}

func TestSubmitOneUnparsableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer server.Close()

	s := New(testConfig(), server.URL)
	result := s.SubmitOne(context.Background(), 0, makeOrder("1"))

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadGateway, result.Status)
	assert.Equal(t, "Invalid response format", result.ErrorMessage())
}

func TestSubmitOneTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	// Unblock the handler before Close waits on outstanding requests.
	defer server.Close()
	defer close(block)

	s := New(testConfig(), server.URL)
	s.timeout = 50 * time.Millisecond

	result := s.SubmitOne(context.Background(), 0, makeOrder("1"))

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusRequestTimeout, result.Status)
	assert.Equal(t, "Request timeout", result.ErrorMessage())
}

func TestSubmitAllBoundsConcurrency(t *testing.T) {
	var inflight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Submission.Concurrency = 2

	orders := make([]types.ConsolidatedOrder, 10)
	for i := range orders {
		orders[i] = makeOrder(fmt.Sprint(i))
	}

	results := New(cfg, server.URL).SubmitAll(context.Background(), orders)

	require.Len(t, results, 10)
	for _, result := range results {
		assert.True(t, result.Success)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestSubmitOneSendsCamelizedAuthenticatedPayload(t *testing.T) {
	var gotToken string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-SPOD-ACCESS-TOKEN")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	s := New(testConfig(), server.URL)
	result := s.SubmitOne(context.Background(), 0, makeOrder("1001"))
	require.True(t, result.Success)

	assert.Equal(t, "test-token", gotToken)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))

	assert.Contains(t, payload, "orderItems")
	assert.Contains(t, payload, "externalOrderReference")
	assert.Contains(t, payload, "billingAddress")
	assert.NotContains(t, payload, "order_items")

	items, ok := payload["orderItems"].([]any)
	require.True(t, ok)
	item, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, item, "customerPrice")
	assert.Contains(t, item, "externalOrderItemReference")
}

func TestSubmitAllRecoversPanics(t *testing.T) {
	s := New(testConfig(), "http://localhost:0")
	// A nil client panics inside the submission goroutine.
	s.client = nil

	results := s.SubmitAll(context.Background(), []types.ConsolidatedOrder{makeOrder("1")})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, http.StatusInternalServerError, results[0].Status)
	assert.Contains(t, results[0].ErrorMessage(), "panic")
}

func TestSubmitAllRetriesTransportFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg := testConfig()
	cfg.Submission.RetryCount = 2

	result := New(cfg, server.URL).SubmitOne(context.Background(), 0, makeOrder("1"))

	// Still a typed failure after exhausting retries, never a panic.
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
}
