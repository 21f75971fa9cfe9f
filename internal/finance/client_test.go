package finance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise-cli/internal/api"
)

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   data,
	})
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := api.Config{BaseURL: srv.URL, UserAgent: "pennywise-cli/test"}
	authed := api.NewClient(cfg, nil)

	return NewClient(cfg, authed, http.DefaultTransport, "", 0)
}

func TestClient_LogText(t *testing.T) {
	t.Run("uses the remote parser", func(t *testing.T) {
		var body map[string]string

		mux := http.NewServeMux()
		mux.HandleFunc("POST /transactions/parse", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeData(w, map[string]any{
				"id": 1, "type": "expense", "amount": 4.5,
				"description": "coffee", "category": "food",
			})
		})

		client := newTestClient(t, mux)

		tx, err := client.LogText(context.Background(), "coffee 4.50")
		require.NoError(t, err)
		assert.Equal(t, "coffee 4.50", body["text"])
		assert.Equal(t, "expense", tx.Type)
		assert.InDelta(t, 4.5, tx.Amount, 0.001)
	})

	t.Run("falls back to the local parser when the remote one is down", func(t *testing.T) {
		var created Transaction

		mux := http.NewServeMux()
		mux.HandleFunc("POST /transactions/parse", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		mux.HandleFunc("POST /transactions", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			created.ID = 7
			writeData(w, created)
		})

		client := newTestClient(t, mux)

		tx, err := client.LogText(context.Background(), "coffee 4.50")
		require.NoError(t, err)
		assert.Equal(t, int64(7), tx.ID)
		assert.Equal(t, "expense", tx.Type)
		assert.InDelta(t, 4.5, tx.Amount, 0.001)
		assert.Equal(t, "coffee", tx.Description)
	})

	t.Run("a client error from the parser is not recovered locally", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /transactions/parse", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})

		client := newTestClient(t, mux)

		_, err := client.LogText(context.Background(), "coffee 4.50")
		require.Error(t, err)
		assert.True(t, api.IsStatus(err, http.StatusUnprocessableEntity))
	})
}

func TestClient_Recent(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32

		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			writeData(w, []map[string]any{
				{"id": 1, "type": "expense", "amount": 4.5, "description": "coffee"},
			})
		})

		client := newTestClient(t, mux)

		txs, err := client.Recent(context.Background(), 5)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32

		mux := http.NewServeMux()
		mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		})

		client := newTestClient(t, mux)

		_, err := client.Recent(context.Background(), 5)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_MonthlySummary(t *testing.T) {
	t.Run("serves repeat reads from the cache", func(t *testing.T) {
		var calls atomic.Int32

		mux := http.NewServeMux()
		mux.HandleFunc("GET /summary", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "2026-08", r.URL.Query().Get("month"))
			w.Header().Set("Cache-Control", "max-age=300")
			writeData(w, map[string]any{
				"month": "2026-08", "income": 3000.0, "expenses": 1200.0, "net": 1800.0,
			})
		})

		client := newTestClient(t, mux)

		first, err := client.MonthlySummary(context.Background(), "2026-08")
		require.NoError(t, err)
		assert.InDelta(t, 1800.0, first.Net, 0.001)

		second, err := client.MonthlySummary(context.Background(), "2026-08")
		require.NoError(t, err)
		assert.InDelta(t, 1800.0, second.Net, 0.001)

		assert.Equal(t, int32(1), calls.Load())
	})
}
