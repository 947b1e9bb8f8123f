package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/fundamentals/provider"
	"github.com/equitylab/stockrun/internal/persistence"
	"github.com/equitylab/stockrun/internal/signal"
)

type memSignalsRepo struct {
	signals []signal.Signal
}

func (r *memSignalsRepo) Insert(_ context.Context, sig signal.Signal) error {
	r.signals = append(r.signals, sig)
	return nil
}

func (r *memSignalsRepo) Latest(_ context.Context, limit int) ([]signal.Signal, error) {
	if limit > len(r.signals) {
		limit = len(r.signals)
	}
	return r.signals[:limit], nil
}

func testServer(t *testing.T, signals persistence.SignalsRepo) *Server {
	t.Helper()
	primary := provider.NewStatic("test", map[string]fundamentals.MetricsRecord{
		"AAPL": {
			PE:             fundamentals.Float(30),
			PB:             fundamentals.Float(5),
			MarketCap:      fundamentals.Float(3e12),
			Turnover20dAvg: fundamentals.Float(9e7),
		},
	})
	manager := fundamentals.NewManager(fundamentals.DefaultGateConfig(), nil, primary, nil, nil)
	return NewServer(DefaultServerConfig(), manager, signals, nil)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWhitelistEndpoint(t *testing.T) {
	srv := testServer(t, nil)

	t.Run("missing symbols is a bad request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whitelist", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("evaluates the gate per symbol", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whitelist?symbols=AAPL,%20GHOST,", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Whitelist []string                           `json:"whitelist"`
			Results   map[string]fundamentals.GateResult `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		assert.Equal(t, []string{"AAPL"}, body.Whitelist)
		require.Len(t, body.Results, 2)
		assert.False(t, body.Results["GHOST"].Passes)
		assert.Equal(t, fundamentals.ReasonNoData, body.Results["GHOST"].Reason)
	})
}

func TestLatestSignalsEndpoint(t *testing.T) {
	t.Run("unconfigured repo is unavailable", func(t *testing.T) {
		srv := testServer(t, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signals/latest", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("returns persisted signals", func(t *testing.T) {
		repo := &memSignalsRepo{}
		require.NoError(t, repo.Insert(context.Background(),
			signal.New(time.Now(), "AAPL", "1d", signal.SideLong, 150, 0.8, "ST↑")))

		srv := testServer(t, repo)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/signals/latest?limit=10", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Signals []signal.Signal `json:"signals"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Signals, 1)
		assert.Equal(t, "AAPL", body.Signals[0].Symbol)
	})
}
