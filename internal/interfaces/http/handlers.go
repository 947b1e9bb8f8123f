package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/equitylab/stockrun/internal/fundamentals"
	"github.com/equitylab/stockrun/internal/persistence"
)

type handlers struct {
	manager *fundamentals.Manager
	signals persistence.SignalsRepo
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// whitelist evaluates the fundamentals gate for ?symbols=a,b,c and returns
// the passing set plus per-symbol diagnostics.
func (h *handlers) whitelist(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "symbols query parameter is required"})
		return
	}
	symbols := splitSymbols(raw)
	force := r.URL.Query().Get("refresh") == "true"

	whitelist, results := h.manager.BuildWhitelist(r.Context(), symbols, force)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"whitelist": whitelist,
		"results":   results,
	})
}

func (h *handlers) latestSignals(w http.ResponseWriter, r *http.Request) {
	if h.signals == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "signal persistence is not configured"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	signals, err := h.signals.Latest(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load latest signals")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load signals"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"signals": signals})
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode http response")
	}
}
