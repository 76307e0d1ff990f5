package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kevinaaaquil/novel-tracker/backend/logger"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/service"
)

type QuoteHandler struct {
	Quotes *service.QuoteService
}

// Get fetches a welcome quote for the dashboard. GET /api/quote/get
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if h.Quotes == nil {
		http.Error(w, `{"message":"quote service not configured"}`, http.StatusServiceUnavailable)
		return
	}
	quote, err := h.Quotes.WelcomeQuote(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("quote: fetch failed")
		http.Error(w, `{"message":"Error fetching the welcome quote"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"quote": quote})
}
