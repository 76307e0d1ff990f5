package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kevinaaaquil/novel-tracker/backend/logger"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"github.com/kevinaaaquil/novel-tracker/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StatsHandler struct {
	DB *store.DB
}

// Get returns the caller's aggregate reading stats, or null when no book has
// been added yet. GET /api/stats/all
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	stats, err := h.DB.StatsForUser(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("stats: lookup failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

type updateProgressRequest struct {
	BookID         string   `json:"bookId"`
	PagesReadToday int      `json:"pagesReadToday"`
	CurrentPage    int      `json:"currentPage"`
	Rating         *float64 `json:"rating"`
}

// UpdateProgress records a reading session on one book and folds it into the
// caller's stats. Both documents are written sequentially with no transaction
// tying them together. PUT /api/stats/update
func (h *StatsHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req updateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
		return
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.BookByIDForUser(r.Context(), bookID, userID)
	if err != nil {
		logger.Log.WithError(err).Error("stats: book lookup failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.Error(w, `{"message":"Book not found"}`, http.StatusNotFound)
		return
	}
	stats, err := h.DB.StatsForUser(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("stats: lookup failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if stats == nil {
		// Stats are created on the first book add; a progress update for a
		// user with no stats document means the book predates the tracker.
		http.Error(w, `{"message":"Reading stats not found"}`, http.StatusNotFound)
		return
	}

	if err := book.ApplyReading(stats, req.PagesReadToday, req.CurrentPage, req.Rating, time.Now()); err != nil {
		if errors.Is(err, models.ErrPageOutOfRange) {
			http.Error(w, `{"message":"Current page cannot be greater than total pages"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	if err := h.DB.SaveStats(r.Context(), stats); err != nil {
		logger.Log.WithError(err).Error("stats: save failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.ReplaceBookProgress(r.Context(), bookID, book); err != nil {
		logger.Log.WithError(err).Error("stats: book save failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Progress and details updated successfully",
		"book":    book,
	})
}

type resetRereadRequest struct {
	BookID string `json:"bookId"`
}

// ResetReread clears a finished book's progress for another read. TimesRead
// and the aggregate stats keep the completed read counted. PUT /api/stats/reset
func (h *StatsHandler) ResetReread(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req resetRereadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
		return
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.BookByIDForUser(r.Context(), bookID, userID)
	if err != nil {
		logger.Log.WithError(err).Error("stats: book lookup failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.Error(w, `{"message":"Book not found"}`, http.StatusNotFound)
		return
	}
	if err := book.ResetForRereading(); err != nil {
		http.Error(w, `{"message":"You can't re-read an unfinished book"}`, http.StatusBadRequest)
		return
	}
	if err := h.DB.ReplaceBookProgress(r.Context(), bookID, book); err != nil {
		logger.Log.WithError(err).Error("stats: book save failed")
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Book reset for re-reading",
		"book":    book,
	})
}
