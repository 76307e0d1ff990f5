package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/novel-tracker/backend/logger"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"github.com/kevinaaaquil/novel-tracker/backend/service"
	"github.com/kevinaaaquil/novel-tracker/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BooksHandler struct {
	DB       *store.DB
	S3       *service.S3Service
	MaxBytes int64
}

type bookForm struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	NumberOfPages int    `json:"numberOfPages"`
}

// validateBookForm checks the user-supplied book fields and returns the
// rejection message for the first failing rule.
func validateBookForm(f *bookForm) (string, bool) {
	if len(strings.TrimSpace(f.Title)) < 3 {
		return "Title must be at least 3 characters long.", false
	}
	if len(strings.TrimSpace(f.Author)) < 3 {
		return "Author name must be at least 3 characters long.", false
	}
	if len(strings.TrimSpace(f.Description)) < 10 {
		return "Description must be at least 10 characters long.", false
	}
	if f.NumberOfPages <= 0 {
		return "Number of pages must be a positive integer.", false
	}
	return "", true
}

func (h *BooksHandler) readBookForm(w http.ResponseWriter, r *http.Request) (*bookForm, bool, bool) {
	var form bookForm
	multipart := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
	if multipart {
		if h.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
		}
		if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
			http.Error(w, `{"message":"failed to parse form"}`, http.StatusBadRequest)
			return nil, false, false
		}
		form.Title = r.FormValue("title")
		form.Author = r.FormValue("author")
		form.Description = r.FormValue("description")
		pages, err := strconv.Atoi(r.FormValue("numberOfPages"))
		if err != nil {
			http.Error(w, `{"message":"Number of pages must be a positive integer."}`, http.StatusBadRequest)
			return nil, false, false
		}
		form.NumberOfPages = pages
	} else {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
			return nil, false, false
		}
	}
	if msg, ok := validateBookForm(&form); !ok {
		http.Error(w, `{"message":"`+msg+`"}`, http.StatusBadRequest)
		return nil, false, false
	}
	return &form, multipart, true
}

// uploadBookImage stores an attached bookImage file, if any, and returns its
// key and public URL.
func (h *BooksHandler) uploadBookImage(w http.ResponseWriter, r *http.Request) (key, url string, ok bool) {
	file, header, err := r.FormFile("bookImage")
	if err != nil {
		return "", "", true // no image attached
	}
	defer file.Close()
	if h.S3 == nil {
		http.Error(w, `{"message":"image upload not configured"}`, http.StatusServiceUnavailable)
		return "", "", false
	}
	key, err = h.S3.Upload(r.Context(), "books/", header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		logger.Log.WithError(err).Error("books: image upload failed")
		http.Error(w, `{"message":"Error uploading image"}`, http.StatusInternalServerError)
		return "", "", false
	}
	return key, h.S3.PublicURL(key), true
}

// List returns all books the caller owns. GET /api/books/all
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	books, err := h.DB.BooksForUser(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: list failed")
		http.Error(w, `{"message":"Error fetching books"}`, http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Books fetched successfully.",
		"books":   books,
	})
}

// Get returns one of the caller's books. GET /api/books/get-book/{bookId}
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookId"))
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.BookByIDForUser(r.Context(), id, userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: get failed")
		http.Error(w, `{"message":"Error fetching book"}`, http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.Error(w, `{"message":"Book not found."}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Book fetched successfully.",
		"book":    book,
	})
}

// Add creates a book for the caller and counts it in their reading stats,
// creating the stats document on the first add. POST /api/books/add
func (h *BooksHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	form, multipart, ok := h.readBookForm(w, r)
	if !ok {
		return
	}

	var imageKey, imageURL string
	if multipart {
		var uploaded bool
		imageKey, imageURL, uploaded = h.uploadBookImage(w, r)
		if !uploaded {
			return
		}
	}

	now := time.Now()
	book := &models.Book{
		UserID:        userID,
		Title:         form.Title,
		Author:        form.Author,
		Description:   form.Description,
		NumberOfPages: form.NumberOfPages,
		ImageURL:      imageURL,
		ImageKey:      imageKey,
		Progress:      models.NewProgress(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		logger.Log.WithError(err).Error("books: insert failed")
		http.Error(w, `{"message":"Error adding book"}`, http.StatusInternalServerError)
		return
	}
	book.ID = id

	stats, err := h.DB.StatsForUser(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: stats lookup failed")
		http.Error(w, `{"message":"Error adding book"}`, http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = &models.ReadingStats{
			UserID:     userID,
			TotalBooks: 1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err = h.DB.CreateStats(r.Context(), stats)
	} else {
		stats.AddBook()
		err = h.DB.SaveStats(r.Context(), stats)
	}
	if err != nil {
		logger.Log.WithError(err).Error("books: stats update failed")
		http.Error(w, `{"message":"Error adding book"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Book added successfully.",
		"book":    book,
	})
}

// Update edits a book's details. The page count is frozen once reading has
// started so progress arithmetic stays coherent. PUT /api/books/update/{bookId}
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookId"))
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	form, multipart, ok := h.readBookForm(w, r)
	if !ok {
		return
	}
	book, err := h.DB.BookByIDForUser(r.Context(), id, userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: update lookup failed")
		http.Error(w, `{"message":"Error updating book"}`, http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.Error(w, `{"message":"Book not found."}`, http.StatusNotFound)
		return
	}

	book.Title = form.Title
	book.Author = form.Author
	book.Description = form.Description
	if book.Progress.Status == models.StatusNotStarted {
		book.NumberOfPages = form.NumberOfPages
	}

	if multipart {
		if file, header, ferr := r.FormFile("bookImage"); ferr == nil {
			defer file.Close()
			if h.S3 == nil {
				http.Error(w, `{"message":"image upload not configured"}`, http.StatusServiceUnavailable)
				return
			}
			if book.ImageKey != "" {
				if err := h.S3.Delete(r.Context(), book.ImageKey); err != nil {
					logger.Log.WithError(err).Warn("books: old image delete failed")
				}
			}
			key, err := h.S3.Upload(r.Context(), "books/", header.Filename, file, header.Header.Get("Content-Type"))
			if err != nil {
				logger.Log.WithError(err).Error("books: image upload failed")
				http.Error(w, `{"message":"Error updating book"}`, http.StatusInternalServerError)
				return
			}
			book.ImageKey = key
			book.ImageURL = h.S3.PublicURL(key)
		}
	}

	if err := h.DB.UpdateBookDetails(r.Context(), id, book); err != nil {
		logger.Log.WithError(err).Error("books: update failed")
		http.Error(w, `{"message":"Error updating book"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Book updated successfully."})
}

// Cover streams the book's stored image from S3. Public so it works as an
// img src even when the bucket itself is private. GET /api/books/cover/{bookId}
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookId"))
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		logger.Log.WithError(err).Error("books: cover lookup failed")
		http.Error(w, `{"message":"Error fetching cover"}`, http.StatusInternalServerError)
		return
	}
	if book == nil || book.ImageKey == "" || h.S3 == nil {
		http.Error(w, `{"message":"no cover"}`, http.StatusNotFound)
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), book.ImageKey)
	if err != nil {
		logger.Log.WithError(err).Error("books: cover fetch failed")
		http.Error(w, `{"message":"Error fetching cover"}`, http.StatusInternalServerError)
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

// Download returns a temporary presigned URL for the book's image file.
// GET /api/books/download/{bookId}
func (h *BooksHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookId"))
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.BookByIDForUser(r.Context(), id, userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: download lookup failed")
		http.Error(w, `{"message":"Error fetching book"}`, http.StatusInternalServerError)
		return
	}
	if book == nil || book.ImageKey == "" {
		http.Error(w, `{"message":"Book not found."}`, http.StatusNotFound)
		return
	}
	if h.S3 == nil {
		http.Error(w, `{"message":"download not configured"}`, http.StatusServiceUnavailable)
		return
	}
	url, err := h.S3.PresignedGetURL(r.Context(), book.ImageKey, 15*time.Minute)
	if err != nil {
		logger.Log.WithError(err).Error("books: presign failed")
		http.Error(w, `{"message":"Error generating download url"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url})
}

// Delete removes a book and subtracts its last progress snapshot from the
// caller's reading stats. DELETE /api/books/delete/{bookId}
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookId"))
	if err != nil {
		http.Error(w, `{"message":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.DeleteBook(r.Context(), id, userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: delete failed")
		http.Error(w, `{"message":"Error deleting book"}`, http.StatusInternalServerError)
		return
	}
	if book == nil {
		http.Error(w, `{"message":"Book not found."}`, http.StatusNotFound)
		return
	}

	stats, err := h.DB.StatsForUser(r.Context(), userID)
	if err != nil {
		logger.Log.WithError(err).Error("books: stats lookup failed")
		http.Error(w, `{"message":"Error deleting book"}`, http.StatusInternalServerError)
		return
	}
	if stats != nil {
		stats.RemoveBook(book)
		if err := h.DB.SaveStats(r.Context(), stats); err != nil {
			logger.Log.WithError(err).Error("books: stats update failed")
			http.Error(w, `{"message":"Error deleting book"}`, http.StatusInternalServerError)
			return
		}
	}

	if h.S3 != nil && book.ImageKey != "" {
		if err := h.S3.Delete(r.Context(), book.ImageKey); err != nil {
			logger.Log.WithError(err).Warn("books: image delete failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Book deleted successfully."})
}
