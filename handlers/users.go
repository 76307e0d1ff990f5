package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/kevinaaaquil/novel-tracker/backend/logger"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/service"
	"github.com/kevinaaaquil/novel-tracker/backend/store"
)

type UsersHandler struct {
	DB       *store.DB
	S3       *service.S3Service
	MaxBytes int64
}

type updateAccountForm struct {
	OldEmail string `json:"oldEmail"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// UpdateAccount updates the caller's profile (name, email, image). The
// account is addressed by its current email; changing someone else's account
// is forbidden. PUT /api/users/update-account
func (h *UsersHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var form updateAccountForm
	multipart := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
	if multipart {
		if h.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
		}
		if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
			http.Error(w, `{"message":"failed to parse form"}`, http.StatusBadRequest)
			return
		}
		form.OldEmail = r.FormValue("oldEmail")
		form.Name = r.FormValue("name")
		form.Email = r.FormValue("email")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
			return
		}
	}

	form.OldEmail = strings.TrimSpace(strings.ToLower(form.OldEmail))
	form.Email = strings.TrimSpace(strings.ToLower(form.Email))
	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		http.Error(w, `{"message":"Name is required."}`, http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		http.Error(w, `{"message":"Please enter a valid email."}`, http.StatusBadRequest)
		return
	}

	user, err := h.DB.UserByEmail(r.Context(), form.OldEmail)
	if err != nil {
		logger.Log.WithError(err).Error("update-account: user lookup failed")
		http.Error(w, `{"message":"Profile update failed"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"message":"User not found."}`, http.StatusNotFound)
		return
	}
	if user.ID != callerID {
		http.Error(w, `{"message":"You are not authorized to update this user."}`, http.StatusForbidden)
		return
	}
	if form.Email != user.Email {
		existing, err := h.DB.UserByEmail(r.Context(), form.Email)
		if err != nil {
			http.Error(w, `{"message":"Profile update failed"}`, http.StatusInternalServerError)
			return
		}
		if existing != nil {
			http.Error(w, `{"message":"User already exists"}`, http.StatusBadRequest)
			return
		}
	}

	imageURL := user.ImageURL
	var newImageURL, newImageKey *string
	if multipart {
		if file, header, err := r.FormFile("profileImage"); err == nil {
			defer file.Close()
			if h.S3 == nil {
				http.Error(w, `{"message":"image upload not configured"}`, http.StatusServiceUnavailable)
				return
			}
			// Best effort: a stale old image is not worth failing the update.
			if user.ImageKey != "" {
				if err := h.S3.Delete(r.Context(), user.ImageKey); err != nil {
					logger.Log.WithError(err).Warn("update-account: old image delete failed")
				}
			}
			key, err := h.S3.Upload(r.Context(), "users/", header.Filename, file, header.Header.Get("Content-Type"))
			if err != nil {
				logger.Log.WithError(err).Error("update-account: image upload failed")
				http.Error(w, `{"message":"Profile update failed"}`, http.StatusInternalServerError)
				return
			}
			url := h.S3.PublicURL(key)
			newImageURL, newImageKey = &url, &key
			imageURL = url
		}
	}

	if err := h.DB.UpdateUserProfile(r.Context(), user.ID, form.Name, form.Email, newImageURL, newImageKey); err != nil {
		logger.Log.WithError(err).Error("update-account: update failed")
		http.Error(w, `{"message":"Profile update failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "User profile updated successfully",
		"user": map[string]string{
			"name":     form.Name,
			"email":    form.Email,
			"imageUrl": imageURL,
		},
	})
}

type deleteAccountRequest struct {
	Email string `json:"email"`
}

// DeleteAccount removes the caller's account together with their books,
// reading stats, and stored images. DELETE /api/users/delete-account
func (h *UsersHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, `{"message":"Email is required."}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		logger.Log.WithError(err).Error("delete-account: user lookup failed")
		http.Error(w, `{"message":"Error deleting user"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"message":"User not found."}`, http.StatusNotFound)
		return
	}
	if user.ID != callerID {
		http.Error(w, `{"message":"You are not authorized to delete this user."}`, http.StatusForbidden)
		return
	}

	books, err := h.DB.DeleteBooksForUser(r.Context(), user.ID)
	if err != nil {
		logger.Log.WithError(err).Error("delete-account: book cascade failed")
		http.Error(w, `{"message":"Error deleting user"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.DeleteStatsForUser(r.Context(), user.ID); err != nil {
		logger.Log.WithError(err).Error("delete-account: stats delete failed")
		http.Error(w, `{"message":"Error deleting user"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.DeleteUser(r.Context(), user.ID); err != nil {
		logger.Log.WithError(err).Error("delete-account: user delete failed")
		http.Error(w, `{"message":"Error deleting user"}`, http.StatusInternalServerError)
		return
	}

	// Image cleanup is best effort; the documents are already gone.
	if h.S3 != nil {
		if user.ImageKey != "" {
			if err := h.S3.Delete(r.Context(), user.ImageKey); err != nil {
				logger.Log.WithError(err).Warn("delete-account: user image delete failed")
			}
		}
		for _, b := range books {
			if b.ImageKey == "" {
				continue
			}
			if err := h.S3.Delete(r.Context(), b.ImageKey); err != nil {
				logger.Log.WithError(err).Warn("delete-account: book image delete failed")
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "User and associated data deleted successfully."})
}
