package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/kevinaaaquil/novel-tracker/backend/logger"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"github.com/kevinaaaquil/novel-tracker/backend/service"
	"github.com/kevinaaaquil/novel-tracker/backend/store"
	"github.com/kevinaaaquil/novel-tracker/backend/token"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthHandler struct {
	DB          *store.DB
	Tokens      *token.Manager
	S3          *service.S3Service
	Mailer      *service.Mailer
	FrontendURL string
	MaxBytes    int64
}

type signupForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// readSignupForm accepts either a multipart form (with an optional
// profileImage file) or a plain JSON body.
func (h *AuthHandler) readSignupForm(w http.ResponseWriter, r *http.Request) (*signupForm, bool) {
	var form signupForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if h.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
		}
		if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
			http.Error(w, `{"message":"failed to parse form"}`, http.StatusBadRequest)
			return nil, false
		}
		form.Name = r.FormValue("name")
		form.Email = r.FormValue("email")
		form.Password = r.FormValue("password")
		form.ConfirmPassword = r.FormValue("confirmPassword")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
			return nil, false
		}
	}
	return &form, true
}

// Signup registers a new account. POST /api/users/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readSignupForm(w, r)
	if !ok {
		return
	}
	form.Email = strings.TrimSpace(strings.ToLower(form.Email))
	form.Name = strings.TrimSpace(form.Name)
	if _, err := mail.ParseAddress(form.Email); err != nil {
		http.Error(w, `{"message":"Please enter a valid email."}`, http.StatusBadRequest)
		return
	}
	if form.Name == "" {
		http.Error(w, `{"message":"Name is required."}`, http.StatusBadRequest)
		return
	}
	if len(form.Password) < 8 {
		http.Error(w, `{"message":"Please enter a password with at least 8 characters."}`, http.StatusBadRequest)
		return
	}
	if form.ConfirmPassword != form.Password {
		http.Error(w, `{"message":"Passwords do not match!"}`, http.StatusBadRequest)
		return
	}

	existing, err := h.DB.UserByEmail(r.Context(), form.Email)
	if err != nil {
		logger.Log.WithError(err).Error("signup: user lookup failed")
		http.Error(w, `{"message":"Error signing up user"}`, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, `{"message":"User already exists"}`, http.StatusBadRequest)
		return
	}

	var imageURL, imageKey string
	if file, header, err := r.FormFile("profileImage"); err == nil {
		defer file.Close()
		if h.S3 == nil {
			http.Error(w, `{"message":"image upload not configured"}`, http.StatusServiceUnavailable)
			return
		}
		key, err := h.S3.Upload(r.Context(), "users/", header.Filename, file, header.Header.Get("Content-Type"))
		if err != nil {
			logger.Log.WithError(err).Error("signup: image upload failed")
			http.Error(w, `{"message":"Error signing up user"}`, http.StatusInternalServerError)
			return
		}
		imageKey = key
		imageURL = h.S3.PublicURL(key)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcryptCost)
	if err != nil {
		http.Error(w, `{"message":"Error signing up user"}`, http.StatusInternalServerError)
		return
	}
	now := time.Now()
	user := &models.User{
		Name:      form.Name,
		Email:     form.Email,
		Password:  string(hash),
		ImageURL:  imageURL,
		ImageKey:  imageKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := h.DB.CreateUser(r.Context(), user); err != nil {
		logger.Log.WithError(err).Error("signup: insert failed")
		http.Error(w, `{"message":"Error signing up user"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Account created successfully. You will be redirected to the login page.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string            `json:"message"`
	Tokens  map[string]string `json:"tokens"`
	User    map[string]string `json:"user"`
}

// Login verifies credentials and issues the access/refresh token pair.
// POST /api/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		logger.Log.WithError(err).Error("login: user lookup failed")
		http.Error(w, `{"message":"Error logging in user"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"message":"User not found"}`, http.StatusNotFound)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		http.Error(w, `{"message":"Invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	accessToken, err := h.Tokens.NewAccess(user)
	if err != nil {
		http.Error(w, `{"message":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.Tokens.NewRefresh(user)
	if err != nil {
		http.Error(w, `{"message":"could not create token"}`, http.StatusInternalServerError)
		return
	}

	setTokenCookie(w, "accessToken", accessToken, token.AccessTTL)
	setTokenCookie(w, "refreshToken", refreshToken, token.RefreshTTL)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{
		Message: "Login successful",
		Tokens: map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		User: map[string]string{
			"email":    user.Email,
			"name":     user.Name,
			"imageUrl": user.ImageURL,
		},
	})
}

// Logout bumps the user's token version so every outstanding token is
// revoked, then clears the cookies. POST /api/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if err := h.DB.IncrementTokenVersion(r.Context(), userID); err != nil {
		logger.Log.WithError(err).Error("logout: token version bump failed")
		http.Error(w, `{"message":"Error logging out user"}`, http.StatusInternalServerError)
		return
	}
	clearTokenCookie(w, "accessToken")
	clearTokenCookie(w, "refreshToken")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "User logged out successfully."})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh mints a new access token from a valid refresh token. The embedded
// token version must still match the user's stored one; otherwise the token
// was revoked. POST /api/auth/token/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken == "" {
		http.Error(w, `{"error":"Refresh token is required."}`, http.StatusUnauthorized)
		return
	}
	claims, err := h.Tokens.Parse(req.RefreshToken, token.TypeRefresh)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			http.Error(w, `{"error":"Refresh token has expired."}`, http.StatusUnauthorized)
			return
		}
		http.Error(w, `{"error":"Invalid refresh token."}`, http.StatusForbidden)
		return
	}
	user, err := h.DB.UserByID(r.Context(), objectIDOrNil(claims.UserID))
	if err != nil {
		logger.Log.WithError(err).Error("refresh: user lookup failed")
		http.Error(w, `{"error":"Error refreshing token"}`, http.StatusInternalServerError)
		return
	}
	if user == nil || user.TokenVersion != claims.TokenVersion {
		http.Error(w, `{"error":"Token is no longer valid."}`, http.StatusForbidden)
		return
	}
	accessToken, err := h.Tokens.AccessFromClaims(claims)
	if err != nil {
		http.Error(w, `{"error":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	setTokenCookie(w, "accessToken", accessToken, token.AccessTTL)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"accessToken": accessToken,
		"message":     "Access token refreshed successfully.",
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword emails a one-hour reset link. POST /api/users/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		logger.Log.WithError(err).Error("forgot-password: user lookup failed")
		http.Error(w, `{"message":"Error sending reset email"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"message":"User not found."}`, http.StatusNotFound)
		return
	}
	resetToken, err := h.Tokens.NewReset(user)
	if err != nil {
		http.Error(w, `{"message":"could not create token"}`, http.StatusInternalServerError)
		return
	}
	link := h.FrontendURL + "/auth/reset-password/" + resetToken
	if err := h.Mailer.SendPasswordReset(user.Email, link); err != nil {
		logger.Log.WithError(err).Error("forgot-password: send failed")
		http.Error(w, `{"message":"Error sending reset email"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password reset email sent."})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword sets a new password from a reset link and bumps the token
// version so every token issued before the reset stops working.
// POST /api/users/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	tokenString := chi.URLParam(r, "token")
	if tokenString == "" {
		http.Error(w, `{"message":"Token is required."}`, http.StatusBadRequest)
		return
	}
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, `{"message":"Please enter a password with at least 8 characters."}`, http.StatusBadRequest)
		return
	}
	claims, err := h.Tokens.Parse(tokenString, token.TypeReset)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			http.Error(w, `{"message":"Token expired."}`, http.StatusForbidden)
			return
		}
		http.Error(w, `{"message":"Invalid token type."}`, http.StatusForbidden)
		return
	}
	user, err := h.DB.UserByID(r.Context(), objectIDOrNil(claims.UserID))
	if err != nil {
		logger.Log.WithError(err).Error("reset-password: user lookup failed")
		http.Error(w, `{"message":"Error resetting password"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"message":"User not found or token invalid."}`, http.StatusNotFound)
		return
	}
	if user.TokenVersion != claims.TokenVersion {
		http.Error(w, `{"message":"Token is no longer valid."}`, http.StatusForbidden)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		http.Error(w, `{"message":"Error resetting password"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.UpdateUserPassword(r.Context(), user.ID, string(hash)); err != nil {
		logger.Log.WithError(err).Error("reset-password: update failed")
		http.Error(w, `{"message":"Error resetting password"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password reset successfully."})
}

// objectIDOrNil parses a hex id from verified token claims. A claim that
// doesn't parse yields the nil id, which matches no user.
func objectIDOrNil(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

func setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
