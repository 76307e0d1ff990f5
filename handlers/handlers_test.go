package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/novel-tracker/backend/middleware"
	"github.com/kevinaaaquil/novel-tracker/backend/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// authedRequest builds a request carrying a verified identity, the way the
// auth middleware would hand it over.
func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, primitive.NewObjectID())
	ctx = context.WithValue(ctx, middleware.EmailKey, "reader@example.com")
	return req.WithContext(ctx)
}

func TestRefresh_MissingToken(t *testing.T) {
	t.Parallel()

	h := &AuthHandler{Tokens: token.NewManager("a", "r", "s")}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/refresh", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Refresh token is required.")
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	mgr := token.NewManager("a", "r", "s")
	h := &AuthHandler{Tokens: mgr}

	// Access tokens are signed with a different secret, so they fail refresh
	// verification outright.
	claims := &token.Claims{
		UserID:    primitive.NewObjectID().Hex(),
		TokenType: token.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	accessTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(mgr.AccessSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/refresh",
		strings.NewReader(`{"refreshToken":"`+accessTok+`"}`))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid refresh token.")
}

func TestRefresh_ExpiredToken(t *testing.T) {
	t.Parallel()

	mgr := token.NewManager("a", "r", "s")
	h := &AuthHandler{Tokens: mgr}

	claims := &token.Claims{
		UserID:    primitive.NewObjectID().Hex(),
		TokenType: token.TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(mgr.RefreshSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/refresh",
		strings.NewReader(`{"refreshToken":"`+expired+`"}`))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Refresh token has expired.")
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	h := &AuthHandler{}
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad email", `{"name":"Reader","email":"nope","password":"longenough","confirmPassword":"longenough"}`, "Please enter a valid email."},
		{"missing name", `{"name":"","email":"r@example.com","password":"longenough","confirmPassword":"longenough"}`, "Name is required."},
		{"short password", `{"name":"Reader","email":"r@example.com","password":"short","confirmPassword":"short"}`, "at least 8 characters"},
		{"mismatch", `{"name":"Reader","email":"r@example.com","password":"longenough","confirmPassword":"different"}`, "Passwords do not match!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.Signup(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestBooksAdd_Unauthorized(t *testing.T) {
	t.Parallel()

	h := &BooksHandler{}
	req := httptest.NewRequest(http.MethodPost, "/api/books/add", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBooksAdd_Validation(t *testing.T) {
	t.Parallel()

	h := &BooksHandler{}
	cases := []struct {
		name string
		body string
		want string
	}{
		{"short title", `{"title":"ab","author":"Author","description":"long enough text","numberOfPages":100}`, "Title must be at least 3 characters long."},
		{"short author", `{"title":"Title","author":"ab","description":"long enough text","numberOfPages":100}`, "Author name must be at least 3 characters long."},
		{"short description", `{"title":"Title","author":"Author","description":"short","numberOfPages":100}`, "Description must be at least 10 characters long."},
		{"zero pages", `{"title":"Title","author":"Author","description":"long enough text","numberOfPages":0}`, "Number of pages must be a positive integer."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Add(rec, authedRequest(http.MethodPost, "/api/books/add", tc.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestUpdateProgress_InvalidBookID(t *testing.T) {
	t.Parallel()

	h := &StatsHandler{}
	rec := httptest.NewRecorder()
	h.UpdateProgress(rec, authedRequest(http.MethodPut, "/api/stats/update",
		`{"bookId":"not-hex","pagesReadToday":10,"currentPage":10}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid book id")
}

func TestUpdateProgress_Unauthorized(t *testing.T) {
	t.Parallel()

	h := &StatsHandler{}
	req := httptest.NewRequest(http.MethodPut, "/api/stats/update", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.UpdateProgress(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResetReread_InvalidJSON(t *testing.T) {
	t.Parallel()

	h := &StatsHandler{}
	rec := httptest.NewRecorder()
	h.ResetReread(rec, authedRequest(http.MethodPut, "/api/stats/reset", `{`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooksCover_InvalidID(t *testing.T) {
	t.Parallel()

	h := &BooksHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/books/cover/not-hex", nil)
	rec := httptest.NewRecorder()

	h.Cover(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid book id")
}

func TestBooksDownload_Unauthorized(t *testing.T) {
	t.Parallel()

	h := &BooksHandler{}
	req := httptest.NewRequest(http.MethodGet, "/api/books/download/not-hex", nil)
	rec := httptest.NewRecorder()

	h.Download(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBooksDownload_InvalidID(t *testing.T) {
	t.Parallel()

	h := &BooksHandler{}
	rec := httptest.NewRecorder()
	h.Download(rec, authedRequest(http.MethodGet, "/api/books/download/not-hex", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid book id")
}

func TestDeleteAccount_MissingEmail(t *testing.T) {
	t.Parallel()

	h := &UsersHandler{}
	rec := httptest.NewRecorder()
	h.DeleteAccount(rec, authedRequest(http.MethodDelete, "/api/users/delete-account", `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is required.")
}
