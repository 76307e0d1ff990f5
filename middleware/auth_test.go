package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"github.com/kevinaaaquil/novel-tracker/backend/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserLookup struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserLookup) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return f.users[id], nil
}

func newAuthFixture(t *testing.T) (*token.Manager, *models.User, *fakeUserLookup) {
	t.Helper()
	mgr := token.NewManager("access", "refresh", "reset")
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        "reader@example.com",
		TokenVersion: 1,
	}
	lookup := &fakeUserLookup{users: map[primitive.ObjectID]*models.User{user.ID: user}}
	return mgr, user, lookup
}

func runAuth(mgr *token.Manager, lookup UserLookup, authHeader string) (*httptest.ResponseRecorder, primitive.ObjectID, string, bool) {
	var gotID primitive.ObjectID
	var gotEmail string
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		gotEmail = EmailFromContext(r.Context())
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/books/all", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	Auth(mgr, lookup)(next).ServeHTTP(rec, req)
	return rec, gotID, gotEmail, called
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	mgr, user, lookup := newAuthFixture(t)
	tok, err := mgr.NewAccess(user)
	require.NoError(t, err)

	rec, gotID, gotEmail, called := runAuth(mgr, lookup, "Bearer "+tok)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Equal(t, user.ID, gotID)
	assert.Equal(t, user.Email, gotEmail)
}

func TestAuth_MissingHeader(t *testing.T) {
	t.Parallel()

	mgr, _, lookup := newAuthFixture(t)
	rec, _, _, called := runAuth(mgr, lookup, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuth_BadFormat(t *testing.T) {
	t.Parallel()

	mgr, user, lookup := newAuthFixture(t)
	tok, err := mgr.NewAccess(user)
	require.NoError(t, err)

	rec, _, _, called := runAuth(mgr, lookup, "Token "+tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuth_StaleVersion(t *testing.T) {
	t.Parallel()

	mgr, user, lookup := newAuthFixture(t)
	tok, err := mgr.NewAccess(user)
	require.NoError(t, err)

	// Logout/reset bumps the stored version; the outstanding token is revoked
	// even though it has not structurally expired.
	user.TokenVersion++

	rec, _, _, called := runAuth(mgr, lookup, "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestAuth_UserGone(t *testing.T) {
	t.Parallel()

	mgr, user, _ := newAuthFixture(t)
	tok, err := mgr.NewAccess(user)
	require.NoError(t, err)

	empty := &fakeUserLookup{users: map[primitive.ObjectID]*models.User{}}
	rec, _, _, called := runAuth(mgr, empty, "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	mgr, user, lookup := newAuthFixture(t)
	claims := &token.Claims{
		UserID:       user.ID.Hex(),
		Email:        user.Email,
		TokenType:    token.TypeAccess,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(mgr.AccessSecret)
	require.NoError(t, err)

	rec, _, _, called := runAuth(mgr, lookup, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuth_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	mgr, user, lookup := newAuthFixture(t)
	refresh, err := mgr.NewRefresh(user)
	require.NoError(t, err)

	rec, _, _, called := runAuth(mgr, lookup, "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
