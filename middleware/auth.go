package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/novel-tracker/backend/models"
	"github.com/kevinaaaquil/novel-tracker/backend/token"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	EmailKey  contextKey = "email"
)

// UserLookup is the slice of the store the auth middleware needs for the
// token-version check.
type UserLookup interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Auth verifies the Bearer access token and compares its embedded
// tokenVersion against the user's stored one. A mismatch means the token was
// revoked (logout or password reset) and fails with 403 even before the
// token's nominal expiry. An expired token fails with 401 so clients know to
// hit the refresh endpoint.
func Auth(mgr *token.Manager, users UserLookup) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, `{"error":"invalid authorization format"}`, http.StatusUnauthorized)
				return
			}
			claims, err := mgr.Parse(parts[1], token.TypeAccess)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					http.Error(w, `{"error":"token has expired"}`, http.StatusUnauthorized)
					return
				}
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				http.Error(w, `{"error":"invalid user id"}`, http.StatusUnauthorized)
				return
			}
			user, err := users.UserByID(r.Context(), userID)
			if err != nil {
				http.Error(w, `{"error":"authentication failed"}`, http.StatusInternalServerError)
				return
			}
			if user == nil || user.TokenVersion != claims.TokenVersion {
				http.Error(w, `{"error":"token is no longer valid"}`, http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	return id, ok
}

func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}
