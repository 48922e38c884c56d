package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

var errMissingToken = &apierror.Error{Status: http.StatusUnauthorized, Message: "missing authorization header"}

var errInvalidToken = &apierror.Error{Status: http.StatusUnauthorized, Message: "invalid token"}

// BackendClaims are the claims the clinic backend puts in its HMAC-signed tokens.
type BackendClaims struct {
	jwt.RegisteredClaims
	UserID   flexibleID `json:"user_id"`
	DoctorID flexibleID `json:"doctor_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
}

// flexibleID decodes ids sent as numbers or numeric strings.
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexibleID(n)
	return nil
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

// ParseToken verifies an HS256 backend token and returns who it names.
func ParseToken(secret, tokenString string) (access.Identity, error) {
	claims := &BackendClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return access.Identity{}, errInvalidToken
	}
	userID := int64(claims.UserID)
	if userID == 0 {
		if sub, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			userID = sub
		}
	}
	if userID <= 0 {
		return access.Identity{}, errInvalidToken
	}
	return access.Identity{
		UserID:   userID,
		DoctorID: int64(claims.DoctorID),
		Name:     claims.Name,
		Email:    claims.Email,
	}, nil
}

// TokenAuth verifies the backend token and stores it and its identity in
// the request context.
func TokenAuth(secret string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				respond.Error(w, logger, &apierror.Error{Status: http.StatusUnauthorized, Message: "token verification is not configured"})
				return
			}
			tokenString, ok := BearerToken(r)
			if !ok {
				respond.Error(w, logger, errMissingToken)
				return
			}
			id, err := ParseToken(secret, tokenString)
			if err != nil {
				respond.Error(w, logger, err)
				return
			}
			ctx := tenancy.WithToken(r.Context(), tokenString)
			ctx = tenancy.WithIdentity(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionLoader loads the live session for a token.
type SessionLoader interface {
	Load(ctx context.Context, token string) (*access.Session, error)
}

// RequireSession loads the caller's session. It runs after TokenAuth and
// rejects tokens that were never used to sign in, or whose session ended.
func RequireSession(store SessionLoader, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tenancy.TokenFromContext(r.Context())
			if !ok {
				respond.Error(w, logger, errMissingToken)
				return
			}
			sess, err := store.Load(r.Context(), token)
			if err != nil {
				if !errors.Is(err, access.ErrSessionNotFound) {
					logger.Error("session lookup failed", "error", err)
				}
				respond.Error(w, logger, err)
				return
			}
			if id, ok := tenancy.IdentityFromContext(r.Context()); ok && id.UserID != sess.UserID {
				respond.Error(w, logger, access.ErrSessionNotFound)
				return
			}
			sess.Token = token
			next.ServeHTTP(w, r.WithContext(tenancy.WithSession(r.Context(), sess)))
		})
	}
}
