package auth

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orgwiki/orgwiki/pkg/contextkeys"
)

// Middleware extracts and verifies the bearer token on incoming requests.
// Auth is optional at this layer: requests without an Authorization header
// pass through anonymously and the permission guards decide whether
// anonymous access is acceptable. A header that is present but does not
// verify is rejected outright with 401.
type Middleware struct {
	verifier Verifier
	logger   *logrus.Logger
}

// NewMiddleware creates the bearer token middleware
func NewMiddleware(verifier Verifier, logger *logrus.Logger) *Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Middleware{
		verifier: verifier,
		logger:   logger,
	}
}

// Handler wraps an HTTP handler with optional bearer token verification
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.unauthorized(w, "invalid authorization header format")
			return
		}

		userID, err := m.verifier.Verify(r.Context(), parts[1])
		if err != nil {
			m.logger.WithError(err).Warn("Could not validate credentials")
			m.unauthorized(w, "could not validate credentials")
			return
		}

		ctx := contextkeys.WithUserID(r.Context(), string(userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// UserFromRequest returns the verified user id on the request, if any.
// The zero UserID means the request is anonymous.
func UserFromRequest(r *http.Request) UserID {
	return UserID(contextkeys.GetUserID(r.Context()))
}
