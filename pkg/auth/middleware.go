package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// AdminSecretHeader carries the shared secret on admin requests.
const AdminSecretHeader = "X-Admin-Secret"

// Admin rejection messages.
const (
	MsgMissingAuthentication = "Forbidden: Missing Authentication"
	MsgInvalidSharedSecret   = "Forbidden: Invalid Shared Secret"
)

// AdminFailureRecorder records rejected admin requests.
type AdminFailureRecorder interface {
	LogAdminAuthFailure(r *http.Request, reason string)
}

// Middleware guards the admin API with a shared secret.
type Middleware struct {
	secret   []byte
	recorder AdminFailureRecorder
	logger   *zap.Logger
}

// NewMiddleware creates an admin middleware. recorder may be nil.
func NewMiddleware(secret string, recorder AdminFailureRecorder, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret:   []byte(secret),
		recorder: recorder,
		logger:   logger,
	}
}

// RequireAdminSecret rejects requests whose X-Admin-Secret header is missing or
// does not match the configured secret. The comparison is constant time.
func (m *Middleware) RequireAdminSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(AdminSecretHeader)
		if provided == "" {
			m.reject(w, r, MsgMissingAuthentication)
			return
		}

		if len(m.secret) == 0 || subtle.ConstantTimeCompare([]byte(provided), m.secret) != 1 {
			m.reject(w, r, MsgInvalidSharedSecret)
			return
		}

		next(w, r)
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, message string) {
	m.logger.Warn("Admin request rejected",
		zap.String("path", r.URL.Path),
		zap.String("reason", message))
	if m.recorder != nil {
		m.recorder.LogAdminAuthFailure(r, message)
	}
	forbidden(w, message)
}

// forbidden returns a 403 response with JSON error body.
func forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
