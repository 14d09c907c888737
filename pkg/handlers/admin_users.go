package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/auth"
	"github.com/ekaya-inc/food-agent/pkg/services"
)

// maxAdminBodyBytes bounds the registration request body.
const maxAdminBodyBytes = 64 << 10

// RegisterUserRequest is the request body for registering a user.
type RegisterUserRequest struct {
	Email string `json:"email"`
	// PAT is optional; a random token is generated when it is empty.
	PAT string `json:"pat,omitempty"`
}

// UserRegistrationRecorder records successful registrations in the security audit log.
type UserRegistrationRecorder interface {
	LogUserRegistered(r *http.Request, email, token string)
}

// AdminUsersHandler serves the admin user API.
type AdminUsersHandler struct {
	userService services.UserService
	recorder    UserRegistrationRecorder
	logger      *zap.Logger
}

// NewAdminUsersHandler creates a new admin users handler. recorder may be nil.
func NewAdminUsersHandler(userService services.UserService, recorder UserRegistrationRecorder, logger *zap.Logger) *AdminUsersHandler {
	return &AdminUsersHandler{
		userService: userService,
		recorder:    recorder,
		logger:      logger,
	}
}

// RegisterRoutes registers the admin routes behind the shared-secret check.
func (h *AdminUsersHandler) RegisterRoutes(mux *http.ServeMux, adminAuth *auth.Middleware) {
	mux.HandleFunc("POST /admin/users", adminAuth.RequireAdminSecret(h.Register))
	mux.HandleFunc("GET /admin/users", adminAuth.RequireAdminSecret(h.List))
	mux.HandleFunc("GET /admin/users/{email}", adminAuth.RequireAdminSecret(h.Get))
}

// Register handles POST /admin/users?show_token=bool.
// Registering an existing token moves it to the new email.
func (h *AdminUsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	showToken, ok := ParseBoolQuery(w, r, "show_token", h.logger)
	if !ok {
		return
	}

	var req RegisterUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Request body must be a JSON object with an 'email' field"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.PAT = strings.TrimSpace(req.PAT)

	user, err := h.userService.Register(r.Context(), req.Email, req.PAT)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if h.recorder != nil {
		h.recorder.LogUserRegistered(r, user.Email, user.Token)
	}

	if err := WriteJSON(w, http.StatusOK, services.MaskUser(*user, showToken)); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// List handles GET /admin/users?email_filter=&limit=.
func (h *AdminUsersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := ParseIntQuery(w, r, "limit", h.logger)
	if !ok {
		return
	}
	if r.URL.Query().Has("limit") && limit == 0 {
		// An explicit 0 is out of range rather than "use the default".
		limit = -1
	}

	users, err := h.userService.List(r.Context(), r.URL.Query().Get("email_filter"), limit)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, users); err != nil {
		h.logger.Error("Failed to encode users response", zap.Error(err))
	}
}

// Get handles GET /admin/users/{email}?show_token=bool.
func (h *AdminUsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	showToken, ok := ParseBoolQuery(w, r, "show_token", h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), r.PathValue("email"), showToken)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}
