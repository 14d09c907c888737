package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/logging"
	"github.com/ekaya-inc/food-agent/pkg/models"
	"github.com/ekaya-inc/food-agent/pkg/repositories"
)

const (
	// DefaultUserListLimit is used when the caller gives no limit.
	DefaultUserListLimit = 50
	// MaxUserListLimit caps a single listing.
	MaxUserListLimit = 100
	// generatedTokenBytes matches a 32-byte URL-safe token.
	generatedTokenBytes = 32
)

// UserService resolves bearer tokens to tenants and backs the admin user API.
type UserService interface {
	// Authenticate returns the tenant for token, or ErrNotFound.
	Authenticate(ctx context.Context, token string) (string, error)
	// Register stores token for email, generating a token when it is empty.
	Register(ctx context.Context, email, token string) (*models.User, error)
	// List returns users whose email contains emailFilter, at most limit of them.
	List(ctx context.Context, emailFilter string, limit int) ([]models.MaskedUser, error)
	// Get returns the first user registered under email.
	Get(ctx context.Context, email string, showToken bool) (*models.MaskedUser, error)
}

type userService struct {
	repo   repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a UserService over the identity store.
func NewUserService(repo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.Named("user_service"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.New(apperrors.ErrValidation, "Token is required.")
	}

	tenantID, err := s.repo.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.New(apperrors.ErrNotFound, "Invalid token.")
		}
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return tenantID, nil
}

func (s *userService) Register(ctx context.Context, email, token string) (*models.User, error) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, apperrors.New(apperrors.ErrValidation, "Invalid email address: %s", email)
	}

	if token == "" {
		token, err = GenerateToken()
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Upsert(ctx, token, email); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("Registered user",
		zap.String("email", email),
		zap.String("pat_hash", logging.MaskToken(token)))

	return &models.User{Email: email, Token: token}, nil
}

func (s *userService) List(ctx context.Context, emailFilter string, limit int) ([]models.MaskedUser, error) {
	if limit == 0 {
		limit = DefaultUserListLimit
	}
	if limit < 1 || limit > MaxUserListLimit {
		return nil, apperrors.New(apperrors.ErrValidation, "limit must be between 1 and %d.", MaxUserListLimit)
	}

	users, err := s.sortedUsers(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.MaskedUser, 0, min(limit, len(users)))
	for _, u := range users {
		if emailFilter != "" && !strings.Contains(u.Email, emailFilter) {
			continue
		}
		results = append(results, MaskUser(u, false))
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (s *userService) Get(ctx context.Context, email string, showToken bool) (*models.MaskedUser, error) {
	users, err := s.sortedUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == email {
			masked := MaskUser(u, showToken)
			return &masked, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrNotFound, "User not found.")
}

// sortedUsers returns every stored user ordered by email, then token.
func (s *userService) sortedUsers(ctx context.Context) ([]models.User, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	users := make([]models.User, 0, len(all))
	for token, email := range all {
		users = append(users, models.User{Email: email, Token: token})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Email != users[j].Email {
			return users[i].Email < users[j].Email
		}
		return users[i].Token < users[j].Token
	})
	return users, nil
}

// MaskUser returns the admin view of u. The raw token is included only when showToken is set.
func MaskUser(u models.User, showToken bool) models.MaskedUser {
	masked := models.MaskedUser{
		Email:     u.Email,
		PATHash:   logging.MaskToken(u.Token),
		PATLength: len(u.Token),
	}
	if showToken {
		masked.PAT = u.Token
	}
	return masked
}

// GenerateToken returns 32 random bytes encoded as unpadded URL-safe base64.
func GenerateToken() (string, error) {
	b := make([]byte, generatedTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
