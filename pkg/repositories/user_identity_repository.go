package repositories

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/apperrors"
	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// UserRepository is the identity store: it maps personal access tokens to tenant
// identifiers, backed by a headerless two-column users.csv in the data root.
//
// Each instance owns its cache. A cached token keeps resolving to its cached tenant
// until a lookup miss triggers a full reload, so edits made to the file by another
// process are only picked up on the next miss.
type UserRepository interface {
	// Lookup returns the tenant for token, reloading the file once on a cache miss.
	Lookup(ctx context.Context, token string) (string, error)
	// Upsert reloads the file, sets token to tenantID and rewrites the whole file.
	Upsert(ctx context.Context, token, tenantID string) error
	// All reloads the file and returns a snapshot of every token and tenant.
	All(ctx context.Context) (map[string]string, error)
}

type userRepository struct {
	layout storage.Layout
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewUserRepository creates an identity store over layout's users.csv.
func NewUserRepository(layout storage.Layout, logger *zap.Logger) UserRepository {
	return &userRepository{
		layout: layout,
		logger: logger.Named("users"),
		cache:  make(map[string]string),
	}
}

var _ UserRepository = (*userRepository)(nil)

func (r *userRepository) Lookup(ctx context.Context, token string) (string, error) {
	r.mu.RLock()
	tenantID, ok := r.cache[token]
	r.mu.RUnlock()
	if ok {
		return tenantID, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloadLocked()

	if tenantID, ok := r.cache[token]; ok {
		return tenantID, nil
	}
	return "", apperrors.ErrNotFound
}

func (r *userRepository) Upsert(ctx context.Context, token, tenantID string) error {
	if token == "" || tenantID == "" {
		return fmt.Errorf("%w: token and tenant are required", apperrors.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadLocked()
	r.cache[token] = tenantID

	data, err := encodeUsers(r.cache)
	if err != nil {
		return fmt.Errorf("failed to encode users: %w", err)
	}
	if err := storage.WriteFileAtomic(ctx, r.layout.UsersPath(), data); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}

	r.logger.Info("Stored user token", zap.String("tenant", tenantID))
	return nil
}

func (r *userRepository) All(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadLocked()

	out := make(map[string]string, len(r.cache))
	for token, tenantID := range r.cache {
		out[token] = tenantID
	}
	return out, nil
}

// reloadLocked replaces the cache with the file contents. A missing file empties
// the cache; a file that cannot be read at all leaves the cache as it was.
// Callers must hold r.mu for writing.
func (r *userRepository) reloadLocked() {
	if err := os.MkdirAll(r.layout.DataRoot, 0o755); err != nil {
		r.logger.Warn("Could not create data root", zap.String("path", r.layout.DataRoot), zap.Error(err))
	}

	path := r.layout.UsersPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("Users file not found", zap.String("path", path))
		r.cache = make(map[string]string)
		return
	}
	if err != nil {
		r.logger.Error("Failed to read users file", zap.String("path", path), zap.Error(err))
		return
	}

	r.cache = decodeUsers(data, r.logger)
}

// decodeUsers parses users.csv rows of (token, tenant). Rows with fewer than two
// fields are skipped and a malformed row does not stop the rest of the file.
func decodeUsers(data []byte, logger *zap.Logger) map[string]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	users := make(map[string]string)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("Skipping malformed users row", zap.Int("line", parseErr.Line), zap.Error(err))
				continue
			}
			logger.Error("Stopped reading users file", zap.Error(err))
			break
		}
		if len(row) < 2 {
			continue
		}
		users[row[0]] = row[1]
	}
	return users
}

func encodeUsers(users map[string]string) ([]byte, error) {
	tokens := make([]string, 0, len(users))
	for token := range users {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, token := range tokens {
		if err := w.Write([]string{token, users[token]}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
