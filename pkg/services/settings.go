package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/config"
	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// SettingsService edits the per-user settings file. Changes apply on the next start.
type SettingsService interface {
	// SetDataFolder stores path as the data root override, or clears the override when path is blank.
	SetDataFolder(ctx context.Context, path string) (string, error)
}

type settingsService struct {
	configDir string
	logger    *zap.Logger
}

// NewSettingsService creates a SettingsService writing into configDir.
func NewSettingsService(configDir string, logger *zap.Logger) SettingsService {
	return &settingsService{
		configDir: configDir,
		logger:    logger.Named("settings"),
	}
}

var _ SettingsService = (*settingsService)(nil)

func (s *settingsService) SetDataFolder(ctx context.Context, path string) (string, error) {
	settingsPath := filepath.Join(s.configDir, config.SettingsFileName)

	settings := map[string]json.RawMessage{}
	if _, err := storage.ReadJSON(settingsPath, &settings); err != nil {
		s.logger.Warn("Settings file unreadable, starting fresh", zap.String("path", settingsPath), zap.Error(err))
		settings = map[string]json.RawMessage{}
	}
	if settings == nil {
		settings = map[string]json.RawMessage{}
	}

	var message string
	if strings.TrimSpace(path) != "" {
		resolved, err := config.ExpandPath(strings.TrimSpace(path))
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		encoded, err := json.Marshal(resolved)
		if err != nil {
			return "", err
		}
		settings[config.SettingsDataPathKey] = encoded
		message = fmt.Sprintf("Data folder set to: %s", resolved)
	} else {
		delete(settings, config.SettingsDataPathKey)
		message = "Data folder reset to default (XDG Data Home)."
	}

	if err := storage.WriteJSONAtomic(ctx, settingsPath, settings); err != nil {
		return "", fmt.Errorf("failed to write settings: %w", err)
	}

	s.logger.Info("Updated data folder setting", zap.String("path", settingsPath))
	return message, nil
}
