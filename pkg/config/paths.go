package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = "food-agent"

	// SettingsFileName lives in the config directory.
	SettingsFileName = "settings.json"
	// SettingsDataPathKey overrides the data root when set.
	SettingsDataPathKey = "data_path"
)

// resolvePaths fills ConfigDir and DataDir. The data root comes from, in order:
// FOOD_AGENT_DATA or data_dir, settings.json "data_path", $XDG_DATA_HOME/food-agent,
// then ~/.local/share/food-agent.
func (c *Config) resolvePaths() error {
	if c.ConfigDir == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return err
		}
		c.ConfigDir = dir
	} else {
		dir, err := ExpandPath(c.ConfigDir)
		if err != nil {
			return err
		}
		c.ConfigDir = dir
	}

	if c.DataDir != "" {
		dir, err := ExpandPath(c.DataDir)
		if err != nil {
			return err
		}
		c.DataDir = dir
		c.DataDirSource = "config"
		return nil
	}

	if override, err := readSettingsDataPath(filepath.Join(c.ConfigDir, SettingsFileName)); err != nil {
		c.Warnings = append(c.Warnings, err.Error())
	} else if override != "" {
		dir, err := ExpandPath(override)
		if err != nil {
			return err
		}
		c.DataDir = dir
		c.DataDirSource = "settings"
		return nil
	}

	dir, err := defaultDataDir()
	if err != nil {
		return err
	}
	c.DataDir = dir
	c.DataDirSource = "default"
	return nil
}

// ExpandPath expands a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot expand %s: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", path, err)
	}
	return abs, nil
}

func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// readSettingsDataPath returns the data_path override from settings.json, or "" when
// the file or key is absent.
func readSettingsDataPath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading settings file %s: %w", path, err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return "", fmt.Errorf("error decoding settings file %s: %w", path, err)
	}
	dataPath, _ := settings[SettingsDataPathKey].(string)
	return dataPath, nil
}
