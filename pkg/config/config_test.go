package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdirTemp switches into a fresh temp directory, optionally writing config.yaml,
// and isolates XDG and data env vars from the host.
func chdirTemp(t *testing.T, yamlContent string) string {
	t.Helper()
	tmpDir := t.TempDir()

	if yamlContent != "" {
		if err := os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmpDir, "xdg-data"))
	for _, key := range []string{"FOOD_AGENT_DATA", "FOOD_AGENT_CONFIG", "PORT", "BASE_URL", "ENVIRONMENT",
		"DAY_CUTOFF_HOUR", "ADMIN_SHARED_SECRET", "TLS_CERT_PATH", "TLS_KEY_PATH", "LOG_LEVEL", "MCP_LOG_REQUESTS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return tmpDir
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	chdirTemp(t, `
port: "3443"
env: "test"
day_cutoff_hour: 4
`)
	t.Setenv("PORT", "4443")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "4443" {
		t.Errorf("expected Port=4443 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.BaseURL != "http://localhost:4443" {
		t.Errorf("expected BaseURL=http://localhost:4443 (auto-derived from PORT), got %s", cfg.BaseURL)
	}
	// Proves YAML was read
	if cfg.DayCutoffHour != 4 {
		t.Errorf("expected DayCutoffHour=4 (from yaml), got %d", cfg.DayCutoffHour)
	}
}

func TestLoad_MissingConfigFileUsesEnvAndDefaults(t *testing.T) {
	tmpDir := chdirTemp(t, "")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() without config.yaml failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default Port=8080, got %s", cfg.Port)
	}
	if cfg.DayCutoffHour != 0 {
		t.Errorf("expected default DayCutoffHour=0, got %d", cfg.DayCutoffHour)
	}
	if !cfg.MCP.LogRequests {
		t.Error("expected MCP.LogRequests to default to true")
	}
	if cfg.AdminEnabled() {
		t.Error("expected admin API to be disabled without a secret")
	}
	wantData := filepath.Join(tmpDir, "xdg-data", "food-agent")
	if cfg.DataDir != wantData || cfg.DataDirSource != "default" {
		t.Errorf("expected DataDir=%s (default), got %s (%s)", wantData, cfg.DataDir, cfg.DataDirSource)
	}
	wantConfig := filepath.Join(tmpDir, "xdg-config", "food-agent")
	if cfg.ConfigDir != wantConfig {
		t.Errorf("expected ConfigDir=%s, got %s", wantConfig, cfg.ConfigDir)
	}
}

func TestLoad_BaseURLExplicit(t *testing.T) {
	chdirTemp(t, `
port: "3443"
base_url: "http://my-server.internal:8080"
`)

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseURL != "http://my-server.internal:8080" {
		t.Errorf("expected BaseURL=http://my-server.internal:8080 (explicit), got %s", cfg.BaseURL)
	}
}

func TestLoad_DataDirFromEnvWins(t *testing.T) {
	tmpDir := chdirTemp(t, "")
	settingsDir := filepath.Join(tmpDir, "xdg-config", "food-agent")
	writeSettings(t, settingsDir, `{"data_path": "/from/settings"}`)
	t.Setenv("FOOD_AGENT_DATA", filepath.Join(tmpDir, "env-data"))

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DataDir != filepath.Join(tmpDir, "env-data") || cfg.DataDirSource != "config" {
		t.Errorf("expected env data dir, got %s (%s)", cfg.DataDir, cfg.DataDirSource)
	}
}

func TestLoad_DataDirFromSettings(t *testing.T) {
	tmpDir := chdirTemp(t, "")
	settingsDir := filepath.Join(tmpDir, "xdg-config", "food-agent")
	target := filepath.Join(tmpDir, "mounted")
	writeSettings(t, settingsDir, fmt.Sprintf(`{"data_path": %q}`, target))

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DataDir != target || cfg.DataDirSource != "settings" {
		t.Errorf("expected settings data dir %s, got %s (%s)", target, cfg.DataDir, cfg.DataDirSource)
	}
}

func TestLoad_CorruptSettingsFallsBackWithWarning(t *testing.T) {
	tmpDir := chdirTemp(t, "")
	writeSettings(t, filepath.Join(tmpDir, "xdg-config", "food-agent"), `{not json`)

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DataDirSource != "default" {
		t.Errorf("expected default data dir, got %s", cfg.DataDirSource)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "settings") {
		t.Errorf("expected one settings warning, got %v", cfg.Warnings)
	}
}

func TestLoad_DayCutoffOutOfRange(t *testing.T) {
	chdirTemp(t, "")
	t.Setenv("DAY_CUTOFF_HOUR", "24")

	if _, err := Load("test-version"); err == nil {
		t.Error("expected error for day_cutoff_hour=24")
	}
}

func TestLoad_AdminSecretTooShort(t *testing.T) {
	chdirTemp(t, "")
	t.Setenv("ADMIN_SHARED_SECRET", "short")

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "too weak") {
		t.Errorf("expected weak secret error, got %v", err)
	}
}

func TestLoad_AdminSecretAccepted(t *testing.T) {
	chdirTemp(t, "")
	t.Setenv("ADMIN_SHARED_SECRET", strings.Repeat("s", MinAdminSecretLength))

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.AdminEnabled() {
		t.Error("expected admin API to be enabled")
	}
}

func TestLoad_AdminSecretNotReadFromYAML(t *testing.T) {
	chdirTemp(t, `
admin_shared_secret: "this-value-must-never-be-used-as-a-secret"
`)

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.AdminSharedSecret != "" {
		t.Error("expected admin secret to come from the environment only")
	}
}

func TestValidateTLS_BothProvided(t *testing.T) {
	tmpDir := t.TempDir()
	certPath := filepath.Join(tmpDir, "test-cert.pem")
	keyPath := filepath.Join(tmpDir, "test-key.pem")
	if err := os.WriteFile(certPath, []byte("fake-cert-content"), 0644); err != nil {
		t.Fatalf("failed to write test cert: %v", err)
	}
	if err := os.WriteFile(keyPath, []byte("fake-key-content"), 0644); err != nil {
		t.Fatalf("failed to write test key: %v", err)
	}

	chdirTemp(t, fmt.Sprintf(`
port: "3443"
tls_cert_path: "%s"
tls_key_path: "%s"
`, certPath, keyPath))

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TLSCertPath != certPath {
		t.Errorf("expected TLSCertPath=%s, got %s", certPath, cfg.TLSCertPath)
	}
	if cfg.BaseURL != "https://localhost:3443" {
		t.Errorf("expected https BaseURL, got %s", cfg.BaseURL)
	}
}

func TestValidateTLS_OnlyCertProvided(t *testing.T) {
	chdirTemp(t, "")
	t.Setenv("TLS_CERT_PATH", "/nonexistent/cert.pem")

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "must be provided together") {
		t.Errorf("expected paired TLS error, got %v", err)
	}
}

func TestValidateTLS_CertFileNotFound(t *testing.T) {
	chdirTemp(t, "")
	t.Setenv("TLS_CERT_PATH", "/nonexistent/cert.pem")
	t.Setenv("TLS_KEY_PATH", "/nonexistent/key.pem")

	_, err := Load("test-version")
	if err == nil || !strings.Contains(err.Error(), "cert file does not exist") {
		t.Errorf("expected missing cert error, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/food")
	if err != nil {
		t.Fatalf("ExpandPath() failed: %v", err)
	}
	if got != filepath.Join(home, "food") {
		t.Errorf("expected %s, got %s", filepath.Join(home, "food"), got)
	}

	got, err = ExpandPath("relative/dir")
	if err != nil {
		t.Fatalf("ExpandPath() failed: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %s", got)
	}
}

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create settings dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
}
