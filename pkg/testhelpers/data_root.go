// Package testhelpers provides utilities for testing food-agent components.
package testhelpers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// DataRoot is a throwaway data root for a single test.
type DataRoot struct {
	t      *testing.T
	Layout storage.Layout
	Locks  *storage.KeyedMutex
}

// NewDataRoot creates an empty data root under t.TempDir().
func NewDataRoot(t *testing.T) *DataRoot {
	t.Helper()
	return &DataRoot{
		t:      t,
		Layout: storage.NewLayout(filepath.Join(t.TempDir(), "food-agent")),
		Locks:  storage.NewKeyedMutex(),
	}
}

// Path returns DataRoot joined with elem.
func (d *DataRoot) Path(elem ...string) string {
	return filepath.Join(append([]string{d.Layout.DataRoot}, elem...)...)
}

// WriteFile writes raw content to path, creating parent directories.
func (d *DataRoot) WriteFile(path, content string) {
	d.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		d.t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the content of path.
func (d *DataRoot) ReadFile(path string) string {
	d.t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		d.t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// ReadJSONArray decodes the JSON array stored at path into generic objects.
func (d *DataRoot) ReadJSONArray(path string) []map[string]any {
	d.t.Helper()
	var out []map[string]any
	if err := json.Unmarshal([]byte(d.ReadFile(path)), &out); err != nil {
		d.t.Fatalf("decode %s: %v", path, err)
	}
	return out
}

// Exists reports whether path exists.
func (d *DataRoot) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
