// Package storage maps tenants onto the on-disk layout and persists files atomically.
package storage

import (
	"path/filepath"
	"strings"
)

// DefaultTenant is the tenant used in local single-user mode. Its data lives directly in the data root.
const DefaultTenant = "default"

// SanitizeTenantID keeps [A-Za-z0-9._-] and replaces every other rune with '_'.
// It is total and idempotent.
func SanitizeTenantID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, id)
}

// ResolveTenantRoot returns the directory holding tenantID's data. Names that
// would resolve to the data root or its parent ("", "." and "..") get one
// underscore per character instead, so every non-default tenant is a child.
func ResolveTenantRoot(tenantID, dataRoot string) string {
	if tenantID == DefaultTenant {
		return dataRoot
	}
	dir := SanitizeTenantID(tenantID)
	switch dir {
	case "":
		dir = "_"
	case ".", "..":
		dir = strings.Repeat("_", len(dir))
	}
	return filepath.Join(dataRoot, dir)
}
