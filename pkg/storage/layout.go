package storage

import "path/filepath"

const (
	dailyDir        = "daily"
	catalogDir      = "catalog"
	catalogFile     = "catalog.json"
	dailyFileSuffix = "_food-log.json"
	usersFile       = "users.csv"
)

// Layout resolves the persisted file paths under a data root:
//
//	<tenantRoot>/daily/<YYYY-MM-DD>_food-log.json
//	<tenantRoot>/catalog/catalog.json
//	<dataRoot>/users.csv
type Layout struct {
	DataRoot string
}

// NewLayout returns a Layout rooted at dataRoot.
func NewLayout(dataRoot string) Layout {
	return Layout{DataRoot: dataRoot}
}

func (l Layout) TenantRoot(tenantID string) string {
	return ResolveTenantRoot(tenantID, l.DataRoot)
}

// DailyLogPath expects date to be an already validated YYYY-MM-DD string.
func (l Layout) DailyLogPath(tenantID, date string) string {
	return filepath.Join(l.TenantRoot(tenantID), dailyDir, date+dailyFileSuffix)
}

func (l Layout) CatalogPath(tenantID string) string {
	return filepath.Join(l.TenantRoot(tenantID), catalogDir, catalogFile)
}

func (l Layout) UsersPath() string {
	return filepath.Join(l.DataRoot, usersFile)
}
