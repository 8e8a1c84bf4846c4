package catalog

import "path/filepath"

// TableID is the external key of a table: the (database, table) pair.
type TableID struct {
	Database string `json:"database"`
	Table    string `json:"table"`
}

func (t TableID) String() string {
	return t.Database + "." + t.Table
}

// path returns <base>/<database>/<table>.
func (t TableID) path(base string) string {
	return filepath.Join(base, t.Database, t.Table)
}

func (t TableID) dir(base string) string {
	return filepath.Join(base, t.Database)
}
