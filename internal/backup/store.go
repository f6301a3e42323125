package backup

import "fmt"

// Store backends.
const (
	StoreDir    = "dir"
	StoreSQLite = "sqlite"
)

// OpenStore opens the named backend. The directory backend writes into dir;
// the sqlite backend opens dbPath.
func OpenStore(kind, dir, dbPath string) (Store, error) {
	switch kind {
	case StoreDir, "":
		return NewDirStore(dir)
	case StoreSQLite:
		return OpenSQLiteStore(dbPath)
	default:
		return nil, fmt.Errorf("unknown backup store %q", kind)
	}
}
