//go:build sqlite

package storage

const DefaultStoreKind = "sqlite"

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		path = "genera.db"
	}
	return NewSQLiteStore(path), nil
}
