package sqlitedriver

import "fmt"

// Name is the database/sql driver name both builds register under.
const Name = "sqlite3"

// DSN builds the connection string used for every store database. Shared
// cache plus WAL journaling lets multiple pooled connections work against
// the same file without writer starvation.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", path)
}
