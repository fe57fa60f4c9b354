//go:build !cgo

package sqlitedriver

import (
	"database/sql"

	"modernc.org/sqlite"
)

// The pure-Go driver does not self-register under Name, so both builds
// expose the same driver name to callers.
func init() {
	sql.Register(Name, &sqlite.Driver{})
}

// EncryptionSupported reports whether the active driver honors PRAGMA key.
// The pure-Go build has no SQLCipher support.
const EncryptionSupported = false
