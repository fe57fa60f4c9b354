//go:build cgo

package sqlitedriver

import (
	// go-sqlcipher self-registers under Name and layers SQLCipher
	// encryption on top of the stock driver.
	_ "github.com/mutecomm/go-sqlcipher/v4"
)

// EncryptionSupported reports whether the active driver honors PRAGMA key.
const EncryptionSupported = true
