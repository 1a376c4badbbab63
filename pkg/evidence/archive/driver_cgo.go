//go:build cgo

package archive

import (
	_ "github.com/mattn/go-sqlite3"
)

// driverName selects the cgo SQLite driver. mattn/go-sqlite3 links the C
// library and is the faster option when a toolchain is available.
const driverName = "sqlite3"
