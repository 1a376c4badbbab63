//go:build !cgo

package archive

import (
	_ "modernc.org/sqlite"
)

// driverName selects the pure-Go SQLite driver. Collection hosts are
// arbitrary, so CGO_ENABLED=0 cross-builds must still carry the archive.
const driverName = "sqlite"
