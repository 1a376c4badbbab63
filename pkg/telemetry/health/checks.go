package health

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONFileCheck returns a check that verifies the file at path exists and
// still parses as JSON. The monitor uses it for the evidence index and the
// chain of custody, so a truncated or hand-edited case file shows up on the
// readiness probe before the next command trips over it.
func JSONFileCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s is not valid JSON", path)
		}
		return nil
	}
}

// DirCheck returns a check that verifies path exists and is a directory.
func DirCheck(path string) CheckFunc {
	return func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
}

// DatabaseCheck returns a check that pings a database connection. The
// interface matches *sql.DB so the archive store can be probed without this
// package importing database/sql.
func DatabaseCheck(db interface {
	PingContext(ctx context.Context) error
}) CheckFunc {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		return nil
	}
}
