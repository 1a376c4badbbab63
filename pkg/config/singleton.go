package config

import (
	"fmt"
	"sync"
)

// The CLI resolves configuration once per process: the root command loads
// it before any subcommand runs, and every later consumer reads the same
// instance. A package-level pointer behind a RWMutex is enough for that;
// the sync.Once keeps repeated Initialize calls from reloading mid-run.
var (
	mu      sync.RWMutex
	current *Config
	once    sync.Once
)

// Initialize resolves the process configuration from path (empty means
// defaults plus environment overrides) and installs it. Only the first
// call loads anything; later calls are no-ops.
func Initialize(path string) error {
	var initErr error
	once.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		install(cfg)
	})
	return initErr
}

// GetConfig returns the installed configuration, or nil before a
// successful Initialize. Commands treat the returned pointer as theirs
// to adjust, flag overrides mutate it in place, so tests that need
// isolation install a fresh instance via SetConfig first.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetConfig installs cfg directly, bypassing the load path. Tests use it
// to pin a known configuration; production code goes through Initialize.
func SetConfig(cfg *Config) {
	install(cfg)
}

// ReloadConfig loads path again and swaps the result in. The running
// configuration stays untouched when the load or its validation fails.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	install(cfg)
	return nil
}

// MustGetConfig returns the installed configuration and panics when there
// is none. Reserved for paths that run strictly after startup succeeded.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

func install(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}
