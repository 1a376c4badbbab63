package config

import "time"

// ConfigBuilder assembles Config values for tests: defaults first, then
// selective overrides through the With methods.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig returns a builder whose Build output is already valid.
func NewTestConfig() *ConfigBuilder {
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Case.Operator = "test-operator"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the assembled Config.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithOperator sets the case operator.
func (b *ConfigBuilder) WithOperator(name string) *ConfigBuilder {
	b.cfg.Case.Operator = name
	return b
}

// WithOutputDir sets the case output directory.
func (b *ConfigBuilder) WithOutputDir(dir string) *ConfigBuilder {
	b.cfg.Case.OutputDir = dir
	return b
}

// WithAlgorithms sets the hashing algorithm set.
func (b *ConfigBuilder) WithAlgorithms(algorithms ...string) *ConfigBuilder {
	b.cfg.Hashing.Algorithms = algorithms
	return b
}

// WithVerifyAlgorithm sets the verification algorithm.
func (b *ConfigBuilder) WithVerifyAlgorithm(name string) *ConfigBuilder {
	b.cfg.Verification.Algorithm = name
	return b
}

// WithSweep enables the verification sweep with the given schedule.
func (b *ConfigBuilder) WithSweep(schedule string) *ConfigBuilder {
	b.cfg.Verification.Sweep.Enabled = true
	b.cfg.Verification.Sweep.Schedule = schedule
	return b
}

// WithWatch enables the tamper watcher with the given debounce.
func (b *ConfigBuilder) WithWatch(debounce time.Duration) *ConfigBuilder {
	b.cfg.Watch.Enabled = true
	b.cfg.Watch.Debounce = debounce
	return b
}

// WithArchive enables the archive mirror at the given path.
func (b *ConfigBuilder) WithArchive(path string) *ConfigBuilder {
	b.cfg.Archive.Enabled = true
	b.cfg.Archive.Path = path
	return b
}

// MinimalConfig returns a minimal valid configuration for tests.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
