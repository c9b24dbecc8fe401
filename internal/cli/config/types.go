// Package config provides configuration management for the sqlquest CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	Engine      string        `koanf:"engine"`
	LessonsDir  string        `koanf:"lessons_dir"`
	JournalPath string        `koanf:"journal_path"`
	Verbose     bool          `koanf:"verbose"`
	LogLevel    string        `koanf:"log_level"`
	Output      string        `koanf:"output"`
	Sandbox     SandboxConfig `koanf:"sandbox"`
}

// SandboxConfig holds engine settings passed through to the adapter.
type SandboxConfig struct {
	// Params are decoded by the selected adapter, e.g. {threads: 2} for duckdb.
	Params map[string]any `koanf:"params"`
}

// Default configuration values.
const (
	DefaultEngine      = "sqlite"
	DefaultLessonsDir  = "lessons"
	DefaultJournalPath = ".sqlquest/journal.db"
	DefaultLogLevel    = "warn"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
