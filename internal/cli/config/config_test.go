package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure engines are registered via init()
	_ "github.com/leapstack-labs/sqlquest/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlquest/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlquest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("engine", "", "")
	flags.String("lessons-dir", "", "")
	flags.String("journal", "", "")
	flags.String("log-level", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.StringP("output", "o", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultEngine, cfg.Engine)
	assert.Equal(t, DefaultLessonsDir, cfg.LessonsDir)
	assert.Equal(t, DefaultJournalPath, cfg.JournalPath)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `engine: duckdb
lessons_dir: my-lessons
journal_path: /tmp/journal.db
output: json
sandbox:
  params:
    threads: 2
`)
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Engine)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "my-lessons"), cfg.LessonsDir, "relative paths resolve against the config file")
	assert.Equal(t, "/tmp/journal.db", cfg.JournalPath)
	assert.Equal(t, "json", cfg.Output)
	assert.EqualValues(t, 2, cfg.Sandbox.Params["threads"])
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_MemoryJournalIsNotResolved(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "journal_path: \":memory:\"\n")
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.JournalPath)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown engine", "engine: mysql\n", "unknown engine \"mysql\""},
		{"unknown output", "output: yaml\n", "unknown output mode"},
		{"bad log level", "log_level: loud\n", "invalid log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoadConfig_UnknownEngineListsAvailable(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(writeConfig(t, "engine: oracle\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duckdb, sqlite")
	assert.ErrorIs(t, err, adapter.ErrUnknownEngine)
}

func TestLoadConfig_EngineIsNormalized(t *testing.T) {
	ResetConfig()
	cfg, err := LoadConfig(writeConfig(t, "engine: SQLite\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Engine)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "lessons_dir: from_file\n")
	t.Setenv("SQLQUEST_LESSONS_DIR", "from_env")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.LessonsDir, "env var should override config file")
}

func TestLoadConfig_EnvNestedKeys(t *testing.T) {
	ResetConfig()
	t.Setenv("SQLQUEST_SANDBOX__PARAMS__THREADS", "4")
	t.Setenv("SQLQUEST_VERBOSE", "true")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "4", cfg.Sandbox.Params["threads"])
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "lessons_dir: from_file\njournal_path: from_file.db\n")
	t.Setenv("SQLQUEST_LESSONS_DIR", "from_env")

	flags := testFlags()
	require.NoError(t, flags.Set("lessons-dir", "from_flag"))
	require.NoError(t, flags.Set("journal", "flag.db"))
	require.NoError(t, flags.Set("engine", "duckdb"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.LessonsDir, "flag value should override config file and env var")
	assert.Equal(t, "flag.db", cfg.JournalPath, "--journal maps to journal_path")
	assert.Equal(t, "duckdb", cfg.Engine)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Setenv("SQLQUEST_LESSONS_DIR", "from_env")

	flags := testFlags()
	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.LessonsDir, "env var should be used when flag is not set")
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want slog.Level
	}{
		{"default", Config{}, slog.LevelWarn},
		{"info", Config{LogLevel: "info"}, slog.LevelInfo},
		{"case insensitive", Config{LogLevel: "ERROR"}, slog.LevelError},
		{"verbose wins", Config{LogLevel: "error", Verbose: true}, slog.LevelDebug},
		{"invalid falls back", Config{LogLevel: "loud"}, slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Level())
		})
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "missing logger falls back to discard")

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
