package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqlquest/internal/cli/config"
	"github.com/leapstack-labs/sqlquest/internal/cli/output"
	"github.com/leapstack-labs/sqlquest/internal/journal"
	"github.com/leapstack-labs/sqlquest/internal/lesson"
	"github.com/leapstack-labs/sqlquest/internal/tutor"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Catalog  *lesson.Catalog
	Journal  *journal.Store
}

// NewCommandContext creates a CommandContext with the lesson catalog and the
// attempt journal opened. Returns the context and a cleanup function that
// must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutJournal(cmd)
	if err != nil {
		return nil, nil, err
	}

	store, err := openJournal(cmdCtx.Cfg.JournalPath, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Journal = store

	cleanup := func() {
		if err := store.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close journal", "error", err)
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutJournal creates a CommandContext that only reads
// lessons.
func NewCommandContextWithoutJournal(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))

	catalog, err := lesson.Load(cfg.LessonsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load lessons: %w", err)
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Catalog:  catalog,
	}, nil
}

// NewTutor creates a tutor bound to the configured engine and journal.
func (c *CommandContext) NewTutor() *tutor.Tutor {
	return tutor.New(tutor.Options{
		Engine:  c.Cfg.Engine,
		Params:  c.Cfg.Sandbox.Params,
		Journal: c.Journal,
		Logger:  c.Logger,
	})
}

// getConfig returns the current configuration, or defaults when no config
// has been loaded (commands run outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Engine:      config.DefaultEngine,
		LessonsDir:  config.DefaultLessonsDir,
		JournalPath: config.DefaultJournalPath,
		LogLevel:    config.DefaultLogLevel,
		Output:      config.DefaultOutput,
	}
}

func openJournal(path string, logger *slog.Logger) (*journal.Store, error) {
	if path != "" && path != journal.MemoryPath {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create journal directory: %w", err)
			}
		}
	}

	store := journal.NewStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return store, nil
}
