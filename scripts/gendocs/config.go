package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqlquest/internal/cli/config"
	"github.com/leapstack-labs/sqlquest/pkg/adapter"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
}

// getConfigSchema returns the configuration schema definition.
// Keep in sync with internal/cli/config/types.go.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "engine", Type: "string", Default: config.DefaultEngine, Description: "Sandbox engine"},
		{Name: "lessons_dir", Type: "string", Default: config.DefaultLessonsDir, Description: "Directory with additional lesson files, relative to the config file"},
		{Name: "journal_path", Type: "string", Default: config.DefaultJournalPath, Description: "SQLite file recording attempts; `:memory:` keeps nothing"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json"},
		{Name: "log_level", Type: "string", Default: config.DefaultLogLevel, Description: "Log level: debug, info, warn, error"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Debug logging"},
		{Name: "sandbox.params", Type: "map[string]any", Description: "Engine-specific settings passed to the adapter"},
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "sqlquest configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("sqlquest reads `sqlquest.yaml` (or `sqlquest.yml`) from the working directory, or the file given with `--config`. " +
		"Values are layered: defaults, then the file, then `SQLQUEST_` environment variables, then flags.")

	w.Header(2, "Fields")
	var rows [][]string
	for _, f := range getConfigSchema() {
		defVal := f.Default
		if defVal == "" {
			defVal = "-"
		} else {
			defVal = InlineCode(defVal)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
	}
	w.Table([]string{"Field", "Type", "Default", "Description"}, rows)

	w.Header(2, "Engines")
	var engines []string
	for _, name := range adapter.ListAdapters() {
		engines = append(engines, InlineCode(name))
	}
	w.BulletList(engines)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `engine: duckdb
lessons_dir: lessons
journal_path: .sqlquest/journal.db
output: auto
sandbox:
  params:
    threads: 2`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
