package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWriter(t *testing.T) {
	w := NewMarkdownWriter()
	w.Frontmatter("Title", "A: description")
	w.Header(2, "Section")
	w.Table([]string{"a", "b"}, [][]string{{"x|y", "line\nbreak"}})
	w.CodeBlock("sql", "SELECT 1;\n")

	got := string(w.Bytes())
	assert.True(t, strings.HasPrefix(got, "---\ntitle: Title\n"))
	assert.Contains(t, got, "A: description")
	assert.Contains(t, got, "## Section\n")
	assert.Contains(t, got, "| x\\|y | line break |")
	assert.Contains(t, got, "```sql\nSELECT 1;\n```")
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "a\n  b", dedent("    a\n      b\n"))
	assert.Equal(t, "a\n\nb", dedent("  a\n\n  b"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SQLQUEST_LESSONS_DIR", envName("lessons_dir"))
	assert.Equal(t, "SQLQUEST_SANDBOX__PARAMS", envName("sandbox.params"))
}

func TestGenerateDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(filepath.Join(dir, "cli")))
	require.NoError(t, generateConfigDocs(filepath.Join(dir, "reference")))
	require.NoError(t, generateLessonDocs(filepath.Join(dir, "lessons")))

	for _, name := range []string{
		"cli/index.md", "cli/check.md", "cli/shell.md",
		"reference/configuration.md",
		"lessons/index.md", "lessons/select-basics.md",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	index, err := os.ReadFile(filepath.Join(dir, "cli", "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "`SQLQUEST_JOURNAL_PATH`")
	assert.Contains(t, string(index), "`sqlquest check <lesson> <challenge> [sql] [flags]`")

	page, err := os.ReadFile(filepath.Join(dir, "lessons", "select-basics.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "`all-books`")
	assert.NotContains(t, string(page), "reference:")
}
