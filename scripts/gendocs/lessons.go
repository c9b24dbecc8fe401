package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqlquest/internal/lesson"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// generateLessonDocs writes an index of the built-in lessons and one page
// per lesson with its phases and challenges. Reference solutions are left
// out.
func generateLessonDocs(outDir string) error {
	log.Printf("Generating lesson docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lessons, err := lesson.LoadBuiltin()
	if err != nil {
		return err
	}

	if err := generateLessonIndex(outDir, lessons); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	for _, l := range lessons {
		if err := generateLessonPage(outDir, l); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", l.ID, err)
		}
		log.Printf("  Generated %s.md", l.ID)
	}
	return nil
}

func generateLessonIndex(outDir string, lessons []*core.Lesson) error {
	w := NewMarkdownWriter()
	w.Frontmatter("Lessons", "Built-in sqlquest lessons")
	w.GeneratedMarker()

	w.Header(1, "Lessons")
	w.Paragraph("Lessons ship with the binary. Add your own by dropping YAML files into the lessons directory.")

	var rows [][]string
	for _, l := range lessons {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/lessons/%s)", InlineCode(l.ID), l.ID),
			l.Title,
			string(l.Difficulty),
			strconv.Itoa(len(l.Challenges())),
			strconv.Itoa(len(l.Questions())),
		})
	}
	w.Table([]string{"Lesson", "Title", "Level", "Challenges", "Questions"}, rows)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func generateLessonPage(outDir string, l *core.Lesson) error {
	w := NewMarkdownWriter()
	w.Frontmatter(l.Title, l.Description)
	w.GeneratedMarker()

	w.Header(1, l.Title)
	if l.Description != "" {
		w.Paragraph(l.Description)
	}
	w.CodeBlock("bash", "sqlquest shell "+l.ID)

	if strings.TrimSpace(l.Seed) != "" {
		w.Header(2, "Sandbox data")
		w.CodeBlock("sql", l.Seed)
	}

	if pc := l.Phase(core.PhaseLearn); pc != nil {
		w.Header(2, "Examples")
		for _, ex := range pc.Examples {
			if ex.Title != "" {
				w.Header(3, ex.Title)
			}
			w.CodeBlock("sql", ex.SQL)
		}
	}

	if challenges := l.Challenges(); len(challenges) > 0 {
		w.Header(2, "Challenges")
		var rows [][]string
		for _, c := range challenges {
			rows = append(rows, []string{
				InlineCode(c.ID),
				string(c.EffectiveKind()),
				cleanDescription(c.Prompt),
			})
		}
		w.Table([]string{"Challenge", "Kind", "Prompt"}, rows)
	}

	if pc := l.Phase(core.PhaseCheatsheet); pc != nil && len(pc.Entries) > 0 {
		w.Header(2, "Cheatsheet")
		var rows [][]string
		for _, e := range pc.Entries {
			rows = append(rows, []string{InlineCode(e.Syntax), e.Description})
		}
		w.Table([]string{"Syntax", "Meaning"}, rows)
	}

	return os.WriteFile(filepath.Join(outDir, l.ID+".md"), w.Bytes(), 0600)
}
