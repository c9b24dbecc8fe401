// Package lesson loads lesson definitions from YAML.
//
// Lessons ship embedded in the binary and may be supplemented or overridden
// by a directory of .yaml files. Each file holds one lesson.
package lesson

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlquest/pkg/core"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// ErrNotFound is returned when a lesson id is not in the catalog.
var ErrNotFound = errors.New("lesson not found")

// ParseError reports a lesson file that is not valid YAML or has fields
// outside the lesson format.
type ParseError struct {
	Source  string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Parse decodes one lesson. Unknown fields are rejected.
func Parse(data []byte, source string) (*core.Lesson, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var l core.Lesson
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Source: source, Message: "empty lesson file"}
		}
		return nil, &ParseError{Source: source, Message: fmt.Sprintf("invalid lesson YAML: %v", err)}
	}
	l.Source = source

	if err := Validate(&l); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &l, nil
}

// LoadBuiltin returns the lessons embedded in the binary.
func LoadBuiltin() ([]*core.Lesson, error) {
	return loadFS(builtinFS, "builtin", "")
}

// LoadDir returns the lessons in dir (non-recursive).
func LoadDir(dir string) ([]*core.Lesson, error) {
	return loadFS(os.DirFS(dir), ".", dir)
}

func loadFS(fsys fs.FS, root, prefix string) ([]*core.Lesson, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read lessons directory: %w", err)
	}

	var lessons []*core.Lesson
	for _, e := range entries {
		if e.IsDir() || !IsLessonFile(e.Name()) {
			continue
		}
		path := e.Name()
		if root != "." {
			path = root + "/" + e.Name()
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}

		source := e.Name()
		if prefix != "" {
			source = filepath.Join(prefix, e.Name())
		}
		l, err := Parse(data, source)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}

// IsLessonFile reports whether name has a lesson file extension.
func IsLessonFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// sortLessons orders by declared order, then id.
func sortLessons(lessons []*core.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		return lessons[i].ID < lessons[j].ID
	})
}
