package output

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlquest/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown bold key followed by its value.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("**%s:** %s", key, value)
}

// FormatBold wraps text in markdown bold markers.
func FormatBold(s string) string {
	return "**" + s + "**"
}

// FormatCodeBlock fences code for markdown.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}

// PhaseTitle returns the display title of a phase, e.g. "Cheatsheet".
func PhaseTitle(p core.Phase) string {
	return titleCaser.String(string(p))
}
