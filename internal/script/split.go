// Package script splits learner SQL into individual statements and
// classifies each one as row-returning or not.
package script

import (
	"strings"
)

// Statement is one statement of a script.
type Statement struct {
	// SQL is the statement text without the terminating semicolon.
	SQL string
	// Keyword is the leading keyword, upper-cased (e.g., "SELECT").
	Keyword string
	// ReturnsRows reports whether the statement should be run as a query.
	ReturnsRows bool
	// Line is the 1-based line the statement starts on.
	Line int
}

// rowKeywords lead statements that produce a result set.
var rowKeywords = map[string]bool{
	"SELECT":    true,
	"VALUES":    true,
	"PRAGMA":    true,
	"EXPLAIN":   true,
	"SHOW":      true,
	"DESCRIBE":  true,
	"SUMMARIZE": true,
	"FROM":      true,
	"TABLE":     true,
}

// dmlKeywords are the statement verbs that can follow a WITH clause.
var dmlKeywords = map[string]bool{
	"INSERT":  true,
	"UPDATE":  true,
	"DELETE":  true,
	"REPLACE": true,
}

// IsDML reports whether the statement modifies rows, so that its rows
// affected count is meaningful. Engines may report a stale count for DDL.
func (s Statement) IsDML() bool {
	return dmlKeywords[s.Keyword] || s.Keyword == "WITH" || s.Keyword == "MERGE"
}

// splitter holds scanner state for one pass over the input.
type splitter struct {
	input string
	pos   int
	line  int

	start     int
	startLine int
	content   bool     // saw something other than whitespace/comments
	parens    int      // parenthesis depth
	topWords  []string // upper-cased words at parenthesis depth 0
	trigger   bool     // statement is CREATE [TEMP] TRIGGER
	block     int      // BEGIN/CASE ... END nesting inside a trigger

	out []Statement
}

// Split breaks a script into statements. Semicolons inside string literals,
// quoted identifiers, comments and trigger bodies do not split. Statements
// consisting only of whitespace or comments are dropped.
func Split(input string) []Statement {
	s := &splitter{input: input, line: 1, startLine: 1}
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		switch {
		case ch == '\n':
			s.line++
			s.pos++
		case ch == '-' && s.peek() == '-':
			s.skipLineComment()
		case ch == '/' && s.peek() == '*':
			s.skipBlockComment()
		case ch == '\'' || ch == '"' || ch == '`':
			s.markContent()
			s.skipQuoted(ch, ch)
		case ch == '[':
			s.markContent()
			s.skipQuoted('[', ']')
		case ch == '(':
			s.markContent()
			s.parens++
			s.pos++
		case ch == ')':
			s.markContent()
			if s.parens > 0 {
				s.parens--
			}
			s.pos++
		case ch == ';':
			s.pos++
			if s.block == 0 {
				s.emit(s.pos - 1)
				s.start = s.pos
				s.startLine = s.line
			}
		case isWordStart(ch):
			s.markContent()
			s.readWord()
		case ch == ' ' || ch == '\t' || ch == '\r':
			s.pos++
		default:
			s.markContent()
			s.pos++
		}
	}
	s.emit(len(s.input))
	return s.out
}

func (s *splitter) peek() byte {
	if s.pos+1 >= len(s.input) {
		return 0
	}
	return s.input[s.pos+1]
}

func (s *splitter) markContent() {
	if !s.content {
		s.content = true
		s.startLine = s.line
	}
}

func (s *splitter) skipLineComment() {
	for s.pos < len(s.input) && s.input[s.pos] != '\n' {
		s.pos++
	}
}

func (s *splitter) skipBlockComment() {
	s.pos += 2
	for s.pos < len(s.input) {
		if s.input[s.pos] == '\n' {
			s.line++
		}
		if s.input[s.pos] == '*' && s.peek() == '/' {
			s.pos += 2
			return
		}
		s.pos++
	}
}

// skipQuoted consumes a quoted token. A doubled closing quote is an escape.
func (s *splitter) skipQuoted(open, closing byte) {
	s.pos++
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if ch == '\n' {
			s.line++
		}
		s.pos++
		if ch == closing {
			if open == closing && s.pos < len(s.input) && s.input[s.pos] == closing {
				s.pos++
				continue
			}
			return
		}
	}
}

func (s *splitter) readWord() {
	begin := s.pos
	for s.pos < len(s.input) && isWordPart(s.input[s.pos]) {
		s.pos++
	}
	word := strings.ToUpper(s.input[begin:s.pos])

	if s.parens == 0 {
		s.topWords = append(s.topWords, word)
		if len(s.topWords) <= 3 && word == "TRIGGER" && s.topWords[0] == "CREATE" {
			s.trigger = true
		}
	}

	if s.trigger {
		switch word {
		case "BEGIN", "CASE":
			s.block++
		case "END":
			if s.block > 0 {
				s.block--
			}
		}
	}
}

func (s *splitter) emit(end int) {
	if s.content {
		text := strings.TrimSpace(s.input[s.start:end])
		st := Statement{SQL: text, Line: s.startLine}
		if len(s.topWords) > 0 {
			st.Keyword = s.topWords[0]
		}
		st.ReturnsRows = returnsRows(s.topWords)
		s.out = append(s.out, st)
	}
	s.content = false
	s.parens = 0
	s.topWords = nil
	s.trigger = false
	s.block = 0
}

// returnsRows classifies a statement from its top-level words.
func returnsRows(words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if w == "RETURNING" {
			return true
		}
	}
	first := words[0]
	if first == "WITH" {
		for _, w := range words[1:] {
			if dmlKeywords[w] {
				return false
			}
			if w == "SELECT" || w == "VALUES" {
				return true
			}
		}
		return true
	}
	return rowKeywords[first]
}

func isWordStart(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isWordPart(ch byte) bool {
	return isWordStart(ch) || ch >= '0' && ch <= '9' || ch == '$'
}
