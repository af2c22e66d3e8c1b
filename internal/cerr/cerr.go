// Package cerr implements the compile-time error taxonomy and the
// highlighted source-excerpt reporting described in spec.md §6/§7: a
// CompileError carries a message and, where a source span is known, an
// ErrorContext of source lines with an inverted-caret underline.
package cerr

import (
	"fmt"
	"io"
	"strings"
)

// Kind classifies a CompileError per the taxonomy in spec.md §7.
type Kind int

const (
	IoError Kind = iota
	ParseError
	SymbolError
	TypeError
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "I/O error"
	case ParseError:
		return "parse error"
	case SymbolError:
		return "symbol error"
	case TypeError:
		return "type error"
	default:
		return "error"
	}
}

// ErrorContext holds the source lines spanning [start, end) together with
// the 1-based line/column of start, for diagnostic display.
type ErrorContext struct {
	lines  []highlightedLine
	line   int
	column int
}

type highlightedLine struct {
	text       string
	start, end int
}

// NewErrorContext slices source into the lines covered by the byte range
// [start, end) and records where on each line the highlight should run.
// Returns nil if the range does not resolve to any line (e.g. end <= start
// beyond EOF).
func NewErrorContext(source string, start, end int) *ErrorContext {
	line, col := 1, 1
	for i, c := range source {
		if i >= start {
			break
		}
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	var lines []highlightedLine
	lineStart := 0
	appendLine := func(lineEnd int) {
		if lineEnd < start && lineEnd < end {
			return
		}
		s := max(start, lineStart) - lineStart
		e := min(end, lineEnd) - lineStart
		if e < s {
			e = s
		}
		lines = append(lines, highlightedLine{text: source[lineStart:lineEnd], start: s, end: e})
	}

	for i, c := range source {
		if c == '\n' {
			if i >= start {
				appendLine(i)
			}
			if i >= end {
				return &ErrorContext{lines: lines, line: line, column: col}
			}
			lineStart = i + 1
		}
	}
	if start <= len(source) {
		appendLine(len(source))
		return &ErrorContext{lines: lines, line: line, column: col}
	}
	return nil
}

// Report writes the highlighted excerpt to w.
func (c *ErrorContext) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "in line %d, column %d:\n", c.line, c.column); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "|"); err != nil {
		return err
	}
	for _, l := range c.lines {
		if _, err := fmt.Fprintf(w, "| %s\n", l.text); err != nil {
			return err
		}
		n := l.end - l.start
		if n < 0 {
			n = 0
		}
		if _, err := fmt.Fprintf(w, "| %s%s\n", strings.Repeat(" ", l.start), strings.Repeat("^", n)); err != nil {
			return err
		}
	}
	return nil
}

// CompileError is a taxonomized compile-time failure, optionally carrying
// an ErrorContext for source highlighting.
type CompileError struct {
	Kind    Kind
	Msg     string
	Context *ErrorContext
}

// New builds a CompileError with no source context attached.
func New(kind Kind, msg string) *CompileError {
	return &CompileError{Kind: kind, Msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) *CompileError {
	return New(kind, fmt.Sprintf(format, args...))
}

// NewWithContext builds a CompileError highlighting the byte range
// [start, end) of source.
func NewWithContext(kind Kind, source string, start, end int, msg string) *CompileError {
	return &CompileError{Kind: kind, Msg: msg, Context: NewErrorContext(source, start, end)}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Report writes the full diagnostic (message plus, if present, the
// highlighted excerpt) to w.
func (e *CompileError) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "\nerror: %s\n", e.Msg); err != nil {
		return err
	}
	if e.Context != nil {
		return e.Context.Report(w)
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
