// Package text formats the help text of CLI commands.
package text

import (
	"strings"
)

// Indentation is the indentation of example lines.
const Indentation = `  `

// LongDesc trims a long description written as an indented raw string.
func LongDesc(s string) string {
	if len(s) == 0 {
		return s
	}

	return normalizer{s}.trim().dedent().string
}

// Examples trims the examples and indents every line.
func Examples(s string) string {
	if len(s) == 0 {
		return s
	}

	return normalizer{s}.trim().indent().string
}

type normalizer struct {
	string
}

func (s normalizer) trim() normalizer {
	s.string = strings.TrimSpace(s.string)

	return s
}

func (s normalizer) dedent() normalizer {
	lines := strings.Split(s.string, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s.string = strings.Join(lines, "\n")

	return s
}

func (s normalizer) indent() normalizer {
	indentedLines := make([]string, 0, strings.Count(s.string, "\n")+1)
	for line := range strings.SplitSeq(s.string, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			indentedLines = append(indentedLines, "")
			continue
		}
		indentedLines = append(indentedLines, Indentation+trimmed)
	}
	s.string = strings.Join(indentedLines, "\n")

	return s
}
