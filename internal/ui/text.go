package ui

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...interface{}) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// Underline puts a line of char under title, indented like title.
func Underline(indent, title string, char rune) string {
	return indent + title + "\n" + indent + strings.Repeat(string(char), utf8.RuneCountInString(title))
}

// Done prefixes message with a success mark.
func Done(message string) string {
	return Success.Sprint("✓") + " " + message
}

// Failed prefixes message with an error mark.
func Failed(message string) string {
	return Error.Sprint("✗") + " " + message
}

// Scope renders alternating keys and values as "k=v | k=v", highlighting values.
func Scope(keyvals ...string) string {
	parts := make([]string, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		parts = append(parts, keyvals[i]+"="+Highlight.Sprint(keyvals[i+1]))
	}
	return strings.Join(parts, " | ")
}

// noColor returns true if color output should be disabled.
func noColor() bool {
	// NO_COLOR (https://no-color.org/) wins over terminal detection.
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

// Semantic formatters for different types of CLI output.
var (
	// Code formats runnable commands, `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats credential and log file locations.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info formats error context keys.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats repository, account and user names, 'quoted' without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats key states and other secondary text, (parenthesised) without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
