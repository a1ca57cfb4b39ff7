package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	info    = color.New(color.FgCyan)
	faint   = color.New(color.Faint)
)

var stdout io.Writer = os.Stdout

func printSuccess(format string, args ...interface{}) {
	success.Fprintf(stdout, "✓ "+format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	failure.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render prints v as JSON in json mode and calls text otherwise
func render(v interface{}, text func()) error {
	if output == "json" {
		return printJSON(v)
	}
	text()
	return nil
}

// karmaColor matches the score colour bands of the web UI
func karmaColor(score int64) *color.Color {
	switch {
	case score >= 50:
		return color.New(color.FgGreen, color.Bold)
	case score > 0:
		return color.New(color.FgGreen)
	case score == 0:
		return faint
	case score > -50:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
