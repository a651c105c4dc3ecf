// Package logger provides tagged, leveled console output used across the
// voyage optimization pipeline's CLI entrypoints and long-running stages.
package logger

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + colorReset
}

func tagged(level, color, tag, msg string) {
	fmt.Printf("%s %s %s\n", paint(color, level), paint(colorBold, "["+tag+"]"), msg)
}

// Info logs a neutral progress message under the given tag.
func Info(tag, msg string) {
	tagged("·", colorGray, tag, msg)
}

// Success logs a completed-step message under the given tag.
func Success(tag, msg string) {
	tagged("✓", colorGreen, tag, msg)
}

// Warn logs a recoverable-condition message under the given tag.
func Warn(tag, msg string) {
	tagged("!", colorYellow, tag, msg)
}

// Error logs a failure message under the given tag.
func Error(tag, msg string) {
	tagged("✗", colorRed, tag, msg)
}

// Section prints a labeled divider, used before a block of related Stats.
func Section(title string) {
	fmt.Println()
	fmt.Println(paint(colorCyan+colorBold, "== "+title+" =="))
}

// Stats prints a single key/value line under the most recent Section.
func Stats(key string, value any) {
	fmt.Printf("  %-28s %v\n", key+":", value)
}

// Banner prints the startup banner for a CLI entrypoint.
func Banner(version string) {
	fmt.Println(paint(colorCyan+colorBold, "Voyage Optimization"))
	if version != "" {
		fmt.Println(paint(colorGray, "version "+version))
	}
	fmt.Println()
}
