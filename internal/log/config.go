package log

import (
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	default:
		return "json"
	}
}

// ParseFormat parses a string into a Format. Unknown values fall back to text
// because the logger mostly writes to a terminal.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer
func (o Output) Writer() io.Writer {
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// OutputDiscard creates an Output that drops everything
func OutputDiscard() Output {
	return Output{writer: io.Discard}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every record as "service"
	ServiceName string

	// ServiceVersion is the version of the binary
	ServiceVersion string
}

// DefaultConfig logs at INFO in text format to stderr. Stdout is reserved for
// command output such as plans and task lists.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatText,
		Output:         OutputStderr(),
		ServiceName:    "pressbuild",
		ServiceVersion: "dev",
	}
}

// FromFlags builds a Config from the CLI's --log-level and --log-format values
func FromFlags(level, format, version string) Config {
	cfg := DefaultConfig()
	cfg.Level = ParseLevel(level)
	cfg.Format = ParseFormat(format)
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}
