package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatters.
// This enables consistent output formatting across all commands.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data interface{}) error
}

// Renderer is implemented by views that know how to draw themselves as text
type Renderer interface {
	Render(s Styles) string
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for text formatters
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case FormatJSON:
		return &JSONFormatter{opts: opts}, nil
	case FormatYAML:
		return &YAMLFormatter{opts: opts}, nil
	case FormatText, "":
		return &TextFormatter{opts: opts, styles: NewStyles(opts.NoColor)}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data interface{}) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts   *FormatterOptions
	styles Styles
}

// Format writes data as formatted text. Data must be a Renderer, a
// fmt.Stringer or a string.
func (f *TextFormatter) Format(data interface{}) error {
	switch v := data.(type) {
	case Renderer:
		_, err := fmt.Fprint(f.opts.Writer, v.Render(f.styles))
		return err
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text formatter requires data to implement Render or String, got %T", data)
	}
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
