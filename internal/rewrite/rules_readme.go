package rewrite

import (
	"regexp"
	"strings"
)

var (
	readmeHeading = regexp.MustCompile(`^(={1,3})[ \t]+(.+?)[ \t]+(={1,3})[ \t]*$`)
	readmeField   = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?):[ \t]*(.*)$`)
)

// ReadmeMarkdown converts the WordPress readme.txt dialect to markdown:
// "=== T ===" becomes "# T #", "== T ==" "## T ##" and "= T =" "### T ###";
// "Field: value" lines in the header block below the title become
// "**Field:** value". Converted lines no longer match, so the rule is
// idempotent.
type ReadmeMarkdown struct{}

// NewReadmeMarkdown creates a ReadmeMarkdown rule
func NewReadmeMarkdown() *ReadmeMarkdown { return &ReadmeMarkdown{} }

// Name implements Rule
func (*ReadmeMarkdown) Name() string { return "readme_markdown" }

// Apply implements Rule
func (*ReadmeMarkdown) Apply(text string) (string, error) {
	lines := strings.Split(text, "\n")
	inHeader := false
	changed := false

	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		cr := raw[len(line):]

		if m := readmeHeading.FindStringSubmatch(line); m != nil && len(m[1]) == len(m[3]) {
			level := 4 - len(m[1])
			hashes := strings.Repeat("#", level)
			lines[i] = hashes + " " + m[2] + " " + hashes + cr
			inHeader = level == 1
			changed = true
			continue
		}

		if strings.TrimSpace(line) == "" {
			inHeader = false
			continue
		}

		if inHeader {
			if m := readmeField.FindStringSubmatch(line); m != nil {
				lines[i] = "**" + m[1] + ":** " + m[2] + cr
				changed = true
			}
		}
	}

	if !changed {
		return text, nil
	}
	return strings.Join(lines, "\n"), nil
}
