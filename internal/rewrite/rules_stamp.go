package rewrite

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/pressbuild/internal/domain"
)

// FieldStamp rewrites the value of a labelled header field such as
// "Version: 1.2.3" or "**Stable tag:** 1.2.3". The label is matched
// case-insensitively at the start of a line, optionally preceded by a
// markdown "**" or a docblock "*". Only the value changes; markers and
// whitespace are kept. At most one line may carry the field.
type FieldStamp struct {
	RuleName  string
	Field     string
	Value     string
	Mandatory bool

	pattern *regexp.Regexp
}

// NewFieldStamp creates a FieldStamp for field
func NewFieldStamp(name, field, value string, mandatory bool) (*FieldStamp, error) {
	if strings.TrimSpace(field) == "" {
		return nil, &InvalidRuleError{Rule: name, Reason: "field label cannot be empty"}
	}
	if strings.TrimSpace(value) == "" {
		return nil, &InvalidRuleError{Rule: name, Reason: "value cannot be empty"}
	}

	pattern := regexp.MustCompile(
		`(?mi)^([ \t]*(?:\*\*|\*[ \t]*)?` + regexp.QuoteMeta(field) + `:(?:\*\*)?[ \t]*)` +
			`([A-Za-z0-9.+\-]+)([ \t]*\r?)$`,
	)
	return &FieldStamp{
		RuleName:  name,
		Field:     field,
		Value:     value,
		Mandatory: mandatory,
		pattern:   pattern,
	}, nil
}

// NewVersionStamp stamps the plugin header "Version:" field
func NewVersionStamp(v domain.Version, mandatory bool) (*FieldStamp, error) {
	return NewFieldStamp("version_stamp", "Version", v.String(), mandatory)
}

// NewStableTag stamps the readme "Stable tag:" field
func NewStableTag(v domain.Version, mandatory bool) (*FieldStamp, error) {
	return NewFieldStamp("stable_tag", "Stable tag", v.String(), mandatory)
}

// Name implements Rule
func (r *FieldStamp) Name() string { return r.RuleName }

// Apply implements Rule
func (r *FieldStamp) Apply(text string) (string, error) {
	matches := r.pattern.FindAllStringSubmatchIndex(text, -1)
	switch {
	case len(matches) == 0:
		if r.Mandatory {
			return text, &MissingAnchorError{Rule: r.Name(), Anchor: r.Field + ":"}
		}
		return text, nil
	case len(matches) > 1:
		lines := make([]int, len(matches))
		for i, m := range matches {
			lines[i] = lineOf(text, m[0])
		}
		return text, &AmbiguousMatchError{Rule: r.Name(), Anchor: r.Field + ":", Lines: lines}
	}

	m := matches[0]
	return text[:m[4]] + r.Value + text[m[5]:], nil
}

var (
	sincePlaceholder = regexp.MustCompile(`@since([^\r\n]*?)NEXT`)
	versionConstant  = regexp.MustCompile(`VERSION([ \t]*)=([ \t]*['"])[A-Za-z0-9.+\-]+`)
)

// SinceStamp replaces every "@since NEXT" placeholder with the release version
type SinceStamp struct {
	Version string
}

// NewSinceStamp creates a SinceStamp rule
func NewSinceStamp(v domain.Version) *SinceStamp {
	return &SinceStamp{Version: v.String()}
}

// Name implements Rule
func (*SinceStamp) Name() string { return "since_stamp" }

// Apply implements Rule
func (r *SinceStamp) Apply(text string) (string, error) {
	return sincePlaceholder.ReplaceAllString(text, "@since${1}"+escapeReplacement(r.Version)), nil
}

// ConstantStamp rewrites every `VERSION = '...'` constant assignment
type ConstantStamp struct {
	Version string
}

// NewConstantStamp creates a ConstantStamp rule
func NewConstantStamp(v domain.Version) *ConstantStamp {
	return &ConstantStamp{Version: v.String()}
}

// Name implements Rule
func (*ConstantStamp) Name() string { return "constant_stamp" }

// Apply implements Rule
func (r *ConstantStamp) Apply(text string) (string, error) {
	return versionConstant.ReplaceAllString(text, "VERSION${1}=${2}"+escapeReplacement(r.Version)), nil
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
