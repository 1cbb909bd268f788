package rewrite

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// Defaults for WordPress readmes
const (
	DefaultTagMarker    = "**Tags:**"
	DefaultTagSeparator = ", "
	DefaultTagTemplate  = "https://wordpress.org/plugins/tags/{tag}/"
)

var linkedToken = regexp.MustCompile(`^\[[^\]]+\]\([^)]*\)$`)

// TagLinks turns the tag list that follows Marker into markdown links.
// Template may use {tag} (the tag, path escaped) and {slug} (a URL slug).
// Only the marker line is touched; tag words elsewhere are left alone.
type TagLinks struct {
	Marker    string
	Separator string
	Template  string
	Mandatory bool

	pattern *regexp.Regexp
}

// NewTagLinks creates a TagLinks rule, filling empty fields with defaults
func NewTagLinks(marker, separator, template string, mandatory bool) *TagLinks {
	if marker == "" {
		marker = DefaultTagMarker
	}
	if separator == "" {
		separator = DefaultTagSeparator
	}
	if template == "" {
		template = DefaultTagTemplate
	}
	return &TagLinks{
		Marker:    marker,
		Separator: separator,
		Template:  template,
		Mandatory: mandatory,
		pattern:   regexp.MustCompile(`(?m)^([ \t]*` + regexp.QuoteMeta(marker) + `)([^\r\n]*)`),
	}
}

// Name implements Rule
func (r *TagLinks) Name() string { return "tag_links" }

// Apply implements Rule
func (r *TagLinks) Apply(text string) (string, error) {
	matches := r.pattern.FindAllStringSubmatchIndex(text, -1)
	switch {
	case len(matches) == 0:
		if r.Mandatory {
			return text, &MissingAnchorError{Rule: r.Name(), Anchor: r.Marker}
		}
		return text, nil
	case len(matches) > 1:
		lines := make([]int, len(matches))
		for i, m := range matches {
			lines[i] = lineOf(text, m[0])
		}
		return text, &AmbiguousMatchError{Rule: r.Name(), Anchor: r.Marker, Lines: lines}
	}

	m := matches[0]
	rest := text[m[4]:m[5]]
	linked := r.linkList(rest)
	if linked == rest {
		return text, nil
	}
	return text[:m[4]] + linked + text[m[5]:], nil
}

// linkList rewrites the text after the marker, keeping surrounding whitespace
func (r *TagLinks) linkList(rest string) string {
	body := strings.TrimSpace(rest)
	if body == "" {
		return rest
	}
	lead := rest[:strings.Index(rest, body)]
	trail := rest[len(lead)+len(body):]

	tokens := strings.Split(body, r.Separator)
	for i, tok := range tokens {
		tag := strings.TrimSpace(tok)
		if tag == "" || r.linked(tag) {
			continue
		}
		tokens[i] = "[" + tag + "](" + r.href(tag) + ")"
	}
	return lead + strings.Join(tokens, r.Separator) + trail
}

// linked reports whether tok is already a markdown link. A tag may itself
// contain "]" or ")", so a token this rule produced is recognised by
// rebuilding it from every candidate tag it could wrap.
func (r *TagLinks) linked(tok string) bool {
	if linkedToken.MatchString(tok) {
		return true
	}
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, ")") {
		return false
	}
	for i := 1; i < len(tok); i++ {
		j := strings.Index(tok[i:], "](")
		if j < 0 {
			return false
		}
		i += j
		tag := tok[1:i]
		if tag != "" && tok == "["+tag+"]("+r.href(tag)+")" {
			return true
		}
	}
	return false
}

func (r *TagLinks) href(tag string) string {
	return strings.NewReplacer("{tag}", url.PathEscape(tag), "{slug}", slug.Make(tag)).Replace(r.Template)
}
