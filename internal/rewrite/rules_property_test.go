package rewrite

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/felixgeelhaar/pressbuild/internal/domain"
)

// readmeLine generates lines a plugin readme plausibly contains, including
// the anchors the rules look for.
func readmeLine() *rapid.Generator[string] {
	word := rapid.StringMatching(`[a-z][a-z0-9]{0,7}`)
	// tags may carry spaces, brackets and parentheses but never the separator
	tag := rapid.StringMatching(`[a-z][a-z0-9 ()\[\]+!]{0,7}`)
	return rapid.OneOf(
		rapid.Just(""),
		rapid.Just("## Description ##"),
		rapid.Just("== Changelog =="),
		rapid.Just("=== Demo Plugin ==="),
		rapid.Map(word, func(w string) string { return "Contributors: " + w }),
		rapid.Map(rapid.SliceOfN(tag, 1, 4), func(ws []string) string {
			return "**Tags:** " + strings.Join(ws, ", ")
		}),
		rapid.Map(word, func(w string) string { return "[youtube https://youtu.be/" + w + "]" }),
		rapid.Map(word, func(w string) string { return "Some text about " + w + "." }),
		rapid.Just("Version: 0.1.0"),
		rapid.Just(" * @since NEXT"),
		rapid.Just("const VERSION = '0.0.1';"),
	)
}

// TestRulesIdempotent verifies that every rule, and a full pipeline, leaves
// its own output unchanged on a second pass.
func TestRulesIdempotent(t *testing.T) {
	v := domain.MustVersion("2.3.4")
	version, err := NewVersionStamp(v, false)
	if err != nil {
		t.Fatal(err)
	}
	badges, err := NewBadges("", []string{"![v](https://img.shields.io/badge/v-{{ .Version }}-blue.svg)"},
		map[string]string{"Version": v.String()}, false)
	if err != nil {
		t.Fatal(err)
	}

	rules := []Rule{
		NewReadmeMarkdown(),
		NewTagLinks("", "", "https://example.org/t/{slug}/{tag}/", false),
		NewVideoEmbeds(),
		badges,
		version,
		NewSinceStamp(v),
		NewConstantStamp(v),
	}

	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(readmeLine(), 0, 20).Draw(t, "lines")
		eol := rapid.SampledFrom([]string{"\n", "\r\n"}).Draw(t, "eol")
		text := strings.Join(lines, eol)

		for _, rule := range rules {
			once, err := rule.Apply(text)
			if err != nil {
				// ambiguous anchors are reported, not rewritten
				if once != text {
					t.Fatalf("%s: failed rule changed text", rule.Name())
				}
				continue
			}
			twice, err := rule.Apply(once)
			if err != nil {
				t.Fatalf("%s: second pass failed: %v", rule.Name(), err)
			}
			if twice != once {
				t.Fatalf("%s: not idempotent\nonce:  %q\ntwice: %q", rule.Name(), once, twice)
			}
		}

		doc := NewDocument("readme.txt", []byte(text))
		if err := Apply(doc, stepsOf(rules)); err != nil {
			if doc.Changed() {
				t.Fatalf("failed pipeline changed document")
			}
			return
		}
		again := NewDocument("readme.txt", []byte(doc.Text))
		if err := Apply(again, stepsOf(rules)); err != nil {
			t.Fatalf("second pipeline pass failed: %v", err)
		}
		if again.Changed() {
			t.Fatalf("pipeline not idempotent\nonce:  %q\ntwice: %q", doc.Text, again.Text)
		}
	})
}

func stepsOf(rules []Rule) []Step {
	steps := make([]Step, len(rules))
	for i, r := range rules {
		steps[i] = Step{Priority: i, Rule: r}
	}
	return steps
}
