package manifest

import (
	"fmt"

	"github.com/gosimple/slug"

	"github.com/felixgeelhaar/pressbuild/internal/domain"
	"github.com/felixgeelhaar/pressbuild/internal/rewrite"
)

// Rule kinds accepted in pipelines
const (
	RuleReadmeMarkdown = "readme_markdown"
	RuleTagLinks       = "tag_links"
	RuleVideoEmbeds    = "video_embeds"
	RuleBadges         = "badges"
	RuleVersionStamp   = "version_stamp"
	RuleSinceStamp     = "since_stamp"
	RuleConstantStamp  = "constant_stamp"
	RuleStableTag      = "stable_tag"
)

var ruleKinds = map[string]bool{
	RuleReadmeMarkdown: true,
	RuleTagLinks:       true,
	RuleVideoEmbeds:    true,
	RuleBadges:         true,
	RuleVersionStamp:   true,
	RuleSinceStamp:     true,
	RuleConstantStamp:  true,
	RuleStableTag:      true,
}

func knownRule(kind string) bool {
	return ruleKinds[kind]
}

// TemplateData is the package metadata badge templates are rendered against
type TemplateData struct {
	Name    string
	Slug    string
	Version string
	BugsURL string
	Extra   map[string]string
}

// TemplateData returns the values exposed to badge templates
func (m *Manifest) TemplateData() TemplateData {
	extra := m.Package.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	return TemplateData{
		Name:    m.Package.Name,
		Slug:    slug.Make(m.Package.Name),
		Version: m.Package.Version,
		BugsURL: m.Package.BugsURL,
		Extra:   extra,
	}
}

// Pipelines builds every declared rewrite pipeline. A step's priority
// defaults to its list position times ten.
func (m *Manifest) Pipelines() (map[string]*rewrite.Pipeline, error) {
	out := make(map[string]*rewrite.Pipeline, len(m.PipelineConfigs))
	for _, name := range sortedKeys(m.PipelineConfigs) {
		p := &rewrite.Pipeline{Name: name}
		for i, rc := range m.PipelineConfigs[name] {
			rule, err := m.buildRule(rc)
			if err != nil {
				return nil, fmt.Errorf("pipeline %s step %d: %w", name, i+1, err)
			}
			priority := (i + 1) * 10
			if rc.Priority != nil {
				priority = *rc.Priority
			}
			p.Add(priority, rule)
		}
		out[name] = p
	}
	return out, nil
}

func (m *Manifest) buildRule(rc RuleConfig) (rewrite.Rule, error) {
	if !knownRule(rc.Rule) {
		return nil, &rewrite.InvalidRuleError{Rule: rc.Rule, Reason: "unknown rule kind"}
	}

	switch rc.Rule {
	case RuleReadmeMarkdown:
		return rewrite.NewReadmeMarkdown(), nil
	case RuleVideoEmbeds:
		return rewrite.NewVideoEmbeds(), nil
	case RuleTagLinks:
		template := rc.Template
		if template == "" {
			template = m.Package.TagURL
		}
		return rewrite.NewTagLinks(rc.Marker, rc.Separator, template, rc.Mandatory), nil
	case RuleBadges:
		return rewrite.NewBadges(rc.Heading, m.Package.Badges, m.TemplateData(), rc.Mandatory)
	}

	v, err := m.version(rc.Rule)
	if err != nil {
		return nil, err
	}

	switch rc.Rule {
	case RuleVersionStamp:
		if rc.Field != "" {
			return rewrite.NewFieldStamp(RuleVersionStamp, rc.Field, v.String(), rc.Mandatory)
		}
		return rewrite.NewVersionStamp(v, rc.Mandatory)
	case RuleStableTag:
		if rc.Field != "" {
			return rewrite.NewFieldStamp(RuleStableTag, rc.Field, v.String(), rc.Mandatory)
		}
		return rewrite.NewStableTag(v, rc.Mandatory)
	case RuleSinceStamp:
		return rewrite.NewSinceStamp(v), nil
	default:
		return rewrite.NewConstantStamp(v), nil
	}
}

func (m *Manifest) version(rule string) (domain.Version, error) {
	if m.Package.Version == "" {
		return domain.Version{}, &rewrite.InvalidRuleError{
			Rule:   rule,
			Reason: "package.version is required (or set " + EnvVersion + ")",
		}
	}
	v, err := domain.NewVersion(m.Package.Version)
	if err != nil {
		return domain.Version{}, &rewrite.InvalidRuleError{Rule: rule, Reason: err.Error()}
	}
	return v, nil
}
