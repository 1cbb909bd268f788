package rewrite

import (
	"regexp"
)

var youtubeDirective = regexp.MustCompile(
	`\[youtube\s+(?:https?://(?:www\.)?youtube\.com/watch\?v=|https?://youtu\.be/)([^\]\s]+?)\s*\]`,
)

const youtubeThumbnail = `[![Play video on YouTube](https://i1.ytimg.com/vi/${1}/hqdefault.jpg)](https://www.youtube.com/watch?v=${1})`

// VideoEmbeds replaces every [youtube URL] directive with a linked thumbnail.
// Both the watch?v= and the youtu.be URL forms are recognised.
type VideoEmbeds struct{}

// NewVideoEmbeds creates a VideoEmbeds rule
func NewVideoEmbeds() *VideoEmbeds { return &VideoEmbeds{} }

// Name implements Rule
func (*VideoEmbeds) Name() string { return "video_embeds" }

// Apply implements Rule
func (*VideoEmbeds) Apply(text string) (string, error) {
	if !youtubeDirective.MatchString(text) {
		return text, nil
	}
	return youtubeDirective.ReplaceAllString(text, youtubeThumbnail), nil
}
