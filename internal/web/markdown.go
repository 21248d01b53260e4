package web

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	replyMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// replyPolicy keeps formatting and drops anything executable
	replyPolicy = bluemonday.UGCPolicy().
			AllowURLSchemes("http", "https", "mailto").
			RequireNoFollowOnLinks(true)
)

// renderReply converts an assistant reply to sanitized HTML. It returns ""
// when the reply cannot be converted, and the page falls back to plain text.
func renderReply(src string) string {
	var sb strings.Builder
	if err := replyMarkdown.Convert([]byte(src), &sb); err != nil {
		return ""
	}
	return strings.TrimSpace(replyPolicy.Sanitize(sb.String()))
}
