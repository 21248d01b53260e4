package render

import "strings"

// Markdown renders markdown content for terminal display with a pooled
// renderer.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := renderers.get(opts)
	if err != nil {
		return "", err
	}
	defer renderers.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownOrPlain renders content and falls back to the raw text when the
// renderer fails. Trailing newlines added by glamour are trimmed.
func MarkdownOrPlain(content string, opts Options) string {
	rendered, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
