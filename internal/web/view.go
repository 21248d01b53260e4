package web

import (
	"html/template"

	"github.com/diogo/cellchat/internal/cells"
	"github.com/diogo/cellchat/internal/models"
	"github.com/diogo/cellchat/internal/session"
)

// stateView is the JSON shape pushed to the page
type stateView struct {
	Messages    []messageView `json:"messages"`
	Cells       []cellView    `json:"cells"`
	Loading     bool          `json:"loading"`
	Generation  uint64        `json:"generation"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
}

// messageView carries assistant replies pre-rendered as sanitized HTML
type messageView struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
	HTML    string      `json:"html,omitempty"`
}

// SafeHTML returns the sanitized reply markup
func (m messageView) SafeHTML() template.HTML {
	return template.HTML(m.HTML)
}

type cellView struct {
	Key   string            `json:"key"`
	Kind  cells.Kind        `json:"kind"`
	Style string            `json:"style"`
	Color string            `json:"color,omitempty"`
	Text  []cells.TextEntry `json:"text,omitempty"`
}

// SafeStyle marks the declarations as trusted CSS for html/template.
// Colors are whitelisted and sizes normalized by the interpreter.
func (c cellView) SafeStyle() template.CSS {
	return template.CSS(c.Style)
}

// Placeholder is the text shown for text fields that are not lists
func (c cellView) Placeholder() string {
	return cells.PlaceholderText
}

func newStateView(s session.State) stateView {
	view := stateView{
		Messages:   make([]messageView, 0, len(s.Messages)),
		Cells:      make([]cellView, 0, len(s.Layout.Boxes)),
		Loading:    s.Loading,
		Generation: s.Generation,
	}

	for _, m := range s.Messages {
		mv := messageView{Role: m.Role, Content: m.Content}
		if !m.IsUser() {
			mv.HTML = renderReply(m.Content)
		}
		view.Messages = append(view.Messages, mv)
	}

	for _, box := range s.Layout.Boxes {
		view.Cells = append(view.Cells, cellView{
			Key:   cells.Key(box.Index),
			Kind:  box.Kind,
			Style: box.CSS(),
			Color: box.Color,
			Text:  box.Text,
		})
	}
	for _, d := range s.Layout.Diagnostics {
		view.Diagnostics = append(view.Diagnostics, d.String())
	}
	return view
}
