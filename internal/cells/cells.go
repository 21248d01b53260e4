// Package cells interprets the schema-free cell layout produced by the
// completion model. Interpretation is pure: it never touches the network,
// never fails and reports every problem as a Diagnostic.
package cells

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind tells a renderer what a box contains
type Kind string

const (
	KindText        Kind = "text"        // caption/content pairs
	KindColor       Kind = "color"       // flat background, no text
	KindPlaceholder Kind = "placeholder" // text was present but not a list
	KindEmpty       Kind = "empty"       // neither text nor color
)

// PlaceholderText replaces a text field that is not an ordered list
const PlaceholderText = "No text content available"

// TextEntry is one caption/content pair of a text box
type TextEntry struct {
	Caption string `json:"caption"`
	Content string `json:"content"`
}

// Box is one renderable cell
type Box struct {
	Index  int         `json:"index"`
	Kind   Kind        `json:"kind"`
	Width  Dimension   `json:"-"`
	Height Dimension   `json:"-"`
	Color  string      `json:"color,omitempty"`
	Text   []TextEntry `json:"text,omitempty"`
}

// Diagnostic describes a problem found in one entry. Index is -1 for
// problems with the payload as a whole.
type Diagnostic struct {
	Index   int
	Message string
}

func (d Diagnostic) String() string {
	if d.Index < 0 {
		return d.Message
	}
	return fmt.Sprintf("cell_%d: %s", d.Index, d.Message)
}

// Layout is the interpreted cells collection
type Layout struct {
	Boxes       []Box
	Diagnostics []Diagnostic
	// Entries counts the array elements seen, rendered or not
	Entries int
}

// Empty reports whether there is nothing to draw
func (l Layout) Empty() bool {
	return len(l.Boxes) == 0
}

func (l *Layout) diag(index int, format string, args ...any) {
	l.Diagnostics = append(l.Diagnostics, Diagnostic{Index: index, Message: fmt.Sprintf(format, args...)})
}

var (
	hexColor  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColor = regexp.MustCompile(`^(?i:rgba?|hsla?)\([0-9.,%\s/deg]+\)$`)
	namedCSS  = regexp.MustCompile(`^[a-zA-Z]{3,24}$`)
)

// ValidColor reports whether s is a CSS color this package will emit.
// Only hex, rgb[a]/hsl[a] functions and bare color names pass, so the
// value is safe inside an inline style attribute.
func ValidColor(s string) bool {
	s = strings.TrimSpace(s)
	return hexColor.MatchString(s) || funcColor.MatchString(s) || namedCSS.MatchString(s)
}

// Key returns the payload key expected for the entry at index
func Key(index int) string {
	return fmt.Sprintf("cell_%d", index)
}

// Interpret turns the raw cells array into a Layout. Element i must be an
// object holding its payload under Key(i); elements that do not are
// skipped with a diagnostic and the rest are still rendered.
func Interpret(raw []byte) Layout {
	var layout Layout

	if len(strings.TrimSpace(string(raw))) == 0 {
		return layout
	}
	if !gjson.ValidBytes(raw) {
		layout.diag(-1, "cells payload is not valid JSON")
		return layout
	}

	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		layout.diag(-1, "cells payload is not an array")
		return layout
	}

	for i, entry := range root.Array() {
		layout.Entries++
		if box, ok := interpretEntry(i, entry, &layout); ok {
			layout.Boxes = append(layout.Boxes, box)
		}
	}

	return layout
}

func interpretEntry(index int, entry gjson.Result, layout *Layout) (Box, bool) {
	if !entry.IsObject() {
		layout.diag(index, "entry is not an object")
		return Box{}, false
	}

	key := Key(index)
	payload := entry.Get(key)
	if !payload.Exists() {
		layout.diag(index, "no data found for %s", key)
		return Box{}, false
	}
	if !payload.IsObject() {
		layout.diag(index, "%s is not an object", key)
		return Box{}, false
	}

	box := Box{
		Index:  index,
		Width:  resolveSize(index, payload.Get("size.width"), false, layout),
		Height: resolveSize(index, payload.Get("size.height"), true, layout),
	}

	if color := payload.Get("color"); color.Exists() && color.Type != gjson.Null {
		value := strings.TrimSpace(color.String())
		if color.Type == gjson.String && ValidColor(value) {
			box.Kind = KindColor
			box.Color = value
			return box, true
		}
		layout.diag(index, "ignoring invalid color %q", color.Raw)
	}

	text := payload.Get("text")
	switch {
	case !text.Exists() || text.Type == gjson.Null:
		box.Kind = KindEmpty
	case text.IsArray():
		box.Kind = KindText
		box.Text = interpretText(index, text, layout)
	default:
		layout.diag(index, "text is not a list")
		box.Kind = KindPlaceholder
	}

	return box, true
}

func interpretText(index int, text gjson.Result, layout *Layout) []TextEntry {
	items := text.Array()
	entries := make([]TextEntry, 0, len(items))
	for j, item := range items {
		if !item.IsObject() {
			layout.diag(index, "text[%d] is not an object", j)
			continue
		}
		entries = append(entries, TextEntry{
			Caption: item.Get("caption").String(),
			Content: item.Get("content").String(),
		})
	}
	return entries
}

// resolveSize applies the size policy: a missing width is full, a missing
// height is auto; unusable values fall back to those defaults and values
// above 1 are clamped to full.
func resolveSize(index int, value gjson.Result, height bool, layout *Layout) Dimension {
	def := FullSize()
	name := "width"
	if height {
		def = AutoSize()
		name = "height"
	}

	if !value.Exists() || value.Type == gjson.Null {
		return def
	}
	if value.IsObject() || value.IsArray() {
		layout.diag(index, "%s is not a fraction", name)
		return def
	}

	dim, err := ParseDimension(value.String(), height)
	if err != nil {
		layout.diag(index, "%s: %v, using %s", name, err, def)
		return def
	}
	if !dim.Auto && dim.Fraction > 1 {
		layout.diag(index, "%s %s exceeds the container, clamping", name, dim)
		return FullSize()
	}
	return dim
}
