package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/cellchat/internal/cells"
)

const (
	// cellGap is the number of blank columns between boxes on a row
	cellGap = 1
	// minCellRows mirrors the 100px minimum height of the web boxes
	minCellRows = 5
)

// Cells draws a layout as terminal boxes. Boxes flow left to right and
// wrap when the next one no longer fits in width; rows are separated by
// a blank line. height is the container height used for fractional
// heights.
func Cells(layout cells.Layout, width, height int, theme TUITheme) string {
	if layout.Empty() || width <= 0 {
		return ""
	}

	var rows []string
	var row []string
	used := 0

	flush := func() {
		if len(row) == 0 {
			return
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
		row, used = nil, 0
	}

	for _, box := range layout.Boxes {
		w := box.Width.Span(width, cellGap)
		if w > width {
			w = width
		}

		need := w
		if len(row) > 0 {
			need += cellGap
		}
		if used+need > width {
			flush()
			need = w
		}

		if len(row) > 0 {
			row = append(row, strings.Repeat(" ", cellGap))
		}
		row = append(row, drawBox(box, w, boxRows(box, height), theme))
		used += need
	}
	flush()

	return strings.Join(rows, "\n\n")
}

// boxRows returns the fixed height of a box, or 0 for content height
func boxRows(box cells.Box, height int) int {
	if box.Height.Auto {
		return 0
	}
	h := box.Height.Span(height, 1)
	if h < minCellRows {
		h = minCellRows
	}
	return h
}

func drawBox(box cells.Box, width, rows int, theme TUITheme) string {
	if box.Kind == cells.KindColor {
		if bg, ok := ParseColor(box.Color); ok {
			return fillBox(bg, box.Color, width, rows)
		}
	}

	// border plus one column of padding on each side
	inner := width - 4
	if inner < 1 {
		inner = 1
	}

	var body string
	switch box.Kind {
	case cells.KindText:
		body = textBody(box.Text, inner, theme)
	case cells.KindPlaceholder:
		body = lipgloss.NewStyle().Italic(true).Foreground(theme.TextDim).Render(cells.PlaceholderText)
	case cells.KindColor:
		body = lipgloss.NewStyle().Foreground(theme.TextMute).Render(box.Color)
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Background(theme.CellPaper).
		Foreground(theme.CellInk).
		Padding(0, 1).
		Width(width - 2)

	contentRows := rows - 2
	if rows == 0 {
		contentRows = minCellRows - 2
		if n := lipgloss.Height(body); n > contentRows {
			contentRows = n
		}
	}
	if contentRows < 1 {
		contentRows = 1
	}
	body = truncateLines(body, contentRows)

	return style.Height(contentRows).Render(body)
}

func textBody(entries []cells.TextEntry, width int, theme TUITheme) string {
	caption := lipgloss.NewStyle().Bold(true).Foreground(theme.CellCaption).Width(width)
	content := lipgloss.NewStyle().Foreground(theme.CellInk).Width(width)

	parts := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		if e.Caption != "" {
			parts = append(parts, caption.Render(e.Caption))
		}
		if e.Content != "" {
			parts = append(parts, content.Render(e.Content))
		}
	}
	return strings.Join(parts, "\n")
}

// fillBox paints a flat color block with the color value as a small label
// in contrasting ink on the first line
func fillBox(bg lipgloss.Color, label string, width, rows int) string {
	if rows == 0 {
		rows = minCellRows
	}
	blank := lipgloss.NewStyle().Background(bg).Render(strings.Repeat(" ", width))
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = blank
	}

	if label = strings.TrimSpace(label); label != "" && width > 2 {
		runes := []rune(label)
		if len(runes) > width-2 {
			runes = runes[:width-2]
		}
		lines[0] = lipgloss.NewStyle().
			Background(bg).
			Foreground(ContrastText(bg)).
			Width(width).
			Render(" " + string(runes))
	}
	return strings.Join(lines, "\n")
}

func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n")
}
