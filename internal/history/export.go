// Package history exports the conversation transcript. Nothing is read
// back; a transcript is a one-way snapshot.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/cellchat/internal/cells"
	"github.com/diogo/cellchat/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseFormat accepts "markdown", "md" or "json"
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q: use markdown or json", s)
	}
}

// Extension returns the file extension for the format
func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return ".json"
	}
	return ".md"
}

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format             ExportFormat
	IncludeCells       bool // Append the current cell layout
	IncludeDiagnostics bool // List entries the interpreter skipped or repaired
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:             ExportFormatMarkdown,
		IncludeCells:       true,
		IncludeDiagnostics: false,
	}
}

// Transcript is the exported view of a conversation
type Transcript struct {
	Model      string
	ExportedAt time.Time
	Messages   []models.Message
	Layout     cells.Layout
}

// Title is the first user message, shortened, or a generic title
func (t Transcript) Title() string {
	for _, m := range t.Messages {
		if m.IsUser() {
			title := strings.Join(strings.Fields(m.Content), " ")
			if len(title) > 60 {
				title = title[:57] + "..."
			}
			return title
		}
	}
	return "Cell chat"
}

// ExportToMarkdown exports a conversation to Markdown format
func ExportToMarkdown(t Transcript, opts ExportOptions) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(t.Title())
	sb.WriteString("\n\n")

	if t.Model != "" {
		sb.WriteString("**Model:** ")
		sb.WriteString(t.Model)
		sb.WriteString("\n")
	}
	sb.WriteString("**Exported:** ")
	sb.WriteString(t.ExportedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", len(t.Messages))

	for i, msg := range t.Messages {
		role := "Assistant"
		if msg.IsUser() {
			role = "User"
		}
		sb.WriteString("## ")
		sb.WriteString(role)
		sb.WriteString("\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	if opts.IncludeCells && !t.Layout.Empty() {
		sb.WriteString("\n---\n\n## Cells\n")
		for _, box := range t.Layout.Boxes {
			writeMarkdownBox(&sb, box)
		}
	}

	if opts.IncludeDiagnostics && len(t.Layout.Diagnostics) > 0 {
		sb.WriteString("\n## Diagnostics\n\n")
		for _, d := range t.Layout.Diagnostics {
			sb.WriteString("- ")
			sb.WriteString(d.String())
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func writeMarkdownBox(sb *strings.Builder, box cells.Box) {
	fmt.Fprintf(sb, "\n### %s (%s x %s)\n\n", cells.Key(box.Index), box.Width, box.Height)

	switch box.Kind {
	case cells.KindColor:
		fmt.Fprintf(sb, "Color: `%s`\n", box.Color)
	case cells.KindPlaceholder:
		fmt.Fprintf(sb, "_%s_\n", cells.PlaceholderText)
	case cells.KindEmpty:
		sb.WriteString("_Empty cell_\n")
	case cells.KindText:
		for _, entry := range box.Text {
			if entry.Caption != "" {
				fmt.Fprintf(sb, "**%s**\n\n", entry.Caption)
			}
			if entry.Content != "" {
				sb.WriteString(entry.Content)
				sb.WriteString("\n\n")
			}
		}
	}
}

type exportCell struct {
	Key    string            `json:"key"`
	Kind   cells.Kind        `json:"kind"`
	Width  string            `json:"width"`
	Height string            `json:"height"`
	Style  string            `json:"style"`
	Color  string            `json:"color,omitempty"`
	Text   []cells.TextEntry `json:"text,omitempty"`
}

type exportTranscript struct {
	Title       string           `json:"title"`
	Model       string           `json:"model,omitempty"`
	ExportedAt  time.Time        `json:"exported_at"`
	Messages    []models.Message `json:"messages"`
	Cells       []exportCell     `json:"cells,omitempty"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
}

// ExportToJSON exports a conversation to JSON format
func ExportToJSON(t Transcript, opts ExportOptions) ([]byte, error) {
	export := exportTranscript{
		Title:      t.Title(),
		Model:      t.Model,
		ExportedAt: t.ExportedAt,
		Messages:   t.Messages,
	}
	if export.Messages == nil {
		export.Messages = []models.Message{}
	}

	if opts.IncludeCells {
		for _, box := range t.Layout.Boxes {
			export.Cells = append(export.Cells, exportCell{
				Key:    cells.Key(box.Index),
				Kind:   box.Kind,
				Width:  box.Width.String(),
				Height: box.Height.String(),
				Style:  box.CSS(),
				Color:  box.Color,
				Text:   box.Text,
			})
		}
	}
	if opts.IncludeDiagnostics {
		for _, d := range t.Layout.Diagnostics {
			export.Diagnostics = append(export.Diagnostics, d.String())
		}
	}

	return json.MarshalIndent(export, "", "  ")
}

// Export renders the transcript in opts.Format
func Export(t Transcript, opts ExportOptions) ([]byte, error) {
	if opts.Format == ExportFormatJSON {
		return ExportToJSON(t, opts)
	}
	return []byte(ExportToMarkdown(t, opts)), nil
}

// WriteFile exports the transcript into dir and returns the file path
func WriteFile(dir string, t Transcript, opts ExportOptions) (string, error) {
	data, err := Export(t, opts)
	if err != nil {
		return "", fmt.Errorf("failed to export transcript: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	name := "cellchat-" + t.ExportedAt.Format("20060102-150405") + opts.Format.Extension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
