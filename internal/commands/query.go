package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/cellchat/internal/models"
	"github.com/diogo/cellchat/internal/render"
	"github.com/diogo/cellchat/internal/session"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#e0af68")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	// Spinner characters
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	// Build spinner character with color
	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	// Build animated bar
	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	// Build animated dots
	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	// Message with color
	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	// Print animation (clear line first)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// cellsDocument is the --json output
type cellsDocument struct {
	Cells    json.RawMessage `json:"cells"`
	Response string          `json:"response"`
	Model    string          `json:"model,omitempty"`
}

// runQuery sends a single message and prints the resulting cells
func runQuery(d *Dependencies, prompt string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(logQuery, cfg.Verbose, d.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	state := session.NewState()
	req, err := state.Submit(prompt)
	if err != nil {
		return fmt.Errorf("prompt cannot be empty")
	}

	creds, err := d.LoadCredentials()
	if err != nil {
		return err
	}
	client, err := d.NewClient(cfg, creds)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer closeClient(client)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var spin *spinner
	if d.Interactive && !jsonFlag {
		spin = newSpinner(d.Stderr, "Generating cells")
		spin.start()
	}

	completion, err := session.Exchange(ctx, client, req)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}
	if err := state.Resolve(req.Generation, completion, nil); err != nil {
		return err
	}
	session.LogDiagnostics(state.Layout)

	if spin != nil {
		spin.stopWithSuccess(fmt.Sprintf("%d cells", len(state.Layout.Boxes)))
	}

	doc, err := json.MarshalIndent(cellsDocument{
		Cells:    completion.CellsJSON(),
		Response: completion.Acknowledgment(),
		Model:    completion.Model,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cells: %w", err)
	}

	if jsonFlag {
		fmt.Fprintln(d.Stdout, string(doc))
	} else {
		render.ApplyConfig(cfg)
		printCells(d, state, render.OptionsFromConfig(cfg))
	}

	if copyFlag {
		if err := d.CopyToClipboard(string(doc)); err != nil {
			warn := lipgloss.NewStyle().Foreground(colorWarning).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(d.Stderr, warn)
		} else {
			fmt.Fprintln(d.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	return nil
}

// printCells writes the acknowledgment bubble followed by the cell grid
func printCells(d *Dependencies, state session.State, mdOpts render.Options) {
	width, height := d.TerminalSize()
	bubbleWidth := width - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	ack := state.LastAssistant()
	if ack == "" {
		ack = models.DefaultAckText
	}
	rendered := strings.TrimRight(render.MarkdownOrPlain(ack, mdOpts.WithWidth(contentWidth)), "\n")

	fmt.Fprintln(d.Stdout, assistantLabelStyle.Render("✦ Cells"))
	fmt.Fprintln(d.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	if len(state.Layout.Boxes) == 0 {
		return
	}
	fmt.Fprintln(d.Stdout, render.Cells(state.Layout, width, height, render.GetTUITheme()))
}
