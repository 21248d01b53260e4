package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/diogo/cellchat/internal/api"
	"github.com/diogo/cellchat/internal/cells"
	"github.com/diogo/cellchat/internal/history"
	"github.com/diogo/cellchat/internal/models"
	"github.com/diogo/cellchat/internal/render"
	"github.com/diogo/cellchat/internal/session"
)

const (
	headerHeight = 1
	helpHeight   = 1
	inputHeight  = 3 // one line plus border
	statusHeight = 2 // notice or error below the input
)

// completionMsg carries the outcome of one request back to Update
type completionMsg struct {
	generation uint64
	completion *models.Completion
	err        error
}

// Options configures the chat model
type Options struct {
	ModelName string
	ExportDir string
	Markdown  render.Options
}

// Model is the split view: cells on the left, chat log and input on the
// right
type Model struct {
	client api.Completer
	opts   Options
	state  session.State

	keys      keyMap
	help      help.Model
	cellsView viewport.Model
	chatView  viewport.Model
	input     textinput.Model
	spinner   spinner.Model

	ready  bool
	err    error
	notice string
	cancel context.CancelFunc

	width  int
	height int

	// swapped in tests
	copyText func(string) error
	now      func() time.Time
}

// NewModel creates the chat model
func NewModel(client api.Completer, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe the cells you want..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	keys := defaultKeyMap()
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(colorTextDim).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorTextMute)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorTextMute)

	if opts.ModelName == "" {
		opts.ModelName = models.DefaultModel
	}
	if opts.Markdown.Style == "" {
		opts.Markdown = render.DefaultOptions()
	}

	return Model{
		client:   client,
		opts:     opts,
		state:    session.NewState(),
		keys:     keys,
		help:     h,
		input:    ti,
		spinner:  s,
		copyText: clipboard.WriteAll,
		now:      time.Now,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// State returns the conversation shown by the model
func (m Model) State() session.State {
	return m.state
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshCells()
		m.refreshChat()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancelRequest()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Cancel):
			if m.state.Loading {
				m.cancelRequest()
				m.notice = "Cancelling request..."
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.Send):
			return m.submit()

		case key.Matches(msg, m.keys.Copy):
			m.copyLastReply()
			return m, nil

		case key.Matches(msg, m.keys.Export):
			m.export()
			return m, nil

		case key.Matches(msg, m.keys.ChatUp, m.keys.ChatDown):
			m.chatView, cmd = m.chatView.Update(msg)
			return m, cmd

		case key.Matches(msg, m.keys.CellsUp, m.keys.CellsDown):
			m.cellsView, cmd = m.cellsView.Update(msg)
			return m, cmd
		}

		if !m.state.Loading {
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case completionMsg:
		m.resolve(msg)
		return m, nil

	case spinner.TickMsg:
		if m.state.Loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.input.Value()
	if trimmed := strings.TrimSpace(input); trimmed == "/quit" || trimmed == "/exit" {
		return m, tea.Quit
	}

	req, err := m.state.Submit(input)
	if err != nil {
		// empty input and busy state leave everything as it was; a busy
		// submit keeps its text so it can be sent once the reply lands
		return m, nil
	}

	m.input.Reset()
	m.err = nil
	m.notice = ""

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.refreshChat()
	m.chatView.GotoBottom()

	return m, tea.Batch(
		sendRequest(ctx, m.client, req),
		m.spinner.Tick,
	)
}

// sendRequest runs the request off the update loop
func sendRequest(ctx context.Context, client api.Completer, req session.Request) tea.Cmd {
	return func() tea.Msg {
		completion, err := session.Exchange(ctx, client, req)
		return completionMsg{generation: req.Generation, completion: completion, err: err}
	}
}

func (m *Model) resolve(msg completionMsg) {
	if err := m.state.Resolve(msg.generation, msg.completion, msg.err); err != nil {
		log.Debug().Uint64("generation", msg.generation).Msg("ignoring stale completion")
		return
	}

	m.cancelRequest()
	switch {
	case msg.err == nil:
		session.LogDiagnostics(m.state.Layout)
		m.notice = diagnosticsNotice(m.state.Layout.Diagnostics)
	case errors.Is(msg.err, context.Canceled):
		m.notice = "Request cancelled"
	default:
		m.err = msg.err
	}

	m.refreshCells()
	m.refreshChat()
	m.chatView.GotoBottom()
}

// diagnosticsNotice names the first problem inline; the log is off unless
// --verbose is set
func diagnosticsNotice(diags []cells.Diagnostic) string {
	switch len(diags) {
	case 0:
		return ""
	case 1:
		return "Skipped " + diags[0].String()
	default:
		return fmt.Sprintf("Skipped %s (+%d more)", diags[0].String(), len(diags)-1)
	}
}

func (m *Model) cancelRequest() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) copyLastReply() {
	text := m.state.LastAssistant()
	if err := m.copyText(text); err != nil {
		m.notice = "Clipboard unavailable: " + err.Error()
		return
	}
	m.notice = "Copied last reply"
}

func (m *Model) export() {
	dir := m.opts.ExportDir
	if dir == "" {
		m.notice = "No export directory configured"
		return
	}

	transcript := history.Transcript{
		Model:      m.opts.ModelName,
		ExportedAt: m.now(),
		Messages:   m.state.Messages,
		Layout:     m.state.Layout,
	}
	path, err := history.WriteFile(dir, transcript, history.DefaultExportOptions())
	if err != nil {
		m.err = err
		return
	}
	m.notice = "Exported to " + path
}

// panelWidths splits the screen two thirds to one third
func (m Model) panelWidths() (cellsWidth, chatWidth int) {
	cellsWidth = m.width * 2 / 3
	return cellsWidth, m.width - cellsWidth
}

func (m Model) bodyHeight() int {
	h := m.height - headerHeight - helpHeight
	if h < 8 {
		h = 8
	}
	return h
}

func (m *Model) resize() {
	cellsWidth, chatWidth := m.panelWidths()
	body := m.bodyHeight()

	// panels draw a one-cell border on every side
	cellsInnerW, cellsInnerH := max(cellsWidth-2, 1), max(body-2, 1)
	chatInnerW, chatInnerH := max(chatWidth-2, 1), max(body-2-inputHeight-statusHeight, 1)

	if !m.ready {
		m.cellsView = viewport.New(cellsInnerW, cellsInnerH)
		m.chatView = viewport.New(chatInnerW, chatInnerH)
		m.cellsView.KeyMap = cellsViewportKeys(m.keys)
		m.chatView.KeyMap = chatViewportKeys(m.keys)
	} else {
		m.cellsView.Width, m.cellsView.Height = cellsInnerW, cellsInnerH
		m.chatView.Width, m.chatView.Height = chatInnerW, chatInnerH
	}

	m.input.Width = max(chatWidth-4-lipgloss.Width(m.input.Prompt)-1, 1)
	m.help.Width = m.width
}

func (m *Model) refreshCells() {
	if m.state.Layout.Empty() {
		hint := hintStyle.Render("Cells will appear here. Try 'Create 3 cells explaining the water cycle'.")
		m.cellsView.SetContent(lipgloss.NewStyle().Width(m.cellsView.Width).Padding(1, 2).Render(hint))
		return
	}
	m.cellsView.SetContent(render.Cells(m.state.Layout, m.cellsView.Width, m.cellsView.Height, render.GetTUITheme()))
	m.cellsView.GotoTop()
}

func (m *Model) refreshChat() {
	var content strings.Builder
	bubbleWidth := max(m.chatView.Width-2, 10)

	for i, msg := range m.state.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			content.WriteString(userLabelStyle.Render("● You"))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		} else {
			content.WriteString(assistantLabelStyle.Render("✦ Assistant"))
			content.WriteString("\n")
			rendered := render.MarkdownOrPlain(msg.Content, m.opts.Markdown.WithWidth(bubbleWidth-4))
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.chatView.SetContent(content.String())
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	cellsWidth, chatWidth := m.panelWidths()
	body := m.bodyHeight()

	header := headerStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ Cell Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.ModelName),
	))

	cellsContent := m.cellsView.View()
	if m.state.Loading {
		cellsContent = m.renderOverlay()
	}
	cellsPanel := cellsPanelStyle.
		Width(cellsWidth - 2).
		Height(body - 2).
		Render(cellsContent)

	chatPanel := chatPanelStyle.
		Width(chatWidth - 2).
		Height(m.chatView.Height).
		Render(m.chatView.View())

	var inputContent string
	if m.state.Loading {
		inputContent = m.spinner.View() + loadingStyle.Render(" Waiting for cells...")
	} else {
		inputContent = m.input.View()
	}
	inputPanel := inputPanelStyle.Width(chatWidth - 2 - 2).Render(inputContent)

	status := lipgloss.NewStyle().
		Width(chatWidth).
		Height(statusHeight).
		MaxHeight(statusHeight).
		Render(m.renderStatus())

	chatColumn := lipgloss.JoinVertical(lipgloss.Left, chatPanel, inputPanel, status)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, cellsPanel, chatColumn),
		m.help.View(m.keys),
	)
}

func (m Model) renderOverlay() string {
	box := overlayStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		m.spinner.View(),
		"",
		loadingStyle.Render("Generating cells"),
		hintStyle.Render("esc to cancel"),
	))
	return lipgloss.Place(m.cellsView.Width, m.cellsView.Height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderStatus() string {
	if m.err == nil {
		return noticeStyle.Render(m.notice)
	}
	_, chatWidth := m.panelWidths()
	line := errorStyle.Render(truncate("✗ "+m.err.Error(), chatWidth-1))
	if hint := errorHint(m.err); hint != "" {
		line += "\n" + noticeStyle.Render(truncate(hint, chatWidth-1))
	}
	return line
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width < 2 || len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

// Run starts the chat TUI
func Run(client api.Completer, opts Options) error {
	p := tea.NewProgram(
		NewModel(client, opts),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
