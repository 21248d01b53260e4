package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/cellchat/internal/api"
	"github.com/diogo/cellchat/internal/config"
	"github.com/diogo/cellchat/internal/tui"
)

// ClientFactory builds a completion client from the resolved settings
type ClientFactory func(cfg config.Config, creds *config.Credentials) (api.Completer, error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient creates the completion client.
	NewClient ClientFactory

	// LoadCredentials resolves the API key.
	LoadCredentials func() (*config.Credentials, error)

	// RunTUI runs the terminal chat until the user quits.
	RunTUI func(client api.Completer, opts tui.Options) error

	// CopyToClipboard is used by --copy.
	CopyToClipboard func(text string) error

	// TerminalSize reports the width and height available for one-shot output.
	TerminalSize func() (width, height int)

	// Interactive enables the stderr spinner.
	Interactive bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:       newClient,
		LoadCredentials: config.LoadCredentials,
		RunTUI:          tui.Run,
		CopyToClipboard: clipboard.WriteAll,
		TerminalSize:    terminalSize,
		Interactive:     term.IsTerminal(int(os.Stderr.Fd())),
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	}
}

func newClient(cfg config.Config, creds *config.Credentials) (api.Completer, error) {
	client, err := api.NewClient(creds, api.WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// closeClient releases the transport of clients that hold one
func closeClient(client api.Completer) {
	if c, ok := client.(interface{ Close() }); ok {
		c.Close()
	}
}

// terminalSize returns the stdout terminal size, or 100x40 when stdout is
// not a terminal
func terminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100, 40
	}
	if height <= 0 {
		height = 40
	}
	return width, height
}
