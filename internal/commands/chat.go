package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/cellchat/internal/config"
	"github.com/diogo/cellchat/internal/render"
	"github.com/diogo/cellchat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the split-view chat",
	Long: `Start an interactive chat. Cells are drawn on the left, the
conversation and the input on the right.

Press Enter to send, Esc to cancel a pending request, Ctrl+Y to copy the
last reply, Ctrl+E to export the transcript and Ctrl+C to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(deps)
	},
}

func runChat(d *Dependencies) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(logTUI, cfg.Verbose, d.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	creds, err := d.LoadCredentials()
	if err != nil {
		return err
	}
	client, err := d.NewClient(cfg, creds)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer closeClient(client)

	if !render.ApplyConfig(cfg) {
		log.Warn().Str("theme", cfg.TUITheme).Msg("unknown TUI theme, keeping default")
	}
	tui.UpdateTheme()

	exportDir, err := config.GetExportDir(cfg)
	if err != nil {
		return err
	}

	log.Info().Str("model", cfg.Model).Str("endpoint", cfg.Endpoint).Msg("starting chat")
	return d.RunTUI(client, tui.Options{
		ModelName: cfg.Model,
		ExportDir: exportDir,
		Markdown:  render.OptionsFromConfig(cfg),
	})
}
