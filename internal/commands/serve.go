package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/cellchat/internal/session"
	"github.com/diogo/cellchat/internal/web"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat as a web page",
	Long: `Serve a single-page chat on the given address. Every open page shares
one conversation and receives updates over a websocket.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, deps)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config, 127.0.0.1:8090)")
}

func runServe(ctx context.Context, d *Dependencies) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(logConsole, cfg.Verbose, d.Stderr)
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

	addr := cfg.ListenAddr
	if addrFlag != "" {
		addr = addrFlag
	}

	log.Info().
		Str("model", cfg.Model).
		Str("key", creds.Masked()).
		Str("key_source", creds.Source).
		Msg("[web] starting")

	srv := web.NewServer(session.NewStore(), client, web.Options{ModelName: cfg.Model})
	return srv.ListenAndServe(ctx, addr)
}
