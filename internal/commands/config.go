package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/cellchat/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration and store the API key",
		Long:  `Show the effective configuration, print the config directory or store the API key.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(deps)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.GetConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Stdout, dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key",
		Short: "Store the API key in the credentials file",
		Long: `Read the API key without echo and store it in credentials.json
(mode 0600). When stdin is not a terminal the key is read from its first line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetKey(deps, readSecret)
		},
	})

	return cmd
}

// configView is the output of 'config show'
type configView struct {
	config.Config
	APIKey    string `json:"api_key"`
	KeySource string `json:"api_key_source,omitempty"`
	Path      string `json:"config_path"`
}

func runConfigShow(d *Dependencies) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}

	view := configView{Config: cfg, Path: path, APIKey: "(not set)"}
	if creds, err := d.LoadCredentials(); err == nil {
		view.APIKey = creds.Masked()
		view.KeySource = creds.Source
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(d.Stdout, string(data))
	return nil
}

// secretReader reads the key, prompting on out when it can
type secretReader func(in io.Reader, out io.Writer) (string, error)

func runSetKey(d *Dependencies, read secretReader) error {
	key, err := read(d.Stdin, d.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	creds := &config.Credentials{APIKey: strings.TrimSpace(key)}
	if err := config.SaveCredentials(creds); err != nil {
		return err
	}

	path, _ := config.GetCredentialsPath()
	fmt.Fprintf(d.Stderr, "✓ API key %s saved to %s\n", creds.Masked(), path)
	return nil
}

// readSecret reads without echo from a terminal, otherwise the first line
func readSecret(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "API key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return line, nil
}
