// Package commands provides CLI commands for cellchat.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/cellchat/internal/config"
	"github.com/diogo/cellchat/internal/tui"
)

var (
	// Global flags
	modelFlag    string
	endpointFlag string
	timeoutFlag  int
	verboseFlag  bool

	// One-shot flags
	fileFlag string
	jsonFlag bool
	copyFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// deps is replaced by tests
var deps = NewDependencies()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cellchat [prompt]",
	Short: "Chat with a model that answers in layout cells",
	Long: `cellchat sends your messages to a chat-completion endpoint and renders
the returned cells document as sized, colored boxes.

The API key is read from CELLCHAT_API_KEY, GROQ_API_KEY or the file written
by 'cellchat config set-key'.

Examples:
  cellchat chat                         Start the split-view chat
  cellchat serve --addr :8090           Serve the web page
  cellchat "Three red boxes"            Send a single message
  cellchat -f prompt.md                 Read the message from a file
  cat prompt.md | cellchat --json       Print the cells document as JSON`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(deps.Stdout, "cellchat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		prompt, ok, err := readPrompt(deps.Stdin, args)
		if err != nil {
			return err
		}
		if !ok {
			// No input - show help
			return cmd.Help()
		}
		return runQuery(deps, prompt)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (e.g., llama-3.3-70b-versatile)")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "Chat-completion endpoint URL")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0, "Request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the cells document as JSON instead of boxes")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the cells document to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newConfigCmd())
}

// readPrompt picks the prompt from --file, piped stdin or the argument, in
// that order. ok is false when none was given.
func readPrompt(stdin io.Reader, args []string) (string, bool, error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if stdinPiped(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) != "" {
			return string(data), true, nil
		}
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}

// stdinPiped reports whether stdin carries data rather than a terminal
func stdinPiped(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadSettings merges the config file, the environment and the flags
func loadSettings() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	cfg = cfg.ApplyEnv()

	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if timeoutFlag > 0 {
		cfg.TimeoutSeconds = timeoutFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
