package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/cellchat/internal/config"
)

// logMode selects where log output goes
type logMode int

const (
	// logConsole writes human-readable lines to stderr
	logConsole logMode = iota
	// logQuery is logConsole limited to warnings unless verbose
	logQuery
	// logTUI writes to the log file when verbose; stderr belongs to the UI
	logTUI
)

// setupLogging configures the global zerolog logger. The returned function
// closes the log file, if one was opened.
func setupLogging(mode logMode, verbose bool, stderr io.Writer) (func(), error) {
	level := zerolog.InfoLevel
	if mode == logQuery {
		level = zerolog.WarnLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if mode != logTUI {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
		return func() {}, nil
	}

	if !verbose {
		log.Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return func() {}, nil
	}

	if _, err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	path, err := config.GetLogPath()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return func() { _ = f.Close() }, nil
}
