package render

import (
	"os"

	"github.com/diogo/cellchat/internal/config"
)

// OptionsFromConfig builds render options from the user configuration.
// GLAMOUR_STYLE takes precedence over the config file style.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	md := cfg.Markdown
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.TableWrap = md.TableWrap
	opts.InlineTableLinks = md.InlineTableLinks

	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		opts.Style = style
	}

	return opts
}

// ApplyConfig activates the configured TUI theme. Unknown names keep the
// current theme and report false.
func ApplyConfig(cfg config.Config) bool {
	if cfg.TUITheme == "" {
		return true
	}
	return SetTUITheme(cfg.TUITheme)
}
