// Package cli implements the splicer command-line interface.
//
// # Commands
//
//   - seed: derive the randomness of a token
//   - styles: list a network's style catalog
//   - render: render a style to a PNG file
//   - verify: check a submitted image against its reference render
//   - serve: run the HTTP verification server
//   - cache: manage the render and metadata cache
//
// Every command reads the configuration file given by --config (or the
// default path) with SPLICER_* environment overrides applied on top.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cod1ng-earth/splicenft/pkg/buildinfo"
	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/config"
)

const appName = "splicer"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        *printer
	configPath string
	noCache    bool
	cfg        *config.Config
}

// New creates a CLI logging to w at level and printing results to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    newPrinter(os.Stdout),
	}
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = newPrinter(w)
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Splicer renders and verifies generative splice images",
		Long:         `Splicer derives per-token randomness, renders styles deterministically and checks submitted images against their reference render before a mint is approved.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/splicer/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the render and metadata cache")

	root.AddCommand(c.seedCommand())
	root.AddCommand(c.stylesCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
	c.cfg = &cfg
	return c.cfg, nil
}
