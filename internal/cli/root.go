// Package cli is the formassist terminal client: it runs the assistant against
// real pages fetched over HTTP.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"formassist-backend/internal/app"
	"formassist-backend/internal/config"
	"formassist-backend/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

// runtime holds what the persistent hooks prepare for subcommands.
type runtime struct {
	configPath string
	verbose    bool
	scope      string

	in   io.Reader
	core *app.Core
	log  zerolog.Logger
}

// NewRootCmd builds the command tree reading interactive input from in.
func NewRootCmd(in io.Reader) *cobra.Command {
	rt := &runtime{in: in}

	rootCmd := &cobra.Command{
		Use:   "formassist",
		Short: "Fill web forms from a chat with your AI endpoint",
		Long: `formassist fetches a page, honours its X-AI-Assist opt-in header and
embedded AI config, and lets you chat with the configured model to produce
field values. Replies can be previewed, copied, exported, or applied to a
local copy of the page.

Quick Start:
  formassist settings set --endpoint https://api.example.com/v1/chat/completions --api-key sk-...
  formassist open https://example.com/signup
  formassist extract page.html`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.core == nil {
				return nil
			}
			return rt.core.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rt.scope, "scope", "default", "conversation store to use")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newOpenCmd(rt),
		newExtractCmd(rt),
		newListCmd(rt),
		newExportCmd(rt),
		newSettingsCmd(rt),
	)
	return rootCmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	rt.log = logging.New(logging.Options{
		Format: cfg.Log.Format,
		Debug:  cfg.Log.Debug || rt.verbose,
		Writer: cmd.ErrOrStderr(),
	})
	core, err := app.NewCore(cmd.Context(), cfg, rt.log)
	if err != nil {
		return err
	}
	if rt.verbose {
		logging.SetDebug(true)
	}
	rt.core = core
	return nil
}

// Execute runs the CLI with os.Stdin and exits non-zero on error.
func Execute() {
	if err := NewRootCmd(os.Stdin).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
