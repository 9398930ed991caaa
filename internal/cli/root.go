// Package cli implements the longform command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/dgallion1/longform/internal/config"
	"github.com/dgallion1/longform/internal/vault"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose      bool
	Format       string // "json" | "text"
	VaultDir     string
	SettingsFile string
	Backend      string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the longform CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "longform",
		Short: "Resolve transcluded notes into LaTeX or Typst",
		Long: `longform resolves a root note and everything it embeds into one
ordered document and writes it as LaTeX or Typst, together with the
backend header, bibliography and media.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.VaultDir, "vault", "", "vault directory (default $LONGFORM_VAULT_DIR)")
	cmd.PersistentFlags().StringVar(&opts.SettingsFile, "settings", "", "YAML settings file (default $LONGFORM_SETTINGS_FILE)")
	cmd.PersistentFlags().StringVarP(&opts.Backend, "backend", "b", "", "output backend (latex|typst)")

	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewLabelsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// loadConfig merges env, the settings file and flags, in that order.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Load()
	if opts.VaultDir != "" {
		cfg.VaultDir = opts.VaultDir
		cfg.VaultURL = ""
	}
	settingsFile := cfg.SettingsFile
	if opts.SettingsFile != "" {
		settingsFile = opts.SettingsFile
	}
	if settingsFile != "" {
		s, err := config.LoadSettingsFile(settingsFile, cfg.Settings)
		if err != nil {
			return cfg, err
		}
		cfg.Settings = s
	}
	if opts.Backend != "" {
		cfg.Settings.Backend = config.Backend(opts.Backend)
	}
	return cfg, cfg.Validate()
}

// openVault returns the remote vault when a URL is configured, else the
// directory vault.
func openVault(ctx context.Context, cfg config.Config) (vault.Vault, func(), error) {
	if cfg.VaultURL != "" {
		v := vault.NewHTTPVault(cfg.VaultURL, cfg.VaultAPIKey)
		if err := v.Refresh(ctx); err != nil {
			v.Close()
			return nil, nil, err
		}
		return v, v.Close, nil
	}
	v, err := vault.NewDirVault(cfg.VaultDir)
	if err != nil {
		return nil, nil, err
	}
	return v, func() {}, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger writes JSON logs to w. Below verbose only warnings are shown so
// command output stays readable.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
