package cli

import (
	"errors"
	"io"
	"os"

	"github.com/dgallion1/longform/internal/export"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command, which resolves a markdown
// selection without a template and prints it.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var relativeTo string
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a markdown selection as if written in a note",
		Long: `Read markdown from a file or stdin, resolve its embeds relative to the
note given by --relative-to and print the rendered backend markup.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			return runRender(rootOpts, relativeTo, src, cmd)
		},
	}
	cmd.Flags().StringVarP(&relativeTo, "relative-to", "r", "", "note the selection belongs to (required)")
	_ = cmd.MarkFlagRequired("relative-to")
	return cmd
}

func runRender(rootOpts *RootOptions, relativeTo, src string, cmd *cobra.Command) error {
	f := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	var (
		snippet []byte
		err     error
	)
	if src == "-" {
		snippet, err = io.ReadAll(cmd.InOrStdin())
	} else {
		snippet, err = os.ReadFile(src)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "read selection", err)
	}

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	v, closeVault, err := openVault(ctx, cfg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeVault, "open vault", err)
	}
	defer closeVault()

	exp := export.New(v, cfg.Settings, newLogger(f.GetErrWriter(), rootOpts.Verbose))
	res, err := exp.ExportSelection(ctx, relativeTo, string(snippet))
	if errors.Is(err, export.ErrRootNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "note not found: "+relativeTo, nil)
	}
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeExport, "render failed", err)
	}

	summary := summarize(res)
	summary.Output = res.Output
	return f.Success(summary, res.Output)
}
