package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/longform/internal/export"
	"github.com/dgallion1/longform/internal/unroll"
	"github.com/spf13/cobra"
)

// NewLabelsCommand creates the labels command.
func NewLabelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "labels <root-note>",
		Short:         "List the labels a root note registers",
		Long:          `Resolve the root note without writing anything and list every registered label in registration order, followed by any warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabels(rootOpts, args[0], cmd)
		},
	}
}

// LabelsResult is the JSON payload of the labels command.
type LabelsResult struct {
	Root     string              `json:"root"`
	Labels   []unroll.LabelEntry `json:"labels"`
	Warnings []unroll.Warning    `json:"warnings"`
}

func runLabels(rootOpts *RootOptions, root string, cmd *cobra.Command) error {
	f := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	v, closeVault, err := openVault(ctx, cfg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeVault, "open vault", err)
	}
	defer closeVault()

	res, err := export.New(v, cfg.Settings, newLogger(f.GetErrWriter(), rootOpts.Verbose)).Export(ctx, root)
	if errors.Is(err, export.ErrRootNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "root note not found: "+root, nil)
	}
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeExport, "export failed", err)
	}

	out := LabelsResult{Root: res.Root, Labels: res.Labels, Warnings: res.Warnings}
	if out.Labels == nil {
		out.Labels = []unroll.LabelEntry{}
	}
	if out.Warnings == nil {
		out.Warnings = []unroll.Warning{}
	}

	var text strings.Builder
	tw := tabwriter.NewWriter(&text, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND\tFILE")
	for _, l := range res.Labels {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Label, l.Kind, l.File)
	}
	tw.Flush()
	for _, w := range res.Warnings {
		fmt.Fprintf(&text, "warning: %s\n", w)
	}
	return f.Success(out, text.String())
}
