package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/longform/internal/export"
	"github.com/dgallion1/longform/internal/store"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	output    string
	stdout    bool
	noHistory bool
	strict    bool
	replace   bool
}

// ExportSummary is the JSON payload of a finished export.
type ExportSummary struct {
	ID         string   `json:"id"`
	Root       string   `json:"root"`
	Backend    string   `json:"backend"`
	Title      string   `json:"title"`
	OutputFile string   `json:"output_file,omitempty"`
	Skipped    bool     `json:"skipped,omitempty"`
	Labels     int      `json:"labels"`
	Media      []string `json:"media"`
	BibKeys    []string `json:"bib_keys"`
	Warnings   []string `json:"warnings"`
	Output     string   `json:"output,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <root-note>",
		Short: "Export a root note and everything it embeds",
		Long: `Resolve the root note, render it with the selected backend and write
mainmd.tex or mainmd.typ plus header, preamble, bibliography and media
into <output>/<root-name>/.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default $LONGFORM_OUTPUT_DIR)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "print the document instead of writing files")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the export in the history database")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit non-zero when the export produced warnings")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "replace existing output files")
	return cmd
}

func runExport(rootOpts *RootOptions, opts *exportOptions, root string, cmd *cobra.Command) error {
	f := newFormatter(rootOpts, cmd)
	ctx := cmd.Context()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	if opts.output != "" {
		cfg.OutputDir = opts.output
	}
	if opts.replace {
		cfg.Settings.ReplaceExistingFiles = true
	}
	log := newLogger(f.GetErrWriter(), rootOpts.Verbose)

	v, closeVault, err := openVault(ctx, cfg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeVault, "open vault", err)
	}
	defer closeVault()

	exp := export.New(v, cfg.Settings, log, export.WithBufferSize(cfg.RenderBufferSize))
	start := time.Now()
	res, err := exp.Export(ctx, root)
	if errors.Is(err, export.ErrRootNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "root note not found: "+root, nil)
	}
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeExport, "export failed", err)
	}
	f.VerboseLog("Resolved %s: %d labels, %d media, %d citation keys", res.Root, len(res.Labels), len(res.Media), len(res.BibKeys))

	summary := summarize(res)
	var text strings.Builder
	var postErr error

	if opts.stdout {
		summary.Output = res.Output
		text.WriteString(res.Output)
	} else {
		writer := export.NewWriter(v, cfg.Settings, cfg.OutputDir, log)
		written, err := writer.Write(ctx, res, exp.Backend())
		if written == nil {
			return f.Fail(ExitFailure, ErrCodeWrite, "write export", err)
		}
		postErr = err
		summary.OutputFile = written.OutputFile
		summary.Skipped = written.Skipped
		summary.Warnings = warningStrings(res)
		text.WriteString(written.Message)
		text.WriteString("\n")
		if written.CommandOutput != "" {
			text.WriteString(written.CommandOutput)
		}
	}
	for _, w := range summary.Warnings {
		fmt.Fprintf(&text, "warning: %s\n", w)
	}

	if !opts.noHistory && !opts.stdout {
		recordHistory(cmd, f, cfg.HistoryDB, res, summary, postErr, time.Since(start))
	}

	if err := f.Success(summary, text.String()); err != nil {
		return err
	}
	if postErr != nil {
		return WrapExitError(ExitFailure, "post command failed", postErr)
	}
	if opts.strict && len(res.Warnings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d warnings", len(res.Warnings)))
	}
	return nil
}

func summarize(res *export.Result) ExportSummary {
	s := ExportSummary{
		ID:       res.ID,
		Root:     res.Root,
		Backend:  string(res.Backend),
		Title:    res.Title,
		Labels:   len(res.Labels),
		Media:    []string{},
		BibKeys:  append([]string{}, res.BibKeys...),
		Warnings: warningStrings(res),
	}
	for _, m := range res.Media {
		s.Media = append(s.Media, m.Path)
	}
	return s
}

func warningStrings(res *export.Result) []string {
	out := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		out = append(out, w.String())
	}
	return out
}

// recordHistory is best effort: a broken history database never fails the
// export itself.
func recordHistory(cmd *cobra.Command, f *OutputFormatter, path string, res *export.Result, summary ExportSummary, postErr error, d time.Duration) {
	if path == "" {
		return
	}
	st, err := store.Open(path)
	if err != nil {
		f.VerboseLog("history unavailable: %v", err)
		return
	}
	defer st.Close()

	rec := store.Record{
		ID:         res.ID,
		Root:       res.Root,
		Backend:    string(res.Backend),
		Title:      res.Title,
		OutputFile: summary.OutputFile,
		Labels:     len(res.Labels),
		Media:      len(res.Media),
		BibKeys:    len(res.BibKeys),
		Warnings:   res.Warnings,
		Duration:   d,
	}
	if postErr != nil {
		rec.Error = postErr.Error()
	}
	if err := st.Record(cmd.Context(), rec); err != nil {
		f.VerboseLog("history write failed: %v", err)
	}
}
