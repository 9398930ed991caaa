package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dgallion1/longform/internal/store"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		db    string
		limit int
	)
	cmd := &cobra.Command{
		Use:           "history [root-note-path]",
		Short:         "List past exports",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			return runHistory(rootOpts, db, root, limit, cmd)
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "history database (default $LONGFORM_HISTORY_DB)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of exports to list")
	return cmd
}

func runHistory(rootOpts *RootOptions, db, root string, limit int, cmd *cobra.Command) error {
	f := newFormatter(rootOpts, cmd)
	if db == "" {
		cfg, err := loadConfig(rootOpts)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
		}
		db = cfg.HistoryDB
	}

	st, err := store.Open(db)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeHistory, "open history", err)
	}
	defer st.Close()

	records, err := st.List(cmd.Context(), root, limit)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeHistory, "list history", err)
	}
	if records == nil {
		records = []store.Record{}
	}

	var text strings.Builder
	tw := tabwriter.NewWriter(&text, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tROOT\tBACKEND\tLABELS\tWARNINGS\tSTATUS")
	for _, r := range records {
		status := "ok"
		if r.Error != "" {
			status = "error: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.CreatedAt.Format(time.DateTime), r.Root, r.Backend, r.Labels, len(r.Warnings), status)
	}
	tw.Flush()
	return f.Success(records, text.String())
}
