package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ynm-safety/crm-import-cli/internal/runlog"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List import run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("run history requires the postgres store driver")
		}
		if err := pg.Migrate(ctx); err != nil {
			return err
		}

		entries, err := runlog.New(pg.Pool()).List(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, entries)
		return nil
	},
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, entries []runlog.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tSTARTED\tDURATION\tROWS\tERRORS")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t-------\t--------\t----\t------")

	for _, e := range entries {
		dur := ""
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		source := e.Source
		if len(source) > 40 {
			source = source[:37] + "..."
		}

		rows, errs := "", ""
		if e.Result != nil {
			rows = fmt.Sprintf("%d", e.Result.RowsRead)
			errs = fmt.Sprintf("%d", len(e.Result.Errors))
		}
		if e.Status == "failed" {
			errs = e.Error
			if len(errs) > 40 {
				errs = errs[:37] + "..."
			}
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			source,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			rows,
			errs,
		)
	}
	_ = w.Flush()
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "max number of runs to display")
	rootCmd.AddCommand(runsCmd)
}
