package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ynm-safety/crm-import-cli/internal/fetcher"
	"github.com/ynm-safety/crm-import-cli/internal/importer"
	"github.com/ynm-safety/crm-import-cli/internal/model"
	"github.com/ynm-safety/crm-import-cli/internal/runlog"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

var (
	importFiles       []string
	importSheet       string
	importSheetIndex  int
	importSkipRows    int
	importDryRun      bool
	importConcurrency int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import CRM spreadsheets into the account hierarchy",
	Long: `Reads one or more CSV/XLSX sources (local path, http(s):// or ftp:// URL),
aggregates rows into Account > SubAccount > Contact subtrees, resolves
industry/state/city references with fuzzy matching, and upserts the result.

Examples:
  # Dry run: parse and aggregate only, print the drafts, touch nothing
  crm-import import --file leads.xlsx --dry-run

  # Import two files, four at a time
  crm-import import --file north.csv --file south.csv --concurrency 4

  # Remote workbook, second sheet, two banner rows above the header
  crm-import import --file https://drive.example.com/leads.xlsx --sheet-index 1 --skip-rows 2`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		impCfg, err := initImporterConfig()
		if err != nil {
			return err
		}
		resolver := initFetcher()

		if importDryRun {
			return runImportDryRun(cmd, resolver, impCfg)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		// Run history lives in postgres only.
		var rl *runlog.Log
		if pg, ok := st.(*store.PostgresStore); ok {
			rl = runlog.New(pg.Pool())
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(importConcurrency)

		var mu sync.Mutex
		total := &model.ImportResult{}

		for _, file := range importFiles {
			g.Go(func() error {
				res, runErr := importOne(gCtx, resolver, st, rl, impCfg, file)
				if runErr != nil {
					// A bad source fails its own run, not the batch.
					zap.L().Error("import: source failed",
						zap.String("file", file),
						zap.Error(runErr),
					)
					mu.Lock()
					total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", file, runErr))
					mu.Unlock()
					return nil
				}
				mu.Lock()
				total.Merge(res)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "import: wait")
		}

		formatImportResult(os.Stdout, total)
		return nil
	},
}

// importOne fetches, parses, and imports a single source, recording the run
// when a run log is available.
func importOne(
	ctx context.Context,
	resolver *fetcher.Resolver,
	st store.Store,
	rl *runlog.Log,
	impCfg importer.Config,
	file string,
) (*model.ImportResult, error) {
	src, err := resolver.Resolve(ctx, file)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	header, rows, err := fetcher.Parse(src, parseOptions())
	if err != nil {
		return nil, err
	}

	var runID int64
	if rl != nil {
		runID, err = rl.Start(ctx, src.Name)
		if err != nil {
			return nil, err
		}
	}

	res, err := importer.New(st, impCfg).Run(ctx, header, rows)
	if res != nil {
		res.Source = src.Name
	}
	if rl != nil {
		if err != nil {
			if ferr := rl.Fail(ctx, runID, err.Error()); ferr != nil {
				zap.L().Warn("import: record failure", zap.Error(ferr))
			}
		} else if cerr := rl.Complete(ctx, runID, res); cerr != nil {
			zap.L().Warn("import: record completion", zap.Error(cerr))
		}
	}
	return res, err
}

// runImportDryRun parses and aggregates each source and prints the drafts as
// JSON without opening the store.
func runImportDryRun(cmd *cobra.Command, resolver *fetcher.Resolver, impCfg importer.Config) error {
	ctx := cmd.Context()

	for _, file := range importFiles {
		src, err := resolver.Resolve(ctx, file)
		if err != nil {
			return err
		}

		header, rows, err := fetcher.Parse(src, parseOptions())
		src.Close()
		if err != nil {
			return err
		}

		drafts := importer.New(nil, impCfg).Aggregate(header, rows)
		zap.L().Info("dry run: aggregated",
			zap.String("file", file),
			zap.Int("rows", len(rows)),
			zap.Int("accounts", len(drafts)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(drafts); err != nil {
			return eris.Wrap(err, "import: encode drafts")
		}
	}
	return nil
}

func parseOptions() fetcher.ParseOptions {
	return fetcher.ParseOptions{
		SheetName:  importSheet,
		SheetIndex: importSheetIndex,
		SkipRows:   importSkipRows,
	}
}

// formatImportResult writes the run summary to w.
func formatImportResult(out io.Writer, res *model.ImportResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Rows read:\t%d\n", res.RowsRead)
	_, _ = fmt.Fprintf(w, "Accounts:\t%d created, %d updated\n", res.AccountsCreated, res.AccountsUpdated)
	_, _ = fmt.Fprintf(w, "Sub-accounts:\t%d created, %d updated\n", res.SubAccountsCreated, res.SubAccountsUpdated)
	_, _ = fmt.Fprintf(w, "Contacts:\t%d created, %d updated\n", res.ContactsCreated, res.ContactsUpdated)
	_, _ = fmt.Fprintf(w, "References created:\t%d\n", res.ReferencesCreated)
	_, _ = fmt.Fprintf(w, "Errors:\t%d\n", len(res.Errors))
	_ = w.Flush()

	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "  - %s\n", e)
	}
}

func init() {
	importCmd.Flags().StringArrayVar(&importFiles, "file", nil, "source path or URL (repeatable, required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().IntVar(&importSheetIndex, "sheet-index", 0, "XLSX sheet index when --sheet is unset")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 0, "rows to skip above the header")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and aggregate only, write nothing")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 1, "number of files imported in parallel; above 1, files racing to create the same new reference report the loser's row as a soft error")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
