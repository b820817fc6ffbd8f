package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ynm-safety/crm-import-cli/internal/model"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

// Config holds the run-level tunables. Zero values select the defaults.
type Config struct {
	// SimilarityThreshold is the minimum edit-distance similarity for the
	// fuzzy matching tier.
	SimilarityThreshold float64
	// Aliases overrides the column-header alias table.
	Aliases FieldAliases
	// Synonyms maps known alternate spellings to canonical reference names
	// (e.g. "J&K" -> "Jammu & Kashmir").
	Synonyms map[string]string
}

// Importer runs the import pipeline against one store. Entities are processed
// sequentially, account subtree by account subtree, because the resolver's
// candidate cache is order-dependent shared state; a single Importer must not
// be used from more than one goroutine. Use one Importer per source file when
// fanning out across files.
type Importer struct {
	store store.Store
	cfg   Config
	log   *zap.Logger
}

// New creates an Importer.
func New(st store.Store, cfg Config) *Importer {
	return &Importer{
		store: st,
		cfg:   cfg,
		log:   zap.L().With(zap.String("component", "importer")),
	}
}

// Aggregate parses and folds the rows without touching the store. Used by
// dry runs and as the first half of Run.
func (im *Importer) Aggregate(header []string, rows [][]string) []*AccountDraft {
	reader := NewRowReader(header, im.cfg.Aliases)
	agg := NewAggregator()
	for _, record := range rows {
		agg.Add(reader.Read(record))
	}
	return agg.Accounts()
}

// Run executes the full pipeline: read, aggregate, resolve references, and
// upsert, in source order. The returned result always exists when err is nil;
// data-level failures surface only through its counts and error list. Run is
// idempotent: re-running the same rows against the same store creates nothing
// new.
func (im *Importer) Run(ctx context.Context, header []string, rows [][]string) (*model.ImportResult, error) {
	res := &model.ImportResult{RowsRead: len(rows)}

	accounts := im.Aggregate(header, rows)
	im.log.Info("rows aggregated",
		zap.Int("rows", len(rows)),
		zap.Int("accounts", len(accounts)),
	)

	resolver, err := NewResolver(ctx, im.store, NewMatcher(im.cfg.SimilarityThreshold, im.cfg.Synonyms))
	if err != nil {
		return nil, eris.Wrap(err, "importer: init resolver")
	}
	writer := NewWriter(im.store, resolver)

	for _, draft := range accounts {
		select {
		case <-ctx.Done():
			return res, eris.Wrap(ctx.Err(), "importer: run cancelled")
		default:
		}
		writer.WriteAccount(ctx, draft, res)
	}

	res.ReferencesCreated = resolver.CreatedCount()

	im.log.Info("run complete",
		zap.Int("accounts_created", res.AccountsCreated),
		zap.Int("accounts_updated", res.AccountsUpdated),
		zap.Int("sub_accounts_created", res.SubAccountsCreated),
		zap.Int("contacts_created", res.ContactsCreated),
		zap.Int("references_created", res.ReferencesCreated),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}
