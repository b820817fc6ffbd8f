package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ynm-safety/crm-import-cli/internal/db"
	"github.com/ynm-safety/crm-import-cli/internal/model"
	"github.com/ynm-safety/crm-import-cli/internal/normalize"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

var seedFile string

// seedData is the on-disk shape of a reference seed file.
type seedData struct {
	Industries []seedParent `yaml:"industries"`
	States     []seedParent `yaml:"states"`
}

type seedParent struct {
	Name          string   `yaml:"name"`
	SubIndustries []string `yaml:"sub_industries,omitempty"`
	Cities        []string `yaml:"cities,omitempty"`
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk-load curated reference values",
	Long: `Loads industries, sub-industries, states, and cities from a YAML seed file.
Existing rows are never overwritten, so reseeding after manual curation is safe.
Postgres only.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(seedFile)
		if err != nil {
			return eris.Wrapf(err, "seed: read %s", seedFile)
		}
		var seed seedData
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return eris.Wrapf(err, "seed: parse %s", seedFile)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("seed requires the postgres store driver")
		}
		if err := pg.Migrate(ctx); err != nil {
			return err
		}

		loaded, err := seedReferences(ctx, pg, seed)
		if err != nil {
			return err
		}

		zap.L().Info("seed complete",
			zap.String("file", seedFile),
			zap.Int64("rows_loaded", loaded),
		)
		return nil
	},
}

// seedReferences loads the seed in two passes: parents first, then children
// keyed to the parent ids actually in the table. The second read-back matters
// because a conflicting parent keeps its existing id, not the freshly
// generated one.
func seedReferences(ctx context.Context, pg *store.PostgresStore, seed seedData) (int64, error) {
	var parents [][]any
	for _, ind := range seed.Industries {
		parents = append(parents, refRow(model.RefIndustry, ind.Name, ""))
	}
	for _, s := range seed.States {
		parents = append(parents, refRow(model.RefState, s.Name, ""))
	}

	n, err := bulkLoadRefs(ctx, pg, parents)
	if err != nil {
		return 0, err
	}

	industryIDs, err := refIDsByKey(ctx, pg, model.RefIndustry)
	if err != nil {
		return n, err
	}
	stateIDs, err := refIDsByKey(ctx, pg, model.RefState)
	if err != nil {
		return n, err
	}

	var children [][]any
	for _, ind := range seed.Industries {
		parentID, ok := industryIDs[normalize.Key(ind.Name)]
		if !ok {
			return n, eris.Errorf("seed: industry %q missing after load", ind.Name)
		}
		for _, sub := range ind.SubIndustries {
			children = append(children, refRow(model.RefSubIndustry, sub, parentID))
		}
	}
	for _, s := range seed.States {
		parentID, ok := stateIDs[normalize.Key(s.Name)]
		if !ok {
			return n, eris.Errorf("seed: state %q missing after load", s.Name)
		}
		for _, city := range s.Cities {
			children = append(children, refRow(model.RefCity, city, parentID))
		}
	}

	m, err := bulkLoadRefs(ctx, pg, children)
	return n + m, err
}

func bulkLoadRefs(ctx context.Context, pg *store.PostgresStore, rows [][]any) (int64, error) {
	return db.BulkUpsert(ctx, pg.Pool(), db.UpsertConfig{
		Table:        "reference_values",
		Columns:      []string{"id", "category", "name", "name_key", "parent_id"},
		ConflictKeys: []string{"category", "parent_id", "name_key"},
		DoNothing:    true,
	}, rows)
}

func refRow(category model.RefCategory, name, parentID string) []any {
	return []any{uuid.New().String(), string(category), name, normalize.Key(name), parentID}
}

func refIDsByKey(ctx context.Context, pg *store.PostgresStore, category model.RefCategory) (map[string]string, error) {
	refs, err := pg.ListReferences(ctx, category)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(refs))
	for _, r := range refs {
		ids[normalize.Key(r.Name)] = r.ID
	}
	return ids, nil
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to YAML seed file (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}
