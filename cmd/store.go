package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ynm-safety/crm-import-cli/internal/config"
	"github.com/ynm-safety/crm-import-cli/internal/fetcher"
	"github.com/ynm-safety/crm-import-cli/internal/importer"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "crm-import.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initImporterConfig builds the pipeline config, loading alias and synonym
// override files when configured.
func initImporterConfig() (importer.Config, error) {
	impCfg := importer.Config{
		SimilarityThreshold: cfg.Importer.SimilarityThreshold,
	}

	if path := cfg.Importer.AliasesFile; path != "" {
		aliases, err := config.LoadAliases(path)
		if err != nil {
			return importer.Config{}, err
		}
		impCfg.Aliases = aliases
	}

	synonyms := importer.DefaultSynonyms()
	if path := cfg.Importer.SynonymsFile; path != "" {
		extra, err := config.LoadSynonyms(path)
		if err != nil {
			return importer.Config{}, err
		}
		for alt, canonical := range extra {
			synonyms[alt] = canonical
		}
	}
	impCfg.Synonyms = synonyms

	return impCfg, nil
}

func initFetcher() *fetcher.Resolver {
	httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:           time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:        cfg.Fetch.MaxRetries,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
	})
	ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{
		User:     cfg.Fetch.FTPUser,
		Password: cfg.Fetch.FTPPassword,
		Timeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
	})
	return fetcher.NewResolver(httpF, ftpF)
}
