package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ynm-safety/crm-import-cli/internal/fetcher"
	"github.com/ynm-safety/crm-import-cli/internal/importer"
	"github.com/ynm-safety/crm-import-cli/internal/runlog"
	"github.com/ynm-safety/crm-import-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for import requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		impCfg, err := initImporterConfig()
		if err != nil {
			return err
		}
		resolver := initFetcher()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		var rl *runlog.Log
		if pg, ok := st.(*store.PostgresStore); ok {
			rl = runlog.New(pg.Pool())
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/imports", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Location   string `json:"location"`
				Sheet      string `json:"sheet"`
				SheetIndex int    `json:"sheet_index"`
				SkipRows   int    `json:"skip_rows"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Location == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "location is required"})
				return
			}

			opts := fetcher.ParseOptions{
				SheetName:  body.Sheet,
				SheetIndex: body.SheetIndex,
				SkipRows:   body.SkipRows,
			}

			// Run the import asynchronously against the server context so a
			// shutdown cancels in-flight runs.
			go func() {
				if err := serveImport(ctx, resolver, st, rl, impCfg, body.Location, opts); err != nil {
					zap.L().Error("webhook import failed",
						zap.String("location", body.Location),
						zap.Error(err),
					)
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":   "accepted",
				"location": body.Location,
			})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			if rl == nil {
				writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "run history requires the postgres store driver"})
				return
			}
			entries, err := rl.List(req.Context(), 50)
			if err != nil {
				zap.L().Error("webhook list runs failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs"})
				return
			}
			writeJSON(w, http.StatusOK, entries)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			// The signal context is already cancelled; give in-flight
			// requests their own drain window.
			drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(drainCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func serveImport(
	ctx context.Context,
	resolver *fetcher.Resolver,
	st store.Store,
	rl *runlog.Log,
	impCfg importer.Config,
	location string,
	opts fetcher.ParseOptions,
) error {
	src, err := resolver.Resolve(ctx, location)
	if err != nil {
		return err
	}
	defer src.Close()

	header, rows, err := fetcher.Parse(src, opts)
	if err != nil {
		return err
	}

	var runID int64
	if rl != nil {
		runID, err = rl.Start(ctx, src.Name)
		if err != nil {
			return err
		}
	}

	res, err := importer.New(st, impCfg).Run(ctx, header, rows)
	if res != nil {
		res.Source = src.Name
	}
	if rl != nil {
		if err != nil {
			if ferr := rl.Fail(ctx, runID, err.Error()); ferr != nil {
				zap.L().Warn("webhook: record failure", zap.Error(ferr))
			}
		} else if cerr := rl.Complete(ctx, runID, res); cerr != nil {
			zap.L().Warn("webhook: record completion", zap.Error(cerr))
		}
	}
	if err != nil {
		return err
	}

	zap.L().Info("webhook import complete",
		zap.String("location", location),
		zap.Int("rows", res.RowsRead),
		zap.Int("errors", len(res.Errors)),
	)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
