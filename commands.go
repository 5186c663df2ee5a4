package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nonsonwune/collegerank/config"
	"github.com/nonsonwune/collegerank/importer"
	"github.com/nonsonwune/collegerank/loader"
	"github.com/nonsonwune/collegerank/logging"
	"github.com/nonsonwune/collegerank/migrations"
	"github.com/nonsonwune/collegerank/models"
	"github.com/nonsonwune/collegerank/plot"
	"github.com/nonsonwune/collegerank/ranking"
	"github.com/nonsonwune/collegerank/web"
)

// app carries what every command shares once flags and config are resolved.
type app struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *sql.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var source, csvPath, logLevel string

	root := &cobra.Command{
		Use:           "collegerank",
		Short:         "Top rated colleges per state, with a chart of any metric",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("source") {
				cfg.Source = source
			}
			if cmd.Flags().Changed("csv") {
				cfg.CSVPath = csvPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&source, "source", "", "data source: csv or postgres (default from DATA_SOURCE)")
	root.PersistentFlags().StringVar(&csvPath, "csv", "", "path to the colleges CSV (default from COLLEGES_CSV)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from LOG_LEVEL)")

	root.AddCommand(newServeCmd(a), newTopCmd(a), newImportCmd(a))
	return root
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sql.Open("postgres", a.cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	a.db = db
	return db, nil
}

// source returns where the colleges table is read from.
func (a *app) source(ctx context.Context) (loader.Source, error) {
	if a.cfg.Source != config.SourcePostgres {
		return loader.NewCSVSource(a.cfg.CSVPath), nil
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return nil, err
	}
	if err := migrations.VerifySchema(ctx, db, a.cfg.Table, models.RequiredColumns); err != nil {
		return nil, err
	}
	return loader.NewDBSource(db, a.cfg.Table), nil
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the top colleges page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := a.source(ctx)
			if err != nil {
				return err
			}
			server, err := web.NewServer(src, a.log)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.log.Infow("listening", "addr", srv.Addr, "source", a.cfg.Source)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from LISTEN_ADDR)")
	return cmd
}

func newTopCmd(a *app) *cobra.Command {
	var metric, out, graphType string

	cmd := &cobra.Command{
		Use:   "top <state>",
		Short: "Print the top rated colleges of a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := args[0]
			kind, err := plot.ParseKind(graphType)
			if err != nil {
				return err
			}

			src, err := a.source(cmd.Context())
			if err != nil {
				return err
			}
			table, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}
			if missing := table.MissingColumns(models.RequiredColumns...); len(missing) > 0 {
				return fmt.Errorf("colleges data is missing columns %v", missing)
			}

			top := ranking.TopByState(table, state)
			w := cmd.OutOrStdout()
			if top.Len() == 0 {
				color.New(color.FgRed).Fprintf(w, "No colleges found for %q\n", state)
				return nil
			}
			printRanking(w, top, state)

			if out == "" {
				return nil
			}
			if metric == "" {
				return errors.New("--metric is required with --out")
			}
			if !contains(table.MetricColumns(), metric) {
				return fmt.Errorf("unknown metric %q, choose one of %v", metric, table.MetricColumns())
			}

			img, err := plot.Render(top, plot.Options{
				XField: metric,
				YField: models.ColumnCollegeName,
				Title:  plot.TitleFor(metric, state),
				XLabel: metric,
				YLabel: models.ColumnCollegeName,
				Kind:   kind,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, img, 0o644); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(w, "Chart written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "", "column to chart")
	cmd.Flags().StringVar(&out, "out", "", "write the chart PNG to this file")
	cmd.Flags().StringVar(&graphType, "graph-type", plot.KindLine.String(), "chart type")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var file, table string
	var replace bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the colleges CSV into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.CSVPath
			}
			if table == "" {
				table = a.cfg.Table
			}

			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}

			d := importer.NewDataImporter(db, importer.ImportConfig{
				SourceFile: file,
				Table:      table,
				Replace:    replace,
			}, a.log)
			stats, err := d.ImportFile(cmd.Context())
			if err != nil {
				return err
			}
			stats.PrintSummary(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV file to import (default from COLLEGES_CSV)")
	cmd.Flags().StringVar(&table, "table", "", "destination table (default from COLLEGES_TABLE)")
	cmd.Flags().BoolVar(&replace, "replace", false, "truncate the table before importing")
	return cmd
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
