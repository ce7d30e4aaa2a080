package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/maxpert/mylite/admin"
	"github.com/maxpert/mylite/cfg"
	"github.com/maxpert/mylite/db"
	"github.com/maxpert/mylite/telemetry"
)

var rootCmd = &cobra.Command{
	Use:               "mylite",
	Short:             "Run MySQL statements against a SQLite database",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var execCmd = &cobra.Command{
	Use:   "exec [statement...]",
	Short: "Execute statements given as arguments or read from stdin",
	RunE:  runExec,
}

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct",
	Short: "Rebuild the information schema catalog from the SQLite schema",
	Args:  cobra.NoArgs,
	RunE:  runReconstruct,
}

var serveCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve Prometheus metrics and the admin API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(cfg.Flags())
	rootCmd.AddCommand(execCmd, reconstructCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and configures logging for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	if err := cfg.Load(*cfg.ConfigPathFlag); err != nil {
		return err
	}
	if cmd == serveCmd {
		cfg.Config.Prometheus.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var writer io.Writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stderr
	}
	gLog := zerolog.New(writer).
		With().
		Timestamp().
		Str("database", cfg.Config.Translator.Database).
		Logger()

	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}
	return nil
}

func runExec(cmd *cobra.Command, args []string) error {
	statements := args
	if len(statements) == 0 {
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		statements = []string{string(input)}
	}

	ctx := cmd.Context()
	tr, err := db.Open(ctx, cfg.Config)
	if err != nil {
		return err
	}
	defer tr.Close()

	out := cmd.OutOrStdout()
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		start := time.Now()
		res, err := tr.Query(ctx, stmt)
		if err != nil {
			return err
		}
		renderResult(out, res, time.Since(start))
		if log.Debug().Enabled() {
			for _, q := range tr.LastQueries() {
				log.Debug().Str("sql", q.SQL).Interface("params", q.Params).Msg("Executed")
			}
		}
	}
	return nil
}

// renderResult prints rows as a table, or the affected row count for
// statements that return none.
func renderResult(w io.Writer, res *db.Result, elapsed time.Duration) {
	if res.Columns == nil {
		_, _ = fmt.Fprintf(w, "Query OK, %d rows affected (%.3f sec)\n", res.RowsAffected, elapsed.Seconds())
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, values := range res.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "%d rows in set (%.3f sec)\n", len(res.Rows), elapsed.Seconds())
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func runReconstruct(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tr, err := db.Open(ctx, cfg.Config)
	if err != nil {
		return err
	}
	defer tr.Close()

	if err := tr.Reconstruct(ctx); err != nil {
		return err
	}
	tables, err := tr.CatalogTables(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("tables", tables).Msg("Catalog reconstructed")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	telemetry.InitializeTelemetry()
	telemetry.InitMetrics()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := db.Open(ctx, cfg.Config)
	if err != nil {
		return err
	}
	defer tr.Close()

	collector := telemetry.NewMetricsCollector(tr, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	server := &http.Server{
		Addr:              cfg.Config.Prometheus.Address,
		Handler:           admin.NewRouter(admin.NewAdminHandlers(tr)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("Serving metrics")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
