package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matheus3301/litegate/internal/app"
	"github.com/matheus3301/litegate/internal/config"
	"github.com/matheus3301/litegate/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var params app.Params

var rootCmd = &cobra.Command{
	Use:   "litegate",
	Short: "Run SQL against a SQLite database with serialized writes",
	Long: `litegate opens a single SQLite connection, runs one statement and closes it.
Writes go through an exclusive lock; reads do not.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&params.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&params.DBPath, "db", "", `database file, or ":memory:" (overrides config)`)
	flags.StringVar(&params.Driver, "driver", "", "sqlite driver: mattn or modernc (overrides config)")
	flags.StringVar(&params.LogLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withDB starts the fx app, hands the database to fn and stops the app,
// which closes the database.
func withDB(ctx context.Context, fn func(ctx context.Context, db *store.DB) error) error {
	var db *store.DB
	fxApp := fx.New(
		app.Module(params),
		fx.Populate(&db),
		fx.NopLogger,
	)
	if err := fxApp.Err(); err != nil {
		return err
	}
	if err := fxApp.Start(ctx); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return err
	}

	runErr := fn(ctx, db)

	if err := fxApp.Stop(ctx); err != nil && runErr == nil {
		runErr = err
	}
	// The CLI owns the database even when close_on_exit is off.
	_ = db.Close()
	return runErr
}

func toArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
