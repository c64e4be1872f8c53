package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matheus3301/litegate/internal/store"
	"github.com/spf13/cobra"
)

var (
	queryOne   bool
	queryValue bool
	queryJSON  bool
	execJSON   bool
)

var execCmd = &cobra.Command{
	Use:   "exec SQL [ARGS...]",
	Short: "Run a write statement and commit it",
	Long: `Run a write statement under the write lock and commit it.
Extra arguments are bound to ? placeholders in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *store.DB) error {
			res, err := db.Write(ctx, args[0], toArgs(args[1:]))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if execJSON {
				return outputJSON(w, res)
			}
			if !res.Executed {
				_, err := fmt.Fprintln(w, "skipped: write lock busy")
				return err
			}
			_, err = fmt.Fprintf(w, "rows affected: %d, last insert id: %d\n", res.RowsAffected, res.LastInsertID)
			return err
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query SQL [ARGS...]",
	Short: "Run a read-only query",
	Long: `Run a query without taking the write lock.
By default every row is printed; --one prints the first row and --value
only its first column.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryOne && queryValue {
			return fmt.Errorf("--one and --value are mutually exclusive")
		}
		mode := store.FetchAll
		switch {
		case queryOne:
			mode = store.FetchOne
		case queryValue:
			mode = store.FetchValue
		}

		return withDB(cmd.Context(), func(ctx context.Context, db *store.DB) error {
			result, err := db.Read(ctx, mode, args[0], toArgs(args[1:])...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), mode, result, queryJSON)
		})
	},
}

func init() {
	execCmd.Flags().BoolVar(&execJSON, "json", false, "output in JSON format")

	queryCmd.Flags().BoolVar(&queryOne, "one", false, "print only the first row")
	queryCmd.Flags().BoolVar(&queryValue, "value", false, "print only the first column of the first row")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(execCmd, queryCmd)
}

func printResult(w io.Writer, mode store.ReadMode, result any, jsonOut bool) error {
	switch mode {
	case store.FetchAll:
		rows := result.([]store.Row)
		if jsonOut {
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = jsonRow(r)
			}
			return outputJSON(w, out)
		}
		for _, r := range rows {
			if _, err := fmt.Fprintln(w, formatRow(r)); err != nil {
				return err
			}
		}
		return nil
	case store.FetchOne:
		row, _ := result.(store.Row)
		if jsonOut {
			if row == nil {
				return outputJSON(w, nil)
			}
			return outputJSON(w, jsonRow(row))
		}
		if row == nil {
			_, err := fmt.Fprintln(w, "(no rows)")
			return err
		}
		_, err := fmt.Fprintln(w, formatRow(row))
		return err
	default:
		if jsonOut {
			return outputJSON(w, jsonValue(result))
		}
		_, err := fmt.Fprintln(w, formatValue(result))
		return err
	}
}

func formatRow(r store.Row) string {
	cols := make([]string, len(r))
	for i, v := range r {
		cols[i] = formatValue(v)
	}
	return strings.Join(cols, "\t")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return fmt.Sprintf("x'%x'", x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func jsonRow(r store.Row) []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = jsonValue(v)
	}
	return out
}

// jsonValue keeps text stored as []byte readable instead of base64.
func jsonValue(v any) any {
	if b, ok := v.([]byte); ok && utf8.Valid(b) {
		return string(b)
	}
	return v
}
