package main

import (
	"context"
	"fmt"

	"github.com/matheus3301/litegate/internal/store"
	"github.com/spf13/cobra"
)

var nowFormat string

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Print the current local time in the configured datetime format",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd.Context(), func(_ context.Context, db *store.DB) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), db.Curdate(nowFormat))
			return err
		})
	},
}

func init() {
	nowCmd.Flags().StringVar(&nowFormat, "format", "", "strftime layout (default: database.datetime_format)")
	rootCmd.AddCommand(nowCmd)
}
