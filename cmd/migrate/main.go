package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/go-gin-admin-api/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-admin-api/internal/platform/postgres"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the admin API database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newUpCmd())
	return cmd
}

func newUpCmd() *cobra.Command {
	var (
		dsn     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create or update orders, order_items, images and idempotency tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--dsn or POSTGRES_DSN is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			db, err := platformpostgres.Connect(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connecting to postgres: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := migrations.Run(db.WithContext(ctx)); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL DSN")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall migration timeout")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
