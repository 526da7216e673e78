package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/repository/postgres"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var dsn string

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply AdLens database migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up [dir]",
	Short: "Apply pending migrations from dir (default ./migrations)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUp,
}

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "Show applied and pending migrations",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "database-url", "", "PostgreSQL DSN (default $DATABASE_URL)")
	rootCmd.AddCommand(upCmd, listCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func migrationsDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "migrations"
}

func openDB(ctx context.Context) (*sql.DB, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	dir := migrationsDir(args)
	ran, err := postgres.Migrate(ctx, db, os.DirFS(dir))
	for _, name := range ran {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s ... OK\n", name)
	}
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "dir", dir, "applied", len(ran))
	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d applied\n", len(ran))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := postgres.LoadMigrations(os.DirFS(migrationsDir(args)))
	if err != nil {
		return err
	}
	applied, err := postgres.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	at := make(map[string]time.Time, len(applied))
	for _, a := range applied {
		at[a.Name] = a.AppliedAt
	}

	out := cmd.OutOrStdout()
	pending := 0
	for _, m := range all {
		if t, ok := at[m.Name]; ok {
			fmt.Fprintf(out, "  [x] %s  %s\n", m.Name, t.Format(time.RFC3339))
			continue
		}
		fmt.Fprintf(out, "  [ ] %s\n", m.Name)
		pending++
	}
	fmt.Fprintf(out, "Total: %d migrations, %d pending\n", len(all), pending)
	return nil
}
