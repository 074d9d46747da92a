package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"statcalc/internal"
	"statcalc/internal/config"
	"statcalc/internal/container"
	apperrors "statcalc/internal/errors"
)

var outputFormat string

func main() {
	rootCmd := &cobra.Command{
		Use:   "statcalc",
		Short: "Load tabular data, clean it, run descriptive statistics and hypothesis tests",
		Long: `statcalc loads CSV, TSV, TXT and Excel files, applies cleaning steps, computes
descriptive statistics and parametric hypothesis tests, and records every dataset
and analysis in a SQLite (default) or PostgreSQL database.

Configuration is read from the environment (and a .env file when present):
- STATCALC_DB_DRIVER=sqlite|postgres, DATABASE_URL
- STATCALC_ALPHA, STATCALC_EQUAL_VARIANCE, STATCALC_HISTORY_LIMIT
- STATCALC_REPORT_DIR, STATCALC_LENIENT_NUMBERS, STATCALC_SHEET
- PORT, GIN_MODE, LOG_LEVEL`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or md")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newTestCmd(),
		newHistoryCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newDatasetsCmd(),
		newPrefCmd(),
		newReportCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if err := rootCmd.Execute(); err != nil {
		appErr := apperrors.FromDomain(err)
		fmt.Fprintf(os.Stderr, "error [%s]: %s\n", appErr.Code, appErr.Message)
		os.Exit(1)
	}
}

// withContainer loads configuration, wires the application and closes it when run returns
func withContainer(ctx context.Context, run func(c *container.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c, err := container.New(ctx, cfg, internal.NewDefaultLogger())
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)
	return run(c)
}
