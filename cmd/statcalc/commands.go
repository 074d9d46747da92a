package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"statcalc/domain/core"
	"statcalc/domain/dataset"
	"statcalc/domain/stats"
	"statcalc/internal/analysis/hypothesis"
	"statcalc/internal/api"
	"statcalc/internal/container"
	"statcalc/internal/report"
)

// loadAndClean loads path into the session and applies each cleaning step in order
func loadAndClean(ctx context.Context, c *container.Container, path string, steps []string) error {
	if _, err := c.Session.Load(ctx, path); err != nil {
		return err
	}
	for _, step := range steps {
		req, err := dataset.ParseCleaningRequest(step)
		if err != nil {
			return err
		}
		rep, err := c.Session.Clean(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s: %s (rows %d -> %d, missing %d -> %d)\n",
			rep.Action, rep.Status, rep.RowsBefore, rep.RowsAfter, rep.MissingBefore, rep.MissingAfter)
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var calcs, columns, clean []string

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Compute descriptive statistics and record the analysis",
		Long: `Compute descriptive statistics over the numeric columns of FILE.

Calculations: Mean, Median, Mode, StdDev, Variance, Min, Max, Count (default: all).
Cleaning steps run in order before the statistics: drop_missing_rows,
remove_duplicates, fill_missing:mean|median|mode.

Example: statcalc analyze sales.csv --calc mean,median --columns Units --clean remove_duplicates`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				if err := loadAndClean(ctx, c, args[0], clean); err != nil {
					return err
				}
				out, err := c.Service.RunStatistics(ctx, columns, calcs)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "saved analysis %s\n", out.AnalysisID)
				return renderStatistics(cmd.OutOrStdout(), outputFormat, out.Name, out.Results, out.Calculations)
			})
		},
	}

	cmd.Flags().StringSliceVar(&calcs, "calc", nil, "Calculations to run (comma separated)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to include (default: all numeric)")
	cmd.Flags().StringArrayVar(&clean, "clean", nil, "Cleaning step, repeatable (op or op:strategy)")
	return cmd
}

func newTestCmd() *cobra.Command {
	var (
		columns       []string
		clean         []string
		mu            float64
		alpha         float64
		equalVariance bool
	)

	cmd := &cobra.Command{
		Use:   "test KIND FILE",
		Short: "Run a hypothesis test and record the result",
		Long: `Run one hypothesis test on FILE.

KIND is one of one_sample_t, two_sample_t, paired_t, chi_square, anova
(short forms: one-sample, two-sample, paired, chi2, anova).

Example: statcalc test paired scores.csv --columns Before,After --alpha 0.05`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := stats.ParseTestKind(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
			}
			req := hypothesis.Request{
				Kind:    kind,
				Columns: columns,
				Alpha:   alpha,
			}
			if cmd.Flags().Changed("mu") {
				req.PopulationMean = &mu
			}
			if cmd.Flags().Changed("equal-variance") {
				req.EqualVariance = &equalVariance
			}

			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				if err := loadAndClean(ctx, c, args[1], clean); err != nil {
					return err
				}
				out, err := c.Service.RunTest(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "saved analysis %s\n", out.AnalysisID)
				return renderTestReport(cmd.OutOrStdout(), outputFormat, out.Report)
			})
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns the test uses, in order")
	cmd.Flags().StringArrayVar(&clean, "clean", nil, "Cleaning step, repeatable (op or op:strategy)")
	cmd.Flags().Float64Var(&mu, "mu", 0, "Hypothesised population mean (one-sample test)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level in (0.01, 0.10]; default from preference or config")
	cmd.Flags().BoolVar(&equalVariance, "equal-variance", false, "Use Student's pooled-variance two-sample test instead of Welch")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				history, err := c.Service.History(ctx, limit)
				if err != nil {
					return err
				}
				return renderHistory(cmd.OutOrStdout(), outputFormat, history)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of analyses to show (default: preference or config)")
	return cmd
}

func newShowCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a stored analysis",
		Long: `Show a stored analysis with its result rows.

With --path, print one value of the stored results summary instead, e.g.
statcalc show 12 --path Units.Mean`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseAnalysisID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				if path != "" {
					res, err := c.Service.QuerySummary(ctx, id, path)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
					return nil
				}
				details, err := c.Service.Details(ctx, id)
				if err != nil {
					return err
				}
				return renderDetails(cmd.OutOrStdout(), outputFormat, details)
			})
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "gjson path into the results summary")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored analysis and its result rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseAnalysisID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				if err := c.Service.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted analysis %s\n", id)
				return nil
			})
		},
	}
}

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List registered datasets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				datasets, err := c.Service.Datasets(ctx)
				if err != nil {
					return err
				}
				return renderDatasets(cmd.OutOrStdout(), outputFormat, datasets)
			})
		},
	}
}

func newPrefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pref",
		Short: "Read or write user preferences (alpha, history_limit, equal_variance, ...)",
	}

	var def string
	get := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a preference value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				v, err := c.Service.GetPreference(ctx, args[0], def)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
	get.Flags().StringVar(&def, "default", "", "Value printed when the key is not set")

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store a preference value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				return c.Service.SetPreference(ctx, args[0], args[1])
			})
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func newReportCmd() *cobra.Command {
	var format string
	var save bool

	cmd := &cobra.Command{
		Use:   "report ID",
		Short: "Render a stored analysis as markdown or HTML",
		Long: `Render a stored analysis as markdown (default) or HTML.

With --save the report is written under STATCALC_REPORT_DIR/reports/ instead of stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseAnalysisID(args[0])
			if err != nil {
				return err
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				if !save {
					body, err := c.Service.Report(ctx, id, f)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(body)
					return err
				}
				details, err := c.Service.Details(ctx, id)
				if err != nil {
					return err
				}
				key, err := c.Exporter.Export(ctx, "analysis-"+id.String(), report.Analysis(details), f)
				if err != nil {
					return err
				}
				path, _ := c.Blobs.Path(key)
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "md", "Report format: md or html")
	cmd.Flags().BoolVar(&save, "save", false, "Write the report to the report directory")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API over one data session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withContainer(ctx, func(c *container.Container) error {
				if port == "" {
					port = c.Config.Server.Port
				}
				server := api.NewServer(c.Service, c.Config.Server.GinMode,
					api.WithLogger(c.Logger), api.WithExporter(c.Exporter))
				return server.Start(":" + strings.TrimPrefix(port, ":"))
			})
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default: PORT or 8080)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// opening the store applies pending migrations
			return withContainer(ctx, func(c *container.Container) error {
				version, err := c.Store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", c.Store.Driver(), version)
				return nil
			})
		},
	}
}
