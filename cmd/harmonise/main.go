package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"harmonise/internal"
	"harmonise/internal/catalog"
	"harmonise/internal/config"
	"harmonise/internal/metrics"
	"harmonise/internal/pipeline"
	"harmonise/internal/report"
	"harmonise/internal/schema"
	"harmonise/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "harmonise",
		Short:         "Normalise tabular records against a field schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd(cfg, logger),
		newReferenceFetchCmd(cfg, logger),
		newIssuesReportCmd(cfg),
	)

	must(root.ExecuteContext(ctx))
}

type runOptions struct {
	input    string
	output   string
	issues   string
	resource string
}

func newRunCmd(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harmonise one input file (.csv, .xlsx, .html)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarmonise(cmd.Context(), cfg, logger, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "input file (required)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output .csv or .xlsx (default: <output dir>/<resource>.csv)")
	cmd.Flags().StringVar(&opts.issues, "issues", "", "issue log .csv (default: next to output)")
	cmd.Flags().StringVar(&opts.resource, "resource", "", "resource name (default: input file name)")
	cmd.Flags().StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "schema document")
	cmd.Flags().StringVar(&cfg.OrganisationsPath, "organisations", cfg.OrganisationsPath, "organisation register csv")
	cmd.Flags().StringVar(&cfg.OrganisationPatchPath, "organisation-patch", cfg.OrganisationPatchPath, "organisation patch csv")
	cmd.Flags().StringVar(&cfg.EnumPatchPath, "enum-patch", cfg.EnumPatchPath, "enum patch csv")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runHarmonise(ctx context.Context, cfg config.Config, logger *zap.Logger, opts runOptions) error {
	if opts.resource == "" {
		opts.resource = strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
	}
	if opts.output == "" {
		opts.output = filepath.Join(cfg.OutputDir, opts.resource+".csv")
	}
	if opts.issues == "" {
		opts.issues = filepath.Join(filepath.Dir(opts.output), opts.resource+"-issues.csv")
	}
	logger = logger.With(zap.String("resource", opts.resource))

	s, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		return err
	}
	refs, err := catalog.LoadReferences(s, cfg.OrganisationsPath, cfg.OrganisationPatchPath, cfg.EnumPatchPath)
	if err != nil {
		return err
	}

	reader, err := pipeline.OpenReader(opts.input)
	if err != nil {
		return err
	}
	defer reader.Close()

	var db *storage.DB
	var runID string
	if cfg.PersistRuns {
		db, err = storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		runID, err = db.StartRun(opts.resource, opts.input, opts.output)
		if err != nil {
			return err
		}
		logger = logger.With(zap.String("run", runID))
	}

	m := metrics.New()
	h := pipeline.NewHarmoniser(s, refs.Organisations, refs.Enums,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	)

	writer, err := pipeline.OpenWriter(opts.output, h.FieldNames())
	if err != nil {
		return err
	}
	issueFile, err := pipeline.CreateIssueFile(opts.issues)
	if err != nil {
		_ = writer.Close()
		return err
	}
	tally := report.NewIssueTally()
	sinks := []pipeline.IssueWriter{issueFile, tally}
	if db != nil {
		recorder, err := db.RecordIssues(runID)
		if err != nil {
			_ = writer.Close()
			_ = issueFile.Close()
			return err
		}
		sinks = append(sinks, recorder)
	}
	issueWriter := pipeline.MultiIssueWriter(sinks...)

	result, runErr := h.Run(ctx, reader, writer, issueWriter)
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := issueWriter.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	if db != nil {
		if err := db.FinishRun(runID, result.Rows, result.Issues); err != nil {
			return err
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("write metrics textfile", zap.Error(err))
		}
	}

	if err := report.WriteIssueSummary(os.Stderr, tally.Counts()); err != nil {
		return err
	}
	fmt.Printf("run done rows=%d issues=%d output=%s issues_log=%s\n", result.Rows, result.Issues, opts.output, opts.issues)
	if runID != "" {
		fmt.Printf("run id=%s\n", runID)
	}
	return nil
}

func newReferenceFetchCmd(cfg config.Config, logger *zap.Logger) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reference:fetch",
		Short: "Download the organisation register into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Require("ORGANISATION_REGISTER_URL", cfg.RegisterURL); err != nil {
				return err
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := catalog.NewRefreshService(db, cfg, logger)
			result, err := svc.Refresh(cmd.Context(), force)
			if err != nil {
				return err
			}
			if !result.Fetched {
				fmt.Printf("organisation register is fresh: %s\n", result.Path)
				return nil
			}
			fmt.Printf("organisation register fetched: %d organisations -> %s\n", result.Organisations, result.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "download even when the cache is fresh")
	return cmd
}

func newIssuesReportCmd(cfg config.Config) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "issues:report",
		Short: "Summarise the issues of a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var run *internal.RunRow
			if runID != "" {
				run, err = db.GetRun(runID)
			} else {
				run, err = db.LatestRun()
			}
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("no run found")
			}

			counts, err := db.IssueCounts(run.ID)
			if err != nil {
				return err
			}
			fmt.Printf("run %s resource=%s rows=%d issues=%d started=%s\n", run.ID, run.Resource, run.Rows, run.Issues, run.StartedAt)
			return report.WriteIssueSummary(os.Stdout, counts)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (default: latest)")
	return cmd
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
