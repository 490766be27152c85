package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"podenrich/internal/config"
	"podenrich/internal/ledger"
	"podenrich/internal/logging"
	"podenrich/internal/pipeline"
	"podenrich/internal/preflight"
	"podenrich/internal/services"
)

type runFlags struct {
	feedURL string
	max     int
	force   bool
	dryRun  bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enrich the feed's episodes and write them to the warehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := resolveRunOptions(cmd, cfg, flags)
			if err != nil {
				return err
			}
			if err := cfg.ValidateCredentials(); err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another podenrich run holds %s", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release run lock", logging.Error(err))
				}
			}()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			runCtx := services.WithRunID(signalCtx, uuid.NewString())

			if failed := preflight.Failed(preflight.RunAll(runCtx, cfg, nil, false)); len(failed) > 0 {
				parts := make([]string, 0, len(failed))
				for _, r := range failed {
					parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
			}

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			p, closeAll, err := pipeline.Build(runCtx, cfg, store, version, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeAll(); err != nil {
					logger.Warn("failed to close run resources", logging.Error(err))
				}
			}()

			report, runErr := p.Run(runCtx, opts)
			out := cmd.OutOrStdout()
			if report != nil {
				printRunReport(out, cfg, report)
			}
			switch {
			case runErr == nil:
				return nil
			case errors.Is(runErr, context.Canceled) && report != nil && report.Aborted:
				fmt.Fprintln(out, "Run interrupted; remaining episodes will be picked up next run")
				return nil
			default:
				return runErr
			}
		},
	}

	cmd.Flags().StringVar(&flags.feedURL, "feed", "", "Feed URL (overrides feed.url)")
	cmd.Flags().IntVar(&flags.max, "max", 0, "Maximum episodes to process (overrides feed.max_episodes; 0 means all)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Reprocess episodes already written")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Enrich without writing rows or ledger entries")
	return cmd
}

func resolveRunOptions(cmd *cobra.Command, cfg *config.Config, flags runFlags) (pipeline.Options, error) {
	opts := pipeline.Options{
		FeedURL:     cfg.Feed.URL,
		MaxEpisodes: cfg.Feed.MaxEpisodes,
		Force:       flags.force,
		DryRun:      flags.dryRun,
	}
	if feed := strings.TrimSpace(flags.feedURL); feed != "" {
		opts.FeedURL = feed
	}
	if cmd.Flags().Changed("max") {
		if flags.max < 0 {
			return opts, errors.New("--max must be zero or positive")
		}
		opts.MaxEpisodes = flags.max
	}
	if opts.FeedURL == "" {
		return opts, errors.New("no feed URL: pass --feed or set feed.url")
	}
	return opts, nil
}

func printRunReport(out io.Writer, cfg *config.Config, report *pipeline.Report) {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		detail := res.Message
		if res.ErrorKind != "" {
			detail = fmt.Sprintf("%s (%s)", res.ErrorKind, res.Stage)
		}
		rows = append(rows, []string{
			string(res.Status),
			res.Title,
			res.PrimaryTag,
			strconv.Itoa(res.Segments),
			strconv.Itoa(res.Windows),
			formatElapsed(res.Elapsed),
			detail,
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out,
			[]string{"Status", "Title", "Primary Tag", "Segments", "Windows", "Elapsed", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Processed %d episodes", report.Processed)
	if report.Skipped > 0 {
		fmt.Fprintf(out, " (%d already written, skipped)", report.Skipped)
	}
	fmt.Fprintln(out)
	if report.DryRun {
		fmt.Fprintln(out, "Dry run: nothing was written")
		return
	}
	if report.RowCount >= 0 {
		fmt.Fprintf(out, "Rows in %s: %d\n", cfg.Warehouse.Table, report.RowCount)
	}
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
