package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/data"
	"github.com/eventdesk/eventdesk-api/internal/domain/model"
	"github.com/eventdesk/eventdesk-api/internal/service"
)

const defaultStaleMaxAge = 10 * time.Minute

type jobsListOptions struct {
	Status *model.JobStatus
	Owner  string
	Limit  int
	Offset int
}

type resetStaleOptions struct {
	MaxAge time.Duration
	Yes    bool
}

func runJobs(cmdCtx *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: eventdesk-admin jobs <stats|list|reset-stale> [flags]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "stats":
		return withJobService(cmdCtx, func(ctx context.Context, svc *service.JobService, _ *sql.DB) error {
			stats, err := svc.Stats(ctx)
			if err != nil {
				return err
			}
			return printJobStats(cmdCtx.Out, stats)
		})
	case "list":
		opts, err := parseJobsListFlags(rest)
		if err != nil {
			return err
		}
		return withJobService(cmdCtx, func(ctx context.Context, svc *service.JobService, _ *sql.DB) error {
			jobs, err := svc.List(ctx, model.JobListOptions{
				CreatedBy: opts.Owner,
				Status:    opts.Status,
				Limit:     opts.Limit,
				Offset:    opts.Offset,
			})
			if err != nil {
				return err
			}
			return printJobList(cmdCtx.Out, jobs)
		})
	case "reset-stale":
		opts, err := parseResetStaleFlags(rest)
		if err != nil {
			return err
		}
		if !opts.Yes {
			action := fmt.Sprintf("return jobs processing for longer than %s to the queue", opts.MaxAge)
			if confirmErr := requireConfirmation(os.Stdin, os.Stderr, action, "reset"); confirmErr != nil {
				return confirmErr
			}
		}
		return withJobService(cmdCtx, func(ctx context.Context, _ *service.JobService, db *sql.DB) error {
			return resetStale(ctx, cmdCtx, data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}), opts.MaxAge)
		})
	default:
		return fmt.Errorf("unknown jobs subcommand %q (want stats, list or reset-stale)", sub)
	}
}

func withJobService(
	cmdCtx *commandContext,
	f func(context.Context, *service.JobService, *sql.DB) error,
) error {
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		svc := service.MustNewJobService(service.JobServiceOptions{
			Repo:   data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}),
			Logger: cmdCtx.Logger,
		})
		return f(ctx, svc, db)
	})
}

// resetStale runs the same recovery the reaper performs, once, with an operator-chosen age.
func resetStale(
	ctx context.Context,
	cmdCtx *commandContext,
	repo core.JobMaintenanceRepository,
	maxAge time.Duration,
) error {
	reaperCfg := cmdCtx.Config.Reaper
	reaperCfg.ProcessingMaxAge = maxAge
	svc, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:   repo,
		Config: reaperCfg,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("create reaper service: %w", err)
	}

	res, err := svc.ResetStale(ctx, maxAge)
	if err != nil {
		return fmt.Errorf("reset stale jobs: %w", err)
	}
	return writef(cmdCtx.Out, "Requeued: %d\nFailed (attempts exhausted): %d\n", res.Requeued, res.Failed)
}

func parseJobsListFlags(args []string) (jobsListOptions, error) {
	fs := flag.NewFlagSet("jobs list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts   jobsListOptions
		status string
	)
	fs.StringVar(&status, "status", "", "Filter by status (pending, processing, completed, failed)")
	fs.StringVar(&opts.Owner, "owner", "", "Filter by creating user")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum rows to print")
	fs.IntVar(&opts.Offset, "offset", 0, "Rows to skip")

	if err := fs.Parse(args); err != nil {
		return jobsListOptions{}, err
	}
	if opts.Limit <= 0 || opts.Limit > 1000 {
		return jobsListOptions{}, errors.New("--limit must be between 1 and 1000")
	}
	if opts.Offset < 0 {
		return jobsListOptions{}, errors.New("--offset must not be negative")
	}
	if status = strings.TrimSpace(status); status != "" {
		var st model.JobStatus
		if err := st.UnmarshalText([]byte(status)); err != nil {
			return jobsListOptions{}, fmt.Errorf("--status: %w", err)
		}
		opts.Status = &st
	}
	return opts, nil
}

func parseResetStaleFlags(args []string) (resetStaleOptions, error) {
	fs := flag.NewFlagSet("jobs reset-stale", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := resetStaleOptions{MaxAge: defaultStaleMaxAge}
	fs.DurationVar(&opts.MaxAge, "max-age", defaultStaleMaxAge, "Reset jobs processing for longer than this")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return resetStaleOptions{}, err
	}
	if opts.MaxAge < time.Minute {
		return resetStaleOptions{}, errors.New("--max-age must be at least 1m")
	}
	return opts, nil
}

func printJobStats(out io.Writer, stats *model.JobStats) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "Status\tCount"); err != nil {
		return fmt.Errorf("write stats header: %w", err)
	}
	rows := []struct {
		label string
		count int
	}{
		{"pending", stats.Pending},
		{"processing", stats.Processing},
		{"completed", stats.Completed},
		{"failed", stats.Failed},
	}
	for _, row := range rows {
		if err := writef(w, "%s\t%d\n", row.label, row.count); err != nil {
			return fmt.Errorf("write stats row %q: %w", row.label, err)
		}
	}
	return w.Flush()
}

func printJobList(out io.Writer, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return writeln(out, "(no jobs found)")
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tType\tStatus\tAttempts\tOwner\tCreated\tError"); err != nil {
		return fmt.Errorf("write list header: %w", err)
	}
	for _, j := range jobs {
		errText := ""
		if j.Error != nil {
			errText = truncate(*j.Error, 60)
		}
		if err := writef(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			j.ID, j.Type, j.Status, j.Attempts, j.MaxAttempts, j.CreatedBy,
			j.CreatedAt.UTC().Format(time.RFC3339), errText,
		); err != nil {
			return fmt.Errorf("write job %s: %w", j.ID, err)
		}
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
