package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sydlexius/iconsmith/internal/config"
	"github.com/sydlexius/iconsmith/internal/database"
	"github.com/sydlexius/iconsmith/internal/history"
	"github.com/sydlexius/iconsmith/internal/maintenance"
)

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	limit := fs.Int("limit", history.DefaultLimit, "number of runs to show")
	id := fs.String("id", "", "show one run with its output files")
	prune := fs.Bool("prune", false, "delete runs older than the configured retention and compact the database")
	status := fs.Bool("status", false, "show database size and row counts")
	backupDir := fs.String("backup", "", "write a snapshot of the database into this directory")
	keep := fs.Int("keep", 5, "snapshots to keep with -backup; 0 keeps all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	db, err := database.OpenAndMigrate(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer db.Close() //nolint:errcheck
	svc := history.NewService(db)

	if *prune || *status || *backupDir != "" {
		maint := maintenance.NewService(db, cfg.Database.Path, svc, slog.Default())
		if *prune {
			n, err := maint.Prune(ctx, cfg.Database.Retention)
			if err != nil {
				return err
			}
			if err := maint.Vacuum(ctx); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "pruned %d runs older than %s\n", n, cfg.Database.Retention)
		}
		if *backupDir != "" {
			b, err := maint.Backup(ctx, *backupDir, *keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "backup written to %s (%d bytes)\n", b.Path, b.Size)
		}
		if *status {
			st, err := maint.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "runs: %d\noutputs: %d\nfile: %d bytes (wal %d bytes, %d pages of %d bytes)\n",
				st.Runs, st.Outputs, st.DBFileSize, st.WALFileSize, st.PageCount, st.PageSize)
		}
		return nil
	}

	if *id != "" {
		r, err := svc.Get(ctx, *id)
		if err != nil {
			return err
		}
		return printRun(stdout, r)
	}

	runs, err := svc.List(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(stdout, "no runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tSTATUS\tSIZES\tSHAPE\tEFFECT\tICONS\tTOOK\tSOURCE")
	for _, r := range runs {
		status := r.Status
		if r.Status == history.StatusFailed && r.FailedSize > 0 {
			status = fmt.Sprintf("failed@%d", r.FailedSize)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), status, r.Sizes,
			r.Shape, r.Effect, r.Icons, time.Duration(r.DurationMS)*time.Millisecond, r.Source)
	}
	return tw.Flush()
}

func printRun(w io.Writer, r *history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", r.ID)
	fmt.Fprintf(tw, "when\t%s\n", r.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "status\t%s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(tw, "error\t%s\n", r.Error)
	}
	fmt.Fprintf(tw, "source\t%s\n", r.Source)
	fmt.Fprintf(tw, "sizes\t%s\n", r.Sizes)
	fmt.Fprintf(tw, "shape\t%s\n", r.Shape)
	fmt.Fprintf(tw, "effect\t%s\n", r.Effect)
	fmt.Fprintf(tw, "took\t%s\n", time.Duration(r.DurationMS)*time.Millisecond)
	for _, o := range r.Outputs {
		fmt.Fprintf(tw, "output\t%s (%s)\n", o.Path, o.Format)
	}
	return tw.Flush()
}
