package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/synapsocial/synapsocial/internal/config"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/service"
)

func ScanCmd() *cobra.Command {
	var (
		asJSON   bool
		lockPath string
	)

	c := &cobra.Command{
		Use:   "scan",
		Short: "Run one engagement scan now and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if lockPath != "" {
				cfg.ScanLockPath = lockPath
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return runScan(cmd.Context(), cmd.OutOrStdout(), a.Scanner, asJSON)
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	c.Flags().StringVar(&lockPath, "lock", "", "scan lock file (default SCAN_LOCK_PATH, shared with the server)")
	return c
}

// runScan runs one scan. The scanner's file lock keeps it from overlapping
// the server's scheduled scan or another synapctl.
func runScan(ctx context.Context, w io.Writer, scanner *service.Scanner, asJSON bool) error {
	report := scanner.RunOnce(ctx)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(w, report)
	return nil
}

func printReport(w io.Writer, report model.ScanReport) {
	if report.Skipped {
		_, _ = fmt.Fprintln(w, "scan skipped: another scan is running")
		return
	}

	_, _ = fmt.Fprintf(w, "accounts: %d\neligible: %d\nreplied:  %d\nfailures: %d\nduration: %s\n",
		report.Accounts, report.Eligible, report.Replied, len(report.Failures),
		report.FinishedAt.Sub(report.StartedAt).Round(1e6))

	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(w, "  %s %s", f.Platform, f.UserID)
		if f.PostID != "" {
			_, _ = fmt.Fprintf(w, " post=%s", f.PostID)
		}
		if f.CommentID != "" {
			_, _ = fmt.Fprintf(w, " comment=%s", f.CommentID)
		}
		_, _ = fmt.Fprintf(w, ": %s\n", f.Err)
	}
}
