package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail-cli/internal/classify"
	"github.com/jobtrail/jobtrail-cli/internal/ingest"
	"github.com/jobtrail/jobtrail-cli/pkg/gemini"
	"github.com/jobtrail/jobtrail-cli/pkg/mailbox"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the mailbox and ingest new messages",
	Long:  "Fetches messages in the given date window, classifies each unseen one, and records opportunities, networking events, and ignored mail. Safe to re-run: already ingested messages are skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sinceStr, _ := cmd.Flags().GetString("since")
		beforeStr, _ := cmd.Flags().GetString("before")
		max, _ := cmd.Flags().GetInt("max")
		if !cmd.Flags().Changed("max") {
			max = cfg.Scan.MaxMessages
		}

		since, before, err := scanWindow(sinceStr, beforeStr, cfg.Scan.DefaultWindowDays, time.Now())
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		classifierClient, err := gemini.New(ctx, cfg.Gemini)
		if err != nil {
			return err
		}

		box, err := mailbox.Connect(cfg.Mailbox)
		if err != nil {
			return err
		}
		defer box.Close() //nolint:errcheck

		scanner := ingest.NewScanner(box, classify.NewAnalyzer(classifierClient), st)
		summary, err := scanner.Run(ctx, since, before, max)
		if err != nil {
			return eris.Wrap(err, "scan")
		}

		if summary.QuotaStopped {
			zap.L().Warn("run stopped early on exhausted quota; re-run later to finish the window")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

// scanWindow resolves the scan date bounds. An absent since falls back to
// defaultDays before now; an absent before leaves the window open-ended.
func scanWindow(sinceStr, beforeStr string, defaultDays int, now time.Time) (time.Time, time.Time, error) {
	var since, before time.Time

	if sinceStr != "" {
		t, err := time.Parse("2006-01-02", sinceStr)
		if err != nil {
			return since, before, eris.Wrapf(err, "parse --since %q", sinceStr)
		}
		since = t
	} else if defaultDays > 0 {
		since = now.AddDate(0, 0, -defaultDays).Truncate(24 * time.Hour)
	}

	if beforeStr != "" {
		t, err := time.Parse("2006-01-02", beforeStr)
		if err != nil {
			return since, before, eris.Wrapf(err, "parse --before %q", beforeStr)
		}
		before = t
	}

	if !since.IsZero() && !before.IsZero() && !before.After(since) {
		return since, before, eris.New("--before must be after --since")
	}
	return since, before, nil
}

func init() {
	scanCmd.Flags().String("since", "", "only scan messages on or after this date (YYYY-MM-DD)")
	scanCmd.Flags().String("before", "", "only scan messages before this date (YYYY-MM-DD, exclusive)")
	scanCmd.Flags().Int("max", 0, "max messages to process this run (0 = no cap)")

	rootCmd.AddCommand(scanCmd)
}
