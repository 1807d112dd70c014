package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail-cli/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Inspect tracked records",
	Long:  "Commands for listing tracked opportunities, ingested emails, and networking events.",
}

// -- list opportunities --

var listOpportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "List tracked opportunities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stageStr, _ := cmd.Flags().GetString("stage")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		stage := model.Stage(stageStr)
		if stageStr != "" && !stage.Valid() {
			return eris.Errorf("unknown stage %q", stageStr)
		}

		opps, err := st.ListOpportunities(ctx, stage, limit)
		if err != nil {
			return eris.Wrap(err, "list opportunities")
		}
		if len(opps) == 0 {
			fmt.Fprintln(os.Stderr, "No opportunities found.")
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(opps)
		}
		formatOpportunities(os.Stdout, opps)
		return nil
	},
}

// -- list emails --

var listEmailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "List recently ingested emails",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		emails, err := st.RecentEmails(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "list emails")
		}
		if len(emails) == 0 {
			fmt.Fprintln(os.Stderr, "No ingested emails found.")
			return nil
		}

		formatEmails(os.Stdout, emails)
		return nil
	},
}

// -- list events --

var listEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent networking events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		events, err := st.RecentNetworkingEvents(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "list events")
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No networking events found.")
			return nil
		}

		formatEvents(os.Stdout, events)
		return nil
	},
}

func formatOpportunities(w io.Writer, opps []model.Opportunity) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tROLE\tSTAGE\tACTION\tDEADLINE\tUPDATED")
	for _, o := range opps {
		action := ""
		if o.ActionRequired {
			action = "yes"
		}
		deadline := ""
		if o.Deadline != nil {
			deadline = o.Deadline.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Company, strOrDash(o.Role), o.Stage, action, deadline,
			o.LastUpdatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func formatEmails(w io.Writer, emails []model.Email) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVED\tTYPE\tSENDER\tSUBJECT")
	for _, e := range emails {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.ReceivedAt.Format("2006-01-02 15:04"), e.EmailType, e.Sender, truncate(e.Subject, 60))
	}
	tw.Flush()
}

func formatEvents(w io.Writer, events []model.NetworkingEvent) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tPERSON\tTITLE\tCOMPANY\tTYPE\tFOLLOW-UP")
	for _, n := range events {
		followUp := ""
		if n.RequiresFollowUp {
			followUp = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.CreatedAt.Format("2006-01-02"), strOrDash(n.PersonName), strOrDash(n.PersonTitle),
			strOrDash(n.PersonCompany), n.InteractionType, followUp)
	}
	tw.Flush()
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	listOpportunitiesCmd.Flags().String("stage", "", "filter by pipeline stage (e.g. APPLIED, INTERVIEW)")
	listOpportunitiesCmd.Flags().Int("limit", 50, "max rows to display")
	listOpportunitiesCmd.Flags().Bool("json", false, "output as JSON")

	listEmailsCmd.Flags().Int("limit", 50, "max rows to display")
	listEventsCmd.Flags().Int("limit", 50, "max rows to display")

	listCmd.AddCommand(listOpportunitiesCmd)
	listCmd.AddCommand(listEmailsCmd)
	listCmd.AddCommand(listEventsCmd)
	rootCmd.AddCommand(listCmd)
}
