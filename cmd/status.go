package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/jobtrail/jobtrail-cli/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show opportunity counts per pipeline stage",
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

		stages, err := st.StageCounts(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		types, err := st.EmailTypeCounts(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		formatStatus(os.Stdout, stages, types)
		return nil
	},
}

func formatStatus(w io.Writer, stages map[model.Stage]int, types map[model.EmailType]int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "STAGE\tOPPORTUNITIES")
	total := 0
	for _, stage := range model.AllStages() {
		fmt.Fprintf(tw, "%s\t%d\n", stage, stages[stage])
		total += stages[stage]
	}
	fmt.Fprintf(tw, "TOTAL\t%d\n", total)

	fmt.Fprintln(tw, "\nEMAIL TYPE\tINGESTED")
	for _, typ := range []model.EmailType{
		model.EmailTypeJobPipeline,
		model.EmailTypeNetworking,
		model.EmailTypeIgnore,
		model.EmailTypeError,
	} {
		fmt.Fprintf(tw, "%s\t%d\n", typ, types[typ])
	}

	tw.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
