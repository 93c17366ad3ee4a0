package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show training statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, log, err := openCmdStore(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer st.Close()

		user, _ := cmd.Flags().GetString("user")
		p, err := st.ProgressRepo().Load(ctx, user)
		if err != nil {
			return err
		}
		if p.TotalSessions == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		fmt.Printf("Sessions:         %d\n", p.TotalSessions)
		fmt.Printf("Cases completed:  %d of %d\n", p.CompletedCases, len(p.CaseAccuracy))
		fmt.Printf("Last session:     %s\n", p.LastSessionDate.Local().Format("2006-01-02 15:04"))

		acc := stats.Float64Data(p.Accuracies())
		mean, _ := acc.Mean()
		median, _ := acc.Median()
		stdev, _ := acc.StandardDeviation()
		fmt.Printf("Accuracy:         mean %.1f%%  median %.1f%%  stdev %.1f\n", mean, median, stdev)

		if verbose, _ := cmd.Flags().GetBool("cases"); !verbose {
			return nil
		}
		ids := make([]string, 0, len(p.CaseAccuracy))
		for id := range p.CaseAccuracy {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CASE\tLATEST\tBEST\tATTEMPTS\tCOMPLETE")
		for _, id := range ids {
			ca := p.CaseAccuracy[id]
			best, _ := stats.Max(stats.LoadRawData(ca.History))
			complete := "-"
			if !ca.CompletedAt.IsZero() {
				complete = ca.CompletedAt.Local().Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%d%%\t%.0f%%\t%d\t%s\n", shortCaseID(id), ca.Accuracy, best, len(ca.History), complete)
		}
		return w.Flush()
	},
}

func init() {
	statsCmd.Flags().String("user", "local", "Learner ID")
	statsCmd.Flags().Bool("cases", false, "List every case")
}

func shortCaseID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
