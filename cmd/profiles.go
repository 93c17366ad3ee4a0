package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/audiotrainer/internal/disorder"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the disorder profiles cases are drawn from",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCLASS\tSIDE\tDESCRIPTION")
		for _, p := range disorder.All() {
			side := "both"
			if p.Unilateral {
				side = "one"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Class, side, strings.TrimSpace(p.Description))
		}
		return w.Flush()
	},
}
