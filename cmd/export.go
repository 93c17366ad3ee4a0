package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/export"
	"github.com/abhisek/audiotrainer/internal/session"
	"github.com/abhisek/audiotrainer/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session's measurements to CSV or XLSX",
	Long: "Export writes every measurement of a session in the order it was plotted. " +
		"XLSX output adds an Audiogram sheet with the final point of each slot. " +
		"Without a session ID the most recent session is exported.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if format == export.XLSX && out == "" {
			return fmt.Errorf("xlsx export needs --out")
		}

		st, log, err := openCmdStore(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer st.Close()

		var sessionID string
		if len(args) == 1 {
			sessionID = args[0]
		} else {
			events, err := st.EventRepo().QuerySessionEvents(ctx, store.QueryOpts{})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return fmt.Errorf("no sessions recorded")
			}
			sessionID = events[len(events)-1].SessionID
		}

		ms, err := st.MeasurementRepo().BySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			return fmt.Errorf("session %s: no measurements", sessionID)
		}
		rows, points := measurementRows(ms)

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}

		switch format {
		case export.XLSX:
			err = export.WriteXLSX(w, rows, points)
		default:
			err = export.WriteCSV(w, rows)
		}
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Fprintf(os.Stderr, "Exported %d measurements of session %s to %s\n", len(rows), sessionID, out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default stdout, required for xlsx)")
}

// measurementRows numbers the measurements and folds them into the final
// audiogram, later plots replacing earlier ones in the same slot.
func measurementRows(ms []store.Measurement) ([]session.LogRow, []audiometry.Point) {
	rows := make([]session.LogRow, 0, len(ms))
	s := session.New(nil)
	for i, m := range ms {
		rows = append(rows, m.LogRow(i+1))
		s = s.AddOrReplacePoint(m.Point())
	}
	return rows, s.Points()
}
