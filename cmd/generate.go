package cmd

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/narrative"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate patient cases and print them",
	Example: `  audiotrainer generate --seed 42
  audiotrainer generate --profile CHL_Otosclerosis --severity 2 --sex F --format yaml
  audiotrainer generate --seed 100 --count 20 > cases.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts, err := caseOpts(cmd.Flags())
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("seed") {
			opts.Seed = time.Now().UnixNano()
		}
		count, _ := cmd.Flags().GetInt("count")
		formatName, _ := cmd.Flags().GetString("format")
		format, err := casegen.ParseFormat(formatName)
		if err != nil {
			return err
		}

		cases, err := casegen.GenerateBatch(ctx, opts, max(count, 1), runtime.NumCPU())
		if err != nil {
			return err
		}

		if narrate, _ := cmd.Flags().GetBool("narrate"); narrate {
			if err := narrateCases(cmd, cases); err != nil {
				return err
			}
		}

		if len(cases) == 1 {
			return casegen.Encode(os.Stdout, format, cases[0])
		}
		return casegen.Encode(os.Stdout, format, cases)
	},
}

func init() {
	addCaseFlags(generateCmd.Flags())
	generateCmd.Flags().Int64("seed", 0, "Random seed (default: time based)")
	generateCmd.Flags().IntP("count", "n", 1, "Number of cases; seeds are consecutive")
	generateCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
	generateCmd.Flags().Bool("narrate", false, "Rewrite narratives with the configured LLM")
}

// addCaseFlags registers the case selection flags shared by commands that
// generate cases.
func addCaseFlags(fs *pflag.FlagSet) {
	fs.String("profile", "", "Disorder profile, see the profiles command")
	fs.String("sex", "", "Patient sex: M or F")
	fs.String("age", "", "Age group, e.g. 40s or 70s")
	fs.Int("severity", -1, "Severity 0-3 (-1 draws one)")
	fs.String("side", "", "Affected side of unilateral profiles: R or L")
}

// caseOpts reads the case flags. Seed is left for the caller.
func caseOpts(fs *pflag.FlagSet) (casegen.GenerateOpts, error) {
	var opts casegen.GenerateOpts
	opts.Seed, _ = fs.GetInt64("seed")
	opts.Profile, _ = fs.GetString("profile")
	opts.Sex, _ = fs.GetString("sex")
	opts.AgeGroup, _ = fs.GetString("age")
	opts.AffectedSide, _ = fs.GetString("side")
	if sev, _ := fs.GetInt("severity"); sev >= 0 {
		opts = opts.WithSeverity(sev)
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func narrateCases(cmd *cobra.Command, cases []*casegen.Case) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer log.Sync()
	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := newProvider(ctx, cfg, st.EventRepo(), log)
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("--narrate needs an LLM provider: set an API key such as ANTHROPIC_API_KEY")
	}
	enricher := &narrative.Enricher{Provider: provider}
	for _, c := range cases {
		if _, err := enricher.Apply(ctx, c); err != nil {
			log.Warn("keep template narrative", zap.String("case", c.ID), zap.Error(err))
		}
	}
	return nil
}
