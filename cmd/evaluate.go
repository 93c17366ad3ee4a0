package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/audiotrainer/internal/audiometry"
	"github.com/abhisek/audiotrainer/internal/casegen"
	"github.com/abhisek/audiotrainer/internal/response"
)

// evaluation is the evaluate command's report.
type evaluation struct {
	CaseID   string              `json:"case_id" yaml:"case_id"`
	Stimulus audiometry.Stimulus `json:"stimulus" yaml:"stimulus"`
	Result   response.Result     `json:"result" yaml:"result"`
	Warnings []response.Warning  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate the patient response to one stimulus",
	Example: `  audiotrainer evaluate --seed 42 --ear L --transducer BC --freq 1000 --level 30
  audiotrainer evaluate --seed 42 --ear R --level 60 --masker 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		opts, err := caseOpts(cmd.Flags())
		if err != nil {
			return err
		}
		st, err := stimulusFlags(cmd)
		if err != nil {
			return err
		}
		formatName, _ := cmd.Flags().GetString("format")
		format, err := casegen.ParseFormat(formatName)
		if err != nil {
			return err
		}

		c, err := casegen.Generate(opts)
		if err != nil {
			return err
		}
		res := engine.Evaluate(c, st)
		return casegen.Encode(os.Stdout, format, evaluation{
			CaseID:   c.ID,
			Stimulus: st,
			Result:   res,
			Warnings: engine.Warnings(res),
		})
	},
}

func init() {
	addCaseFlags(evaluateCmd.Flags())
	evaluateCmd.Flags().Int64("seed", 0, "Case seed")
	evaluateCmd.Flags().String("ear", "R", "Test ear: R or L")
	evaluateCmd.Flags().String("transducer", "AC", "Transducer: AC or BC")
	evaluateCmd.Flags().Int("freq", 1000, "Frequency in Hz")
	evaluateCmd.Flags().Int("level", 30, "Presentation level in dB HL")
	evaluateCmd.Flags().Int("masker", audiometry.NoMasking, "Masker level in the non-test ear; omit for no masking")
	evaluateCmd.Flags().StringP("format", "f", "json", "Output format: json or yaml")
}

func stimulusFlags(cmd *cobra.Command) (audiometry.Stimulus, error) {
	fs := cmd.Flags()
	earName, _ := fs.GetString("ear")
	ear, err := audiometry.ParseEar(earName)
	if err != nil {
		return audiometry.Stimulus{}, err
	}
	trName, _ := fs.GetString("transducer")
	tr, err := audiometry.ParseTransducer(trName)
	if err != nil {
		return audiometry.Stimulus{}, err
	}
	freq, _ := fs.GetInt("freq")
	if !audiometry.Measurable(tr, freq) {
		return audiometry.Stimulus{}, fmt.Errorf("%s cannot test %d Hz", tr, freq)
	}
	level, _ := fs.GetInt("level")
	masker, _ := fs.GetInt("masker")

	return audiometry.Stimulus{
		Ear:        ear,
		Transducer: tr,
		Frequency:  freq,
		Level:      level,
		Masked:     fs.Changed("masker"),
		Masker:     masker,
	}.Normalize(), nil
}
