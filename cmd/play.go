package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/app"
	"github.com/abhisek/audiotrainer/internal/narrative"
	"github.com/abhisek/audiotrainer/internal/screens/home"
	"github.com/abhisek/audiotrainer/internal/session"
	"github.com/abhisek/audiotrainer/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the audiometer trainer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func init() {
	addCaseFlags(playCmd.Flags())
	playCmd.Flags().String("user", "local", "Learner ID progress is stored under")
	playCmd.Flags().Bool("no-narrate", false, "Skip LLM narrative enrichment")
}

// runPlay opens the store, builds dependencies and launches the TUI.
func runPlay(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(filepath.Dir(dbPath), "audiotrainer.log")
	}
	cfg.Store.Path = dbPath
	log, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	opts, err := caseOpts(cmd.Flags())
	if err != nil {
		return err
	}
	user, _ := cmd.Flags().GetString("user")

	deps := home.Deps{
		Base:     session.New(engine),
		Opts:     opts,
		Recorder: store.NewRecorder(st, user),
		History:  st.EventRepo(),
		Log:      log,
	}

	if skip, _ := cmd.Flags().GetBool("no-narrate"); !skip {
		provider, err := newProvider(ctx, cfg, st.EventRepo(), log)
		switch {
		case err != nil:
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Case narratives will use templates.")
		case provider != nil:
			deps.Enricher = &narrative.Enricher{Provider: provider}
			log.Info("narrative enrichment enabled", zap.String("model", provider.ModelID()))
		}
	}

	return app.Run(ctx, deps)
}
