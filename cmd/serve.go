package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/audiotrainer/internal/server"
	"github.com/abhisek/audiotrainer/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trainer over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		log, err := newLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}
		defer log.Sync()

		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		opts := []server.Option{server.WithLogger(log)}

		if persist, _ := cmd.Flags().GetBool("persist"); persist {
			st, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()
			user, _ := cmd.Flags().GetString("user")
			opts = append(opts, server.WithRecorder(store.NewRecorder(st, user)))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("serving", zap.String("addr", cfg.Server.Addr))
		return server.New(engine, opts...).Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8088)")
	serveCmd.Flags().Bool("persist", false, "Record sessions in the database")
	serveCmd.Flags().String("user", "http", "Learner ID progress is stored under")
}
