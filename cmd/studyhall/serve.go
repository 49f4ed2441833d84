package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyhall/internal/config"
	"studyhall/internal/gen"
	"studyhall/internal/server"
	"studyhall/internal/store"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the StudyHall HTTP API",
	Long: `Starts the HTTP server. SIGINT or SIGTERM triggers a graceful
shutdown that drains in-flight requests.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	gateway := gen.NewGateway(cfg)
	srv := server.New(cfg, st, gateway)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		zap.String("listen", cfg.Server.Listen),
		zap.String("db", cfg.Storage.DatabasePath),
		zap.String("provider", cfg.Generation.Provider),
		zap.Bool("credentials", cfg.Generation.APIKey != ""))

	return srv.Run(ctx)
}
