package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey-austin/media_share/internal/msd"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [folder...]",
		Short: "Share folders with DLNA renderers on the LAN",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a := fromContext(cmd)
	cfg := a.cfg

	logger := msd.NewLogger(logConfig(cfg))
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	version, _ := msd.BuildVersion()
	server, err := msd.Build(logger, cfg, version)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return err
	}
	logger.Info("msd starting",
		zap.String("name", server.Identity.FriendlyName),
		zap.String("uuid", server.Identity.UUID),
		zap.String("url", server.BaseURL),
		zap.Strings("folders", server.Library.Folders()),
		zap.Bool("ssdp", cfg.SSDP.Enabled),
		zap.Bool("metrics", cfg.Server.Metrics),
		zap.String("log_level", cfg.Server.LogLevel),
	)

	supervisor := msd.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, server.Modules()); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		return err
	}
	return nil
}
