package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javajack/xlbind/server"
	"github.com/javajack/xlbind/store"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	a.logger.Info("Starting xlbind server",
		zap.String("version", server.Version),
		zap.Int("port", cfg.Server.Port))

	db, err := store.Open(store.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxUpload:    cfg.Server.MaxUpload,
		Debug:        cfg.Logger.Level == "debug",
	},
		store.NewTemplateRepository(db, a.logger),
		store.NewBindingRepository(db, a.logger),
		a.logger,
		cfg.Options(nil)...,
	)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("Server exited successfully")
	return nil
}
