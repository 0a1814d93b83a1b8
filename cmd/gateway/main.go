package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relayplane/gateway/internal/application"
	"github.com/relayplane/gateway/internal/infrastructure/config"
	"github.com/relayplane/gateway/internal/infrastructure/logger"
)

const appName = "relayplane-gateway"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "LLM routing gateway: task inference, model aliasing, cascade escalation",
	}
	cmd.AddCommand(newServeCmd(), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s v%s\n", appName, application.Version)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe loads config, builds the App, and runs it under an errgroup so a
// listen failure and an interrupt signal both trigger the same
// graceful-shutdown path with a 5-second hard cap (spec §6).
func runServe(ctx context.Context) error {
	log, err := logger.NewLogger(logger.Config{Level: "info", Format: "json", OutputPath: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return err
	}
	defer log.Sync()

	log.Info("starting gateway", zap.String("name", appName), zap.String("version", application.Version))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", zap.Error(err))
		return err
	}

	app, err := application.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", zap.Error(err))
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return app.Start(groupCtx)
	})

	group.Go(func() error {
		sigCtx, stop := signal.NotifyContext(groupCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()
		log.Info("received shutdown signal")
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("gateway exited with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
		return err
	}

	log.Info("gateway stopped")
	return nil
}
