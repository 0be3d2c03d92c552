// Package main is the game server entrypoint.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KDT2006/seabattle/internal/config"
	"github.com/KDT2006/seabattle/internal/log"
	"github.com/KDT2006/seabattle/internal/server"
	"github.com/KDT2006/seabattle/internal/telemetry"
)

const serviceName = "seabattle-server"

var (
	// version is set at build time with -ldflags "-X main.version=...".
	version = "dev"

	logger logrus.FieldLogger = logrus.StandardLogger()

	configPath string
	listenAddr string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:     serviceName,
		Version: version,
		Short:   "Two-player naval combat server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Starts the UDP game server.",
		RunE:  runServe,
	}
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := config.ParseEnv()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = env.LogLevel
	}
	log.SetLogger(logLevel)
	if configPath == "" {
		configPath = env.ConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return errors.Wrap(err, "load config failed")
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	shutdown, err := telemetry.Setup(ctx, env, version)
	if err != nil {
		return errors.Wrap(err, "telemetry setup failed")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("telemetry shutdown failed")
		}
	}()

	return errors.Wrap(server.New(cfg).Run(ctx), "run server failed")
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "directory containing seabattle.yaml")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "UDP address to listen on, overrides the config file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal(errors.Wrap(err, "execute root command failed"))
	}
}
