// Package main is a terminal client for the game server.
package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KDT2006/seabattle/internal/client"
	"github.com/KDT2006/seabattle/internal/log"
	"github.com/KDT2006/seabattle/internal/protocol"
)

var (
	logger logrus.FieldLogger = logrus.StandardLogger()

	serverAddr string
	name       string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "seabattle-client",
		Short: "Plays seabattle from the terminal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.SetLogger(logLevel)
			c := client.New(serverAddr)
			if err := c.Connect(); err != nil {
				return err
			}
			if name != "" {
				if err := c.Send(&protocol.Login{Username: name}); err != nil {
					return err
				}
			}
			return c.Play(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&serverAddr, "server", "localhost:12345", "server address")
	rootCmd.Flags().StringVar(&name, "name", "", "log in with this username on start")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "error", "trace, debug, info, warn or error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal(errors.Wrap(err, "execute root command failed"))
	}
}
