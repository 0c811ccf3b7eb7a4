package main

import (
	"fmt"

	"github.com/plrectco/dcf/cmd"
	"github.com/plrectco/dcf/internal/util"
	"github.com/spf13/cobra"
)

func newServeCmd(loadConfig func() (*util.Config, error)) *cobra.Command {
	var port int

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.Flags().Changed("port") {
				cfg.Port = port
			}

			handler, err := cmd.InitializeDependencies(*cfg)
			if err != nil {
				return err
			}
			c.SilenceUsage = true

			handler.Logger.Infow("starting api", "port", cfg.Port)
			return handler.StartApi(cfg.Port)
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", util.NewDefaultConfig().Port, "port to listen on")

	return serve
}
