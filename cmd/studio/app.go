package main

import (
	"github.com/rxtech-lab/table-studio/internal/config"
	"github.com/rxtech-lab/table-studio/internal/server"
	"github.com/spf13/cobra"
)

// loadApp loads configuration and wires the services for a command
func loadApp(cmd *cobra.Command) (*server.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if identity, _ := cmd.Flags().GetString("identity"); identity != "" {
		cfg.Identity = identity
	}
	return server.InitializeServices(cfg)
}
