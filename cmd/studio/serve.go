package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on HTTP_ADDR. Requests must carry a bearer token signed by a key
published at JWKS_URI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		apiServer := a.NewAPIServer()
		port, err := apiServer.Start(a.Config.HTTPAddr)
		if err != nil {
			return err
		}
		a.Logger.Info("API server started", zap.Int("port", port), zap.String("version", Version))

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		a.Logger.Info("shutting down API server")
		return apiServer.Shutdown()
	},
}
