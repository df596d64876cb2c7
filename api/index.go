package handler

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rxtech-lab/table-studio/internal/api"
	"github.com/rxtech-lab/table-studio/internal/config"
	"github.com/rxtech-lab/table-studio/internal/server"
)

var (
	initOnce  sync.Once
	apiServer *api.APIServer
	initErr   error
)

// Handler is the Vercel function entrypoint serving the HTTP API
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		apiServer, initErr = initializeAPIServer()
	})
	if initErr != nil {
		log.Printf("Failed to initialize API server: %v", initErr)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	adaptor.FiberApp(apiServer.App())(w, r)
}

func initializeAPIServer() (*api.APIServer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Only /tmp is writable on Vercel
	if os.Getenv("VERCEL") == "1" && cfg.DatabaseDriver == "sqlite" {
		cfg.SqlitePath = "/tmp/studio.db"
	}

	services, err := server.InitializeServices(cfg)
	if err != nil {
		return nil, err
	}

	s := services.NewAPIServer()
	s.App().Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Table Studio API",
			"status":  "running",
		})
	})
	return s, nil
}
