package api

import (
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rxtech-lab/table-studio/internal/api/middleware"
	"github.com/rxtech-lab/table-studio/internal/services"
	"go.uber.org/zap"
)

// ServerDeps are the services exposed over HTTP
type ServerDeps struct {
	Imports     services.ImportService
	Deploys     services.DeployService
	Projects    services.ProjectService
	Definitions services.DefinitionService
	Deployments services.DeploymentService
	Authorizer  services.Authorizer
	Logger      *zap.Logger
	// ProtectedResource is published for OAuth clients when set
	ProtectedResource *ProtectedResource
}

type APIServer struct {
	app         *fiber.App
	imports     services.ImportService
	deploys     services.DeployService
	projects    services.ProjectService
	definitions services.DefinitionService
	deployments services.DeploymentService
	authorizer  services.Authorizer
	logger      *zap.Logger
	resource    *ProtectedResource
	port        int
}

func NewAPIServer(deps ServerDeps, auth middleware.AuthConfig) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	server := &APIServer{
		app:         app,
		imports:     deps.Imports,
		deploys:     deps.Deploys,
		projects:    deps.Projects,
		definitions: deps.Definitions,
		deployments: deps.Deployments,
		authorizer:  deps.Authorizer,
		logger:      deps.Logger,
		resource:    deps.ProtectedResource,
	}
	server.setupRoutes(auth)
	return server
}

func (s *APIServer) setupRoutes(auth middleware.AuthConfig) {
	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	if s.resource != nil {
		s.app.Get(ProtectedResourcePath, s.handleOAuthProtectedResource)
	}

	api := s.app.Group("/api", middleware.AuthMiddleware(auth))

	api.Post("/projects/:project_id/environments/:environment_id/imports", s.handleImport)
	api.Post("/projects/:project_id/environments/:environment_id/deployments", s.handleDeploy)
	api.Get("/projects/:project_id/deployments", s.handleListProjectDeployments)
	api.Get("/environments/:environment_id/deployments", s.handleListEnvironmentDeployments)
	api.Get("/projects/:project_id/definitions/name-available", s.handleNameAvailable)
}

// App returns the underlying fiber app
func (s *APIServer) App() *fiber.App {
	return s.app
}

// Start listens on addr in the background and returns the bound port.
// Use ":0" to pick a free port.
func (s *APIServer) Start(addr string) (int, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := s.app.Listener(listener); err != nil {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("API server listening", zap.Int("port", s.port))
	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}
