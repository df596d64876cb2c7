package server

import (
	"fmt"

	"github.com/rxtech-lab/table-studio/internal/api"
	"github.com/rxtech-lab/table-studio/internal/api/middleware"
	"github.com/rxtech-lab/table-studio/internal/chain"
	"github.com/rxtech-lab/table-studio/internal/config"
	"github.com/rxtech-lab/table-studio/internal/hooks"
	"github.com/rxtech-lab/table-studio/internal/mcp"
	"github.com/rxtech-lab/table-studio/internal/registry"
	"github.com/rxtech-lab/table-studio/internal/services"
	"github.com/rxtech-lab/table-studio/internal/utils"
	"github.com/rxtech-lab/table-studio/pkg/logger"
	"go.uber.org/zap"
)

// Services is everything a studio process needs, built from one Config
type Services struct {
	Config *config.Config
	Logger *zap.Logger
	DB     services.DBService
	// Writer is nil when no signer key is configured
	Writer *chain.Writer

	Chains      services.ChainService
	Authorizer  services.Authorizer
	Projects    services.ProjectService
	Definitions services.DefinitionService
	Deployments services.DeploymentService
	Hooks       services.HookService
	Imports     services.ImportService
	Deploys     services.DeployService
}

// InitializeServices opens the database and wires every service. Close
// releases what it opened.
func InitializeServices(cfg *config.Config) (*Services, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dbService, err := openDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db := dbService.GetDB()

	s := &Services{
		Config:      cfg,
		Logger:      log,
		DB:          dbService,
		Chains:      services.NewChainService(cfg.RPCURLMap, cfg.ValidatorURLMap),
		Authorizer:  services.NewMembershipAuthorizer(db),
		Projects:    services.NewProjectService(db),
		Definitions: services.NewDefinitionService(db),
		Deployments: services.NewDeploymentService(db),
		Hooks:       services.NewHookService(),
	}

	if err := RegisterHooks(s.Hooks, InitializeHooks(log)...); err != nil {
		s.Close()
		return nil, err
	}

	client := registry.NewHTTPClient(registry.Options{
		Timeout:    cfg.RegistryTimeout,
		MaxRetries: cfg.RegistryMaxRetries,
		BaseURLs:   s.Chains.ValidatorURLs(),
		Logger:     log,
	})

	s.Imports = services.NewImportService(db, services.ImportServiceDeps{
		Registry:    client,
		Authorizer:  s.Authorizer,
		Projects:    s.Projects,
		Definitions: s.Definitions,
		Deployments: s.Deployments,
		Hooks:       s.Hooks,
		Logger:      log,
	})

	deployDeps := services.DeployServiceDeps{
		Registry:    client,
		Authorizer:  s.Authorizer,
		Chains:      s.Chains,
		Projects:    s.Projects,
		Definitions: s.Definitions,
		Deployments: s.Deployments,
		Hooks:       s.Hooks,
		Logger:      log,
	}
	// Without a signer the deploy service reports an internal error on use.
	if cfg.SignerPrivateKey != "" {
		s.Writer, err = chain.NewWriter(cfg.SignerPrivateKey, s.Chains.RPCURLs(), log)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create chain writer: %w", err)
		}
		deployDeps.Writer = s.Writer
	}
	s.Deploys = services.NewDeployService(db, services.DeployServiceConfig{
		ConfirmationTimeout: cfg.ConfirmationTimeout,
		WaitForReceipt:      cfg.WaitForReceipt,
	}, deployDeps)

	return s, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (services.DBService, error) {
	if cfg.DatabaseDriver == "postgres" {
		return services.NewPostgresDBService(cfg.DatabaseURL, services.WithDBLogger(log))
	}
	return services.NewSqliteDBService(cfg.SqlitePath, services.WithDBLogger(log))
}

// InitializeHooks returns the hooks every process registers
func InitializeHooks(log *zap.Logger) []services.Hook {
	return []services.Hook{
		hooks.NewDeploymentLogHook(log),
	}
}

func RegisterHooks(hookService services.HookService, hooks ...services.Hook) error {
	for _, hook := range hooks {
		if err := hookService.AddHook(hook); err != nil {
			return fmt.Errorf("failed to register hook: %w", err)
		}
	}
	return nil
}

// NewAPIServer builds the HTTP API. Tokens are validated against JWKS_URI;
// without it every request is rejected.
func (s *Services) NewAPIServer() *api.APIServer {
	auth := middleware.DefaultAuthConfig()
	if s.Config.JwksURI != "" {
		auth.JWTAuthenticator = utils.NewJwtAuthenticator(s.Config.JwksURI)
	} else {
		s.Logger.Warn("JWKS_URI is not set, every API request will be rejected")
	}

	var resource *api.ProtectedResource
	if s.Config.PublicURL != "" && s.Config.OAuthIssuer != "" {
		resource = &api.ProtectedResource{
			Resource:             s.Config.PublicURL,
			AuthorizationServers: []string{s.Config.OAuthIssuer},
		}
	}

	return api.NewAPIServer(api.ServerDeps{
		Imports:           s.Imports,
		Deploys:           s.Deploys,
		Projects:          s.Projects,
		Definitions:       s.Definitions,
		Deployments:       s.Deployments,
		Authorizer:        s.Authorizer,
		Logger:            s.Logger,
		ProtectedResource: resource,
	}, auth)
}

// NewMCPServer exposes the services as MCP tools acting as STUDIO_IDENTITY
func (s *Services) NewMCPServer(version string) *mcp.MCPServer {
	return mcp.NewMCPServer(mcp.ServerDeps{
		Imports:     s.Imports,
		Deploys:     s.Deploys,
		Projects:    s.Projects,
		Deployments: s.Deployments,
		Chains:      s.Chains,
		Authorizer:  s.Authorizer,
		Identity:    s.Config.Identity,
	}, version)
}

func (s *Services) Close() {
	if s.Writer != nil {
		s.Writer.Close()
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			s.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = s.Logger.Sync()
}
