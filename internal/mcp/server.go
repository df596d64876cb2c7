package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/table-studio/internal/services"
	"github.com/rxtech-lab/table-studio/internal/tools"
)

// ServerDeps are the services exposed as MCP tools
type ServerDeps struct {
	Imports     services.ImportService
	Deploys     services.DeployService
	Projects    services.ProjectService
	Deployments services.DeploymentService
	Chains      services.ChainService
	Authorizer  services.Authorizer
	// Identity acts for tool calls that carry no authenticated user
	Identity string
}

type MCPServer struct {
	server *server.MCPServer
}

func NewMCPServer(deps ServerDeps, version string) *MCPServer {
	mcpServer := &MCPServer{}
	mcpServer.InitializeTools(deps, version)
	return mcpServer
}

func (s *MCPServer) InitializeTools(deps ServerDeps, version string) {
	srv := server.NewMCPServer(
		"Table Studio MCP Server",
		version,
		server.WithToolCapabilities(true),
	)

	srv.AddPrompt(mcp.NewPrompt("studio-usage",
		mcp.WithPromptDescription("Instructions and guidance for using the table studio tools"),
		mcp.WithArgument("tool_category",
			mcp.ArgumentDescription("Category of tools to get instructions for (import, deploy, chain, or all)"),
			mcp.RequiredArgument(),
		),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		category := request.Params.Arguments["tool_category"]
		if category == "" {
			return nil, fmt.Errorf("tool_category is required")
		}

		return mcp.NewGetPromptResult(
			fmt.Sprintf("Table Studio Tools - %s", category),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(getToolInstructions(category)),
				),
			},
		), nil
	})

	// Import Tools
	if deps.Imports != nil {
		importTable := tools.NewImportTableTool(deps.Imports, deps.Identity)
		srv.AddTool(importTable.GetTool(), importTable.GetHandler())

		importTables := tools.NewImportTablesTool(deps.Imports, deps.Identity)
		srv.AddTool(importTables.GetTool(), importTables.GetHandler())
	}

	// Deployment Tools
	if deps.Deploys != nil {
		deployDefinition := tools.NewDeployDefinitionTool(deps.Deploys, deps.Identity)
		srv.AddTool(deployDefinition.GetTool(), deployDefinition.GetHandler())
	}

	listDeployments := tools.NewListDeploymentsTool(deps.Projects, deps.Deployments, deps.Authorizer, deps.Identity)
	srv.AddTool(listDeployments.GetTool(), listDeployments.GetHandler())

	// Chain Tools
	listChains := tools.NewListChainsTool(deps.Chains)
	srv.AddTool(listChains.GetTool(), listChains.GetHandler())

	s.server = srv
}

func getToolInstructions(category string) string {
	switch category {
	case "import":
		return `Import Tools:

1. import_table - Attach one existing on-chain table to an environment
   Usage: Pass the full table name ({prefix}_{chainId}_{tableId}). The table's
   schema becomes a definition; importing the same table again reports already_deployed.

2. import_tables - Attach several tables at once
   Usage: Rows are validated before anything is written. Failed rows do not stop
   the batch unless strict is set.`

	case "deploy":
		return `Deployment Tools:

1. deploy_definition - Create a new table on-chain from a definition
   Usage: Waits for the transaction to confirm, then records the table in the environment

2. list_deployments - List recorded tables for a project or environment
   Usage: Filter by chain and page through results`

	case "chain":
		return `Chain Tools:

1. list_chains - List supported chains
   Usage: Find the chain id to deploy to and the validator serving it`

	case "all":
		return `Table Studio Tools Overview:

IMPORT (2 tools):
- import_table: Import one on-chain table
- import_tables: Import a batch of tables

DEPLOYMENT (2 tools):
- deploy_definition: Create a table from a definition
- list_deployments: View recorded tables

CHAIN (1 tool):
- list_chains: View supported chains

Errors start with a code in brackets. unavailable means the registry could not
be reached and the call can be retried as is.`

	default:
		return `Invalid category. Available categories: import, deploy, chain, all`
	}
}

// Start serves the tools over stdio until the input is closed
func (s *MCPServer) Start() error {
	return server.ServeStdio(s.server)
}

// Server exposes the underlying MCP server
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}
