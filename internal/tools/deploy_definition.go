package tools

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/table-studio/internal/services"
)

type deployDefinitionTool struct {
	deployService services.DeployService
	identity      string
}

type DeployDefinitionArguments struct {
	ProjectID     string `json:"project_id" validate:"required"`
	EnvironmentID string `json:"environment_id" validate:"required"`
	DefinitionID  string `json:"definition_id" validate:"required"`
	ChainID       int64  `json:"chain_id" validate:"gt=0"`
}

func NewDeployDefinitionTool(deployService services.DeployService, identity string) *deployDefinitionTool {
	return &deployDefinitionTool{
		deployService: deployService,
		identity:      identity,
	}
}

func (t *deployDefinitionTool) GetTool() mcp.Tool {
	return mcp.NewTool("deploy_definition",
		mcp.WithDescription("Create a new on-chain table from a definition's schema and record it in the environment. Blocks until the create transaction is confirmed. Fails with already_deployed when the definition already has a table in the environment."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("ID of the project that owns the definition"),
		),
		mcp.WithString("environment_id",
			mcp.Required(),
			mcp.Description("ID of the environment to deploy into"),
		),
		mcp.WithString("definition_id",
			mcp.Required(),
			mcp.Description("ID of the definition to deploy"),
		),
		mcp.WithNumber("chain_id",
			mcp.Required(),
			mcp.Description("Numeric chain id to create the table on (see list_chains)"),
		),
	)
}

func (t *deployDefinitionTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args DeployDefinitionArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}
		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		deployment, err := t.deployService.Deploy(ctx, services.DeployRequest{
			ProjectID:     args.ProjectID,
			EnvironmentID: args.EnvironmentID,
			DefinitionID:  args.DefinitionID,
			ChainID:       args.ChainID,
			Identity:      callerIdentity(ctx, t.identity),
		})
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult("Table deployed: ", deployment), nil
	}
}
