package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/services"
)

type listDeploymentsTool struct {
	projectService    services.ProjectService
	deploymentService services.DeploymentService
	authorizer        services.Authorizer
	identity          string
}

type ListDeploymentsArguments struct {
	ProjectID     string `json:"project_id,omitempty"`
	EnvironmentID string `json:"environment_id,omitempty"`
	ChainID       int64  `json:"chain_id,omitempty"`
	Page          int    `json:"page,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

func NewListDeploymentsTool(projectService services.ProjectService, deploymentService services.DeploymentService, authorizer services.Authorizer, identity string) *listDeploymentsTool {
	return &listDeploymentsTool{
		projectService:    projectService,
		deploymentService: deploymentService,
		authorizer:        authorizer,
		identity:          identity,
	}
}

func (t *listDeploymentsTool) GetTool() mcp.Tool {
	return mcp.NewTool("list_deployments",
		mcp.WithDescription("List the tables recorded for a project or a single environment, with pagination. Provide project_id or environment_id."),
		mcp.WithString("project_id",
			mcp.Description("List deployments across every environment of this project"),
		),
		mcp.WithString("environment_id",
			mcp.Description("List deployments of this environment only. Takes precedence over project_id"),
		),
		mcp.WithNumber("chain_id",
			mcp.Description("Only include tables on this chain"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number for pagination (default: 1)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Number of deployments per page (default: 10, max: 100)"),
		),
	)
}

func (t *listDeploymentsTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListDeploymentsArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}
		if args.ProjectID == "" && args.EnvironmentID == "" {
			return mcp.NewToolResultError("Invalid arguments: project_id or environment_id is required"), nil
		}

		deployments, err := t.load(ctx, args)
		if err != nil {
			return errorResult(err), nil
		}

		if args.ChainID != 0 {
			filtered := deployments[:0]
			for _, d := range deployments {
				if d.ChainID == args.ChainID {
					filtered = append(filtered, d)
				}
			}
			deployments = filtered
		}

		page := args.Page
		if page < 1 {
			page = 1
		}
		limit := args.Limit
		if limit < 1 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		totalCount := len(deployments)
		totalPages := (totalCount + limit - 1) / limit
		startIndex := (page - 1) * limit
		endIndex := startIndex + limit

		paginated := []models.Deployment{}
		if startIndex < totalCount {
			if endIndex > totalCount {
				endIndex = totalCount
			}
			paginated = deployments[startIndex:endIndex]
		}

		return jsonResult("Deployments list: ", map[string]any{
			"deployments": paginated,
			"pagination": map[string]any{
				"current_page": page,
				"total_pages":  totalPages,
				"page_size":    limit,
				"total_count":  totalCount,
				"has_next":     page < totalPages,
				"has_previous": page > 1,
			},
		}), nil
	}
}

func (t *listDeploymentsTool) load(ctx context.Context, args ListDeploymentsArguments) ([]models.Deployment, error) {
	identity := callerIdentity(ctx, t.identity)

	if args.EnvironmentID != "" {
		env, err := t.projectService.GetEnvironmentByID(ctx, args.EnvironmentID)
		if err != nil {
			return nil, err
		}
		if err := authorizeRead(ctx, t.authorizer, identity, env.ProjectID); err != nil {
			return nil, err
		}
		return t.deploymentService.ListDeploymentsByEnvironment(ctx, env.ID)
	}

	if err := authorizeRead(ctx, t.authorizer, identity, args.ProjectID); err != nil {
		return nil, err
	}
	return t.deploymentService.ListDeploymentsByProject(ctx, args.ProjectID)
}
