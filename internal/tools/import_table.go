package tools

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/table-studio/internal/services"
)

type importTableTool struct {
	importService services.ImportService
	identity      string
}

type ImportTableArguments struct {
	ProjectID     string `json:"project_id" validate:"required"`
	EnvironmentID string `json:"environment_id" validate:"required"`
	TableName     string `json:"table_name" validate:"required"`

	// Optional fields
	DefinitionName string `json:"definition_name,omitempty"`
	Description    string `json:"description,omitempty"`
}

// NewImportTableTool builds the import_table tool. identity is used when the
// request carries no authenticated user.
func NewImportTableTool(importService services.ImportService, identity string) *importTableTool {
	return &importTableTool{
		importService: importService,
		identity:      identity,
	}
}

func (t *importTableTool) GetTool() mcp.Tool {
	return mcp.NewTool("import_table",
		mcp.WithDescription("Import a table that already exists on-chain into a project environment. The table name must look like {prefix}_{chainId}_{tableId}, e.g. users_80002_7. A definition is created from the table's schema, or reused when it is already bound to the same table."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("ID of the project to import into"),
		),
		mcp.WithString("environment_id",
			mcp.Required(),
			mcp.Description("ID of the environment, which must belong to the project"),
		),
		mcp.WithString("table_name",
			mcp.Required(),
			mcp.Description("Full on-chain table name (e.g., users_80002_7)"),
		),
		mcp.WithString("definition_name",
			mcp.Description("Name for the definition. Defaults to the table name prefix"),
		),
		mcp.WithString("description",
			mcp.Description("Description for the definition"),
		),
	)
}

func (t *importTableTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ImportTableArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}
		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		result, err := t.importService.ImportOne(ctx, services.ImportRequest{
			ProjectID:      args.ProjectID,
			EnvironmentID:  args.EnvironmentID,
			TableName:      args.TableName,
			DefinitionName: args.DefinitionName,
			Description:    args.Description,
			Identity:       callerIdentity(ctx, t.identity),
		})
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult("Table imported: ", result), nil
	}
}
