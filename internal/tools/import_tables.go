package tools

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

type importTablesTool struct {
	importService services.ImportService
	identity      string
}

type ImportTablesArguments struct {
	ProjectID     string               `json:"project_id" validate:"required"`
	EnvironmentID string               `json:"environment_id" validate:"required"`
	Tables        []services.ImportRow `json:"tables" validate:"required,min=1"`
	Strict        bool                 `json:"strict,omitempty"`
}

type importTablesRow struct {
	Index     int                `json:"index"`
	TableName string             `json:"table_name"`
	Status    services.RowStatus `json:"status"`
	TableID   string             `json:"table_id,omitempty"`
	Error     string             `json:"error,omitempty"`
	Code      appErr.Code        `json:"code,omitempty"`
}

func NewImportTablesTool(importService services.ImportService, identity string) *importTablesTool {
	return &importTablesTool{
		importService: importService,
		identity:      identity,
	}
}

func (t *importTablesTool) GetTool() mcp.Tool {
	return mcp.NewTool("import_tables",
		mcp.WithDescription("Import several on-chain tables into one environment. Every row is validated first; rows that fail do not stop the others unless strict is set. Tables already imported are reported as skipped."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("ID of the project to import into"),
		),
		mcp.WithString("environment_id",
			mcp.Required(),
			mcp.Description("ID of the environment, which must belong to the project"),
		),
		mcp.WithArray("tables",
			mcp.Required(),
			mcp.Description("Rows to import, each with table_name and optional definition_name and description"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"table_name":      map[string]any{"type": "string"},
					"definition_name": map[string]any{"type": "string"},
					"description":     map[string]any{"type": "string"},
				},
				"required": []string{"table_name"},
			}),
		),
		mcp.WithBoolean("strict",
			mcp.Description("Reject the whole batch when any row is invalid. Defaults to false"),
		),
	)
}

func (t *importTablesTool) GetHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ImportTablesArguments
		if err := request.BindArguments(&args); err != nil {
			return nil, fmt.Errorf("failed to bind arguments: %w", err)
		}
		if err := validator.New().Struct(args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		for i := range args.Tables {
			args.Tables[i].Line = i + 1
		}

		result, err := t.importService.ImportBatch(ctx, services.BatchRequest{
			ProjectID:     args.ProjectID,
			EnvironmentID: args.EnvironmentID,
			Identity:      callerIdentity(ctx, t.identity),
			Rows:          args.Tables,
			Strict:        args.Strict,
		}, nil)
		if result == nil {
			return errorResult(err), nil
		}

		rows := make([]importTablesRow, 0, len(result.Rows))
		for _, outcome := range result.Rows {
			row := importTablesRow{
				Index:     outcome.Index,
				TableName: outcome.Row.TableName,
				Status:    outcome.Status,
			}
			if outcome.Result != nil {
				row.TableID = outcome.Result.Deployment.TableID
			}
			if outcome.Err != nil {
				row.Error = appErr.UserMessage(outcome.Err)
				row.Code = appErr.CodeOf(outcome.Err)
			}
			rows = append(rows, row)
		}

		response := map[string]any{
			"summary":  result.Summary(),
			"imported": result.Imported,
			"skipped":  result.Skipped,
			"failed":   result.Failed,
			"total":    result.Total,
			"rows":     rows,
		}
		if err != nil {
			response["error"] = appErr.UserMessage(err)
			res := jsonResult("Batch rejected: ", response)
			res.IsError = true
			return res, nil
		}
		return jsonResult("Batch import finished: ", response), nil
	}
}
