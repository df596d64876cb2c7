package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/table-studio/internal/api/middleware"
	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

type importRowRequest struct {
	TableName      string `json:"table_name"`
	DefinitionName string `json:"definition_name,omitempty"`
	Description    string `json:"description,omitempty"`
}

// importRequest imports one table, or every entry of Rows when it is set
type importRequest struct {
	importRowRequest
	Rows   []importRowRequest `json:"rows,omitempty"`
	Strict bool               `json:"strict,omitempty"`
}

type batchRowResponse struct {
	Index  int                    `json:"index"`
	Line   int                    `json:"line"`
	Status services.RowStatus     `json:"status"`
	Result *services.ImportResult `json:"result,omitempty"`
	Error  *errorResponse         `json:"error,omitempty"`
}

type batchResponse struct {
	Total    int                `json:"total"`
	Imported int                `json:"imported"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
	Rows     []batchRowResponse `json:"rows"`
}

func identity(c *fiber.Ctx) string {
	if user := middleware.GetAuthenticatedUser(c); user != nil {
		return user.Identity()
	}
	return ""
}

// handleImport attaches existing on-chain tables to an environment
func (s *APIServer) handleImport(c *fiber.Ctx) error {
	var body importRequest
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, appErr.Wrap(err, appErr.CodeInvalid, "request body is not valid JSON"))
	}

	projectID := c.Params("project_id")
	environmentID := c.Params("environment_id")

	if len(body.Rows) > 0 {
		return s.handleImportBatch(c, projectID, environmentID, body)
	}

	result, err := s.imports.ImportOne(c.UserContext(), services.ImportRequest{
		ProjectID:      projectID,
		EnvironmentID:  environmentID,
		TableName:      body.TableName,
		DefinitionName: body.DefinitionName,
		Description:    body.Description,
		Identity:       identity(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *APIServer) handleImportBatch(c *fiber.Ctx, projectID, environmentID string, body importRequest) error {
	rows := make([]services.ImportRow, len(body.Rows))
	for i, row := range body.Rows {
		rows[i] = services.ImportRow{
			Line:           i + 1,
			TableName:      row.TableName,
			DefinitionName: row.DefinitionName,
			Description:    row.Description,
		}
	}

	result, err := s.imports.ImportBatch(c.UserContext(), services.BatchRequest{
		ProjectID:     projectID,
		EnvironmentID: environmentID,
		Identity:      identity(c),
		Rows:          rows,
		Strict:        body.Strict,
	}, nil)
	if result == nil {
		return writeError(c, err)
	}

	resp := batchResponse{
		Total:    result.Total,
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
		Rows:     make([]batchRowResponse, len(result.Rows)),
	}
	for i, row := range result.Rows {
		resp.Rows[i] = batchRowResponse{Index: row.Index, Line: row.Row.Line, Status: row.Status, Result: row.Result}
		if row.Err != nil {
			e := newErrorResponse(row.Err)
			resp.Rows[i].Error = &e
		}
	}

	status := fiber.StatusOK
	if err != nil {
		status = statusFor(appErr.CodeOf(err))
	}
	return c.Status(status).JSON(resp)
}
