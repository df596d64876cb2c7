package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rxtech-lab/table-studio/internal/services"
	"github.com/rxtech-lab/table-studio/internal/utils"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

// callerIdentity prefers the authenticated user and falls back to the
// identity the server was started with (stdio mode).
func callerIdentity(ctx context.Context, fallback string) string {
	if user, ok := utils.GetAuthenticatedUser(ctx); ok {
		if id := user.Identity(); id != "" {
			return id
		}
	}
	return fallback
}

func jsonResult(label string, v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(label),
			mcp.NewTextContent(string(data)),
		},
	}
}

// errorResult renders an application error with its code first
func errorResult(err error) *mcp.CallToolResult {
	code := appErr.CodeOf(err)
	message := appErr.UserMessage(err)
	if code == appErr.CodeUnknown || code == appErr.CodeInternal {
		message = "internal error"
	}
	text := fmt.Sprintf("[%s] %s", code, message)
	if state, ok := services.FailedState(err); ok {
		text += fmt.Sprintf(" (while %s)", state)
	}
	return mcp.NewToolResultError(text)
}

func authorizeRead(ctx context.Context, authorizer services.Authorizer, identity, projectID string) error {
	ok, err := authorizer.IsAuthorizedForProject(ctx, identity, projectID)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to check project authorization")
	}
	if !ok {
		return appErr.Newf(appErr.CodeUnauthorized, "%s is not a member of this project's team", identity)
	}
	return nil
}
