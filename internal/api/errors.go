package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

func statusFor(code appErr.Code) int {
	switch code {
	case appErr.CodeInvalid, appErr.CodeInvalidName:
		return fiber.StatusBadRequest
	case appErr.CodeUnauthorized:
		return fiber.StatusForbidden
	case appErr.CodeNotFound:
		return fiber.StatusNotFound
	case appErr.CodeConflict, appErr.CodeAlreadyDeployed:
		return fiber.StatusConflict
	case appErr.CodeMissingAttribute:
		return fiber.StatusUnprocessableEntity
	case appErr.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	case appErr.CodeSubmissionFailed:
		return fiber.StatusBadGateway
	case appErr.CodePending:
		return fiber.StatusAccepted
	default:
		return fiber.StatusInternalServerError
	}
}

type errorResponse struct {
	Error         string         `json:"error"`
	Code          appErr.Code    `json:"code"`
	Retryable     bool           `json:"retryable"`
	Informational bool           `json:"informational,omitempty"`
	State         string         `json:"state,omitempty"`
	Meta          map[string]any `json:"meta,omitempty"`
}

func newErrorResponse(err error) errorResponse {
	resp := errorResponse{
		Error:         appErr.UserMessage(err),
		Code:          appErr.CodeOf(err),
		Retryable:     appErr.Retryable(err),
		Informational: appErr.Informational(err),
		Meta:          appErr.MetaOf(err),
	}
	if state, ok := services.FailedState(err); ok {
		resp.State = string(state)
	}
	return resp
}

func writeError(c *fiber.Ctx, err error) error {
	resp := newErrorResponse(err)
	if resp.Code == appErr.CodeUnknown || resp.Code == appErr.CodeInternal {
		resp.Error = "internal error"
		resp.Meta = nil
	}
	return c.Status(statusFor(appErr.CodeOf(err))).JSON(resp)
}
