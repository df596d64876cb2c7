package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

type deployRequest struct {
	DefinitionID string `json:"definition_id"`
	ChainID      int64  `json:"chain_id"`
}

type deploymentsResponse struct {
	Deployments []models.Deployment `json:"deployments"`
}

// handleDeploy creates a new on-chain table for a definition
func (s *APIServer) handleDeploy(c *fiber.Ctx) error {
	var body deployRequest
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, appErr.Wrap(err, appErr.CodeInvalid, "request body is not valid JSON"))
	}

	deployment, err := s.deploys.Deploy(c.UserContext(), services.DeployRequest{
		ProjectID:     c.Params("project_id"),
		EnvironmentID: c.Params("environment_id"),
		DefinitionID:  body.DefinitionID,
		ChainID:       body.ChainID,
		Identity:      identity(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(deployment)
}

func (s *APIServer) handleListProjectDeployments(c *fiber.Ctx) error {
	projectID := c.Params("project_id")
	if err := s.authorizeRead(c, projectID); err != nil {
		return writeError(c, err)
	}

	deployments, err := s.deployments.ListDeploymentsByProject(c.UserContext(), projectID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(deploymentsResponse{Deployments: deployments})
}

func (s *APIServer) handleListEnvironmentDeployments(c *fiber.Ctx) error {
	env, err := s.projects.GetEnvironmentByID(c.UserContext(), c.Params("environment_id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := s.authorizeRead(c, env.ProjectID); err != nil {
		return writeError(c, err)
	}

	deployments, err := s.deployments.ListDeploymentsByEnvironment(c.UserContext(), env.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(deploymentsResponse{Deployments: deployments})
}

// handleNameAvailable backs the definition name field of the UI
func (s *APIServer) handleNameAvailable(c *fiber.Ctx) error {
	projectID := c.Params("project_id")
	name := c.Query("name")
	if name == "" {
		return writeError(c, appErr.New(appErr.CodeInvalid, "name query parameter is required"))
	}
	if err := s.authorizeRead(c, projectID); err != nil {
		return writeError(c, err)
	}

	available, err := s.definitions.NameAvailable(c.UserContext(), projectID, name, c.Query("exclude"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"name":      name,
		"slug":      services.Slugify(name),
		"available": available,
	})
}

func (s *APIServer) authorizeRead(c *fiber.Ctx, projectID string) error {
	who := identity(c)
	ok, err := s.authorizer.IsAuthorizedForProject(c.UserContext(), who, projectID)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to check project authorization")
	}
	if !ok {
		return appErr.Newf(appErr.CodeUnauthorized, "%s is not a member of this project's team", who)
	}
	return nil
}
