package services

import (
	"context"

	"github.com/rxtech-lab/table-studio/internal/models"
)

// DeploymentEvent describes a deployment that has just been committed
type DeploymentEvent struct {
	Source     models.DeploymentSource
	ProjectID  string
	Identity   string
	Definition models.Definition
	Deployment models.Deployment
}

// Hook is used to perform actions after a deployment is recorded based on where it came from
type Hook interface {
	// CanHandle is used to check if the hook can handle the deployment source
	CanHandle(source models.DeploymentSource) bool
	// OnDeploymentRecorded is called once the deployment row is committed
	OnDeploymentRecorded(ctx context.Context, event DeploymentEvent) error
}
