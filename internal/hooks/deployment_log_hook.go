package hooks

import (
	"context"

	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/services"
	"go.uber.org/zap"
)

// DeploymentLogHook writes an audit entry for every recorded deployment
type DeploymentLogHook struct {
	logger *zap.Logger
}

// CanHandle implements Hook.
func (h *DeploymentLogHook) CanHandle(source models.DeploymentSource) bool {
	return source == models.DeploymentSourceImport ||
		source == models.DeploymentSourceDeploy
}

// OnDeploymentRecorded implements Hook.
func (h *DeploymentLogHook) OnDeploymentRecorded(_ context.Context, event services.DeploymentEvent) error {
	fields := []zap.Field{
		zap.String("source", string(event.Source)),
		zap.String("project_id", event.ProjectID),
		zap.String("environment_id", event.Deployment.EnvironmentID),
		zap.String("definition_id", event.Definition.ID),
		zap.String("definition", event.Definition.Name),
		zap.String("table_name", event.Deployment.TableName),
		zap.Int64("chain_id", event.Deployment.ChainID),
		zap.Time("created_at", event.Deployment.CreatedAt),
	}
	if event.Identity != "" {
		fields = append(fields, zap.String("identity", event.Identity))
	}
	if event.Deployment.TxnHash != nil {
		fields = append(fields, zap.String("txn_hash", *event.Deployment.TxnHash))
	}
	if event.Deployment.BlockNumber != nil {
		fields = append(fields, zap.Int64("block_number", *event.Deployment.BlockNumber))
	}

	h.logger.Info("deployment recorded", fields...)
	return nil
}

func NewDeploymentLogHook(logger *zap.Logger) services.Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeploymentLogHook{
		logger: logger.Named("audit"),
	}
}
