package services

import (
	"context"
	"time"

	"github.com/rxtech-lab/table-studio/internal/models"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"gorm.io/gorm"
)

// DeploymentService records which definitions are materialized in which
// environments. Rows are append-only: there is no update or delete.
type DeploymentService interface {
	CreateDeployment(ctx context.Context, input CreateDeploymentInput) (*models.Deployment, error)
	// CreateDeployments writes every row or none
	CreateDeployments(ctx context.Context, inputs []CreateDeploymentInput) ([]models.Deployment, error)
	GetDeploymentByEnvAndDef(ctx context.Context, environmentID, defID string) (*models.Deployment, error)
	ListDeploymentsByProject(ctx context.Context, projectID string) ([]models.Deployment, error)
	ListDeploymentsByEnvironment(ctx context.Context, environmentID string) ([]models.Deployment, error)
	ListDeploymentsByDefinition(ctx context.Context, defID string) ([]models.Deployment, error)
	// FindDeploymentByTable returns the deployment of an on-chain table within an environment
	FindDeploymentByTable(ctx context.Context, environmentID string, chainID int64, tableID string) (*models.Deployment, error)
	WithTx(tx *gorm.DB) DeploymentService
}

type CreateDeploymentInput struct {
	DefID         string    `validate:"required"`
	EnvironmentID string    `validate:"required"`
	ChainID       int64     `validate:"gt=0"`
	TableID       string    `validate:"required,numeric"`
	TableName     string    `validate:"required"`
	CreatedAt     time.Time `validate:"required"`
	BlockNumber   *int64
	TxnHash       *string
}

type deploymentService struct {
	db *gorm.DB
}

// NewDeploymentService creates a new DeploymentService
func NewDeploymentService(db *gorm.DB) DeploymentService {
	return &deploymentService{db: db}
}

func (s *deploymentService) WithTx(tx *gorm.DB) DeploymentService {
	return &deploymentService{db: tx}
}

// CreateDeployment creates a new deployment
func (s *deploymentService) CreateDeployment(ctx context.Context, input CreateDeploymentInput) (*models.Deployment, error) {
	deployment, err := newDeployment(input)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(deployment).Error; err != nil {
		return nil, deploymentWriteError(err, input)
	}
	return deployment, nil
}

func (s *deploymentService) CreateDeployments(ctx context.Context, inputs []CreateDeploymentInput) ([]models.Deployment, error) {
	deployments := make([]models.Deployment, 0, len(inputs))
	for _, input := range inputs {
		deployment, err := newDeployment(input)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *deployment)
	}
	if len(deployments) == 0 {
		return deployments, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range deployments {
			if err := tx.Create(&deployments[i]).Error; err != nil {
				return deploymentWriteError(err, inputs[i])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deployments, nil
}

func (s *deploymentService) GetDeploymentByEnvAndDef(ctx context.Context, environmentID, defID string) (*models.Deployment, error) {
	var deployment models.Deployment
	err := s.db.WithContext(ctx).
		Where("environment_id = ? AND def_id = ?", environmentID, defID).
		First(&deployment).Error
	if err != nil {
		return nil, notFoundOr(err, "deployment not found")
	}
	return &deployment, nil
}

func (s *deploymentService) ListDeploymentsByProject(ctx context.Context, projectID string) ([]models.Deployment, error) {
	environments := s.db.Model(&models.Environment{}).Select("id").Where("project_id = ?", projectID)

	var deployments []models.Deployment
	err := s.db.WithContext(ctx).
		Where("environment_id IN (?)", environments).
		Order("created_at").Order("table_name").
		Find(&deployments).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to list deployments")
	}
	return deployments, nil
}

func (s *deploymentService) ListDeploymentsByEnvironment(ctx context.Context, environmentID string) ([]models.Deployment, error) {
	var deployments []models.Deployment
	err := s.db.WithContext(ctx).
		Where("environment_id = ?", environmentID).
		Order("created_at").Order("table_name").
		Find(&deployments).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to list deployments")
	}
	return deployments, nil
}

func (s *deploymentService) ListDeploymentsByDefinition(ctx context.Context, defID string) ([]models.Deployment, error) {
	var deployments []models.Deployment
	err := s.db.WithContext(ctx).Where("def_id = ?", defID).Find(&deployments).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to list deployments")
	}
	return deployments, nil
}

func (s *deploymentService) FindDeploymentByTable(ctx context.Context, environmentID string, chainID int64, tableID string) (*models.Deployment, error) {
	var deployment models.Deployment
	err := s.db.WithContext(ctx).
		Where("environment_id = ? AND chain_id = ? AND table_id = ?", environmentID, chainID, tableID).
		First(&deployment).Error
	if err != nil {
		return nil, notFoundOr(err, "deployment not found")
	}
	return &deployment, nil
}

func newDeployment(input CreateDeploymentInput) (*models.Deployment, error) {
	if err := validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}
	return &models.Deployment{
		DefID:         input.DefID,
		EnvironmentID: input.EnvironmentID,
		ChainID:       input.ChainID,
		TableID:       input.TableID,
		TableName:     input.TableName,
		BlockNumber:   input.BlockNumber,
		TxnHash:       input.TxnHash,
		CreatedAt:     input.CreatedAt,
	}, nil
}

func deploymentWriteError(err error, input CreateDeploymentInput) error {
	if isUniqueViolation(err) {
		return appErr.Wrap(err, appErr.CodeConflict, "deployment already recorded").
			WithMeta("def_id", input.DefID).
			WithMeta("environment_id", input.EnvironmentID).
			WithMeta("table_name", input.TableName)
	}
	return appErr.Wrap(err, appErr.CodeInternal, "failed to record deployment")
}
