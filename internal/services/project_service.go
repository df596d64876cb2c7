package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rxtech-lab/table-studio/internal/models"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"gorm.io/gorm"
)

// ProjectService manages projects, their environments and team memberships
type ProjectService interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error)
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	CreateEnvironment(ctx context.Context, projectID, name string) (*models.Environment, error)
	GetEnvironmentByID(ctx context.Context, id string) (*models.Environment, error)
	// GetProjectEnvironment returns the environment only if it belongs to the project
	GetProjectEnvironment(ctx context.Context, projectID, environmentID string) (*models.Environment, error)
	ListEnvironments(ctx context.Context, projectID string) ([]models.Environment, error)
	AddTeamMember(ctx context.Context, teamID, identity, role string) error
}

type CreateProjectInput struct {
	TeamID      string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	NativeMode  bool
}

type projectService struct {
	db *gorm.DB
}

// NewProjectService creates a new ProjectService
func NewProjectService(db *gorm.DB) ProjectService {
	return &projectService{db: db}
}

func (s *projectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}

	project := &models.Project{
		ID:          uuid.NewString(),
		TeamID:      input.TeamID,
		Name:        input.Name,
		Slug:        Slugify(input.Name),
		Description: input.Description,
		NativeMode:  input.NativeMode,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, appErr.Wrap(err, appErr.CodeConflict, "project name already used by this team").
				WithMeta("slug", project.Slug)
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to create project")
	}
	return project, nil
}

func (s *projectService) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, notFoundOr(err, "project not found")
	}
	return &project, nil
}

func (s *projectService) CreateEnvironment(ctx context.Context, projectID, name string) (*models.Environment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "environment name is required")
	}
	if _, err := s.GetProjectByID(ctx, projectID); err != nil {
		return nil, err
	}

	env := &models.Environment{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Slug:      Slugify(name),
	}
	if err := s.db.WithContext(ctx).Create(env).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, appErr.Wrap(err, appErr.CodeConflict, "environment already exists in project").
				WithMeta("slug", env.Slug)
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to create environment")
	}
	return env, nil
}

func (s *projectService) GetEnvironmentByID(ctx context.Context, id string) (*models.Environment, error) {
	var env models.Environment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&env).Error; err != nil {
		return nil, notFoundOr(err, "environment not found")
	}
	return &env, nil
}

func (s *projectService) GetProjectEnvironment(ctx context.Context, projectID, environmentID string) (*models.Environment, error) {
	var env models.Environment
	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", environmentID, projectID).
		First(&env).Error
	if err != nil {
		return nil, notFoundOr(err, "environment not found in project")
	}
	return &env, nil
}

func (s *projectService) ListEnvironments(ctx context.Context, projectID string) ([]models.Environment, error) {
	var envs []models.Environment
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at").Find(&envs).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to list environments")
	}
	return envs, nil
}

func (s *projectService) AddTeamMember(ctx context.Context, teamID, identity, role string) error {
	if teamID == "" || identity == "" {
		return appErr.New(appErr.CodeInvalid, "team id and identity are required")
	}
	if role == "" {
		role = "member"
	}
	member := &models.TeamMembership{TeamID: teamID, Identity: identity, Role: role}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if isUniqueViolation(err) {
			return appErr.Wrap(err, appErr.CodeConflict, "identity is already a team member")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "failed to add team member")
	}
	return nil
}
