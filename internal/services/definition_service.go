package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rxtech-lab/table-studio/internal/models"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"gorm.io/gorm"
)

// DefinitionService stores table definitions. Slugs are unique per project
// and enforced by the database, so concurrent creators cannot both win.
type DefinitionService interface {
	CreateDefinition(ctx context.Context, input CreateDefinitionInput) (*models.Definition, error)
	NameAvailable(ctx context.Context, projectID, name, excludeDefID string) (bool, error)
	GetDefinitionByID(ctx context.Context, id string) (*models.Definition, error)
	GetDefinitionBySlug(ctx context.Context, projectID, slug string) (*models.Definition, error)
	ListDefinitionsByProject(ctx context.Context, projectID string) ([]models.Definition, error)
	// WithTx returns a DefinitionService bound to tx
	WithTx(tx *gorm.DB) DefinitionService
}

type CreateDefinitionInput struct {
	ProjectID   string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	Schema      models.TableSchema
}

type definitionService struct {
	db *gorm.DB
}

// NewDefinitionService creates a new DefinitionService
func NewDefinitionService(db *gorm.DB) DefinitionService {
	return &definitionService{db: db}
}

func (s *definitionService) WithTx(tx *gorm.DB) DefinitionService {
	return &definitionService{db: tx}
}

// CreateDefinition inserts a new definition. A slug collision is a conflict, never an overwrite.
func (s *definitionService) CreateDefinition(ctx context.Context, input CreateDefinitionInput) (*models.Definition, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, invalidInput(err)
	}
	slug := Slugify(input.Name)
	if slug == "" {
		return nil, appErr.Newf(appErr.CodeInvalid, "definition name %q has no usable characters", input.Name)
	}

	def := &models.Definition{
		ID:          uuid.NewString(),
		ProjectID:   input.ProjectID,
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		Schema:      input.Schema,
	}
	if err := s.db.WithContext(ctx).Create(def).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, appErr.Wrap(err, appErr.CodeConflict, "definition name is already used in this project").
				WithMeta("slug", slug)
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to create definition")
	}
	return def, nil
}

// NameAvailable reports whether name's slug is free in the project, ignoring excludeDefID
func (s *definitionService) NameAvailable(ctx context.Context, projectID, name, excludeDefID string) (bool, error) {
	slug := Slugify(name)
	if slug == "" {
		return false, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Definition{}).
		Where("project_id = ? AND slug = ?", projectID, slug)
	if excludeDefID != "" {
		query = query.Where("id <> ?", excludeDefID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "failed to check definition name")
	}
	return count == 0, nil
}

func (s *definitionService) GetDefinitionByID(ctx context.Context, id string) (*models.Definition, error) {
	var def models.Definition
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&def).Error; err != nil {
		return nil, notFoundOr(err, "definition not found")
	}
	return &def, nil
}

func (s *definitionService) GetDefinitionBySlug(ctx context.Context, projectID, slug string) (*models.Definition, error) {
	var def models.Definition
	err := s.db.WithContext(ctx).Where("project_id = ? AND slug = ?", projectID, slug).First(&def).Error
	if err != nil {
		return nil, notFoundOr(err, "definition not found")
	}
	return &def, nil
}

func (s *definitionService) ListDefinitionsByProject(ctx context.Context, projectID string) ([]models.Definition, error) {
	var defs []models.Definition
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("name").Find(&defs).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "failed to list definitions")
	}
	return defs, nil
}
