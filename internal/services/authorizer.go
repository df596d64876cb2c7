package services

import (
	"context"

	"github.com/rxtech-lab/table-studio/internal/models"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"gorm.io/gorm"
)

// Authorizer decides whether an identity may write to a project
type Authorizer interface {
	IsAuthorizedForProject(ctx context.Context, identity, projectID string) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer
type AuthorizerFunc func(ctx context.Context, identity, projectID string) (bool, error)

func (f AuthorizerFunc) IsAuthorizedForProject(ctx context.Context, identity, projectID string) (bool, error) {
	return f(ctx, identity, projectID)
}

type membershipAuthorizer struct {
	db *gorm.DB
}

// NewMembershipAuthorizer authorizes identities that belong to the team owning the project
func NewMembershipAuthorizer(db *gorm.DB) Authorizer {
	return &membershipAuthorizer{db: db}
}

func (a *membershipAuthorizer) IsAuthorizedForProject(ctx context.Context, identity, projectID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.TeamMembership{}).
		Joins("JOIN projects ON projects.team_id = team_memberships.team_id").
		Where("projects.id = ? AND team_memberships.identity = ?", projectID, identity).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func authorize(ctx context.Context, authorizer Authorizer, identity, projectID string) error {
	if identity == "" {
		return appErr.New(appErr.CodeUnauthorized, "caller identity is required")
	}
	ok, err := authorizer.IsAuthorizedForProject(ctx, identity, projectID)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "failed to check project authorization")
	}
	if !ok {
		return appErr.Newf(appErr.CodeUnauthorized, "%s is not allowed to write to project %s", identity, projectID)
	}
	return nil
}
