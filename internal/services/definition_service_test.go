package services_test

import (
	"context"
	"testing"

	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DefinitionServiceTestSuite struct {
	studioFixture
}

func (suite *DefinitionServiceTestSuite) TestCreateDefinition() {
	def, err := suite.definitions.CreateDefinition(context.Background(), services.CreateDefinitionInput{
		ProjectID:   suite.project.ID,
		Name:        "User Profiles",
		Description: "profiles",
		Schema:      usersSchema,
	})
	suite.Require().NoError(err)
	suite.NotEmpty(def.ID)
	suite.Equal("user-profiles", def.Slug)

	loaded, err := suite.definitions.GetDefinitionByID(context.Background(), def.ID)
	suite.Require().NoError(err)
	suite.Equal(usersSchema, loaded.Schema)
	suite.Equal("profiles", loaded.Description)
}

func (suite *DefinitionServiceTestSuite) TestCreateDefinitionSlugConflict() {
	ctx := context.Background()
	first, err := suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "Users"})
	suite.Require().NoError(err)

	_, err = suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "users"})
	suite.Require().Error(err)
	suite.True(appErr.IsCode(err, appErr.CodeConflict))

	// The original row is untouched
	loaded, err := suite.definitions.GetDefinitionBySlug(ctx, suite.project.ID, "users")
	suite.Require().NoError(err)
	suite.Equal(first.ID, loaded.ID)
	suite.Equal("Users", loaded.Name)
}

func (suite *DefinitionServiceTestSuite) TestSameSlugInAnotherProject() {
	ctx := context.Background()
	other, err := suite.projects.CreateProject(ctx, services.CreateProjectInput{TeamID: testTeamID, Name: "Other"})
	suite.Require().NoError(err)

	_, err = suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "users"})
	suite.Require().NoError(err)
	_, err = suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: other.ID, Name: "users"})
	suite.NoError(err)
}

func (suite *DefinitionServiceTestSuite) TestCreateDefinitionValidation() {
	_, err := suite.definitions.CreateDefinition(context.Background(), services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "   "})
	suite.True(appErr.IsCode(err, appErr.CodeInvalid))

	_, err = suite.definitions.CreateDefinition(context.Background(), services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "!!!"})
	suite.True(appErr.IsCode(err, appErr.CodeInvalid))
}

func (suite *DefinitionServiceTestSuite) TestNameAvailable() {
	ctx := context.Background()
	def, err := suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "Users"})
	suite.Require().NoError(err)

	available, err := suite.definitions.NameAvailable(ctx, suite.project.ID, "users", "")
	suite.Require().NoError(err)
	suite.False(available)

	available, err = suite.definitions.NameAvailable(ctx, suite.project.ID, "USERS", def.ID)
	suite.Require().NoError(err)
	suite.True(available, "a definition does not collide with itself")

	available, err = suite.definitions.NameAvailable(ctx, suite.project.ID, "orders", "")
	suite.Require().NoError(err)
	suite.True(available)
}

func (suite *DefinitionServiceTestSuite) TestGetDefinitionNotFound() {
	_, err := suite.definitions.GetDefinitionByID(context.Background(), "missing")
	suite.True(appErr.IsCode(err, appErr.CodeNotFound))

	_, err = suite.definitions.GetDefinitionBySlug(context.Background(), suite.project.ID, "missing")
	suite.True(appErr.IsCode(err, appErr.CodeNotFound))
}

func (suite *DefinitionServiceTestSuite) TestListDefinitionsByProject() {
	ctx := context.Background()
	for _, name := range []string{"orders", "users"} {
		_, err := suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: name})
		suite.Require().NoError(err)
	}

	defs, err := suite.definitions.ListDefinitionsByProject(ctx, suite.project.ID)
	suite.Require().NoError(err)
	suite.Len(defs, 2)
	suite.Equal("orders", defs[0].Name)
}

func TestDefinitionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DefinitionServiceTestSuite))
}
