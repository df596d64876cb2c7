package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DeploymentServiceTestSuite struct {
	studioFixture
	users  *models.Definition
	orders *models.Definition
}

func (suite *DeploymentServiceTestSuite) SetupTest() {
	suite.studioFixture.SetupTest()

	var err error
	suite.users, err = suite.definitions.CreateDefinition(context.Background(), services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "users"})
	suite.Require().NoError(err)
	suite.orders, err = suite.definitions.CreateDefinition(context.Background(), services.CreateDefinitionInput{ProjectID: suite.project.ID, Name: "orders"})
	suite.Require().NoError(err)
}

func (suite *DeploymentServiceTestSuite) input(def *models.Definition, env *models.Environment, tableID string) services.CreateDeploymentInput {
	return services.CreateDeploymentInput{
		DefID:         def.ID,
		EnvironmentID: env.ID,
		ChainID:       80002,
		TableID:       tableID,
		TableName:     def.Name + "_80002_" + tableID,
		CreatedAt:     time.UnixMilli(1700000000000).UTC(),
	}
}

func (suite *DeploymentServiceTestSuite) TestCreateDeployment() {
	deployment, err := suite.deployments.CreateDeployment(context.Background(), suite.input(suite.users, suite.staging, "7"))
	suite.Require().NoError(err)
	suite.Equal("users_80002_7", deployment.TableName)
	suite.Nil(deployment.BlockNumber)

	loaded, err := suite.deployments.GetDeploymentByEnvAndDef(context.Background(), suite.staging.ID, suite.users.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1700000000000), loaded.CreatedAt.UnixMilli())
	suite.False(loaded.RecordedAt.IsZero())
}

func (suite *DeploymentServiceTestSuite) TestCreateDeploymentPrimaryKeyConflict() {
	ctx := context.Background()
	_, err := suite.deployments.CreateDeployment(ctx, suite.input(suite.users, suite.staging, "7"))
	suite.Require().NoError(err)

	_, err = suite.deployments.CreateDeployment(ctx, suite.input(suite.users, suite.staging, "9"))
	suite.Require().Error(err)
	suite.True(appErr.IsCode(err, appErr.CodeConflict))

	loaded, err := suite.deployments.GetDeploymentByEnvAndDef(ctx, suite.staging.ID, suite.users.ID)
	suite.Require().NoError(err)
	suite.Equal("7", loaded.TableID, "existing row is never overwritten")
}

func (suite *DeploymentServiceTestSuite) TestSameTableTwiceInEnvironment() {
	ctx := context.Background()
	_, err := suite.deployments.CreateDeployment(ctx, suite.input(suite.users, suite.staging, "7"))
	suite.Require().NoError(err)

	_, err = suite.deployments.CreateDeployment(ctx, suite.input(suite.orders, suite.staging, "7"))
	suite.True(appErr.IsCode(err, appErr.CodeConflict))

	// The same table may back the definition in another environment
	_, err = suite.deployments.CreateDeployment(ctx, suite.input(suite.users, suite.production, "7"))
	suite.NoError(err)
}

func (suite *DeploymentServiceTestSuite) TestCreateDeploymentsIsAtomic() {
	ctx := context.Background()
	_, err := suite.deployments.CreateDeployment(ctx, suite.input(suite.orders, suite.production, "8"))
	suite.Require().NoError(err)

	_, err = suite.deployments.CreateDeployments(ctx, []services.CreateDeploymentInput{
		suite.input(suite.users, suite.production, "7"),
		suite.input(suite.orders, suite.production, "8"),
	})
	suite.Require().Error(err)
	suite.True(appErr.IsCode(err, appErr.CodeConflict))

	_, err = suite.deployments.GetDeploymentByEnvAndDef(ctx, suite.production.ID, suite.users.ID)
	suite.True(appErr.IsCode(err, appErr.CodeNotFound), "first row must be rolled back")

	created, err := suite.deployments.CreateDeployments(ctx, []services.CreateDeploymentInput{
		suite.input(suite.users, suite.staging, "7"),
		suite.input(suite.orders, suite.staging, "8"),
	})
	suite.Require().NoError(err)
	suite.Len(created, 2)
}

func (suite *DeploymentServiceTestSuite) TestCreateDeploymentValidation() {
	input := suite.input(suite.users, suite.staging, "7")
	input.TableID = "abc"
	_, err := suite.deployments.CreateDeployment(context.Background(), input)
	suite.True(appErr.IsCode(err, appErr.CodeInvalid))

	input = suite.input(suite.users, suite.staging, "7")
	input.CreatedAt = time.Time{}
	_, err = suite.deployments.CreateDeployment(context.Background(), input)
	suite.True(appErr.IsCode(err, appErr.CodeInvalid))
}

func (suite *DeploymentServiceTestSuite) TestListDeployments() {
	ctx := context.Background()
	other, err := suite.projects.CreateProject(ctx, services.CreateProjectInput{TeamID: testTeamID, Name: "Other"})
	suite.Require().NoError(err)
	otherEnv, err := suite.projects.CreateEnvironment(ctx, other.ID, "Staging")
	suite.Require().NoError(err)
	otherDef, err := suite.definitions.CreateDefinition(ctx, services.CreateDefinitionInput{ProjectID: other.ID, Name: "users"})
	suite.Require().NoError(err)

	for _, in := range []services.CreateDeploymentInput{
		suite.input(suite.users, suite.staging, "7"),
		suite.input(suite.orders, suite.staging, "8"),
		suite.input(suite.users, suite.production, "11"),
		suite.input(otherDef, otherEnv, "12"),
	} {
		_, err := suite.deployments.CreateDeployment(ctx, in)
		suite.Require().NoError(err)
	}

	byProject, err := suite.deployments.ListDeploymentsByProject(ctx, suite.project.ID)
	suite.Require().NoError(err)
	suite.Len(byProject, 3)

	byEnv, err := suite.deployments.ListDeploymentsByEnvironment(ctx, suite.staging.ID)
	suite.Require().NoError(err)
	suite.Len(byEnv, 2)

	byDef, err := suite.deployments.ListDeploymentsByDefinition(ctx, suite.users.ID)
	suite.Require().NoError(err)
	suite.Len(byDef, 2)

	found, err := suite.deployments.FindDeploymentByTable(ctx, suite.staging.ID, 80002, "8")
	suite.Require().NoError(err)
	suite.Equal(suite.orders.ID, found.DefID)

	_, err = suite.deployments.FindDeploymentByTable(ctx, suite.production.ID, 80002, "8")
	suite.True(appErr.IsCode(err, appErr.CodeNotFound))
}

func TestDeploymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DeploymentServiceTestSuite))
}
