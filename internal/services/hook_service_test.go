package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/services"
	"github.com/stretchr/testify/suite"
)

// mockHook implements the Hook interface for testing
type mockHook struct {
	name             string
	supportedSources []models.DeploymentSource
	callCount        int
	lastEvent        *services.DeploymentEvent
	shouldError      bool
	errorMessage     string
}

func newMockHook(name string, supportedSources ...models.DeploymentSource) *mockHook {
	return &mockHook{
		name:             name,
		supportedSources: supportedSources,
	}
}

func (m *mockHook) CanHandle(source models.DeploymentSource) bool {
	for _, supported := range m.supportedSources {
		if supported == source {
			return true
		}
	}
	return false
}

func (m *mockHook) OnDeploymentRecorded(_ context.Context, event services.DeploymentEvent) error {
	m.callCount++
	m.lastEvent = &event

	if m.shouldError {
		return fmt.Errorf("%s", m.errorMessage)
	}
	return nil
}

func (m *mockHook) reset() {
	m.callCount = 0
	m.lastEvent = nil
	m.shouldError = false
	m.errorMessage = ""
}

func (m *mockHook) setError(shouldError bool, message string) {
	m.shouldError = shouldError
	m.errorMessage = message
}

type HookServiceTestSuite struct {
	suite.Suite
	hookService services.HookService
}

func (suite *HookServiceTestSuite) SetupTest() {
	// Create a fresh service for each test to avoid state leakage
	suite.hookService = services.NewHookService()
}

func importEvent(tableName string) services.DeploymentEvent {
	return services.DeploymentEvent{
		Source:     models.DeploymentSourceImport,
		ProjectID:  "project-1",
		Deployment: models.Deployment{TableName: tableName, ChainID: 80002, TableID: "7"},
	}
}

func (suite *HookServiceTestSuite) TestAddHook() {
	suite.Run("Add single hook", func() {
		hook := newMockHook("test-hook", models.DeploymentSourceImport)

		err := suite.hookService.AddHook(hook)
		suite.NoError(err)

		err = suite.hookService.OnDeploymentRecorded(context.Background(), importEvent("users_80002_7"))
		suite.NoError(err)
		suite.Equal(1, hook.callCount)
	})

	suite.Run("Add multiple hooks", func() {
		suite.hookService = services.NewHookService()
		hook1 := newMockHook("hook1", models.DeploymentSourceImport)
		hook2 := newMockHook("hook2", models.DeploymentSourceDeploy)
		hook3 := newMockHook("hook3", models.DeploymentSourceImport, models.DeploymentSourceDeploy)

		suite.NoError(suite.hookService.AddHook(hook1))
		suite.NoError(suite.hookService.AddHook(hook2))
		suite.NoError(suite.hookService.AddHook(hook3))

		err := suite.hookService.OnDeploymentRecorded(context.Background(), importEvent("users_80002_7"))
		suite.NoError(err)

		suite.Equal(1, hook1.callCount)
		suite.Equal(0, hook2.callCount) // Should not be called
		suite.Equal(1, hook3.callCount)
	})
}

func (suite *HookServiceTestSuite) TestOnDeploymentRecorded() {
	hook1 := newMockHook("hook1", models.DeploymentSourceImport)
	hook2 := newMockHook("hook2", models.DeploymentSourceDeploy)

	suite.NoError(suite.hookService.AddHook(hook1))
	suite.NoError(suite.hookService.AddHook(hook2))

	suite.Run("Import event", func() {
		hook1.reset()
		hook2.reset()

		err := suite.hookService.OnDeploymentRecorded(context.Background(), importEvent("users_80002_7"))
		suite.NoError(err)

		suite.Equal(1, hook1.callCount)
		suite.Equal(0, hook2.callCount)
		suite.Require().NotNil(hook1.lastEvent)
		suite.Equal("users_80002_7", hook1.lastEvent.Deployment.TableName)
		suite.Equal("project-1", hook1.lastEvent.ProjectID)
	})

	suite.Run("Deploy event", func() {
		hook1.reset()
		hook2.reset()

		event := importEvent("orders_80002_8")
		event.Source = models.DeploymentSourceDeploy
		err := suite.hookService.OnDeploymentRecorded(context.Background(), event)
		suite.NoError(err)

		suite.Equal(0, hook1.callCount)
		suite.Equal(1, hook2.callCount)
	})
}

func (suite *HookServiceTestSuite) TestHookError() {
	hook1 := newMockHook("hook1", models.DeploymentSourceImport)
	hook2 := newMockHook("hook2", models.DeploymentSourceImport)
	hook1.setError(true, "hook1 failed")

	suite.NoError(suite.hookService.AddHook(hook1))
	suite.NoError(suite.hookService.AddHook(hook2))

	err := suite.hookService.OnDeploymentRecorded(context.Background(), importEvent("users_80002_7"))
	suite.Error(err)
	suite.Contains(err.Error(), "hook1 failed")

	// Hooks after the failing one are not called
	suite.Equal(1, hook1.callCount)
	suite.Equal(0, hook2.callCount)
}

func (suite *HookServiceTestSuite) TestNoHooks() {
	err := suite.hookService.OnDeploymentRecorded(context.Background(), importEvent("users_80002_7"))
	suite.NoError(err)
}

func TestHookServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HookServiceTestSuite))
}
