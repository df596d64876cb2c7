package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/services"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type DeploymentLogHookTestSuite struct {
	suite.Suite
	logs *observer.ObservedLogs
	hook services.Hook
}

func (s *DeploymentLogHookTestSuite) SetupTest() {
	core, logs := observer.New(zapcore.InfoLevel)
	s.logs = logs
	s.hook = NewDeploymentLogHook(zap.New(core))
}

func (s *DeploymentLogHookTestSuite) TestCanHandle() {
	s.True(s.hook.CanHandle(models.DeploymentSourceImport))
	s.True(s.hook.CanHandle(models.DeploymentSourceDeploy))
	s.False(s.hook.CanHandle(models.DeploymentSource("other")))
}

func (s *DeploymentLogHookTestSuite) TestImportEvent() {
	err := s.hook.OnDeploymentRecorded(context.Background(), services.DeploymentEvent{
		Source:     models.DeploymentSourceImport,
		ProjectID:  "project-1",
		Identity:   "alice@example.com",
		Definition: models.Definition{ID: "def-1", Name: "users"},
		Deployment: models.Deployment{
			DefID:         "def-1",
			EnvironmentID: "env-1",
			ChainID:       80002,
			TableID:       "7",
			TableName:     "users_80002_7",
			CreatedAt:     time.UnixMilli(1700000000000),
		},
	})
	s.Require().NoError(err)

	entries := s.logs.FilterMessage("deployment recorded").All()
	s.Require().Len(entries, 1)
	fields := entries[0].ContextMap()
	s.Equal("import", fields["source"])
	s.Equal("users_80002_7", fields["table_name"])
	s.Equal("alice@example.com", fields["identity"])
	s.Equal(int64(80002), fields["chain_id"])
	s.NotContains(fields, "txn_hash")
	s.Equal("audit", entries[0].LoggerName)
}

func (s *DeploymentLogHookTestSuite) TestDeployEventCarriesTransaction() {
	block := int64(100)
	hash := "0xabc"
	err := s.hook.OnDeploymentRecorded(context.Background(), services.DeploymentEvent{
		Source: models.DeploymentSourceDeploy,
		Deployment: models.Deployment{
			TableName:   "users_80002_42",
			BlockNumber: &block,
			TxnHash:     &hash,
		},
	})
	s.Require().NoError(err)

	fields := s.logs.All()[0].ContextMap()
	s.Equal("0xabc", fields["txn_hash"])
	s.Equal(int64(100), fields["block_number"])
}

func TestDeploymentLogHookTestSuite(t *testing.T) {
	suite.Run(t, new(DeploymentLogHookTestSuite))
}
