package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/table-studio/internal/chain"
	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/registry"
	"github.com/rxtech-lab/table-studio/internal/tablename"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Steps reported in the "step" metadata of a submission failure
const (
	DeployStepSubmit      = "submit"
	DeployStepConfirm     = "confirm"
	DeployStepMaterialize = "materialize"
)

const (
	DefaultConfirmationTimeout = 5 * time.Minute
	DefaultReceiptPollInterval = time.Second
)

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableWriter submits create statements to the registry contract
type TableWriter interface {
	CreateTable(ctx context.Context, chainID int64, statement string) (*chain.PendingTable, error)
	WaitConfirmed(ctx context.Context, pending *chain.PendingTable) (*chain.ConfirmedTable, error)
}

// DeployService creates new on-chain tables from definitions
type DeployService interface {
	Deploy(ctx context.Context, req DeployRequest) (*models.Deployment, error)
}

type DeployRequest struct {
	ProjectID     string `validate:"required"`
	EnvironmentID string `validate:"required"`
	DefinitionID  string `validate:"required"`
	ChainID       int64  `validate:"gt=0"`
	Identity      string
}

type DeployServiceConfig struct {
	// ConfirmationTimeout bounds submission, mining and the validator receipt together
	ConfirmationTimeout time.Duration
	// WaitForReceipt waits until the validator has materialized the table
	WaitForReceipt      bool
	ReceiptPollInterval time.Duration
}

// DeployServiceDeps are the collaborators of a DeployService
type DeployServiceDeps struct {
	Writer      TableWriter
	Registry    registry.Client
	Authorizer  Authorizer
	Chains      ChainService
	Projects    ProjectService
	Definitions DefinitionService
	Deployments DeploymentService
	Hooks       HookService
	Logger      *zap.Logger
}

type deployService struct {
	cfg         DeployServiceConfig
	writer      TableWriter
	registry    registry.Client
	authorizer  Authorizer
	chains      ChainService
	projects    ProjectService
	definitions DefinitionService
	deployments DeploymentService
	hooks       HookService
	logger      *zap.Logger
}

// NewDeployService creates a new DeployService. Missing stores are built on db.
func NewDeployService(db *gorm.DB, cfg DeployServiceConfig, deps DeployServiceDeps) DeployService {
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = DefaultReceiptPollInterval
	}
	s := &deployService{
		cfg:         cfg,
		writer:      deps.Writer,
		registry:    deps.Registry,
		authorizer:  deps.Authorizer,
		chains:      deps.Chains,
		projects:    deps.Projects,
		definitions: deps.Definitions,
		deployments: deps.Deployments,
		hooks:       deps.Hooks,
		logger:      deps.Logger,
	}
	if s.authorizer == nil {
		s.authorizer = NewMembershipAuthorizer(db)
	}
	if s.chains == nil {
		s.chains = NewChainService(nil, nil)
	}
	if s.projects == nil {
		s.projects = NewProjectService(db)
	}
	if s.definitions == nil {
		s.definitions = NewDefinitionService(db)
	}
	if s.deployments == nil {
		s.deployments = NewDeploymentService(db)
	}
	if s.hooks == nil {
		s.hooks = NewHookService()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Deploy creates the definition's table on chain and records the deployment
// once the transaction is confirmed. Nothing is written on failure.
func (s *deployService) Deploy(ctx context.Context, req DeployRequest) (*models.Deployment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, invalidInput(err)
	}
	if s.writer == nil {
		return nil, appErr.New(appErr.CodeInternal, "no table writer configured")
	}
	if err := authorize(ctx, s.authorizer, req.Identity, req.ProjectID); err != nil {
		return nil, err
	}
	if !s.chains.IsSupported(req.ChainID) {
		return nil, appErr.Newf(appErr.CodeInvalid, "chain id %d is not supported", req.ChainID)
	}
	if _, err := s.projects.GetProjectEnvironment(ctx, req.ProjectID, req.EnvironmentID); err != nil {
		return nil, err
	}
	def, err := s.definitions.GetDefinitionByID(ctx, req.DefinitionID)
	if err != nil {
		return nil, err
	}
	if def.ProjectID != req.ProjectID {
		return nil, appErr.New(appErr.CodeNotFound, "definition not found in project")
	}

	existing, err := s.deployments.GetDeploymentByEnvAndDef(ctx, req.EnvironmentID, def.ID)
	switch {
	case err == nil:
		return nil, appErr.Newf(appErr.CodeAlreadyDeployed, "%s is already deployed in this environment as %s", def.Name, existing.TableName).
			WithMeta("table_name", existing.TableName)
	case !appErr.IsCode(err, appErr.CodeNotFound):
		return nil, err
	}

	prefix := TablePrefix(def.Slug)
	statement, err := BuildCreateStatement(prefix, req.ChainID, def.Schema)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.submit(ctx, req.ChainID, statement)
	if err != nil {
		s.logger.Warn("table deployment failed",
			zap.String("definition_id", def.ID),
			zap.Int64("chain_id", req.ChainID),
			zap.Any("step", appErr.MetaOf(err)["step"]),
			zap.Error(err),
		)
		return nil, err
	}

	name := tablename.Format(prefix, req.ChainID, confirmed.TableID)
	blockNumber := confirmed.BlockNumber
	txnHash := confirmed.TxnHash
	createdAt := confirmed.BlockTime
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	deployment, err := s.deployments.CreateDeployment(ctx, CreateDeploymentInput{
		DefID:         def.ID,
		EnvironmentID: req.EnvironmentID,
		ChainID:       req.ChainID,
		TableID:       confirmed.TableID,
		TableName:     name,
		CreatedAt:     createdAt,
		BlockNumber:   &blockNumber,
		TxnHash:       &txnHash,
	})
	if err != nil {
		// The table exists on chain; it can still be attached with an import.
		s.logger.Error("table created but deployment not recorded",
			zap.String("table_name", name),
			zap.String("txn_hash", txnHash),
			zap.Error(err),
		)
		if appErr.IsCode(err, appErr.CodeConflict) {
			return nil, appErr.Wrap(err, appErr.CodeAlreadyDeployed, "definition was deployed concurrently").
				WithMeta("table_name", name)
		}
		return nil, err
	}

	s.logger.Info("table deployed",
		zap.String("definition_id", def.ID),
		zap.String("environment_id", req.EnvironmentID),
		zap.String("table_name", name),
		zap.String("txn_hash", txnHash),
		zap.Int64("block_number", confirmed.BlockNumber),
	)

	event := DeploymentEvent{
		Source:     models.DeploymentSourceDeploy,
		ProjectID:  req.ProjectID,
		Identity:   req.Identity,
		Definition: *def,
		Deployment: *deployment,
	}
	if err := s.hooks.OnDeploymentRecorded(ctx, event); err != nil {
		s.logger.Warn("deployment hook failed", zap.String("table_name", name), zap.Error(err))
	}
	return deployment, nil
}

// submit sends the statement and waits for it, all within the confirmation timeout
func (s *deployService) submit(ctx context.Context, chainID int64, statement string) (*chain.ConfirmedTable, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmationTimeout)
	defer cancel()

	pending, err := s.writer.CreateTable(ctx, chainID, statement)
	if err != nil {
		return nil, s.submissionFailed(err, DeployStepSubmit, "failed to submit create transaction")
	}

	confirmed, err := s.writer.WaitConfirmed(ctx, pending)
	if err != nil {
		return nil, s.submissionFailed(err, DeployStepConfirm, "create transaction was not confirmed").
			WithMeta("txn_hash", pending.TxnHash)
	}

	if s.cfg.WaitForReceipt && s.registry != nil {
		if err := s.waitForReceipt(ctx, chainID, confirmed.TxnHash); err != nil {
			return nil, s.submissionFailed(err, DeployStepMaterialize, "validator did not materialize the table").
				WithMeta("txn_hash", confirmed.TxnHash)
		}
	}
	return confirmed, nil
}

func (s *deployService) submissionFailed(err error, step, message string) *appErr.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		message = fmt.Sprintf("%s: timed out after %s", message, s.cfg.ConfirmationTimeout)
	}
	return appErr.Wrap(err, appErr.CodeSubmissionFailed, message).WithMeta("step", step)
}

// waitForReceipt polls the validator until the receipt is no longer pending
func (s *deployService) waitForReceipt(ctx context.Context, chainID int64, txnHash string) error {
	var receipt *registry.Receipt
	operation := func() error {
		r, err := s.registry.GetReceiptByTxnHash(ctx, chainID, txnHash)
		if err != nil {
			if appErr.IsCode(err, appErr.CodePending) || appErr.Retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.ReceiptPollInterval), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}
	if receipt.Error != "" {
		return appErr.Newf(appErr.CodeSubmissionFailed, "validator rejected statement: %s", receipt.Error)
	}
	return nil
}

// TablePrefix turns a definition slug into a chain-native table prefix
func TablePrefix(slug string) string {
	prefix := strings.ReplaceAll(slug, "-", "_")
	if prefix == "" || (prefix[0] >= '0' && prefix[0] <= '9') {
		prefix = "_" + prefix
	}
	return prefix
}

// BuildCreateStatement renders the create statement for a schema. The
// registry appends the table id to {prefix}_{chainId}.
func BuildCreateStatement(prefix string, chainID int64, schema models.TableSchema) (string, error) {
	if !columnNamePattern.MatchString(prefix) {
		return "", appErr.Newf(appErr.CodeInvalid, "table prefix %q is not valid", prefix)
	}
	if len(schema.Columns) == 0 {
		return "", appErr.New(appErr.CodeInvalid, "definition schema has no columns")
	}

	parts := make([]string, 0, len(schema.Columns)+len(schema.TableConstraints))
	for _, col := range schema.Columns {
		if !columnNamePattern.MatchString(col.Name) {
			return "", appErr.Newf(appErr.CodeInvalid, "column name %q is not valid", col.Name)
		}
		colType := strings.TrimSpace(col.Type)
		if colType == "" {
			return "", appErr.Newf(appErr.CodeInvalid, "column %q has no type", col.Name)
		}
		def := col.Name + " " + colType
		for _, c := range col.Constraints {
			if c = strings.TrimSpace(c); c != "" {
				def += " " + c
			}
		}
		parts = append(parts, def)
	}
	for _, c := range schema.TableConstraints {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}

	return fmt.Sprintf("CREATE TABLE %s_%d (%s)", prefix, chainID, strings.Join(parts, ", ")), nil
}
