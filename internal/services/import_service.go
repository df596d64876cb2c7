package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/table-studio/internal/constants"
	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/registry"
	"github.com/rxtech-lab/table-studio/internal/tablename"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportState is a step of the import pipeline
type ImportState string

const (
	ImportStateParsing             ImportState = "parsing"
	ImportStateAuthorizing         ImportState = "authorizing"
	ImportStateFetchingRegistry    ImportState = "fetching_registry"
	ImportStateUpsertingDefinition ImportState = "upserting_definition"
	ImportStateRecordingDeployment ImportState = "recording_deployment"
	ImportStateDone                ImportState = "done"
	ImportStateFailed              ImportState = "failed"
)

// ImportError annotates an import failure with the state it occurred in.
// The wrapped error is always an *errors.AppError.
type ImportError struct {
	State ImportState
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed while %s: %v", e.State, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// FailedState returns the state an import failed in, if err came from an import
func FailedState(err error) (ImportState, bool) {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.State, true
	}
	return "", false
}

// ImportService attaches tables that already exist on-chain to a project environment
type ImportService interface {
	ImportOne(ctx context.Context, req ImportRequest) (*ImportResult, error)
	ValidateBatch(rows []ImportRow) []RowProblem
	ImportBatch(ctx context.Context, req BatchRequest, progress func(BatchEvent)) (*BatchResult, error)
}

type ImportRequest struct {
	ProjectID     string `validate:"required"`
	EnvironmentID string `validate:"required"`
	TableName     string `validate:"required"`
	// DefinitionName defaults to the table name prefix
	DefinitionName string
	Description    string
	Identity       string
}

type ImportResult struct {
	Definition models.Definition `json:"definition"`
	Deployment models.Deployment `json:"deployment"`
	// ReusedDefinition is set when an existing definition bound to the same table was used
	ReusedDefinition bool `json:"reused_definition"`
}

// ImportServiceDeps are the collaborators of an ImportService
type ImportServiceDeps struct {
	Registry    registry.Client
	Authorizer  Authorizer
	Projects    ProjectService
	Definitions DefinitionService
	Deployments DeploymentService
	Hooks       HookService
	// Codec defaults to the static supported chain table
	Codec  *tablename.Codec
	Logger *zap.Logger
}

type importService struct {
	db          *gorm.DB
	registry    registry.Client
	authorizer  Authorizer
	projects    ProjectService
	definitions DefinitionService
	deployments DeploymentService
	hooks       HookService
	codec       *tablename.Codec
	logger      *zap.Logger
}

// NewImportService creates a new ImportService. Missing stores are built on db.
func NewImportService(db *gorm.DB, deps ImportServiceDeps) ImportService {
	s := &importService{
		db:          db,
		registry:    deps.Registry,
		authorizer:  deps.Authorizer,
		projects:    deps.Projects,
		definitions: deps.Definitions,
		deployments: deps.Deployments,
		hooks:       deps.Hooks,
		codec:       deps.Codec,
		logger:      deps.Logger,
	}
	if s.authorizer == nil {
		s.authorizer = NewMembershipAuthorizer(db)
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
	if s.codec == nil {
		s.codec = tablename.NewCodec(constants.IsSupportedChain)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// importAttempt carries one import through the pipeline
type importAttempt struct {
	req       ImportRequest
	state     ImportState
	name      tablename.Name
	table     *registry.Table
	createdAt time.Time
	result    ImportResult
}

type importStep struct {
	state ImportState
	run   func(ctx context.Context, a *importAttempt) error
}

// ImportOne parses the table name, checks authorization, reads the registry,
// then writes the definition and deployment in one transaction.
func (s *importService) ImportOne(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	return s.run(ctx, req, true)
}

func (s *importService) run(ctx context.Context, req ImportRequest, checkAuth bool) (*ImportResult, error) {
	a := &importAttempt{req: req}

	steps := []importStep{
		{ImportStateParsing, s.parse},
		{ImportStateAuthorizing, func(ctx context.Context, a *importAttempt) error {
			return s.authorizeImport(ctx, a, checkAuth)
		}},
		{ImportStateFetchingRegistry, s.fetchRegistry},
		{ImportStateUpsertingDefinition, s.persist},
	}

	for _, step := range steps {
		a.state = step.state
		if err := step.run(ctx, a); err != nil {
			return nil, s.fail(a, err)
		}
	}
	a.state = ImportStateDone

	s.logger.Info("table imported",
		zap.String("project_id", req.ProjectID),
		zap.String("environment_id", req.EnvironmentID),
		zap.String("table_name", a.result.Deployment.TableName),
		zap.String("definition_id", a.result.Definition.ID),
		zap.Bool("reused_definition", a.result.ReusedDefinition),
	)

	event := DeploymentEvent{
		Source:     models.DeploymentSourceImport,
		ProjectID:  req.ProjectID,
		Identity:   req.Identity,
		Definition: a.result.Definition,
		Deployment: a.result.Deployment,
	}
	if err := s.hooks.OnDeploymentRecorded(ctx, event); err != nil {
		s.logger.Warn("deployment hook failed", zap.String("table_name", event.Deployment.TableName), zap.Error(err))
	}

	result := a.result
	return &result, nil
}

func (s *importService) fail(a *importAttempt, err error) error {
	if appErr.CodeOf(err) == appErr.CodeUnknown {
		err = appErr.Wrap(err, appErr.CodeInternal, "unexpected import failure")
	}
	failedIn := a.state
	a.state = ImportStateFailed

	log := s.logger.Warn
	if appErr.Informational(err) {
		log = s.logger.Info
	}
	log("table import stopped",
		zap.String("state", string(failedIn)),
		zap.String("table_name", a.req.TableName),
		zap.String("code", string(appErr.CodeOf(err))),
		zap.Error(err),
	)
	return &ImportError{State: failedIn, Err: err}
}

func (s *importService) parse(_ context.Context, a *importAttempt) error {
	if err := validate.Struct(a.req); err != nil {
		return invalidInput(err)
	}
	name, err := s.codec.Parse(a.req.TableName)
	if err != nil {
		return err
	}
	a.name = name
	return nil
}

func (s *importService) authorizeImport(ctx context.Context, a *importAttempt, checkAuth bool) error {
	if checkAuth {
		if err := authorize(ctx, s.authorizer, a.req.Identity, a.req.ProjectID); err != nil {
			return err
		}
	}
	_, err := s.projects.GetProjectEnvironment(ctx, a.req.ProjectID, a.req.EnvironmentID)
	return err
}

func (s *importService) fetchRegistry(ctx context.Context, a *importAttempt) error {
	table, err := s.registry.GetTableByID(ctx, a.name.ChainID, a.name.TableID)
	if err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return appErr.Wrap(err, appErr.CodeNotFound, "table does not exist on chain").
				WithMeta("table_name", a.name.String())
		}
		return err
	}
	if table.Name != "" && !strings.EqualFold(table.Name, a.name.String()) {
		s.logger.Warn("registry table name differs from requested name",
			zap.String("requested", a.name.String()),
			zap.String("registry", table.Name),
		)
	}

	secs, err := table.CreatedAt()
	if err != nil {
		return err
	}
	a.table = table
	// The registry reports seconds; deployments store milliseconds precision.
	a.createdAt = time.UnixMilli(secs * 1000).UTC()
	return nil
}

// persist runs the definition upsert and the deployment insert atomically.
func (s *importService) persist(ctx context.Context, a *importAttempt) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		definitions := s.definitions.WithTx(tx)
		deployments := s.deployments.WithTx(tx)

		a.state = ImportStateUpsertingDefinition
		def, reused, err := s.upsertDefinition(ctx, definitions, deployments, a)
		if err != nil {
			return err
		}

		a.state = ImportStateRecordingDeployment
		deployment, err := deployments.CreateDeployment(ctx, CreateDeploymentInput{
			DefID:         def.ID,
			EnvironmentID: a.req.EnvironmentID,
			ChainID:       a.name.ChainID,
			TableID:       a.name.TableID,
			TableName:     a.name.String(),
			CreatedAt:     a.createdAt,
		})
		if err != nil {
			return err
		}

		a.result = ImportResult{Definition: *def, Deployment: *deployment, ReusedDefinition: reused}
		return nil
	})
	if err == nil {
		return nil
	}
	if appErr.IsCode(err, appErr.CodeConflict) {
		return s.classifyConflict(ctx, a, err)
	}
	return err
}

func (s *importService) upsertDefinition(ctx context.Context, definitions DefinitionService, deployments DeploymentService, a *importAttempt) (*models.Definition, bool, error) {
	name := definitionName(a.req, a.name)
	existing, err := definitions.GetDefinitionBySlug(ctx, a.req.ProjectID, Slugify(name))
	switch {
	case appErr.IsCode(err, appErr.CodeNotFound):
		def, err := definitions.CreateDefinition(ctx, CreateDefinitionInput{
			ProjectID:   a.req.ProjectID,
			Name:        name,
			Description: a.req.Description,
			Schema:      a.table.Schema,
		})
		return def, false, err
	case err != nil:
		return nil, false, err
	}

	bound, err := deployments.ListDeploymentsByDefinition(ctx, existing.ID)
	if err != nil {
		return nil, false, err
	}
	for _, d := range bound {
		if d.ChainID == a.name.ChainID && d.TableID == a.name.TableID {
			return existing, true, nil
		}
	}
	return nil, false, appErr.Newf(appErr.CodeConflict, "definition name %q is already used by another table", existing.Name).
		WithMeta("slug", existing.Slug).
		WithMeta("definition_id", existing.ID)
}

// classifyConflict runs after rollback. A conflict means another writer got
// there first; if it recorded this table in this environment the import is
// already done.
func (s *importService) classifyConflict(ctx context.Context, a *importAttempt, err error) error {
	existing, lookupErr := s.deployments.FindDeploymentByTable(ctx, a.req.EnvironmentID, a.name.ChainID, a.name.TableID)
	if lookupErr == nil {
		return appErr.Wrap(err, appErr.CodeAlreadyDeployed,
			fmt.Sprintf("%s is already imported into this environment", existing.TableName)).
			WithMeta("table_name", existing.TableName).
			WithMeta("definition_id", existing.DefID)
	}
	if a.state == ImportStateRecordingDeployment {
		return appErr.Wrap(err, appErr.CodeAlreadyDeployed, "definition is already deployed in this environment").
			WithMeta("table_name", a.name.String())
	}
	return err
}

func definitionName(req ImportRequest, name tablename.Name) string {
	if n := strings.TrimSpace(req.DefinitionName); n != "" {
		return n
	}
	if name.Prefix != "" {
		return name.Prefix
	}
	return name.String()
}
