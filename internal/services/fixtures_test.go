package services_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/table-studio/internal/chain"
	"github.com/rxtech-lab/table-studio/internal/models"
	"github.com/rxtech-lab/table-studio/internal/registry"
	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	testTeamID   = "team-1"
	testIdentity = "alice@example.com"
)

var usersSchema = models.TableSchema{
	Columns: []models.SchemaColumn{
		{Name: "id", Type: "integer", Constraints: []string{"PRIMARY KEY"}},
		{Name: "name", Type: "text"},
	},
}

// studioFixture opens a fresh in-memory database seeded with one project,
// two environments and one team member.
type studioFixture struct {
	suite.Suite
	dbService   services.DBService
	db          *gorm.DB
	projects    services.ProjectService
	definitions services.DefinitionService
	deployments services.DeploymentService
	project     *models.Project
	staging     *models.Environment
	production  *models.Environment
}

func (f *studioFixture) SetupTest() {
	dbService, err := services.NewSqliteDBService(":memory:")
	f.Require().NoError(err)
	f.dbService = dbService
	f.db = dbService.GetDB()

	f.projects = services.NewProjectService(f.db)
	f.definitions = services.NewDefinitionService(f.db)
	f.deployments = services.NewDeploymentService(f.db)

	ctx := context.Background()
	f.project, err = f.projects.CreateProject(ctx, services.CreateProjectInput{TeamID: testTeamID, Name: "Demo"})
	f.Require().NoError(err)
	f.staging, err = f.projects.CreateEnvironment(ctx, f.project.ID, "Staging")
	f.Require().NoError(err)
	f.production, err = f.projects.CreateEnvironment(ctx, f.project.ID, "Production")
	f.Require().NoError(err)
	f.Require().NoError(f.projects.AddTeamMember(ctx, testTeamID, testIdentity, "admin"))
}

func (f *studioFixture) TearDownTest() {
	if f.dbService != nil {
		f.dbService.Close()
	}
}

func (f *studioFixture) countRows(model any) int64 {
	var count int64
	f.Require().NoError(f.db.Model(model).Count(&count).Error)
	return count
}

// fakeRegistry serves tables from memory
type fakeRegistry struct {
	mu         sync.Mutex
	tables     map[string]*registry.Table
	tableErr   error
	receipts   []*registry.Receipt
	receiptErr []error
	tableCalls int
	receiptN   int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tables: map[string]*registry.Table{}}
}

func (r *fakeRegistry) addTable(chainID int64, tableID, name string, created any) {
	table := &registry.Table{Name: name, Schema: usersSchema}
	if created != nil {
		table.Attributes = []registry.Attribute{{DisplayType: "date", TraitType: registry.CreatedTraitType, Value: created}}
	}
	r.tables[fmt.Sprintf("%d/%s", chainID, tableID)] = table
}

func (r *fakeRegistry) GetTableByID(_ context.Context, chainID int64, tableID string) (*registry.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tableCalls++
	if r.tableErr != nil {
		return nil, r.tableErr
	}
	table, ok := r.tables[fmt.Sprintf("%d/%s", chainID, tableID)]
	if !ok {
		return nil, appErr.New(appErr.CodeNotFound, "table not found")
	}
	return table, nil
}

func (r *fakeRegistry) GetReceiptByTxnHash(_ context.Context, chainID int64, txnHash string) (*registry.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.receiptN
	r.receiptN++
	if i < len(r.receiptErr) && r.receiptErr[i] != nil {
		return nil, r.receiptErr[i]
	}
	if i < len(r.receipts) && r.receipts[i] != nil {
		return r.receipts[i], nil
	}
	return &registry.Receipt{ChainID: chainID, TxnHash: txnHash}, nil
}

func (r *fakeRegistry) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tableCalls
}

// fakeWriter confirms every statement with a fixed table id
type fakeWriter struct {
	mu         sync.Mutex
	tableID    string
	createErr  error
	confirmErr error
	block      bool
	statements []string
}

var fakeBlockTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func (w *fakeWriter) CreateTable(_ context.Context, chainID int64, statement string) (*chain.PendingTable, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.createErr != nil {
		return nil, w.createErr
	}
	w.statements = append(w.statements, statement)
	return chain.NewPendingTable(chainID, "0xabc"), nil
}

func (w *fakeWriter) WaitConfirmed(ctx context.Context, pending *chain.PendingTable) (*chain.ConfirmedTable, error) {
	if w.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if w.confirmErr != nil {
		return nil, w.confirmErr
	}
	return &chain.ConfirmedTable{
		ChainID:     pending.ChainID,
		TableID:     w.tableID,
		TxnHash:     pending.TxnHash,
		BlockNumber: 100,
		BlockTime:   fakeBlockTime,
	}, nil
}

// recordingHook remembers every event it receives
type recordingHook struct {
	mu     sync.Mutex
	events []services.DeploymentEvent
}

func (h *recordingHook) CanHandle(models.DeploymentSource) bool { return true }

func (h *recordingHook) OnDeploymentRecorded(_ context.Context, event services.DeploymentEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}
