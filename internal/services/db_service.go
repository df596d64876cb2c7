package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/table-studio/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBService handles database connection and lifecycle management
type DBService interface {
	GetDB() *gorm.DB
	Close() error
}

type dbService struct {
	db *gorm.DB
}

type dbOptions struct {
	logger *zap.Logger
}

// DBOption customises how a DBService is opened
type DBOption func(*dbOptions)

// WithDBLogger routes gorm's error and slow query log through logger
func WithDBLogger(l *zap.Logger) DBOption {
	return func(o *dbOptions) { o.logger = l }
}

// NewSqliteDBService creates a new DBService with SQLite connection.
// Use ":memory:" for an in-memory database.
func NewSqliteDBService(dbPath string, opts ...DBOption) (DBService, error) {
	if dbPath != ":memory:" {
		// Create directory if it doesn't exist
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps every caller on
	// the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return newDBService(db)
}

// NewPostgresDBService creates a new DBService with a PostgreSQL connection
func NewPostgresDBService(dsn string, opts ...DBOption) (DBService, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres connection string is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newDBService(db)
}

func newDBService(db *gorm.DB) (DBService, error) {
	service := &dbService{db: db}
	if err := service.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return service, nil
}

func gormConfig(opts []DBOption) *gorm.Config {
	o := &dbOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	// Configure GORM logger - only log errors and slow queries
	gormLogger := logger.New(
		zap.NewStdLog(o.logger.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,  // Slow SQL threshold
			LogLevel:                  logger.Error, // Only log errors and slow queries
			IgnoreRecordNotFoundError: true,         // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,         // Keep row values out of the log
			Colorful:                  false,        // Disable color
		},
	)

	return &gorm.Config{
		Logger: gormLogger,
		// Surface unique index violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	}
}

// GetDB returns the underlying GORM database instance
func (s *dbService) GetDB() *gorm.DB {
	return s.db
}

// migrate runs database migrations
func (s *dbService) migrate() error {
	return s.db.AutoMigrate(
		&models.Project{},
		&models.Environment{},
		&models.TeamMembership{},
		&models.Definition{},
		&models.Deployment{},
	)
}

// Close closes the database connection
func (s *dbService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
