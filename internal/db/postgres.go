package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lyrebird-health/flarelog-backend/internal/logger"
	"github.com/lyrebird-health/flarelog-backend/internal/types"
	"github.com/lyrebird-health/flarelog-backend/internal/utils"
)

type DBService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDBService connects to Postgres by default; DB_DRIVER=sqlite opens a
// local file database instead (dev only). Row ids are assigned in
// BeforeCreate hooks, so neither driver needs a server-side uuid default.
func NewDBService(log *logger.Logger) (*DBService, error) {
	serviceLog := log.With("service", "DBService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	if driver == "sqlite" {
		path := utils.GetEnv("SQLITE_PATH", "flarelog.db", log)
		serviceLog.Info("Opening sqlite database...", "path", path)
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %w", err)
		}
		return &DBService{db: db, log: serviceLog}, nil
	}

	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "flarelog", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &DBService{db: db, log: serviceLog}, nil
}

func (s *DBService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Event{},
		&types.Discovery{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *DBService) DB() *gorm.DB {
	return s.db
}
