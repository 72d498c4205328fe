// Package db opens the gorm connection for the configured engine and
// migrates the schema.
package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db/dsn"
	"github.com/runtime-config/runtime-config/internal/db/models"
	"github.com/runtime-config/runtime-config/internal/logger/adapter/stdlogger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Models lists every table of the schema in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Scope{},
		&models.Setting{},
		&models.SettingHistory{},
		&models.Credential{},
	}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Warn
	if cfg.DB.Debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		Logger: gormlogger.New(stdlogger.New("gorm"), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	switch {
	case cfg.DB.GormEngine == config.EngineSQLite:
		// one writer at a time, transactions would otherwise fail with SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	case cfg.DB.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Dialector returns the gorm dialector for cfg.DB.GormEngine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres, "":
		return postgres.Open(dsn.Create(cfg)), nil
	case config.EngineMySQL:
		return mysql.Open(dsn.Create(cfg)), nil
	case config.EngineSQLite:
		return sqlite.Open(dsn.Create(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedGormEngine, cfg.DB.GormEngine)
	}
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
