// Package daemon wires the database, the services and the web server.
package daemon

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db"
	"github.com/runtime-config/runtime-config/internal/db/controller/setting"
	"github.com/runtime-config/runtime-config/internal/web"
	"github.com/runtime-config/runtime-config/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// Start serves http until a shutdown signal arrives, then closes the database.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))

	if sqlDB, dbErr := d.db.DB(); dbErr == nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close database")
		}
	}

	return err
}

// New opens and migrates the database and builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	deps, err := NewDeps(cfg, gdb)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("engine", cfg.DB.GormEngine).
		Int("port", cfg.Webserver.Port).
		Bool("dev", cfg.DevMode).
		Msg("runtime-config initialized")

	return &Daemon{
		cfg:        cfg,
		db:         gdb,
		webService: web.New(deps),
	}, nil
}

// NewDeps builds the services shared by the handlers.
func NewDeps(cfg *config.Config, gdb *gorm.DB) (*handler.Deps, error) {
	codec, err := auth.NewCodec(cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create token codec")
	}

	return &handler.Deps{
		Cfg:      cfg,
		DB:       gdb,
		Settings: setting.NewStore(gdb),
		Tokens:   auth.NewTokenService(gdb, codec),
		Local:    auth.NewLocalProvider(gdb),
	}, nil
}
