package daemon

import (
	"context"

	"github.com/pkg/errors"

	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

// CreateAdmin opens the configured database and stores an active admin built from form.
func CreateAdmin(ctx context.Context, cfg *config.Config, form auth.NewUserForm) (*models.User, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	form.Role = models.RoleAdmin

	return auth.NewLocalProvider(gdb).CreateUser(ctx, form)
}
