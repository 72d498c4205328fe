package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/auth"
	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db/dbtest"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

func newTestConfig() *config.Config {
	return &config.Config{
		DB:        config.DB{GormEngine: config.EngineSQLite},
		Webserver: config.Webserver{Port: 8080, URL: "http://localhost"},
		Token: config.Token{
			Secret:                    "0123456789abcdef0123456789abcdef-test",
			Algorithm:                 "HS256",
			AccessTokenExpireMinutes:  15,
			RefreshTokenExpireMinutes: 60,
		},
	}
}

func TestNewDeps(t *testing.T) {
	deps, err := NewDeps(newTestConfig(), dbtest.New(t))
	require.NoError(t, err)
	assert.True(t, deps.Valid())

	cfg := newTestConfig()
	cfg.Token.Algorithm = "none"

	_, err = NewDeps(cfg, dbtest.New(t))
	require.ErrorIs(t, err, auth.ErrUnsupportedAlgorithm)
}

func TestNew(t *testing.T) {
	d, err := New(newTestConfig())
	require.NoError(t, err)
	require.NotNil(t, d.webService)

	t.Cleanup(func() {
		if sqlDB, err := d.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	_, err = New(nil)
	require.Error(t, err)
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()

	u, err := CreateAdmin(ctx, newTestConfig(), auth.NewUserForm{
		Username: "root",
		Email:    "root@example.com",
		Password: "changeme",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role, "the role is always admin")
	assert.True(t, u.Active)

	_, err = CreateAdmin(ctx, newTestConfig(), auth.NewUserForm{Username: "r", Email: "r@example.com", Password: "x"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}
