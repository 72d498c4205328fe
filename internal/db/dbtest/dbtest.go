// Package dbtest provides an in-memory database for package tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/config"
	"github.com/runtime-config/runtime-config/internal/db"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

// New returns a migrated in-memory SQLite database closed with the test.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite}})
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}

// User inserts an active identity with the given role and password "secret".
func User(t *testing.T, gdb *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := models.HashPassword("secret")
	require.NoError(t, err)

	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Role:     role,
		Active:   true,
	}
	require.NoError(t, gdb.Create(u).Error)

	return u
}

// Clock is a manually advanced time source.
type Clock struct {
	current time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{current: time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
