// Package scope looks up, creates and archives setting scopes.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

const nameQueryPattern = "name = ?"

var (
	// ErrScopeNotFound is returned when no scope has the requested name.
	ErrScopeNotFound = fmt.Errorf("%w: scope not found", apperr.ErrNotFound)
	// ErrScopeNameEmpty is returned for a blank scope name.
	ErrScopeNameEmpty = fmt.Errorf("%w: scope name cannot be empty", apperr.ErrValidation)
	// ErrScopeArchived is returned when writing a setting into an archived scope.
	ErrScopeArchived = fmt.Errorf("%w: scope is archived", apperr.ErrValidation)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a scope by name.
func Get(db *gorm.DB, name string) (*models.Scope, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrScopeNameEmpty
	}

	var sc models.Scope

	err := db.Where(nameQueryPattern, name).First(&sc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScopeNotFound
	}

	if err != nil {
		return nil, apperr.Internal("get scope", err)
	}

	return &sc, nil
}

// GetOrCreate returns the scope named name, inserting it first if needed.
// Concurrent callers creating the same scope all get the same row.
func GetOrCreate(db *gorm.DB, name string) (*models.Scope, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrScopeNameEmpty
	}

	// a plain insert would abort a postgres transaction on conflict
	err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&models.Scope{Name: name}).Error
	if err != nil {
		return nil, apperr.Internal("create scope", err)
	}

	return Get(db, name)
}

// List returns all scopes ordered by name.
func List(db *gorm.DB, includeArchived bool) ([]models.Scope, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var scopes []models.Scope

	q := db.Order("name")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}

	if err := q.Find(&scopes).Error; err != nil {
		return nil, apperr.Internal("list scopes", err)
	}

	return scopes, nil
}

// Archive flags a scope as archived. Archiving twice is not an error.
func Archive(db *gorm.DB, name string) (*models.Scope, error) {
	sc, err := Get(db, name)
	if err != nil {
		return nil, err
	}

	if sc.Archived {
		return sc, nil
	}

	if err = db.Model(sc).Update("archived", true).Error; err != nil {
		return nil, apperr.Internal("archive scope", err)
	}

	sc.Archived = true

	return sc, nil
}
