// Package setting provides the settings store: create, edit, delete and read
// scoped settings. Every edit and delete writes its history entry inside the
// same transaction as the mutation.
package setting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/controller/history"
	"github.com/runtime-config/runtime-config/internal/db/controller/scope"
	"github.com/runtime-config/runtime-config/internal/db/models"
	"github.com/runtime-config/runtime-config/internal/metrics"
)

const (
	operationCreate = "create"
	operationEdit   = "edit"
	operationDelete = "delete"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = fmt.Errorf("%w: setting not found", apperr.ErrNotFound)
	// ErrSettingNameEmpty is returned when attempting to create/update a setting with an empty name.
	ErrSettingNameEmpty = fmt.Errorf("%w: setting name cannot be empty", apperr.ErrValidation)
	// ErrSettingAlreadyExists is returned when the (name, scope) pair is taken by a live setting.
	ErrSettingAlreadyExists = fmt.Errorf("%w: setting already exists in this scope", apperr.ErrConflict)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	errVanished = errors.New("setting vanished during delete")
)

// NewSetting holds the fields of a setting to create.
type NewSetting struct {
	Name      string
	Value     *string
	ValueType models.ValueType
	Disabled  bool
	Scope     string
}

// Changes is a partial edit. Nil fields are left untouched.
// Value is applied only when ValueSet is true, so it can be set to null.
type Changes struct {
	Name      *string
	Value     *string
	ValueSet  bool
	ValueType *models.ValueType
	Disabled  *bool
	Scope     *string
}

// Store owns the live settings table.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a settings store on db.
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ActorID returns the id of actor, nil for anonymous.
func ActorID(actor *models.User) *uint64 {
	if actor == nil {
		return nil
	}

	id := actor.ID

	return &id
}

// Create inserts a new setting. The scope is created on first use.
func (s *Store) Create(ctx context.Context, in NewSetting, actor *models.User) (*models.Setting, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrSettingNameEmpty
	}

	if err := in.ValueType.Check(in.Value); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	var created models.Setting

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sc, err := writableScope(tx, in.Scope)
		if err != nil {
			return err
		}

		if err = ensureUnique(tx, in.Name, sc.ID, 0); err != nil {
			return err
		}

		created = models.Setting{
			Name:        in.Name,
			Value:       in.Value,
			ValueType:   in.ValueType,
			Disabled:    in.Disabled,
			ScopeID:     sc.ID,
			CreatedByID: ActorID(actor),
			UpdatedAt:   s.now(),
		}

		if err = tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			return translate("create setting", err)
		}

		created.Scope = *sc

		return nil
	})

	s.record(operationCreate, err)

	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Edit applies changes to the setting id. The state before the edit is
// appended to the history and the actor becomes the setting's last writer.
func (s *Store) Edit(ctx context.Context, id uint64, changes Changes, actor *models.User) (*models.Setting, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if changes.Name != nil && strings.TrimSpace(*changes.Name) == "" {
		return nil, ErrSettingNameEmpty
	}

	if changes.ValueType != nil {
		if _, err := models.ParseValueType(string(*changes.ValueType)); err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
		}
	}

	var current models.Setting

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockByID(tx, id, &current); err != nil {
			return err
		}

		before := current

		if err := s.apply(tx, &current, changes); err != nil {
			return err
		}

		now := s.now()
		current.UpdatedAt = now
		current.CreatedByID = ActorID(actor)

		if _, err := history.Append(tx, &before, history.KindEdit, ActorID(actor), now); err != nil {
			return err
		}

		err := tx.Model(&models.Setting{}).Where("id = ?", id).Updates(map[string]any{
			"name":          current.Name,
			"value":         current.Value,
			"value_type":    current.ValueType,
			"disabled":      current.Disabled,
			"scope_id":      current.ScopeID,
			"created_by_id": current.CreatedByID,
			"updated_at":    current.UpdatedAt,
		}).Error
		if err != nil {
			return translate("update setting", err)
		}

		return nil
	})

	s.record(operationEdit, err)

	if err != nil {
		return nil, err
	}

	metrics.HistoryEntries.WithLabelValues(string(history.KindEdit)).Inc()

	return &current, nil
}

// apply merges changes into current and validates the result.
func (s *Store) apply(tx *gorm.DB, current *models.Setting, changes Changes) error {
	if changes.Name != nil {
		current.Name = strings.TrimSpace(*changes.Name)
	}

	if changes.ValueSet {
		current.Value = changes.Value
	}

	if changes.ValueType != nil {
		current.ValueType = *changes.ValueType
	}

	if changes.Disabled != nil {
		current.Disabled = *changes.Disabled
	}

	if changes.Scope != nil && strings.TrimSpace(*changes.Scope) != current.Scope.Name {
		sc, err := writableScope(tx, *changes.Scope)
		if err != nil {
			return err
		}

		current.ScopeID = sc.ID
		current.Scope = *sc
	}

	if err := current.ValueType.Check(current.Value); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	if changes.Name != nil || changes.Scope != nil {
		return ensureUnique(tx, current.Name, current.ScopeID, current.ID)
	}

	return nil
}

// Delete removes the setting id and appends its last state to the history,
// flagged as deleted by actor. It returns false if there was no such setting.
func (s *Store) Delete(ctx context.Context, id uint64, actor *models.User) (bool, error) {
	if s.db == nil {
		return false, ErrDBNil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Setting

		if err := lockByID(tx, id, &current); err != nil {
			return err
		}

		if _, err := history.Append(tx, &current, history.KindDelete, ActorID(actor), s.now()); err != nil {
			return err
		}

		res := tx.Delete(&models.Setting{}, id)
		if res.Error != nil {
			return translate("delete setting", res.Error)
		}

		if res.RowsAffected == 0 {
			return errVanished
		}

		return nil
	})

	if errors.Is(err, ErrSettingNotFound) || errors.Is(err, errVanished) {
		s.record(operationDelete, ErrSettingNotFound)
		return false, nil
	}

	s.record(operationDelete, err)

	if err != nil {
		return false, err
	}

	metrics.HistoryEntries.WithLabelValues(string(history.KindDelete)).Inc()

	return true, nil
}

// Get returns the setting id and, if includeHistory is set, its history
// newest first.
func (s *Store) Get(ctx context.Context, id uint64, includeHistory bool) (*models.Setting, []models.SettingHistory, error) {
	if s.db == nil {
		return nil, nil, ErrDBNil
	}

	var st models.Setting

	err := s.db.WithContext(ctx).Preload("Scope").First(&st, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrSettingNotFound
	}

	if err != nil {
		return nil, nil, apperr.Internal("get setting", err)
	}

	if !includeHistory {
		return &st, nil, nil
	}

	entries, err := history.ListBySetting(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}

	return &st, entries, nil
}

// History returns the history of setting id, newest first. It keeps working
// after the setting was deleted.
func (s *Store) History(ctx context.Context, id uint64) ([]models.SettingHistory, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	entries, err := history.ListBySetting(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if len(entries) > 0 {
		return entries, nil
	}

	// an untouched live setting has an empty history
	if _, _, err = s.Get(ctx, id, false); err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *Store) record(operation string, err error) {
	metrics.SettingMutations.WithLabelValues(operation, metrics.Result(err, isRejected)).Inc()

	if err != nil && errors.Is(err, apperr.ErrInternal) {
		log.Error().Err(err).Str("operation", operation).Msg("setting mutation failed")
	}
}

func isRejected(err error) bool {
	return errors.Is(err, apperr.ErrConflict) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrValidation)
}

// lockByID loads the setting id with its scope, holding a row lock until the
// transaction ends.
func lockByID(tx *gorm.DB, id uint64, st *models.Setting) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(st, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSettingNotFound
	}

	if err != nil {
		return apperr.Internal("load setting", err)
	}

	if err = tx.First(&st.Scope, st.ScopeID).Error; err != nil {
		return apperr.Internal("load setting scope", err)
	}

	return nil
}

func writableScope(tx *gorm.DB, name string) (*models.Scope, error) {
	sc, err := scope.GetOrCreate(tx, name)
	if err != nil {
		return nil, err
	}

	if sc.Archived {
		return nil, fmt.Errorf("%w: %s", scope.ErrScopeArchived, sc.Name)
	}

	return sc, nil
}

// ensureUnique reports a conflict if another live setting than exceptID uses (name, scopeID).
func ensureUnique(tx *gorm.DB, name string, scopeID, exceptID uint64) error {
	var n int64

	err := tx.Model(&models.Setting{}).
		Where("name = ? AND scope_id = ? AND id <> ?", name, scopeID, exceptID).
		Count(&n).Error
	if err != nil {
		return apperr.Internal("check setting uniqueness", err)
	}

	if n > 0 {
		return ErrSettingAlreadyExists
	}

	return nil
}

// translate maps a failed write, the unique index catches inserts racing past ensureUnique.
func translate(step string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSettingAlreadyExists
	}

	return apperr.Internal(step, err)
}
