package setting

import (
	"context"
	"errors"
	"iter"

	"gorm.io/gorm"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/controller/scope"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

const (
	// DefaultLimit is the page size used when none is given.
	DefaultLimit = 30
	// MaxLimit is the largest accepted search page size.
	MaxLimit = 30

	batchSize = 100
)

// SearchParams filters a search. Empty Name and Scope match everything.
type SearchParams struct {
	// Name is a case-sensitive substring of the setting name.
	Name string
	// Scope is the exact scope name.
	Scope  string
	Offset int
	// Limit defaults to DefaultLimit and may not exceed MaxLimit.
	Limit int
}

func (p *SearchParams) normalize() error {
	if p.Offset < 0 {
		return apperr.Validation("offset must not be negative, got %d", p.Offset)
	}

	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}

	if p.Limit < 1 || p.Limit > MaxLimit {
		return apperr.Validation("limit must be between 1 and %d, got %d", MaxLimit, p.Limit)
	}

	return nil
}

// Search returns live settings matching p, ordered by id. Parameters are
// validated immediately, rows are fetched while the sequence is consumed.
func (s *Store) Search(ctx context.Context, p SearchParams) (iter.Seq2[models.Setting, error], error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if err := p.normalize(); err != nil {
		return nil, err
	}

	return s.stream(ctx, p.Scope, p.Offset, p.Limit, func(q *gorm.DB) *gorm.DB {
		if p.Name == "" {
			return q
		}

		return q.Where(containsExpr(s.db), p.Name)
	}), nil
}

// ListByScope returns the live settings of the named scope, ordered by id.
// A zero limit returns all of them.
func (s *Store) ListByScope(ctx context.Context, scopeName string, offset, limit int) (iter.Seq2[models.Setting, error], error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if scopeName == "" {
		return nil, scope.ErrScopeNameEmpty
	}

	if offset < 0 || limit < 0 {
		return nil, apperr.Validation("offset and limit must not be negative")
	}

	return s.stream(ctx, scopeName, offset, limit, nil), nil
}

// stream pages through the settings table by primary key. Each batch is
// read completely before it is yielded, so consumers may query the database
// while iterating.
func (s *Store) stream(
	ctx context.Context,
	scopeName string,
	offset, limit int,
	filter func(*gorm.DB) *gorm.DB,
) iter.Seq2[models.Setting, error] {
	return func(yield func(models.Setting, error) bool) {
		db := s.db.WithContext(ctx)

		var scopeID uint64

		if scopeName != "" {
			sc, err := scope.Get(db, scopeName)
			if errors.Is(err, scope.ErrScopeNotFound) {
				return
			}

			if err != nil {
				yield(models.Setting{}, err)
				return
			}

			scopeID = sc.ID
		}

		var (
			lastID    uint64
			remaining = limit
			first     = true
		)

		for {
			size := batchSize
			if limit > 0 {
				size = min(size, remaining)
			}

			q := db.Model(&models.Setting{}).Preload("Scope").Order("settings.id").Limit(size)
			if scopeID != 0 {
				q = q.Where("settings.scope_id = ?", scopeID)
			}

			if filter != nil {
				q = filter(q)
			}

			if first {
				q = q.Offset(offset)
			} else {
				q = q.Where("settings.id > ?", lastID)
			}

			var batch []models.Setting

			if err := q.Find(&batch).Error; err != nil {
				yield(models.Setting{}, apperr.Internal("search settings", err))
				return
			}

			for _, st := range batch {
				if !yield(st, nil) {
					return
				}
			}

			if len(batch) < size {
				return
			}

			first = false
			lastID = batch[len(batch)-1].ID

			if limit > 0 {
				remaining -= len(batch)
				if remaining <= 0 {
					return
				}
			}
		}
	}
}

// containsExpr is a case-sensitive substring match on the setting name for the dialect of db.
func containsExpr(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "strpos(settings.name, ?) > 0"
	case "mysql":
		return "LOCATE(BINARY ?, settings.name) > 0"
	default:
		return "instr(settings.name, ?) > 0"
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[models.Setting, error]) ([]models.Setting, error) {
	var out []models.Setting

	for st, err := range seq {
		if err != nil {
			return nil, err
		}

		out = append(out, st)
	}

	return out, nil
}
