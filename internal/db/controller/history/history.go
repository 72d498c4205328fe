// Package history appends and reads the immutable change log of settings.
//
// Append must be called with the transaction of the mutation it documents,
// so a failed audit write rolls the mutation back and a rolled back mutation
// leaves no audit row.
package history

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

// Kind is the mutation an entry documents.
type Kind string

const (
	// KindEdit documents an edit of a live setting.
	KindEdit Kind = "edit"
	// KindDelete documents the removal of a live setting.
	KindDelete Kind = "delete"
)

// Append writes one entry holding before, the state prior to the mutation.
// Any failure is returned as an internal error.
func Append(tx *gorm.DB, before *models.Setting, kind Kind, actorID *uint64, at time.Time) (*models.SettingHistory, error) {
	entry := before.Snapshot()
	entry.RecordedAt = at

	if kind == KindDelete {
		entry.IsDeleted = true
		entry.DeletedByID = actorID
	}

	if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
		return nil, apperr.Internal("append setting history", err)
	}

	return &entry, nil
}

// ListBySetting returns every entry recorded for settingID, newest first.
// Entries stay reachable after the setting is renamed or deleted.
func ListBySetting(ctx context.Context, db *gorm.DB, settingID uint64) ([]models.SettingHistory, error) {
	var entries []models.SettingHistory

	err := db.WithContext(ctx).
		Preload("Scope").
		Where("setting_id = ?", settingID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Internal("list setting history", err)
	}

	return entries, nil
}
