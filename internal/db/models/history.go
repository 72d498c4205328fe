package models

import "time"

// SettingHistory is an immutable copy of a setting taken right before it was
// edited or deleted.
type SettingHistory struct {
	ID uint64 `gorm:"primaryKey"`
	// SettingID keeps pointing at the original setting across renames and after its deletion.
	SettingID   uint64    `gorm:"not null;index"`
	Name        string    `gorm:"size:255;not null;index:idx_setting_history_name_scope"`
	Value       *string   `gorm:"type:text"`
	ValueType   ValueType `gorm:"type:varchar(16);not null"`
	Disabled    bool      `gorm:"not null"`
	ScopeID     uint64    `gorm:"not null;index:idx_setting_history_name_scope"`
	Scope       Scope     `gorm:"foreignKey:ScopeID;references:ID;constraint:OnDelete:RESTRICT"`
	CreatedByID *uint64
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false;not null;index"`
	// IsDeleted is only set on entries written by a delete.
	IsDeleted bool `gorm:"not null;default:false"`
	// DeletedByID is the deleting identity, only populated when IsDeleted.
	DeletedByID *uint64
	// RecordedAt is the time the entry was written.
	RecordedAt time.Time `gorm:"autoCreateTime:false;not null"`
}

// TableName specifies the database table name for the SettingHistory model.
func (SettingHistory) TableName() string {
	return "setting_history"
}
