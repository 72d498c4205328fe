// Package models contains database model definitions.
package models

import "time"

// Setting is a live configuration value. (Name, ScopeID) is unique.
type Setting struct {
	// ID is the unique identifier for the setting.
	ID uint64 `gorm:"primaryKey"`
	// Name is the free text key of the setting inside its scope.
	Name string `gorm:"size:255;not null;uniqueIndex:idx_settings_name_scope"`
	// Value is the raw payload, interpreted according to ValueType. Nil for null settings.
	Value *string `gorm:"type:text"`
	// ValueType tells consumers how to parse Value.
	ValueType ValueType `gorm:"type:varchar(16);not null"`
	// Disabled marks a setting consumers should ignore.
	Disabled bool `gorm:"not null;default:false"`
	// ScopeID references the scope the setting belongs to.
	ScopeID uint64 `gorm:"not null;uniqueIndex:idx_settings_name_scope"`
	// Scope is the owning scope, preloaded by the store.
	Scope Scope `gorm:"foreignKey:ScopeID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// CreatedByID is the identity that wrote the current revision, nil for anonymous writes.
	CreatedByID *uint64
	// CreatedBy is the associated identity (set null when the identity is removed).
	CreatedBy *User `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:SET NULL"`
	// UpdatedAt is assigned by the settings store on every write.
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null"`
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}

// Snapshot copies the current state of s into a history entry.
func (s *Setting) Snapshot() SettingHistory {
	return SettingHistory{
		SettingID:   s.ID,
		Name:        s.Name,
		Value:       s.Value,
		ValueType:   s.ValueType,
		Disabled:    s.Disabled,
		ScopeID:     s.ScopeID,
		Scope:       s.Scope,
		CreatedByID: s.CreatedByID,
		UpdatedAt:   s.UpdatedAt,
	}
}
