package models

import "time"

// Scope is a tenant or service namespace. Scopes are archived, never deleted.
type Scope struct {
	// ID is the unique identifier for the scope.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique name of the scope (e.g. the service name).
	Name string `gorm:"size:255;not null;uniqueIndex"`
	// Archived scopes keep their settings readable but accept no new ones.
	Archived bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the scope was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the Scope model.
func (Scope) TableName() string {
	return "scopes"
}
