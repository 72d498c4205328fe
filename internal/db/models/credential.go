package models

import "time"

// CredentialKind is the kind of a persisted token.
type CredentialKind string

// CredentialKindRefresh marks a persisted refresh token.
const CredentialKindRefresh CredentialKind = "refresh"

// Credential is the single live refresh token of a user.
type Credential struct {
	ID uint64 `gorm:"primaryKey"`
	// UserID is unique, so a user holds at most one credential.
	UserID uint64         `gorm:"not null;uniqueIndex"`
	User   User           `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Token  string         `gorm:"size:512;not null;uniqueIndex"`
	Kind   CredentialKind `gorm:"type:varchar(16);not null"`

	CreatedAt time.Time
}

// TableName specifies the database table name for the Credential model.
func (Credential) TableName() string {
	return "credentials"
}
