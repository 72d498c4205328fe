// Package credential persists the single live refresh token of each user.
package credential

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/runtime-config/runtime-config/internal/apperr"
	"github.com/runtime-config/runtime-config/internal/db/models"
)

var (
	// ErrCredentialNotFound is returned when the presented token is not the stored one.
	ErrCredentialNotFound = fmt.Errorf("%w: refresh credential not found", apperr.ErrUnauthorized)
	// ErrConcurrentIssue is returned when another session was stored for the user in the meantime.
	ErrConcurrentIssue = fmt.Errorf("%w: a session for this user was issued concurrently", apperr.ErrConflict)
)

// Replace removes any stored credential of userID and stores token instead.
// Both statements run in one transaction, nested as a savepoint when tx already is one.
func Replace(tx *gorm.DB, userID uint64, token string) (*models.Credential, error) {
	var cred *models.Credential

	err := tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Credential{}).Error; err != nil {
			return apperr.Internal("delete credential", err)
		}

		var err error

		cred, err = insert(tx, userID, token)

		return err
	})
	if err != nil {
		return nil, err
	}

	return cred, nil
}

// Rotate swaps the stored token of userID from old to next.
// The old token is consumed by a single conditional delete, so of two
// concurrent rotations with the same token only one succeeds.
func Rotate(tx *gorm.DB, userID uint64, old, next string) (*models.Credential, error) {
	var cred *models.Credential

	err := tx.Transaction(func(tx *gorm.DB) error {
		if err := Consume(tx, userID, old); err != nil {
			return err
		}

		var err error

		cred, err = insert(tx, userID, next)

		return err
	})
	if err != nil {
		return nil, err
	}

	return cred, nil
}

// Consume deletes the stored credential only if it matches token exactly.
func Consume(tx *gorm.DB, userID uint64, token string) error {
	res := tx.Where("user_id = ? AND token = ? AND kind = ?", userID, token, models.CredentialKindRefresh).
		Delete(&models.Credential{})
	if res.Error != nil {
		return apperr.Internal("consume credential", res.Error)
	}

	if res.RowsAffected != 1 {
		return ErrCredentialNotFound
	}

	return nil
}

// DeleteForUser removes the stored credential of userID and reports whether one existed.
func DeleteForUser(db *gorm.DB, userID uint64) (bool, error) {
	res := db.Where("user_id = ?", userID).Delete(&models.Credential{})
	if res.Error != nil {
		return false, apperr.Internal("delete credential", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Get returns the stored credential of userID.
func Get(db *gorm.DB, userID uint64) (*models.Credential, error) {
	var cred models.Credential

	err := db.Where("user_id = ?", userID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}

	if err != nil {
		return nil, apperr.Internal("get credential", err)
	}

	return &cred, nil
}

func insert(tx *gorm.DB, userID uint64, token string) (*models.Credential, error) {
	cred := &models.Credential{UserID: userID, Token: token, Kind: models.CredentialKindRefresh}

	err := tx.Omit(clause.Associations).Create(cred).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConcurrentIssue
	}

	if err != nil {
		return nil, apperr.Internal("store credential", err)
	}

	return cred, nil
}
