// Package repo implements the data persistence layer for the ledger. This
// file provides repository functions for the User (progress) model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/alive28-ledger/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-index violation on insert.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict indicates a conditional update matched no row because the
// guarded column was already set.
var ErrConflict = errors.New("conflict")

// GetOrCreateUser returns the user for address, inserting a fresh record
// with timezone tz and challenge id if none exists. Concurrent callers race
// safely: the insert is a no-op on conflict.
func GetOrCreateUser(ctx context.Context, db *gorm.DB, address, tz string, challengeID int) (*domain.User, error) {
	u := &domain.User{
		Address:     address,
		Timezone:    tz,
		ChallengeID: challengeID,
		Milestones:  domain.Milestones{},
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error; err != nil {
		return nil, err
	}
	return GetUser(ctx, db, address)
}

// GetUser fetches a user by address or returns ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, address string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("address = ?", address).First(&u).Error; err != nil {
		return nil, err
	}
	if u.Milestones == nil {
		u.Milestones = domain.Milestones{}
	}
	return &u, nil
}

// SaveUser writes every column of u.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Save(u).Error
}

// MarkFinalMinted flips finalMinted to true and records txHash, only if the
// user has not completed yet. It returns ErrConflict otherwise.
func MarkFinalMinted(ctx context.Context, db *gorm.DB, address, txHash string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("address = ? AND final_minted = ?", address, false).
		Updates(map[string]any{"final_minted": true, "final_tx_hash": txHash})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ListUserAddresses returns every known address in ascending order.
func ListUserAddresses(ctx context.Context, db *gorm.DB) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Order("address asc").
		Pluck("address", &out).Error
	return out, err
}

// isUniqueViolation recognizes unique-index errors across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate entry")
}
