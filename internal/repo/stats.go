// Package repo implements the data persistence layer for the ledger. This
// file provides small aggregate queries used for conditional responses
// (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/domain"
)

// LogsStats returns the number of logs for an address and the greatest
// UpdatedAt among them. With no logs, count is 0 and maxUpdatedAt is nil.
func LogsStats(ctx context.Context, db *gorm.DB, address string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.DailyLog{}).Where("address = ?", address)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// UserUpdatedAt returns the UpdatedAt of the user row, or nil if the user
// does not exist yet.
func UserUpdatedAt(ctx context.Context, db *gorm.DB, address string) (*time.Time, error) {
	var rows []struct {
		UpdatedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("updated_at").
		Where("address = ?", address).
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0].UpdatedAt, nil
}
