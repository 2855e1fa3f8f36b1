package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/domain"
)

// CreateLog inserts l. A second check-in for the same (address, challenge,
// date key) fails with ErrDuplicate; this is the ledger's atomic
// compare-and-insert.
func CreateLog(ctx context.Context, db *gorm.DB, l *domain.DailyLog) error {
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetLog fetches a log by id or returns ErrNotFound.
func GetLog(ctx context.Context, db *gorm.DB, id string) (*domain.DailyLog, error) {
	var l domain.DailyLog
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// FindLogByDate returns the log for (address, challenge, dateKey) or
// ErrNotFound.
func FindLogByDate(ctx context.Context, db *gorm.DB, address string, challengeID int, dateKey string) (*domain.DailyLog, error) {
	var l domain.DailyLog
	err := db.WithContext(ctx).
		Where("address = ? AND challenge_id = ? AND date_key = ?", address, challengeID, dateKey).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLogs returns all logs for (address, challenge) ordered by date key
// ascending.
func ListLogs(ctx context.Context, db *gorm.DB, address string, challengeID int) ([]domain.DailyLog, error) {
	var out []domain.DailyLog
	err := db.WithContext(ctx).
		Where("address = ? AND challenge_id = ?", address, challengeID).
		Order("date_key asc").
		Find(&out).Error
	return out, err
}

// ListLogsBetween returns logs whose date key lies in [from, to], ordered by
// date key ascending. Date keys sort lexically in calendar order.
func ListLogsBetween(ctx context.Context, db *gorm.DB, address string, challengeID int, from, to string) ([]domain.DailyLog, error) {
	var out []domain.DailyLog
	err := db.WithContext(ctx).
		Where("address = ? AND challenge_id = ? AND date_key >= ? AND date_key <= ?", address, challengeID, from, to).
		Order("date_key asc").
		Find(&out).Error
	return out, err
}

// CountCheckinDays returns the number of distinct date keys checked in.
func CountCheckinDays(ctx context.Context, db *gorm.DB, address string, challengeID int) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("address = ? AND challenge_id = ?", address, challengeID).
		Distinct("date_key").
		Count(&n).Error
	return n, err
}

// MintedDayIndexes returns the distinct day indexes that carry a day mint,
// ascending.
func MintedDayIndexes(ctx context.Context, db *gorm.DB, address string, challengeID int) ([]int, error) {
	var out []int
	err := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("address = ? AND challenge_id = ? AND day_mint_tx_hash IS NOT NULL AND day_mint_tx_hash <> ''", address, challengeID).
		Distinct().
		Order("day_index asc").
		Pluck("day_index", &out).Error
	return out, err
}

// MarkSubmitted records txHash on log id if no proof was recorded yet.
// It returns ErrConflict when the log already carries a transaction.
func MarkSubmitted(ctx context.Context, db *gorm.DB, id, txHash string) error {
	res := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("id = ? AND (tx_hash IS NULL OR tx_hash = '')", id).
		Updates(map[string]any{"tx_hash": txHash, "status": domain.StatusSubmitted})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// MarkDayMinted records the day mint on log id if none was recorded yet.
// It returns ErrConflict when the log is already minted.
func MarkDayMinted(ctx context.Context, db *gorm.DB, id, txHash string) error {
	res := db.WithContext(ctx).
		Model(&domain.DailyLog{}).
		Where("id = ? AND (day_mint_tx_hash IS NULL OR day_mint_tx_hash = '')", id).
		Update("day_mint_tx_hash", txHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// EachLog walks every stored log in id order, batch rows at a time.
// Returning an error from fn stops the walk.
func EachLog(ctx context.Context, db *gorm.DB, address string, batch int, fn func(*domain.DailyLog) error) error {
	if batch <= 0 {
		batch = 200
	}
	q := db.WithContext(ctx).Model(&domain.DailyLog{})
	if address != "" {
		q = q.Where("address = ?", address)
	}
	var rows []domain.DailyLog
	return q.FindInBatches(&rows, batch, func(tx *gorm.DB, _ int) error {
		for i := range rows {
			if err := fn(&rows[i]); err != nil {
				return err
			}
		}
		return nil
	}).Error
}
