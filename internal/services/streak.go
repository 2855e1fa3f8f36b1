package services

import (
	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/domain"
)

// UpdateStreak applies a check-in on dateKey to u's streak. The first
// check-in starts at 1, a repeat of the last date is a no-op, the next
// calendar day extends the streak and any other date restarts it at 1.
func UpdateStreak(u *domain.User, dateKey string) error {
	if u.LastDateKey == nil || *u.LastDateKey == "" {
		u.Streak = 1
		u.LastDateKey = &dateKey
		return nil
	}
	if *u.LastDateKey == dateKey {
		return nil
	}
	next, err := calendar.Next(*u.LastDateKey)
	if err != nil {
		return err
	}
	if next == dateKey {
		u.Streak++
	} else {
		u.Streak = 1
	}
	u.LastDateKey = &dateKey
	return nil
}
