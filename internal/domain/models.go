// Package domain defines the persistence models for the challenge ledger:
// per-address progress (User) and the append-only check-in records
// (DailyLog). These types are mapped with GORM and shared across the
// repository and service layers.
package domain

import (
	"sort"
	"time"
)

// Log statuses.
const (
	StatusCreated   = "CREATED"
	StatusSubmitted = "SUBMITTED"
)

// Reflection is the feedback pair produced for a check-in. The ledger stores
// it opaquely.
type Reflection struct {
	Note string `json:"note"`
	Next string `json:"next"`
}

// Milestones maps a milestone id (1, 2, 3) to the transaction hash that
// minted it. An id is present only once minted.
type Milestones map[int]string

// Has reports whether milestone id was minted.
func (m Milestones) Has(id int) bool {
	_, ok := m[id]
	return ok
}

// IDs returns the minted milestone ids in ascending order.
func (m Milestones) IDs() []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// User is the progress aggregate for one wallet address. It is created
// lazily on first lookup with zeroed counters.
//
// Fields:
//   - Address: lower-cased 0x address, primary key.
//   - Timezone: IANA zone used to resolve "today".
//   - StartDateKey: date key of the first check-in; set once, never changed.
//   - Streak / LastDateKey: consecutive-day tracking.
//   - DayMintCount: number of day mints, 0..28, never decreases.
//   - FinalMinted / FinalTxHash: one-way completion flag.
//   - Milestones: week milestone mints.
type User struct {
	Address      string     `json:"address"      gorm:"type:varchar(42);primaryKey"`
	Timezone     string     `json:"timezone"     gorm:"type:varchar(64);not null"`
	ChallengeID  int        `json:"challengeId"  gorm:"not null;default:1"`
	StartDateKey *string    `json:"startDateKey" gorm:"type:varchar(10)"`
	Streak       int        `json:"streak"       gorm:"not null;default:0"`
	LastDateKey  *string    `json:"lastDateKey"  gorm:"type:varchar(10)"`
	LastDayIndex *int       `json:"lastDayIndex,omitempty"`
	DayMintCount int        `json:"dayMintCount" gorm:"not null;default:0"`
	FinalMinted  bool       `json:"finalMinted"  gorm:"not null;default:false"`
	FinalTxHash  *string    `json:"finalTxHash"  gorm:"type:varchar(128)"`
	Milestones   Milestones `json:"milestones"   gorm:"type:text;serializer:json"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// DailyLog is the record of a single check-in. At most one exists per
// (address, challenge, date key), enforced by a unique index; the id, day
// index, text, salt and proof hash never change after creation.
type DailyLog struct {
	ID             string     `json:"id"             gorm:"type:char(36);primaryKey"`
	Address        string     `json:"address"        gorm:"type:varchar(42);not null;index;uniqueIndex:ux_log_address_challenge_date,priority:1"`
	ChallengeID    int        `json:"challengeId"    gorm:"not null;uniqueIndex:ux_log_address_challenge_date,priority:2"`
	DayIndex       int        `json:"dayIndex"       gorm:"not null;index"`
	DateKey        string     `json:"dateKey"        gorm:"type:varchar(10);not null;uniqueIndex:ux_log_address_challenge_date,priority:3"`
	NormalizedText string     `json:"normalizedText" gorm:"type:text;not null"`
	Reflection     Reflection `json:"reflection"     gorm:"type:text;serializer:json"`
	SaltHex        string     `json:"saltHex"        gorm:"type:varchar(66);not null"`
	ProofHash      string     `json:"proofHash"      gorm:"type:varchar(66);not null"`
	Status         string     `json:"status"         gorm:"type:varchar(16);not null;default:'CREATED';check:status IN ('CREATED','SUBMITTED')"`
	TxHash         *string    `json:"txHash"         gorm:"type:varchar(128)"`
	DayMintTxHash  *string    `json:"dayMintTxHash"  gorm:"type:varchar(128)"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for DailyLog.
func (DailyLog) TableName() string { return "daily_logs" }

// Submitted reports whether a proof transaction was recorded.
func (l *DailyLog) Submitted() bool { return l.TxHash != nil && *l.TxHash != "" }

// DayMinted reports whether the day mint was recorded.
func (l *DailyLog) DayMinted() bool { return l.DayMintTxHash != nil && *l.DayMintTxHash != "" }
