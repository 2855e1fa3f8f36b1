package domain

import "time"

// Idempotency is the recorded outcome of a mutating request carrying an
// Idempotency-Key, keyed by (address, scope, key). Scope is the route that
// produced it; ResourceID points at the log or user the request returned.
// A retried request with the same key replays that resource instead of
// hitting the one-shot rejection paths again.
type Idempotency struct {
	ID         string    `gorm:"type:varchar(36);not null;primaryKey"`
	Address    string    `gorm:"type:varchar(42);not null;uniqueIndex:ux_addr_scope_key,priority:1"`
	Scope      string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_addr_scope_key,priority:2"`
	Key        string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_addr_scope_key,priority:3"`
	ResourceID string    `gorm:"type:varchar(64);not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
