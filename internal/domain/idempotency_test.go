package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_Indexes_AndInsert(t *testing.T) {
	db := newDomainDB(t)
	m := db.Migrator()

	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_addr_scope_key") {
		t.Fatalf("expected composite index ux_addr_scope_key to exist")
	}

	now := time.Now().UTC()

	// NOT NULL constraints, checked by behavior.
	assertNullRejected := func(col string) {
		t.Helper()
		vals := []any{"x-" + col, "0xa", "/proof", "k1", "r1", 200, now, now.Add(time.Hour)}
		names := []string{"id", "address", "scope", "key", "resource_id", "status", "created_at", "expires_at"}
		for i, name := range names {
			if name == col {
				vals[i] = nil
			}
		}
		err := db.Exec(`INSERT INTO idempotency ("id","address","scope","key","resource_id","status","created_at","expires_at")
		                VALUES (?,?,?,?,?,?,?,?)`, vals...).Error
		if err == nil {
			t.Fatalf("expected NOT NULL violation when inserting NULL into %q", col)
		}
	}
	for _, col := range []string{"address", "scope", "key", "resource_id", "status", "expires_at"} {
		assertNullRejected(col)
	}

	rec := &Idempotency{
		ID:         "id-1",
		Address:    "0xa",
		Scope:      "/proof",
		Key:        "k1",
		ResourceID: "r1",
		Status:     200,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Address != "0xa" || got.Scope != "/proof" || got.Key != "k1" || got.ResourceID != "r1" || got.Status != 200 {
		t.Fatalf("unexpected row: %+v", got)
	}

	dup := *rec
	dup.ID = "id-2"
	dup.ResourceID = "r2"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (address, scope, key)")
	}

	// Same key under another scope is a different request.
	other := *rec
	other.ID = "id-3"
	other.Scope = "/day-mints"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}
}
