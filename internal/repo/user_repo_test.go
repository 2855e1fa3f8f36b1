package repo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/alive28-ledger/internal/domain"
)

func TestGetOrCreateUser_LazyAndIdempotent(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if _, err := GetUser(ctx, db, testAddr); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before creation, got %v", err)
	}

	u, err := GetOrCreateUser(ctx, db, testAddr, "Asia/Shanghai", 1)
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if u.Timezone != "Asia/Shanghai" || u.Streak != 0 || u.DayMintCount != 0 || u.FinalMinted || u.StartDateKey != nil {
		t.Fatalf("unexpected fresh user: %+v", u)
	}
	if u.Milestones == nil {
		t.Fatalf("milestones must be non-nil")
	}

	// A second call never overwrites existing progress.
	u.Streak = 3
	if err := SaveUser(ctx, db, u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	again, err := GetOrCreateUser(ctx, db, testAddr, "UTC", 1)
	if err != nil {
		t.Fatalf("GetOrCreateUser again: %v", err)
	}
	if again.Streak != 3 || again.Timezone != "Asia/Shanghai" {
		t.Fatalf("existing user was overwritten: %+v", again)
	}
}

func TestGetOrCreateUser_Concurrent(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	// Shared-cache memory databases report table locks under concurrent writers.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := GetOrCreateUser(context.Background(), db, testAddr, "UTC", 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent GetOrCreateUser: %v", err)
	}

	addrs, err := ListUserAddresses(context.Background(), db)
	if err != nil || len(addrs) != 1 || addrs[0] != testAddr {
		t.Fatalf("ListUserAddresses = (%v, %v)", addrs, err)
	}
}

func TestMarkFinalMinted_OneWay(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()
	if _, err := GetOrCreateUser(ctx, db, testAddr, "UTC", 1); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if err := MarkFinalMinted(ctx, db, testAddr, "0xf1"); err != nil {
		t.Fatalf("MarkFinalMinted: %v", err)
	}
	if err := MarkFinalMinted(ctx, db, testAddr, "0xf2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	u, _ := GetUser(ctx, db, testAddr)
	if !u.FinalMinted || u.FinalTxHash == nil || *u.FinalTxHash != "0xf1" {
		t.Fatalf("unexpected user after final: %+v", u)
	}
}
