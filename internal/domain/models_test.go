package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &DailyLog{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func newLog(addr, dateKey string, day int) *DailyLog {
	return &DailyLog{
		ID:             uuid.NewString(),
		Address:        addr,
		ChallengeID:    1,
		DayIndex:       day,
		DateKey:        dateKey,
		NormalizedText: "hello",
		Reflection:     Reflection{Note: "n", Next: "x"},
		SaltHex:        "0x01",
		ProofHash:      "0x" + strings.Repeat("a", 64),
		Status:         StatusCreated,
	}
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (DailyLog{}).TableName() != "daily_logs" {
		t.Fatalf("DailyLog.TableName() = %q; want %q", (DailyLog{}).TableName(), "daily_logs")
	}
}

func TestMigrations_UniqueCheckinPerDate(t *testing.T) {
	db := newDomainDB(t)
	if !db.Migrator().HasIndex(&DailyLog{}, "ux_log_address_challenge_date") {
		t.Fatalf("expected unique index ux_log_address_challenge_date")
	}

	addr := "0x" + strings.Repeat("1", 40)
	if err := db.Create(newLog(addr, "2024-01-01", 1)).Error; err != nil {
		t.Fatalf("create first log: %v", err)
	}
	if err := db.Create(newLog(addr, "2024-01-01", 1)).Error; err == nil {
		t.Fatalf("expected unique violation for same (address, challenge, date)")
	}
	// Another date, another address: both fine.
	if err := db.Create(newLog(addr, "2024-01-02", 2)).Error; err != nil {
		t.Fatalf("create next-day log: %v", err)
	}
	other := "0x" + strings.Repeat("2", 40)
	if err := db.Create(newLog(other, "2024-01-01", 1)).Error; err != nil {
		t.Fatalf("create other-address log: %v", err)
	}
}

func TestDailyLog_StatusCheck(t *testing.T) {
	db := newDomainDB(t)
	l := newLog("0x"+strings.Repeat("3", 40), "2024-01-01", 1)
	l.Status = "BOGUS"
	if err := db.Create(l).Error; err == nil {
		t.Fatalf("expected check constraint to reject status %q", l.Status)
	}
}

func TestJSONColumns_RoundTrip(t *testing.T) {
	db := newDomainDB(t)
	addr := "0x" + strings.Repeat("4", 40)

	u := &User{Address: addr, Timezone: "UTC", ChallengeID: 1, Milestones: Milestones{1: "0xaa"}}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	l := newLog(addr, "2024-01-01", 1)
	l.TxHash = strPtr("0xbeef")
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("create log: %v", err)
	}

	var gotU User
	if err := db.First(&gotU, "address = ?", addr).Error; err != nil {
		t.Fatalf("read user: %v", err)
	}
	if !gotU.Milestones.Has(1) || gotU.Milestones[1] != "0xaa" {
		t.Fatalf("milestones not round-tripped: %#v", gotU.Milestones)
	}

	var gotL DailyLog
	if err := db.First(&gotL, "id = ?", l.ID).Error; err != nil {
		t.Fatalf("read log: %v", err)
	}
	if gotL.Reflection != (Reflection{Note: "n", Next: "x"}) {
		t.Fatalf("reflection = %#v", gotL.Reflection)
	}
	if !gotL.Submitted() || gotL.DayMinted() {
		t.Fatalf("Submitted=%v DayMinted=%v; want true,false", gotL.Submitted(), gotL.DayMinted())
	}
}

func TestMilestones_IDs(t *testing.T) {
	m := Milestones{3: "c", 1: "a", 2: "b"}
	got := m.IDs()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("IDs() = %v; want [1 2 3]", got)
	}
	var empty Milestones
	if empty.Has(1) {
		t.Fatalf("nil milestones must not report minted ids")
	}
}

func TestTimestamps_AutoFilled(t *testing.T) {
	db := newDomainDB(t)
	before := time.Now().Add(-time.Second)
	u := &User{Address: "0x" + strings.Repeat("5", 40), Timezone: "UTC", ChallengeID: 1}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.CreatedAt.Before(before) || u.UpdatedAt.Before(before) {
		t.Fatalf("timestamps not set: %v %v", u.CreatedAt, u.UpdatedAt)
	}
	var missing User
	err := db.First(&missing, "address = ?", "0xnope").Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
}
