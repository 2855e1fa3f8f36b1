// Package services – LedgerService
//
// This file implements LedgerService, which owns the check-in write path
// and the per-user read models. A check-in resolves today's date key in the
// user's timezone, assigns the calendar day index, seals the normalized text
// with a salted proof hash and persists the log together with the updated
// streak in one transaction. Proof submission and day mints are one-shot
// transitions on today's log.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/proof"
	"github.com/tbourn/alive28-ledger/internal/reflection"
	"github.com/tbourn/alive28-ledger/internal/repo"
	"github.com/tbourn/alive28-ledger/internal/tasks"
)

// HomeSnapshot is the entry-page summary.
type HomeSnapshot struct {
	DayBtnLabel  string  `json:"dayBtnLabel"`
	DayBtnTarget int     `json:"dayBtnTarget"`
	StartDateKey *string `json:"startDateKey"`
	TodayDateKey string  `json:"todayDateKey"`
}

// DailySnapshot is the view of one challenge day.
type DailySnapshot struct {
	DateKey          string           `json:"dateKey"`
	Task             tasks.Task       `json:"task"`
	Log              *domain.DailyLog `json:"log"`
	AlreadyCheckedIn bool             `json:"alreadyCheckedIn"`
}

// CheckinResult is the outcome of a check-in; AlreadyCheckedIn marks the
// idempotent return of an existing log.
type CheckinResult struct {
	Log              *domain.DailyLog `json:"log"`
	AlreadyCheckedIn bool             `json:"alreadyCheckedIn"`
}

// Progress is the derived state of a user's challenge.
type Progress struct {
	Address            string            `json:"address"`
	DateKey            string            `json:"dateKey"`
	StartDateKey       *string           `json:"startDateKey"`
	Timezone           string            `json:"timezone"`
	Streak             int               `json:"streak"`
	LastDayIndex       *int              `json:"lastDayIndex"`
	DayMintCount       int               `json:"dayMintCount"`
	CompletedDays      []int             `json:"completedDays"`
	TodayCheckedIn     bool              `json:"todayCheckedIn"`
	ShouldMintDay      bool              `json:"shouldMintDay"`
	MintableDayIndex   *int              `json:"mintableDayIndex"`
	ShouldComposeFinal bool              `json:"shouldComposeFinal"`
	FinalMinted        bool              `json:"finalMinted"`
	FinalTxHash        *string           `json:"finalTxHash"`
	Milestones         domain.Milestones `json:"milestones"`
}

// VerifyResult reports whether a stored proof hash still matches its inputs.
type VerifyResult struct {
	LogID        string `json:"logId"`
	Address      string `json:"address"`
	DateKey      string `json:"dateKey"`
	StoredHash   string `json:"storedHash"`
	ComputedHash string `json:"computedHash"`
	// WellFormed is false when the stored hash is not 0x + 64 hex digits.
	WellFormed bool `json:"wellFormed"`
	Valid      bool `json:"valid"`
}

// LedgerService coordinates check-ins, proofs, day mints and snapshots.
type LedgerService struct {
	Deps
	Tasks     *tasks.Catalog
	Reflector reflection.Generator
}

// NewLedgerService wires a LedgerService. A nil reflector uses the local
// template.
func NewLedgerService(d Deps, catalog *tasks.Catalog, gen reflection.Generator) *LedgerService {
	if gen == nil {
		gen = reflection.Template{}
	}
	return &LedgerService{Deps: d, Tasks: catalog, Reflector: gen}
}

func (s *LedgerService) span(ctx context.Context, name, addr string) (context.Context, trace.Span) {
	return otel.Tracer("services/LedgerService").Start(ctx, name,
		trace.WithAttributes(attribute.String("user.address", addr)))
}

// HomeSnapshot returns the label and target of the "continue" button:
// today's day index, clamped into 1..28.
func (s *LedgerService) HomeSnapshot(ctx context.Context, address string) (*HomeSnapshot, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, sp := s.span(ctx, "HomeSnapshot", addr)
	defer sp.End()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	dk, err := s.today(u)
	if err != nil {
		return nil, err
	}
	peek, err := calendar.PeekDayIndex(u.StartDateKey, dk)
	if err != nil {
		return nil, err
	}
	target := calendar.Clamp(peek)
	return &HomeSnapshot{
		DayBtnLabel:  fmt.Sprintf("Day %d", target),
		DayBtnTarget: target,
		StartDateKey: u.StartDateKey,
		TodayDateKey: dk,
	}, nil
}

// DailySnapshot returns the task and log for a challenge day. The day maps
// to startDateKey + (day-1), or today before the first check-in. A log is
// reported only if its stored day index equals day.
func (s *LedgerService) DailySnapshot(ctx context.Context, address string, day int) (*DailySnapshot, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if !calendar.InRange(day) {
		return nil, ErrInvalidDay
	}
	ctx, sp := s.span(ctx, "DailySnapshot", addr)
	defer sp.End()
	sp.SetAttributes(attribute.Int("day.index", day))

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	var dk string
	if u.StartDateKey != nil && *u.StartDateKey != "" {
		dk, err = calendar.AddDays(*u.StartDateKey, day-1)
	} else {
		dk, err = s.today(u)
	}
	if err != nil {
		return nil, err
	}

	snap := &DailySnapshot{DateKey: dk, Task: s.Tasks.ByDay(day)}
	l, err := repo.FindLogByDate(ctx, s.DB, addr, s.challenge(), dk)
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		return nil, storage(err)
	case l.DayIndex == day:
		snap.Log = l
		snap.AlreadyCheckedIn = true
	}
	return snap, nil
}

// Checkin records today's entry. A second call on the same date returns the
// stored log unchanged with AlreadyCheckedIn set. requestedDay 0 accepts the
// computed index; any other value must equal it.
func (s *LedgerService) Checkin(ctx context.Context, address string, requestedDay int, text string) (*CheckinResult, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, sp := s.span(ctx, "Checkin", addr)
	defer sp.End()

	unlock, err := s.lockAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	dk, existing, err := s.todayLog(ctx, s.DB, u)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CheckinResult{Log: existing, AlreadyCheckedIn: true}, nil
	}

	normalized := proof.Normalize(text)
	if normalized == "" {
		return nil, ErrEmptyText
	}
	day, err := calendar.PeekDayIndex(u.StartDateKey, dk)
	if err != nil {
		return nil, err
	}
	if !calendar.InRange(day) {
		return nil, fmt.Errorf("%w: day %d", ErrDayOutOfRange, day)
	}
	if requestedDay != 0 && requestedDay != day {
		return nil, fmt.Errorf("%w: requested %d, today is day %d", ErrDayIndexMismatch, requestedDay, day)
	}
	sp.SetAttributes(attribute.Int("day.index", day), attribute.String("date.key", dk))

	salt, err := proof.NewSalt()
	if err != nil {
		return nil, err
	}
	task := s.Tasks.ByDay(day)
	refl, err := s.Reflector.Generate(ctx, task, normalized)
	if err != nil {
		refl, _ = reflection.Template{}.Generate(ctx, task, normalized)
	}

	l := &domain.DailyLog{
		ID:             uuid.NewString(),
		Address:        addr,
		ChallengeID:    s.challenge(),
		DayIndex:       day,
		DateKey:        dk,
		NormalizedText: normalized,
		Reflection:     refl,
		SaltHex:        salt,
		ProofHash:      proof.Hash(dk, normalized, salt),
		Status:         domain.StatusCreated,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.StartDateKey == nil || *u.StartDateKey == "" {
			start := dk
			u.StartDateKey = &start
		}
		if err := UpdateStreak(u, dk); err != nil {
			return err
		}
		u.LastDayIndex = &day
		if err := repo.CreateLog(ctx, tx, l); err != nil {
			return err
		}
		return repo.SaveUser(ctx, tx, u)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost the race to a writer outside this process: first wins.
		won, ferr := repo.FindLogByDate(ctx, s.DB, addr, s.challenge(), dk)
		if ferr != nil {
			return nil, storage(ferr)
		}
		return &CheckinResult{Log: won, AlreadyCheckedIn: true}, nil
	}
	if err != nil {
		return nil, storage(err)
	}

	s.publish(Event{Kind: EventCheckin, Address: addr, DayIndex: day, DateKey: dk})
	return &CheckinResult{Log: l}, nil
}

// SubmitProof records the proof transaction on today's log.
func (s *LedgerService) SubmitProof(ctx context.Context, address, txHash string) (*domain.DailyLog, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, sp := s.span(ctx, "SubmitProof", addr)
	defer sp.End()

	unlock, err := s.lockAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	dk, l, err := s.todayLog(ctx, s.DB, u)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrMissingCheckin
	}
	if l.Submitted() {
		return nil, ErrAlreadySubmitted
	}
	h, err := s.txHash(txHash, "tx:proof:"+l.ProofHash)
	if err != nil {
		return nil, err
	}

	if err := repo.MarkSubmitted(ctx, s.DB, l.ID, h); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrAlreadySubmitted
		}
		return nil, storage(err)
	}
	l, err = repo.GetLog(ctx, s.DB, l.ID)
	if err != nil {
		return nil, storage(err)
	}

	s.publish(Event{Kind: EventProofSubmitted, Address: addr, DayIndex: l.DayIndex, DateKey: dk, TxHash: h})
	return l, nil
}

// MintDay records the day mint on today's log and increments the user's
// day-mint count, capped at 28.
func (s *LedgerService) MintDay(ctx context.Context, address, txHash string) (*domain.DailyLog, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, sp := s.span(ctx, "MintDay", addr)
	defer sp.End()

	unlock, err := s.lockAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	dk, l, err := s.todayLog(ctx, s.DB, u)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrMissingCheckin
	}
	if !l.Submitted() {
		return nil, ErrProofNotSubmitted
	}
	if l.DayMinted() {
		return nil, ErrAlreadyMinted
	}
	h, err := s.txHash(txHash, fmt.Sprintf("tx:day:%d", l.DayIndex))
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkDayMinted(ctx, tx, l.ID, h); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrAlreadyMinted
			}
			return err
		}
		if u.DayMintCount < calendar.ChallengeDays {
			u.DayMintCount++
		}
		return repo.SaveUser(ctx, tx, u)
	})
	if err != nil {
		return nil, storage(err)
	}
	l, err = repo.GetLog(ctx, s.DB, l.ID)
	if err != nil {
		return nil, storage(err)
	}

	s.publish(Event{Kind: EventDayMinted, Address: addr, DayIndex: l.DayIndex, DateKey: dk, TxHash: h})
	return l, nil
}

// DateKey returns the address's current date key in its timezone. Unknown
// addresses use the default zone and are not created.
func (s *LedgerService) DateKey(ctx context.Context, address string) (string, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	tz := s.DefaultTimezone
	u, err := repo.GetUser(ctx, s.DB, addr)
	switch {
	case err == nil:
		tz = u.Timezone
	case !errors.Is(err, repo.ErrNotFound):
		return "", storage(err)
	}
	return calendar.Today(tz, s.now())
}

// Progress derives the user's current challenge state.
func (s *LedgerService) Progress(ctx context.Context, address string) (*Progress, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, sp := s.span(ctx, "Progress", addr)
	defer sp.End()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	dk, todayLog, err := s.todayLog(ctx, s.DB, u)
	if err != nil {
		return nil, err
	}
	logs, err := repo.ListLogs(ctx, s.DB, addr, s.challenge())
	if err != nil {
		return nil, storage(err)
	}

	completed := make([]int, 0, len(logs))
	for _, l := range logs {
		completed = append(completed, l.DayIndex)
	}
	sort.Ints(completed)

	p := &Progress{
		Address:            addr,
		DateKey:            dk,
		StartDateKey:       u.StartDateKey,
		Timezone:           u.Timezone,
		Streak:             u.Streak,
		LastDayIndex:       u.LastDayIndex,
		DayMintCount:       u.DayMintCount,
		CompletedDays:      completed,
		TodayCheckedIn:     todayLog != nil,
		ShouldComposeFinal: u.DayMintCount == calendar.ChallengeDays && !u.FinalMinted,
		FinalMinted:        u.FinalMinted,
		FinalTxHash:        u.FinalTxHash,
		Milestones:         u.Milestones,
	}
	if todayLog != nil {
		idx := todayLog.DayIndex
		p.MintableDayIndex = &idx
		p.ShouldMintDay = todayLog.Submitted() && !todayLog.DayMinted()
	}
	return p, nil
}

// SetTimezone changes the user's zone. It is allowed only before the first
// check-in, since the zone defines every date key of the challenge.
func (s *LedgerService) SetTimezone(ctx context.Context, address, tz string) (*domain.User, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if _, err := calendar.LoadLocation(tz); err != nil {
		return nil, err
	}
	ctx, sp := s.span(ctx, "SetTimezone", addr)
	defer sp.End()

	unlock, err := s.lockAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	if u.Timezone == tz {
		return u, nil
	}
	if u.StartDateKey != nil && *u.StartDateKey != "" {
		return nil, ErrTimezoneLocked
	}
	u.Timezone = tz
	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		return nil, storage(err)
	}

	s.publish(Event{Kind: EventTimezoneSet, Address: addr})
	return u, nil
}

// VerifyLog recomputes the proof hash of a stored log.
func (s *LedgerService) VerifyLog(ctx context.Context, id string) (*VerifyResult, error) {
	ctx, sp := otel.Tracer("services/LedgerService").Start(ctx, "VerifyLog",
		trace.WithAttributes(attribute.String("log.id", id)))
	defer sp.End()

	l, err := repo.GetLog(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, storage(err)
	}
	return Verify(l), nil
}

// Verify recomputes the proof hash of l. A malformed stored hash is never
// valid.
func Verify(l *domain.DailyLog) *VerifyResult {
	wellFormed := proof.IsDigest(l.ProofHash)
	return &VerifyResult{
		LogID:        l.ID,
		Address:      l.Address,
		DateKey:      l.DateKey,
		StoredHash:   l.ProofHash,
		ComputedHash: proof.Hash(l.DateKey, l.NormalizedText, l.SaltHex),
		WellFormed:   wellFormed,
		Valid:        wellFormed && proof.Verify(l.DateKey, l.NormalizedText, l.SaltHex, l.ProofHash),
	}
}
