// Package services – MilestoneService
//
// This file implements the completion gate: week milestones, unlocked by a
// number of distinct check-in days, and the final composition, which
// requires all 28 days to carry a day mint. Every transition is one-shot;
// replays fail with ErrAlreadyMinted.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/repo"
)

// MilestoneThresholds maps a milestone id to the distinct check-in days it
// requires.
var MilestoneThresholds = map[int]int{1: 7, 2: 14, 3: 28}

// MilestoneService guards milestone and final mints.
type MilestoneService struct {
	Deps
}

// NewMilestoneService wires a MilestoneService.
func NewMilestoneService(d Deps) *MilestoneService { return &MilestoneService{Deps: d} }

// MintMilestone records milestone id once the user has enough distinct
// check-in days.
func (s *MilestoneService) MintMilestone(ctx context.Context, address string, id int, txHash string) (*domain.User, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	required, ok := MilestoneThresholds[id]
	if !ok {
		return nil, ErrInvalidMilestone
	}
	ctx, sp := otel.Tracer("services/MilestoneService").Start(ctx, "MintMilestone",
		trace.WithAttributes(
			attribute.String("user.address", addr),
			attribute.Int("milestone.id", id),
		),
	)
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
	if u.Milestones.Has(id) {
		return nil, ErrAlreadyMinted
	}
	n, err := repo.CountCheckinDays(ctx, s.DB, addr, s.challenge())
	if err != nil {
		return nil, storage(err)
	}
	if int(n) < required {
		return nil, fmt.Errorf("%w: %d of %d days", ErrInsufficientDays, n, required)
	}
	h, err := s.txHash(txHash, fmt.Sprintf("tx:milestone:%d", id))
	if err != nil {
		return nil, err
	}

	u.Milestones[id] = h
	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		return nil, storage(err)
	}

	s.publish(Event{Kind: EventMilestoneMinted, Address: addr, MilestoneID: id, TxHash: h})
	return u, nil
}

// ComposeFinal completes the challenge. It requires 28 day mints and
// re-checks that every day 1..28 actually carries one.
func (s *MilestoneService) ComposeFinal(ctx context.Context, address, txHash string) (*domain.User, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, sp := otel.Tracer("services/MilestoneService").Start(ctx, "ComposeFinal",
		trace.WithAttributes(attribute.String("user.address", addr)))
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
	if u.FinalMinted {
		return nil, ErrAlreadyMinted
	}
	if u.DayMintCount < calendar.ChallengeDays {
		return nil, fmt.Errorf("%w: %d of %d days minted", ErrInsufficientDays, u.DayMintCount, calendar.ChallengeDays)
	}
	minted, err := repo.MintedDayIndexes(ctx, s.DB, addr, s.challenge())
	if err != nil {
		return nil, storage(err)
	}
	if day := firstGap(minted); day != 0 {
		return nil, fmt.Errorf("%w: day %d has no day mint", ErrInsufficientDays, day)
	}
	h, err := s.txHash(txHash, "tx:final")
	if err != nil {
		return nil, err
	}

	if err := repo.MarkFinalMinted(ctx, s.DB, addr, h); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrAlreadyMinted
		}
		return nil, storage(err)
	}
	if u, err = repo.GetUser(ctx, s.DB, addr); err != nil {
		return nil, storage(err)
	}

	s.publish(Event{Kind: EventFinalComposed, Address: addr, TxHash: h})
	return u, nil
}

// firstGap returns the first day in 1..28 missing from the ascending list
// days, or 0 when all are present.
func firstGap(days []int) int {
	have := make(map[int]bool, len(days))
	for _, d := range days {
		have[d] = true
	}
	for d := 1; d <= calendar.ChallengeDays; d++ {
		if !have[d] {
			return d
		}
	}
	return 0
}
