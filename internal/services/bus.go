package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventKind names a committed ledger mutation.
type EventKind string

const (
	EventCheckin         EventKind = "checkin"
	EventProofSubmitted  EventKind = "proof_submitted"
	EventDayMinted       EventKind = "day_minted"
	EventMilestoneMinted EventKind = "milestone_minted"
	EventFinalComposed   EventKind = "final_composed"
	EventTimezoneSet     EventKind = "timezone_set"
)

// Event describes a mutation after it was committed.
type Event struct {
	Kind        EventKind `json:"kind"`
	Address     string    `json:"address"`
	DayIndex    int       `json:"dayIndex,omitempty"`
	DateKey     string    `json:"dateKey,omitempty"`
	MilestoneID int       `json:"milestoneId,omitempty"`
	TxHash      string    `json:"txHash,omitempty"`
	At          time.Time `json:"at"`
}

// Observer receives ledger events. Notify runs synchronously on the
// mutating goroutine and must not block.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Notify calls f.
func (f ObserverFunc) Notify(e Event) { f(e) }

// Bus fans events out to subscribers. The zero value is ready to use and a
// nil *Bus drops every event.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Observer
}

// NewBus returns an empty Bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers o and returns a function that removes it.
func (b *Bus) Subscribe(o Observer) (cancel func()) {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]Observer)
	}
	id := b.next
	b.next++
	b.subs[id] = o
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber. A panicking observer is logged
// and does not affect the others.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]Observer, 0, len(b.subs))
	for _, o := range b.subs {
		subs = append(subs, o)
	}
	b.mu.RUnlock()

	for _, o := range subs {
		notify(o, e)
	}
}

func notify(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", string(e.Kind)).Msg("observer panicked")
		}
	}()
	o.Notify(e)
}
