package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_SubscribeCancelAndPanicIsolation(t *testing.T) {
	b := NewBus()
	var got []EventKind

	cancelPanic := b.Subscribe(ObserverFunc(func(Event) { panic("boom") }))
	defer cancelPanic()
	cancel := b.Subscribe(ObserverFunc(func(e Event) { got = append(got, e.Kind) }))

	b.Publish(Event{Kind: EventCheckin})
	cancel()
	cancel()
	b.Publish(Event{Kind: EventDayMinted})

	assert.Equal(t, []EventKind{EventCheckin}, got)

	var nilBus *Bus
	assert.NotPanics(t, func() { nilBus.Publish(Event{Kind: EventCheckin}) })
}
