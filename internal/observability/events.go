package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/alive28-ledger/internal/services"
)

// ledgerEvents counts committed ledger mutations by kind. Addresses are not
// used as labels to keep cardinality bounded.
var ledgerEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ledger_events_total",
		Help: "Committed ledger mutations by kind.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(ledgerEvents)
}

// EventCounter returns an observer that increments ledger_events_total.
func EventCounter() services.Observer {
	return services.ObserverFunc(func(e services.Event) {
		ledgerEvents.WithLabelValues(string(e.Kind)).Inc()
	})
}

// EventLogger returns an observer that writes one structured line per
// committed mutation.
func EventLogger() services.Observer {
	return services.ObserverFunc(func(e services.Event) {
		ev := log.Info().
			Str("event", string(e.Kind)).
			Str("address", e.Address).
			Time("at", e.At)
		if e.DayIndex > 0 {
			ev = ev.Int("day_index", e.DayIndex)
		}
		if e.DateKey != "" {
			ev = ev.Str("date_key", e.DateKey)
		}
		if e.MilestoneID > 0 {
			ev = ev.Int("milestone_id", e.MilestoneID)
		}
		if e.TxHash != "" {
			ev = ev.Str("tx_hash", e.TxHash)
		}
		ev.Msg("ledger event")
	})
}
