package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/lock"
	"github.com/tbourn/alive28-ledger/internal/proof"
	"github.com/tbourn/alive28-ledger/internal/repo"
)

// Deps carries the collaborators and settings shared by every service.
type Deps struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Locker serializes mutations per address. Nil means a process-local lock.
	Locker lock.Locker
	// Bus receives committed mutations. May be nil.
	Bus *Bus
	// Now is the clock; nil means time.Now.
	Now func() time.Time

	ChallengeID     int
	DefaultTimezone string
	// SimulateTx derives a transaction hash when the caller supplies none.
	SimulateTx bool
}

// NewDeps returns Deps with a local locker, challenge 1 and tx simulation on.
func NewDeps(db *gorm.DB, defaultTZ string) Deps {
	return Deps{
		DB:              db,
		Locker:          lock.NewLocal(),
		Bus:             NewBus(),
		ChallengeID:     1,
		DefaultTimezone: defaultTZ,
		SimulateTx:      true,
	}
}

// processLocker backs services built without an explicit Locker.
var processLocker = lock.NewLocal()

var addressRE = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NormalizeAddress lower-cases and validates a wallet address.
func NormalizeAddress(s string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(s))
	if !addressRE.MatchString(a) {
		return "", ErrInvalidAddress
	}
	return a, nil
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) challenge() int {
	if d.ChallengeID <= 0 {
		return 1
	}
	return d.ChallengeID
}

// lockAddress acquires the per-address lock. Lock failures other than
// cancellation are storage failures.
func (d *Deps) lockAddress(ctx context.Context, addr string) (func(), error) {
	l := d.Locker
	if l == nil {
		l = processLocker
	}
	unlock, err := l.Lock(ctx, addr)
	if err != nil {
		return nil, storage(err)
	}
	return unlock, nil
}

// user loads (creating lazily) the aggregate for addr.
func (d *Deps) user(ctx context.Context, db *gorm.DB, addr string) (*domain.User, error) {
	u, err := repo.GetOrCreateUser(ctx, db, addr, d.DefaultTimezone, d.challenge())
	if err != nil {
		return nil, storage(err)
	}
	return u, nil
}

// today resolves the user's current date key.
func (d *Deps) today(u *domain.User) (string, error) {
	return calendar.Today(u.Timezone, d.now())
}

// todayLog returns the log for the user's current date key, or nil.
func (d *Deps) todayLog(ctx context.Context, db *gorm.DB, u *domain.User) (string, *domain.DailyLog, error) {
	dk, err := d.today(u)
	if err != nil {
		return "", nil, err
	}
	l, err := repo.FindLogByDate(ctx, db, u.Address, d.challenge(), dk)
	if errors.Is(err, repo.ErrNotFound) {
		return dk, nil, nil
	}
	if err != nil {
		return "", nil, storage(err)
	}
	return dk, l, nil
}

// txHash returns given when set, otherwise a simulated hash derived from
// seed if simulation is enabled.
func (d *Deps) txHash(given, seed string) (string, error) {
	if h := strings.TrimSpace(given); h != "" {
		return h, nil
	}
	if !d.SimulateTx {
		return "", ErrMissingTxHash
	}
	return proof.SimulatedTxHash(fmt.Sprintf("%s:%d", seed, d.now().UnixNano())), nil
}

func (d *Deps) publish(e Event) {
	if e.At.IsZero() {
		e.At = d.now().UTC()
	}
	d.Bus.Publish(e)
}
