// Package reflection produces the short feedback pair (note, next step)
// attached to each check-in. The ledger treats the result as opaque text.
//
// A Generator may be remote and slow; callers should wrap it with
// WithFallback so that a failure never blocks or fails a check-in.
package reflection

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/tasks"
)

// Output limits, in runes.
const (
	MaxNoteRunes = 300
	MaxNextRunes = 40
)

// Generator turns a day's task and the normalized check-in text into a
// Reflection.
type Generator interface {
	Generate(ctx context.Context, task tasks.Task, normalized string) (domain.Reflection, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, task tasks.Task, normalized string) (domain.Reflection, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, task tasks.Task, normalized string) (domain.Reflection, error) {
	return f(ctx, task, normalized)
}

type fallback struct {
	primary Generator
	backup  Generator
	timeout time.Duration
}

// WithFallback bounds primary by timeout and degrades to backup on any
// error or deadline. Failures are logged and never returned unless the
// backup itself fails. A nil primary yields backup directly.
func WithFallback(primary, backup Generator, timeout time.Duration) Generator {
	if primary == nil {
		return backup
	}
	return &fallback{primary: primary, backup: backup, timeout: timeout}
}

func (f *fallback) Generate(ctx context.Context, task tasks.Task, normalized string) (domain.Reflection, error) {
	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	r, err := f.primary.Generate(callCtx, task, normalized)
	if err == nil {
		r = Clip(r)
		if r.Note != "" && r.Next != "" {
			return r, nil
		}
		err = errEmptyReflection
	}

	log.Warn().
		Err(err).
		Int("day_index", task.DayIndex).
		Msg("reflection generator failed, using fallback")

	return f.backup.Generate(ctx, task, normalized)
}

// Clip truncates note and next to their rune limits.
func Clip(r domain.Reflection) domain.Reflection {
	r.Note = truncateRunes(r.Note, MaxNoteRunes)
	r.Next = truncateRunes(r.Next, MaxNextRunes)
	return r
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n])
}
