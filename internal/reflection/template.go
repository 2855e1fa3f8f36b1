package reflection

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/tasks"
)

// shortTextRunes is the length below which the note encourages the user to
// keep going rather than acknowledging a full entry.
const shortTextRunes = 8

// moods are checked in order; the first keyword found sets the opening line.
var moods = []struct {
	keyword string
	line    string
}{
	{"tired", "Feeling tired is normal."},
	{"annoyed", "Today really was annoying."},
	{"anxious", "Anxiety showing up is common."},
	{"afraid", "When you are afraid, hold on to what you can control."},
	{"happy", "A moment of happiness is precious."},
	{"sad", "Being sad is nothing to be ashamed of."},
}

const defaultMood = "You wrote it down today."

// Template is the deterministic local Generator. It never fails and is the
// fallback for remote generators.
type Template struct{}

// Generate picks a mood line by keyword and a next step by task and text.
func (Template) Generate(_ context.Context, task tasks.Task, normalized string) (domain.Reflection, error) {
	low := strings.ToLower(normalized)

	mood := defaultMood
	for _, m := range moods {
		if strings.Contains(low, m.keyword) {
			mood = m.line
			break
		}
	}

	var note string
	if utf8.RuneCountInString(normalized) < shortTextRunes {
		note = mood + " Leaving even one sentence today matters. Do not ask yourself for a complete entry; " +
			"start with the single truest line. Stopping to write is already a way of looking after yourself."
	} else {
		note = mood + " You are taking the day back into your own hands, and that honesty is valuable. " +
			"Let yourself be seen first, then sort things out slowly. You are already moving forward."
	}

	var next string
	switch {
	case task.DayIndex == 6:
		next = "Fill in: I feel __ because __. Breathe."
	case strings.Contains(low, "procrastinat") || strings.Contains(low, "didn't do"):
		next = "Set a 2-minute timer; do one tiny step."
	case strings.Contains(low, "think") && utf8.RuneCountInString(normalized) > 20:
		next = "Cut one line; keep the one that matters."
	default:
		next = "Write: what I care about most is __."
	}

	return Clip(domain.Reflection{Note: note, Next: next}), nil
}
