// Package services – ReportService
//
// This file assembles weekly and final reports from a user's logs: a short
// summary text, the latest entries and a per-day check-in histogram.
package services

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/alive28-ledger/internal/calendar"
	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/repo"
)

// Report ranges.
const (
	RangeWeek  = "week"
	RangeFinal = "final"
)

// recentLimit is the number of entries listed in a report.
const recentLimit = 6

// displayPolicy renders stored text for HTML pages. Stored text keeps the
// exact bytes that were hashed.
var displayPolicy = bluemonday.StrictPolicy()

// Report is the summary of a range of logs. RecentText holds the HTML-safe
// text of RecentLogs, in the same order.
type Report struct {
	Range      string                      `json:"range"`
	Title      string                      `json:"title"`
	ReportText string                      `json:"reportText"`
	From       string                      `json:"from,omitempty"`
	To         string                      `json:"to"`
	RecentLogs []domain.DailyLog           `json:"recentLogs"`
	RecentText []string                    `json:"recentText"`
	ChartByDay [calendar.ChallengeDays]int `json:"chartByDay"`
}

// ReportService builds reports.
type ReportService struct {
	Deps
	// TitleLocale drives title casing.
	TitleLocale language.Tag
}

// NewReportService wires a ReportService.
func NewReportService(d Deps) *ReportService {
	return &ReportService{Deps: d, TitleLocale: language.English}
}

// Report builds the week report (the 7 calendar days ending today) or the
// final report (every log).
func (s *ReportService) Report(ctx context.Context, address, rng string) (*Report, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if rng != RangeWeek && rng != RangeFinal {
		return nil, ErrInvalidRange
	}
	ctx, sp := otel.Tracer("services/ReportService").Start(ctx, "Report",
		trace.WithAttributes(
			attribute.String("user.address", addr),
			attribute.String("report.range", rng),
		),
	)
	defer sp.End()

	u, err := s.user(ctx, s.DB, addr)
	if err != nil {
		return nil, err
	}
	today, err := s.today(u)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Range: rng,
		Title: cases.Title(s.TitleLocale).String(rng + " report"),
		To:    today,
	}
	var logs []domain.DailyLog
	if rng == RangeWeek {
		if r.From, err = calendar.AddDays(today, -6); err != nil {
			return nil, err
		}
		logs, err = repo.ListLogsBetween(ctx, s.DB, addr, s.challenge(), r.From, today)
	} else {
		logs, err = repo.ListLogs(ctx, s.DB, addr, s.challenge())
	}
	if err != nil {
		return nil, storage(err)
	}

	minted := 0
	for _, l := range logs {
		if l.DayMinted() {
			minted++
		}
		if calendar.InRange(l.DayIndex) {
			r.ChartByDay[l.DayIndex-1]++
		}
	}

	r.RecentLogs = make([]domain.DailyLog, 0, recentLimit)
	r.RecentText = make([]string, 0, recentLimit)
	for i := len(logs) - 1; i >= 0 && len(r.RecentLogs) < recentLimit; i-- {
		r.RecentLogs = append(r.RecentLogs, logs[i])
		r.RecentText = append(r.RecentText, displayPolicy.Sanitize(logs[i].NormalizedText))
	}

	r.ReportText = reportText(rng, len(logs), minted, u.Streak)
	return r, nil
}

func reportText(rng string, total, minted, streak int) string {
	switch {
	case total == 0:
		return "No check-ins yet. Start on the daily page with a single sentence."
	case rng == RangeFinal:
		return fmt.Sprintf("You recorded %d days, minted %d day tokens and your current streak is %d. "+
			"To close the challenge, pick the one boundary you most want to keep, "+
			"write it as a fixed sentence and read it once a week.", total, minted, streak)
	default:
		return fmt.Sprintf("This week you recorded %d days and minted %d day tokens. "+
			"Your rhythm is one small step, then the next. "+
			"To keep going, save only the single most important sentence each day.", total, minted)
	}
}
