// Package calendar implements date-key arithmetic for the 28-day challenge.
//
// A date key is a canonical "YYYY-MM-DD" string describing a calendar date in
// a user's timezone. All arithmetic in this package works on calendar fields
// (year, month, day) converted to a proleptic-Gregorian day number, so
// daylight-saving transitions, which make some wall-clock days 23 or 25 hours
// long, cannot shift a result by one.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ChallengeDays is the length of the program in calendar days.
const ChallengeDays = 28

var (
	// ErrInvalidDateKey is returned when a string is not a valid YYYY-MM-DD date.
	ErrInvalidDateKey = errors.New("invalid date key")

	// ErrInvalidTimezone is returned when a timezone name cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Date is a calendar date without any time-of-day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String formats d as a date key.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Parse validates key and splits it into calendar fields.
func Parse(key string) (Date, error) {
	if len(key) != 10 || key[4] != '-' || key[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	y, ok1 := digits(key[0:4])
	m, ok2 := digits(key[5:7])
	d, ok3 := digits(key[8:10])
	if !ok1 || !ok2 || !ok3 || m < 1 || m > 12 || d < 1 || d > daysIn(y, time.Month(m)) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, nil
}

// Today returns the date key for now as observed in the named timezone.
func Today(tz string, now time.Time) (string, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return "", err
	}
	y, m, d := now.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}.String(), nil
}

// LoadLocation resolves an IANA zone name. The empty string and "Local" are
// rejected so a key never depends on the host's zone.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" || tz == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return loc, nil
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b string) (int, error) {
	da, err := Parse(a)
	if err != nil {
		return 0, err
	}
	db, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return dayNumber(db) - dayNumber(da), nil
}

// DayIndex returns the 1-based position of key within a challenge that began
// on start. The result is not clamped: a key before start yields a value <= 0
// and a key past the program yields a value > ChallengeDays.
func DayIndex(start, key string) (int, error) {
	n, err := DaysBetween(start, key)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// PeekDayIndex is DayIndex for a possibly-unset start date. An unset start
// means the challenge would begin on key, so the index is 1.
func PeekDayIndex(start *string, key string) (int, error) {
	if start == nil || *start == "" {
		if _, err := Parse(key); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return DayIndex(*start, key)
}

// AddDays returns the date key n calendar days after key (n may be negative).
func AddDays(key string, n int) (string, error) {
	d, err := Parse(key)
	if err != nil {
		return "", err
	}
	return fromDayNumber(dayNumber(d) + n).String(), nil
}

// Next returns the date key immediately following key.
func Next(key string) (string, error) { return AddDays(key, 1) }

// Clamp bounds a day index into 1..ChallengeDays for display.
func Clamp(idx int) int {
	if idx < 1 {
		return 1
	}
	if idx > ChallengeDays {
		return ChallengeDays
	}
	return idx
}

// InRange reports whether idx is a valid challenge day.
func InRange(idx int) bool { return idx >= 1 && idx <= ChallengeDays }

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func isLeap(y int) bool { return y%4 == 0 && (y%100 != 0 || y%400 == 0) }

func daysIn(y int, m time.Month) int {
	switch m {
	case time.February:
		if isLeap(y) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// dayNumber maps a civil date to days since 1970-01-01 (Hinnant's algorithm).
func dayNumber(d Date) int {
	y := d.Year
	m := int(d.Month)
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d.Day - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func fromDayNumber(z int) Date {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return Date{Year: y, Month: time.Month(m), Day: d}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
