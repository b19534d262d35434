// Package timeutil parses loose user date strings and renders instants in
// the service's single fixed timezone.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// DateLayout is the canonical form of task deadlines
	DateLayout = "2006-01-02"
	// DateTimeLayout is the canonical form of reminder fire times
	DateTimeLayout = "2006-01-02 15:04:05"
	// DefaultZone is used when no timezone is configured
	DefaultZone = "Europe/Brussels"
)

var (
	timeOnlyPattern     = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	meridiemPattern     = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?$`)
	dayFirstDashPattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})\b`)

	errTimeOutOfRange = errors.New("time of day out of range")
)

// monthNames maps lower-case month names and abbreviations to the
// capitalised form dateparse recognises.
var monthNames = func() map[string]string {
	m := make(map[string]string, 24)
	for month := time.January; month <= time.December; month++ {
		name := month.String()
		m[strings.ToLower(name)] = name
		m[strings.ToLower(name[:3])] = name[:3]
	}
	return m
}()

var weekdays = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 14)
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		m[name] = day
		m[name[:3]] = day
	}
	return m
}()

// ParseError reports text that could not be read as a point in time.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Was unable to parse the string `%s` as a time. To be sure, format times as `yyyy-mm-dd hh:mm`, but most English-language strings should be fine.", e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Clock pins every parse and format to one location and supplies "now".
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock for loc backed by the system clock.
func New(loc *time.Location) *Clock {
	return NewWithNow(loc, time.Now)
}

// NewWithNow returns a Clock whose notion of the current instant is now.
func NewWithNow(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: now}
}

// Load returns a Clock for the named IANA zone.
func Load(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return New(loc), nil
}

// Location returns the fixed zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the zone at second precision.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc).Truncate(time.Second)
}

// Parse reads a loose date or date-time string. Ambiguous numeric dates are
// read day-first, naive values are taken to be in the zone and values with
// an offset are converted into it. A bare time of day means today and a
// weekday name means its next occurrence, today included.
func (c *Clock) Parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, &ParseError{Text: text}
	}

	if tod, ok, err := readTimeOfDay(s); ok {
		if err != nil {
			return time.Time{}, &ParseError{Text: text, Err: err}
		}
		return c.at(c.Now(), tod), nil
	}
	if t, ok, err := c.parseWeekday(s); ok {
		if err != nil {
			return time.Time{}, &ParseError{Text: text, Err: err}
		}
		return t, nil
	}

	s = dayFirstDashPattern.ReplaceAllString(s, "$1/$2/$3")
	s = capitaliseMonths(s)
	t, err := dateparse.ParseIn(s, c.loc, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, &ParseError{Text: text, Err: err}
	}
	return t.In(c.loc), nil
}

type timeOfDay struct {
	hour, minute, second int
}

// readTimeOfDay matches a 24-hour clock time or an am/pm one. The bool
// reports whether s looked like a time at all.
func readTimeOfDay(s string) (timeOfDay, bool, error) {
	if m := timeOnlyPattern.FindStringSubmatch(s); m != nil {
		tod := timeOfDay{hour: number(m[1]), minute: number(m[2]), second: number(m[3])}
		if tod.hour > 23 || tod.minute > 59 || tod.second > 59 {
			return timeOfDay{}, true, errTimeOutOfRange
		}
		return tod, true, nil
	}
	if m := meridiemPattern.FindStringSubmatch(s); m != nil {
		hour, minute := number(m[1]), number(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return timeOfDay{}, true, errTimeOutOfRange
		}
		hour %= 12
		if strings.EqualFold(m[3], "p") {
			hour += 12
		}
		return timeOfDay{hour: hour, minute: minute}, true, nil
	}
	return timeOfDay{}, false, nil
}

// parseWeekday reads "friday", "fri 9:30" or "friday at 3pm". Anything
// else after the weekday is left to dateparse.
func (c *Clock) parseWeekday(s string) (time.Time, bool, error) {
	word, rest, _ := strings.Cut(strings.ToLower(s), " ")
	day, ok := weekdays[word]
	if !ok {
		return time.Time{}, false, nil
	}

	var tod timeOfDay
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "at "))
	if rest != "" {
		t, matched, err := readTimeOfDay(rest)
		if !matched {
			return time.Time{}, false, nil
		}
		if err != nil {
			return time.Time{}, true, err
		}
		tod = t
	}

	today := c.Now()
	ahead := (int(day) - int(today.Weekday()) + 7) % 7
	return c.at(today.AddDate(0, 0, ahead), tod), true, nil
}

func (c *Clock) at(day time.Time, tod timeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.hour, tod.minute, tod.second, 0, c.loc)
}

func capitaliseMonths(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		bare := strings.TrimRight(w, ",.")
		if name, ok := monthNames[strings.ToLower(bare)]; ok {
			words[i] = name + w[len(bare):]
		}
	}
	return strings.Join(words, " ")
}

// number reads a regexp group already known to be digits; empty is zero.
func number(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ParseCanonical strictly reads a stored DateTimeLayout value.
func (c *Clock) ParseCanonical(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, c.loc)
	if err != nil {
		return time.Time{}, &ParseError{Text: s, Err: err}
	}
	return t, nil
}

// Format renders t in the zone.
func (c *Clock) Format(t time.Time, layout string) string {
	return t.In(c.loc).Format(layout)
}

// FormatDate renders t as a yyyy-mm-dd date.
func (c *Clock) FormatDate(t time.Time) string {
	return c.Format(t, DateLayout)
}

// FormatDateTime renders t as a yyyy-mm-dd HH:MM:SS date-time.
func (c *Clock) FormatDateTime(t time.Time) string {
	return c.Format(t, DateTimeLayout)
}

// EpochSeconds parses text and returns it as Unix seconds.
func (c *Clock) EpochSeconds(text string) (int64, error) {
	t, err := c.Parse(text)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
