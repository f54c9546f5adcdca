// Package events provides the macro economic event calendar consumed by the
// snapshot builder and the event-driven strategies. Calendar contents are
// injected data, not module state: callers construct a Calendar from config
// or fall back to the built-in FOMC/CPI schedule.
package events

import (
	"sort"
	"time"
)

// Impact classifies how market-moving an event tends to be
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
)

// EconEvent is one scheduled macro event
type EconEvent struct {
	Name   string    `json:"name" yaml:"name"`
	Date   time.Time `json:"date" yaml:"date"`
	Impact Impact    `json:"impact" yaml:"impact"`
}

// Calendar is an immutable, date-sorted set of macro events
type Calendar struct {
	events []EconEvent
}

// NewCalendar builds a calendar from the given events
func NewCalendar(events []EconEvent) *Calendar {
	sorted := make([]EconEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &Calendar{events: sorted}
}

// Within returns events scheduled from the reference date up to and
// including lookahead days later
func (c *Calendar) Within(date time.Time, lookaheadDays int) []EconEvent {
	horizon := date.AddDate(0, 0, lookaheadDays)
	var out []EconEvent
	for _, ev := range c.events {
		if ev.Date.Before(date) {
			continue
		}
		if ev.Date.After(horizon) {
			break
		}
		out = append(out, ev)
	}
	return out
}

// Len returns the number of events in the calendar
func (c *Calendar) Len() int {
	return len(c.events)
}

// fomcDates are scheduled FOMC announcement days (second day of each meeting)
var fomcDates = []string{
	"2020-01-29", "2020-03-03", "2020-03-15", "2020-04-29", "2020-06-10", "2020-07-29", "2020-09-16", "2020-11-05", "2020-12-16",
	"2021-01-27", "2021-03-17", "2021-04-28", "2021-06-16", "2021-07-28", "2021-09-22", "2021-11-03", "2021-12-15",
	"2022-01-26", "2022-03-16", "2022-05-04", "2022-06-15", "2022-07-27", "2022-09-21", "2022-11-02", "2022-12-14",
	"2023-02-01", "2023-03-22", "2023-05-03", "2023-06-14", "2023-07-26", "2023-09-20", "2023-11-01", "2023-12-13",
	"2024-01-31", "2024-03-20", "2024-05-01", "2024-06-12", "2024-07-31", "2024-09-18", "2024-11-07", "2024-12-18",
	"2025-01-29", "2025-03-19", "2025-05-07", "2025-06-18", "2025-07-30", "2025-09-17", "2025-10-29", "2025-12-10",
}

// DefaultCalendar returns the built-in FOMC schedule plus an approximate
// monthly CPI release (second Tuesday) covering 2020 through 2025
func DefaultCalendar() *Calendar {
	var events []EconEvent

	for _, d := range fomcDates {
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		events = append(events, EconEvent{Name: "FOMC", Date: date.UTC(), Impact: ImpactHigh})
	}

	for year := 2020; year <= 2025; year++ {
		for month := time.January; month <= time.December; month++ {
			events = append(events, EconEvent{
				Name:   "CPI",
				Date:   nthWeekday(year, month, time.Tuesday, 2),
				Impact: ImpactHigh,
			})
		}
	}

	return NewCalendar(events)
}

// nthWeekday returns the nth given weekday of a month
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset+(n-1)*7)
}
