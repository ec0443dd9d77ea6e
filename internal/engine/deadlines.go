package engine

import (
	"sort"
	"time"

	"atelier/internal/domain"
)

// DefaultWindowDays is how far ahead a deadline counts as approaching.
const DefaultWindowDays = 3

type Level int

const (
	LevelNone Level = iota
	LevelApproaching
	LevelLate
)

func (l Level) String() string {
	switch l {
	case LevelLate:
		return "late"
	case LevelApproaching:
		return "approaching"
	default:
		return "none"
	}
}

// Notice is a classified project. Days is negative when late (days
// overdue) and 0..window when approaching.
type Notice struct {
	Project  domain.Project `json:"project"`
	Deadline string         `json:"deadline"`
	Days     int            `json:"days"`
}

type Classification struct {
	Late        []Notice `json:"late"`
	Approaching []Notice `json:"approaching"`
}

// Count is the sidebar badge number: late and approaching together.
func (c Classification) Count() int {
	return len(c.Late) + len(c.Approaching)
}

// ParseDate reads a calendar date. Full timestamps are accepted and
// truncated to their date part.
func ParseDate(s string) (time.Time, bool) {
	if len(s) >= len(dateLayout) {
		if d, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// civilDay drops the time of day and location, keeping the local calendar
// date so day arithmetic is immune to DST shifts.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Classify places a single project relative to today. windowDays <= 0
// falls back to DefaultWindowDays.
func Classify(p domain.Project, now time.Time, windowDays int) (Level, int) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if p.EstimatedDeadline == "" || !p.Status.Active() {
		return LevelNone, 0
	}
	deadline, ok := ParseDate(p.EstimatedDeadline)
	if !ok {
		return LevelNone, 0
	}
	today := civilDay(now)
	days := int(deadline.Sub(today) / (24 * time.Hour))
	switch {
	case days < 0:
		return LevelLate, days
	case days <= windowDays:
		return LevelApproaching, days
	default:
		return LevelNone, days
	}
}

// ClassifyDeadlines is the single classifier shared by the dashboard, the
// notification centre and the sidebar badge. Output order is by deadline
// then id, independent of input order.
func ClassifyDeadlines(projects []domain.Project, now time.Time, windowDays int) Classification {
	res := Classification{Late: []Notice{}, Approaching: []Notice{}}
	for _, p := range projects {
		level, days := Classify(p, now, windowDays)
		n := Notice{Project: p, Deadline: p.EstimatedDeadline, Days: days}
		switch level {
		case LevelLate:
			res.Late = append(res.Late, n)
		case LevelApproaching:
			res.Approaching = append(res.Approaching, n)
		}
	}
	sortNotices(res.Late)
	sortNotices(res.Approaching)
	return res
}

func sortNotices(ns []Notice) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Days != ns[j].Days {
			return ns[i].Days < ns[j].Days
		}
		return ns[i].Project.ID < ns[j].Project.ID
	})
}
