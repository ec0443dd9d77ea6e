package engine

import (
	"fmt"
	"time"

	"atelier/internal/domain"
)

type Intent string

const (
	IntentPropose  Intent = "propose"
	IntentValidate Intent = "validate"
	IntentClear    Intent = "clear"
)

type Mark string

const (
	MarkNone      Mark = "none"
	MarkProposed  Mark = "proposed"
	MarkValidated Mark = "validated"
)

type DayCell struct {
	Day  int    `json:"day"`
	Date string `json:"date" format:"date"`
	Mark Mark   `json:"mark" enum:"none,proposed,validated"`
}

// MonthGrid is a Monday-first month view of a project's delivery dates.
type MonthGrid struct {
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Days          int       `json:"days"`
	LeadingBlanks int       `json:"leading_blanks"`
	Cells         []DayCell `json:"cells"`
}

// BuildMonthGrid lays out a month with Monday as the first column
// (Monday=0 ... Sunday=6) and marks the delivery dates. A validated date
// wins over a proposed one on the same day.
func BuildMonthGrid(year int, month time.Month, d *domain.Delivery) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	g := MonthGrid{
		Year:          year,
		Month:         int(month),
		Days:          days,
		LeadingBlanks: (int(first.Weekday()) + 6) % 7,
		Cells:         make([]DayCell, 0, days),
	}
	for day := 1; day <= days; day++ {
		date := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
		mark := MarkNone
		if d != nil {
			switch date {
			case d.ValidatedDate:
				mark = MarkValidated
			case d.ProposedDate:
				mark = MarkProposed
			}
		}
		g.Cells = append(g.Cells, DayCell{Day: day, Date: date, Mark: mark})
	}
	return g
}

// LocalDate serializes a clicked day from its own calendar fields. It never
// converts to UTC first, which would shift the day for zones east of UTC.
func LocalDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ResolveCalendarDay turns a click on a calendar day into a delivery
// change. The existing delivery is merged, never replaced, and
// ClientNotified is left alone.
func (e Engine) ResolveCalendarDay(p domain.Project, day time.Time, intent Intent, actor string) (domain.Project, error) {
	date := LocalDate(day)
	switch intent {
	case IntentPropose:
		out := clone(p)
		if out.Delivery == nil {
			out.Delivery = &domain.Delivery{}
		}
		out.Delivery.ProposedDate = date
		return out, nil
	case IntentValidate:
		out := clone(p)
		if out.Delivery == nil {
			out.Delivery = &domain.Delivery{}
		}
		out.Delivery.ValidatedDate = date
		out.Delivery.ValidatedBy = actor
		return out, nil
	case IntentClear:
		if p.Delivery == nil || (p.Delivery.ProposedDate != date && p.Delivery.ValidatedDate != date) {
			return p, nil
		}
		out := clone(p)
		if out.Delivery.ProposedDate == date {
			out.Delivery.ProposedDate = ""
		}
		if out.Delivery.ValidatedDate == date {
			out.Delivery.ValidatedDate = ""
		}
		return out, nil
	default:
		return p, invalid("intent", fmt.Sprintf("unknown calendar intent %q", intent))
	}
}

// NotifyClient records that the client was told about the delivery date.
func (e Engine) NotifyClient(p domain.Project) (domain.Project, error) {
	if p.Delivery == nil || (p.Delivery.ProposedDate == "" && p.Delivery.ValidatedDate == "") {
		return p, invalid("delivery", "no delivery date to notify")
	}
	out := clone(p)
	out.Delivery.ClientNotified = true
	return out, nil
}
