package engine

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"atelier/internal/domain"
)

const (
	historyTimeLayout = "2006-01-02 15:04"
	dateLayout        = "2006-01-02"
)

// Engine applies the workshop's lifecycle rules to projects. Every
// operation is a pure transform: it takes a project value and returns a
// new one, leaving the input untouched. Persisting the result is the
// caller's job.
type Engine struct {
	Now   func() time.Time
	NewID func() string
	// Strict enables the explicit transition table for status changes.
	Strict bool
}

func New() Engine {
	return Engine{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Engine) stamp() string {
	return e.now().Format(historyTimeLayout)
}

func (e Engine) today() string {
	return e.now().Format(dateLayout)
}

// clone copies every slice and pointer of a project so the returned value
// can be mutated without aliasing the input.
func clone(p domain.Project) domain.Project {
	out := p
	if p.GPS != nil {
		gps := *p.GPS
		out.GPS = &gps
	}
	if p.Delivery != nil {
		d := *p.Delivery
		out.Delivery = &d
	}
	out.Measurements = slices.Clone(p.Measurements)
	for i := range out.Measurements {
		if out.Measurements[i].Depth != nil {
			depth := *out.Measurements[i].Depth
			out.Measurements[i].Depth = &depth
		}
	}
	out.Attachments = slices.Clone(p.Attachments)
	out.Tasks = slices.Clone(p.Tasks)
	out.History = slices.Clone(p.History)
	return out
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
