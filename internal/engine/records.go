package engine

import (
	"strings"

	"atelier/internal/domain"
)

const placeholderLocator = "#"

type MeasurementInput struct {
	Room   string
	Width  float64
	Height float64
	Depth  *float64
	Unit   domain.Unit
}

func (e Engine) AddMeasurement(p domain.Project, in MeasurementInput) (domain.Project, domain.Measurement, error) {
	room := strings.TrimSpace(in.Room)
	switch {
	case room == "":
		return p, domain.Measurement{}, invalid("room", "required")
	case in.Width <= 0:
		return p, domain.Measurement{}, invalid("width", "must be positive")
	case in.Height <= 0:
		return p, domain.Measurement{}, invalid("height", "must be positive")
	case in.Depth != nil && *in.Depth < 0:
		return p, domain.Measurement{}, invalid("depth", "must not be negative")
	}
	unit := in.Unit
	if unit == "" {
		unit = domain.UnitCM
	}
	if !unit.Valid() {
		return p, domain.Measurement{}, invalid("unit", "expected mm, cm or m")
	}
	var depth *float64
	if in.Depth != nil && *in.Depth > 0 {
		v := *in.Depth
		depth = &v
	}
	m := domain.Measurement{
		ID:     e.newID(),
		Room:   room,
		Width:  in.Width,
		Height: in.Height,
		Depth:  depth,
		Unit:   unit,
	}
	out := clone(p)
	out.Measurements = append(out.Measurements, m)
	return out, m, nil
}

func (e Engine) DeleteMeasurement(p domain.Project, id string) (domain.Project, error) {
	for i, m := range p.Measurements {
		if m.ID == id {
			out := clone(p)
			out.Measurements = append(out.Measurements[:i], out.Measurements[i+1:]...)
			return out, nil
		}
	}
	return p, notFound("measurement", id)
}

// AttachmentInput describes uploaded file metadata. The binary itself lives
// in an external blob store; Locator is its stable reference.
type AttachmentInput struct {
	Kind        domain.AttachmentKind
	Filename    string
	ContentType string
	Locator     string
}

func (e Engine) AddAttachment(p domain.Project, in AttachmentInput, uploaderID string) (domain.Project, domain.Attachment, error) {
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		return p, domain.Attachment{}, invalid("filename", "required")
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.AttachmentDesignPDF
		if strings.HasPrefix(in.ContentType, "image/") {
			kind = domain.AttachmentPhoto
		}
	}
	if !kind.Valid() {
		return p, domain.Attachment{}, invalid("kind", "unknown attachment kind "+string(kind))
	}
	locator := in.Locator
	if locator == "" {
		locator = placeholderLocator
	}
	a := domain.Attachment{
		ID:          e.newID(),
		Kind:        kind,
		Filename:    name,
		ContentType: in.ContentType,
		Locator:     locator,
		UploadedBy:  uploaderID,
		Date:        e.today(),
	}
	out := clone(p)
	out.Attachments = append(out.Attachments, a)
	return out, a, nil
}

func (e Engine) DeleteAttachment(p domain.Project, id string) (domain.Project, error) {
	for i, a := range p.Attachments {
		if a.ID == id {
			out := clone(p)
			out.Attachments = append(out.Attachments[:i], out.Attachments[i+1:]...)
			return out, nil
		}
	}
	return p, notFound("attachment", id)
}

// AttachmentsOf filters attachments by kind, keeping their order.
func AttachmentsOf(p domain.Project, kind domain.AttachmentKind) []domain.Attachment {
	var res []domain.Attachment
	for _, a := range p.Attachments {
		if a.Kind == kind {
			res = append(res, a)
		}
	}
	return res
}
