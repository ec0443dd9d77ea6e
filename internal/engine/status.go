package engine

import (
	"fmt"
	"strings"

	"atelier/internal/domain"
)

const (
	defaultStatusComment   = "Status changed from the actions panel"
	defaultReturnedComment = "Returned without specific observations"
	projectCreatedComment  = "Project created"
)

// StrictTransitions is the explicit lifecycle graph used when the engine
// runs in strict mode. In the default permissive mode any status may move
// to any other so operators can correct mistakes.
var StrictTransitions = map[domain.Status][]domain.Status{
	domain.StatusDraft:                 {domain.StatusPendingReview},
	domain.StatusPendingReview:         {domain.StatusValidatedBC, domain.StatusDraft},
	domain.StatusValidatedBC:           {domain.StatusEstimated},
	domain.StatusEstimated:             {domain.StatusSentToWorkshop},
	domain.StatusSentToWorkshop:        {domain.StatusInProduction},
	domain.StatusInProduction:          {domain.StatusQualityControl},
	domain.StatusQualityControl:        {domain.StatusFinished, domain.StatusReturned},
	domain.StatusFinished:              {domain.StatusDeliveryPlanned},
	domain.StatusDeliveryPlanned:       {domain.StatusDeliveryDateValidated},
	domain.StatusDeliveryDateValidated: {domain.StatusDelivered},
	domain.StatusDelivered:             {domain.StatusValidated, domain.StatusReturned},
	domain.StatusReturned:              {domain.StatusSentToWorkshop, domain.StatusInProduction},
}

func (e Engine) allowed(from, to domain.Status) bool {
	if !e.Strict {
		return true
	}
	for _, next := range StrictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ChangeStatus moves a project to a new status and appends exactly one
// history event. Moving to Returned needs a reason: a nil comment means the
// operator cancelled the prompt and the project comes back unchanged with
// ErrCancelled.
func (e Engine) ChangeStatus(p domain.Project, to domain.Status, actor string, comment *string) (domain.Project, error) {
	if !to.Valid() {
		return p, fmt.Errorf("%q: %w", to, ErrInvalidStatus)
	}
	text := strings.TrimSpace(optionalString(comment))
	if to == domain.StatusReturned {
		if comment == nil {
			return p, ErrCancelled
		}
		if text == "" {
			text = defaultReturnedComment
		}
	} else if text == "" {
		text = defaultStatusComment
	}
	if !e.allowed(p.Status, to) {
		return p, fmt.Errorf("%s -> %s: %w", p.Status, to, ErrTransition)
	}
	if strings.TrimSpace(actor) == "" {
		actor = "unknown"
	}
	out := clone(p)
	out.History = append(out.History, domain.WorkflowEvent{
		ID:      e.newID(),
		From:    p.Status,
		To:      to,
		Date:    e.stamp(),
		User:    actor,
		Comment: text,
	})
	out.Status = to
	return out, nil
}

// ProjectInput carries the client-facing fields of a new project.
type ProjectInput struct {
	ID                string
	ClientName        string
	OrderNumber       string
	Phone             string
	Address           string
	GPS               *domain.GPS
	Type              string
	EstimatedDeadline string
	Notes             string
}

// NewProject builds a Draft project with its synthetic creation event.
func (e Engine) NewProject(in ProjectInput, creator domain.User) (domain.Project, error) {
	if strings.TrimSpace(in.ClientName) == "" {
		return domain.Project{}, invalid("client_name", "required")
	}
	if in.EstimatedDeadline != "" {
		if _, ok := ParseDate(in.EstimatedDeadline); !ok {
			return domain.Project{}, invalid("estimated_deadline", "expected YYYY-MM-DD")
		}
	}
	id := in.ID
	if id == "" {
		id = e.newID()
	}
	kind := in.Type
	if kind == "" {
		kind = "Other"
	}
	actor := creator.Name
	if actor == "" {
		actor = "unknown"
	}
	return domain.Project{
		ID:                id,
		ClientName:        in.ClientName,
		OrderNumber:       in.OrderNumber,
		Phone:             in.Phone,
		Address:           in.Address,
		GPS:               in.GPS,
		Type:              kind,
		ResponsibleID:     creator.ID,
		Status:            domain.StatusDraft,
		CreatedAt:         e.today(),
		EstimatedDeadline: in.EstimatedDeadline,
		Notes:             in.Notes,
		Measurements:      []domain.Measurement{},
		Attachments:       []domain.Attachment{},
		Tasks:             []domain.Task{},
		History: []domain.WorkflowEvent{{
			ID:      e.newID(),
			From:    domain.StatusDraft,
			To:      domain.StatusDraft,
			Date:    e.stamp(),
			User:    actor,
			Comment: projectCreatedComment,
		}},
	}, nil
}
