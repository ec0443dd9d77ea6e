package server

import (
	"atelier/internal/domain"
	"atelier/internal/engine"
)

// Request payloads

type LoginRequest struct {
	Email string `json:"email"`
}

type CreateProjectRequest struct {
	ID                string      `json:"id,omitempty"`
	ClientName        string      `json:"client_name"`
	OrderNumber       string      `json:"order_number,omitempty"`
	Phone             string      `json:"phone,omitempty"`
	Address           string      `json:"address,omitempty"`
	GPS               *domain.GPS `json:"gps,omitempty"`
	Type              string      `json:"type,omitempty"`
	EstimatedDeadline string      `json:"estimated_deadline,omitempty" format:"date"`
	Notes             string      `json:"notes,omitempty"`
}

// ChangeStatusRequest moves a project. Status accepts the tag or the
// display label. Omitting comment on a move to returned cancels it.
type ChangeStatusRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment,omitempty"`
}

type CreateTaskRequest struct {
	Title    string `json:"title"`
	Assignee string `json:"assignee,omitempty"`
}

// UpdateTaskRequest carries exactly one of progress or status.
type UpdateTaskRequest struct {
	Progress *int    `json:"progress,omitempty" minimum:"0" maximum:"100"`
	Status   *string `json:"status,omitempty" enum:"todo,in_progress,blocked,done"`
}

type MeasurementRequest struct {
	Room   string   `json:"room"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Depth  *float64 `json:"depth,omitempty"`
	Unit   string   `json:"unit,omitempty" enum:"mm,cm,m"`
}

type AttachmentRequest struct {
	Kind        string `json:"kind,omitempty" enum:"photo,design_pdf,delivery_proof,note_attachment,other"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Locator     string `json:"locator,omitempty"`
}

type CalendarRequest struct {
	Date   string `json:"date" format:"date"`
	Intent string `json:"intent" enum:"propose,validate,clear"`
}

type StockAdjustRequest struct {
	Quantity float64 `json:"quantity"`
}

// Responses

type MeResponse struct {
	User        domain.User `json:"user"`
	Affordances []string    `json:"affordances"`
}

type ProjectResponse struct {
	Project     domain.Project `json:"project"`
	StatusLabel string         `json:"status_label"`
	Completion  int            `json:"completion"`
}

type NotificationsResponse struct {
	Late        []engine.Notice `json:"late"`
	Approaching []engine.Notice `json:"approaching"`
	Count       int             `json:"count"`
}

type paginatedEvents struct {
	Items []domain.Event `json:"items"`
}

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{
		Project:     p,
		StatusLabel: p.Status.Label(),
		Completion:  engine.Completion(p),
	}
}

func mapProjects(items []domain.Project) []ProjectResponse {
	res := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		res = append(res, projectResponse(p))
	}
	return res
}

func (r CreateProjectRequest) input() engine.ProjectInput {
	return engine.ProjectInput{
		ID:                r.ID,
		ClientName:        r.ClientName,
		OrderNumber:       r.OrderNumber,
		Phone:             r.Phone,
		Address:           r.Address,
		GPS:               r.GPS,
		Type:              r.Type,
		EstimatedDeadline: r.EstimatedDeadline,
		Notes:             r.Notes,
	}
}

func (r UpdateTaskRequest) update() engine.TaskUpdate {
	upd := engine.TaskUpdate{Progress: r.Progress}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		upd.Status = &s
	}
	return upd
}

func (r MeasurementRequest) input() engine.MeasurementInput {
	return engine.MeasurementInput{
		Room:   r.Room,
		Width:  r.Width,
		Height: r.Height,
		Depth:  r.Depth,
		Unit:   domain.Unit(r.Unit),
	}
}

func (r AttachmentRequest) input() engine.AttachmentInput {
	return engine.AttachmentInput{
		Kind:        domain.AttachmentKind(r.Kind),
		Filename:    r.Filename,
		ContentType: r.ContentType,
		Locator:     r.Locator,
	}
}
