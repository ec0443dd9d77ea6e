package ateliersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Atelier HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, actorID string) *Client {
	return &Client{
		BaseURL: baseURL,
		ActorID: actorID,
		Timeout: 10 * time.Second,
	}
}

// WorkflowEvent is one status history entry.
type WorkflowEvent struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
	User    string `json:"user"`
	Comment string `json:"comment"`
}

// Task represents the API task model.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
	Progress int    `json:"progress"`
}

// Delivery holds the proposed and validated delivery dates.
type Delivery struct {
	ProposedDate   string `json:"proposed_date"`
	ValidatedDate  string `json:"validated_date"`
	ValidatedBy    string `json:"validated_by"`
	ClientNotified bool   `json:"client_notified"`
}

// Project represents the API project model (partial).
type Project struct {
	ID                string          `json:"id"`
	ClientName        string          `json:"client_name"`
	OrderNumber       string          `json:"order_number"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	EstimatedDeadline string          `json:"estimated_deadline"`
	Tasks             []Task          `json:"tasks"`
	History           []WorkflowEvent `json:"history"`
	Delivery          *Delivery       `json:"delivery"`
}

// ProjectView is a project with its derived fields.
type ProjectView struct {
	Project     Project `json:"project"`
	StatusLabel string  `json:"status_label"`
	Completion  int     `json:"completion"`
}

// Notice is one late or approaching project.
type Notice struct {
	Project  Project `json:"project"`
	Deadline string  `json:"deadline"`
	Days     int     `json:"days"`
}

type Notifications struct {
	Late        []Notice `json:"late"`
	Approaching []Notice `json:"approaching"`
	Count       int      `json:"count"`
}

// Event represents a journal entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Projects lists all projects.
func (c *Client) Projects(ctx context.Context) ([]ProjectView, error) {
	var resp []ProjectView
	err := c.do(ctx, http.MethodGet, "v0/projects", nil, &resp)
	return resp, err
}

// Project fetches one project.
func (c *Client) Project(ctx context.Context, id string) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodGet, c.projectPath(id, ""), nil, &resp)
	return resp, err
}

// ChangeStatus moves a project. A nil comment on a move to returned is
// answered with 409.
func (c *Client) ChangeStatus(ctx context.Context, id, status string, comment *string) (ProjectView, error) {
	body := map[string]any{"status": status}
	if comment != nil {
		body["comment"] = *comment
	}
	var resp ProjectView
	err := c.do(ctx, http.MethodPost, c.projectPath(id, "status"), body, &resp)
	return resp, err
}

// AddTask creates a task on a project.
func (c *Client) AddTask(ctx context.Context, id, title, assignee string) (Task, error) {
	body := map[string]any{"title": title}
	if assignee != "" {
		body["assignee"] = assignee
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, c.projectPath(id, "tasks"), body, &resp)
	return resp, err
}

// SetTaskProgress updates progress; the status is derived server-side.
func (c *Client) SetTaskProgress(ctx context.Context, id, taskID string, progress int) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, c.projectPath(id, "tasks/"+url.PathEscape(taskID)), map[string]any{"progress": progress}, &resp)
	return resp, err
}

// SetTaskStatus updates status; the progress is derived server-side.
func (c *Client) SetTaskStatus(ctx context.Context, id, taskID, status string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, c.projectPath(id, "tasks/"+url.PathEscape(taskID)), map[string]any{"status": status}, &resp)
	return resp, err
}

// ResolveCalendarDay proposes, validates or clears a delivery day.
func (c *Client) ResolveCalendarDay(ctx context.Context, id, date, intent string) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodPost, c.projectPath(id, "calendar"), map[string]any{"date": date, "intent": intent}, &resp)
	return resp, err
}

// Notifications returns late and approaching projects.
func (c *Client) Notifications(ctx context.Context) (Notifications, error) {
	var resp Notifications
	err := c.do(ctx, http.MethodGet, "v0/notifications", nil, &resp)
	return resp, err
}

// Events returns recent journal events, optionally for one project.
func (c *Client) Events(ctx context.Context, limit int, projectID string) ([]Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	endpoint := "v0/events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp struct {
		Items []Event `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-ID", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) projectPath(id, p string) string {
	base := fmt.Sprintf("v0/projects/%s", url.PathEscape(id))
	if p == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
