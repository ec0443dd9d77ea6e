package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"atelier/internal/app"
	"atelier/internal/config"
	"atelier/internal/domain"
	"atelier/internal/engine"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	svc, err := app.Open(context.Background(), workspace, config.Default(), nil)
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	svc.Engine.Now = func() time.Time { return time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC) }
	handler, err := New(Config{Service: svc, BasePath: "/v0"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			svc.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func as(actorID string) map[string]string {
	return map[string]string{ActorHeader: actorID}
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, data)
	}
	return env.Error.Code
}

func TestHealthAndLogin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/login", map[string]any{"email": "karim@menuiserie.ma"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, data)
	}
	var me MeResponse
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.User.ID != "u4" || me.User.Password != "" || len(me.Affordances) == 0 {
		t.Fatalf("unexpected login response %+v", me)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, as("u9"))
	if res.StatusCode != http.StatusUnauthorized || errorCode(t, data) != "unknown_actor" {
		t.Fatalf("expected unknown actor, got %d: %s", res.StatusCode, data)
	}
}

func TestProjectLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{
		"client_name":        "Salma Idrissi",
		"type":               "Cuisine",
		"estimated_deadline": "2025-12-17",
	}, as("u2"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, data)
	}
	var created ProjectResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	id := created.Project.ID
	if created.Project.Status != domain.StatusDraft || len(created.Project.History) != 1 {
		t.Fatalf("unexpected project %+v", created.Project)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+id+"/status", map[string]any{
		"status": "En attente contrôle BC",
	}, as("u2"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status change %d: %s", res.StatusCode, data)
	}
	var moved ProjectResponse
	if err := json.Unmarshal(data, &moved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	last := moved.Project.History[len(moved.Project.History)-1]
	if moved.Project.Status != domain.StatusPendingReview || last.Comment != "Status changed from the actions panel" || last.Date != "2025-12-15 10:00" {
		t.Fatalf("unexpected history %+v", last)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+id+"/status", map[string]any{
		"status": "returned",
	}, as("u2"))
	if res.StatusCode != http.StatusConflict || errorCode(t, data) != "cancelled" {
		t.Fatalf("expected cancelled, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/"+id+"/status", map[string]any{
		"status": "archived",
	}, as("u2"))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/notifications", nil, as("u2"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("notifications %d: %s", res.StatusCode, data)
	}
	var notes NotificationsResponse
	if err := json.Unmarshal(data, &notes); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	found := false
	for _, n := range notes.Approaching {
		if n.Project.ID == id && n.Days == 2 {
			found = true
		}
	}
	if !found || notes.Count != len(notes.Late)+len(notes.Approaching) {
		t.Fatalf("new project missing from approaching: %+v", notes)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/nope", nil, as("u2"))
	if res.StatusCode != http.StatusNotFound || errorCode(t, data) != "not_found" {
		t.Fatalf("expected not found, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/events?project_id="+id, nil, as("u2"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events %d: %s", res.StatusCode, data)
	}
	var evts paginatedEvents
	if err := json.Unmarshal(data, &evts); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(evts.Items) != 2 || evts.Items[0].Type != "project.status_changed" {
		t.Fatalf("unexpected events %+v", evts.Items)
	}
}

func TestTasksAndAffordances(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p1/tasks", map[string]any{"title": "Pose"}, as("u2"))
	if res.StatusCode != http.StatusForbidden || errorCode(t, data) != "forbidden" {
		t.Fatalf("commercial should not edit tasks, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/projects/p1/tasks/t1", map[string]any{"progress": 100}, as("u3"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update task %d: %s", res.StatusCode, data)
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Status != domain.TaskDone || task.Progress != 100 {
		t.Fatalf("unexpected task %+v", task)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/projects/p1/tasks/t9", map[string]any{"status": "done"}, as("u3"))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/projects/p1/tasks/t1", map[string]any{"progress": 20, "status": "blocked"}, as("u3"))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for two fields, got %d: %s", res.StatusCode, data)
	}
}

func TestMeasurementsAndAttachments(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p3/measurements", map[string]any{
		"room": "Bureau", "width": 180, "height": 75,
	}, as("u3"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("atelier should not edit measurements, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p3/measurements", map[string]any{
		"room": "Bureau", "width": 0, "height": 75,
	}, as("u2"))
	if res.StatusCode != http.StatusBadRequest || errorCode(t, data) != "validation_failed" {
		t.Fatalf("expected validation error, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p3/measurements", map[string]any{
		"room": "Bureau", "width": 180, "height": 75,
	}, as("u2"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add measurement %d: %s", res.StatusCode, data)
	}
	var m domain.Measurement
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v0/projects/p3/measurements/"+m.ID, nil, as("u2"))
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete measurement %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p2/attachments", map[string]any{
		"kind": "delivery_proof", "filename": "bon_livraison.jpg", "content_type": "image/jpeg",
	}, as("u4"))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("delivery proof %d: %s", res.StatusCode, data)
	}
	var a domain.Attachment
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Kind != domain.AttachmentDeliveryProof || a.UploadedBy != "u4" || a.Locator != "#" {
		t.Fatalf("unexpected attachment %+v", a)
	}
}

func TestCalendar(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p1/calendar", map[string]any{
		"date": "2025-12-22", "intent": "validate",
	}, as("u4"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("livraison cannot validate, got %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p1/calendar", map[string]any{
		"date": "2025-12-22", "intent": "validate",
	}, as("u2"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("validate %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/p1/calendar?year=2025&month=12", nil, as("u4"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("calendar %d: %s", res.StatusCode, data)
	}
	var grid engine.MonthGrid
	if err := json.Unmarshal(data, &grid); err != nil {
		t.Fatalf("unmarshal grid: %v", err)
	}
	if grid.LeadingBlanks != 0 || grid.Cells[21].Mark != engine.MarkValidated || grid.Cells[19].Mark != engine.MarkProposed {
		t.Fatalf("unexpected grid %+v", grid)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/p1/calendar", map[string]any{
		"date": "22/12/2025", "intent": "clear",
	}, as("u2"))
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad date, got %d: %s", res.StatusCode, data)
	}
}

func TestViewsAndStock(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/workshop", nil, as("u3"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("workshop %d: %s", res.StatusCode, data)
	}
	var lanes []engine.Lane
	if err := json.Unmarshal(data, &lanes); err != nil {
		t.Fatalf("unmarshal lanes: %v", err)
	}
	if len(lanes) != 5 {
		t.Fatalf("expected 5 lanes, got %d", len(lanes))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/stock?low=true", nil, as("u3"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("stock %d: %s", res.StatusCode, data)
	}
	var items []domain.StockItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal stock: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 low items, got %d", len(items))
	}

	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/stock/s2", map[string]any{"quantity": 12}, as("u4"))
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("livraison cannot edit stock, got %d: %s", res.StatusCode, data)
	}
	res, data = doJSON(t, client, http.MethodPatch, srv.URL+"/v0/stock/s2", map[string]any{"quantity": 12}, as("u3"))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("adjust stock %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/dashboard", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dashboard %d: %s", res.StatusCode, data)
	}
	var d engine.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if d.Total != 4 || d.Late != 1 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
}
