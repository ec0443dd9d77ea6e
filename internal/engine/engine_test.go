package engine_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/seed"
)

func newTestEngine() engine.Engine {
	n := 0
	eng := engine.New()
	eng.Now = func() time.Time { return time.Date(2025, 12, 15, 14, 7, 33, 0, time.UTC) }
	eng.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return eng
}

func project(t *testing.T, id string) domain.Project {
	t.Helper()
	for _, p := range seed.Projects() {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("no seed project %s", id)
	return domain.Project{}
}

func strPtr(s string) *string { return &s }

func TestChangeStatusAppendsOneEvent(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p1")
	out, err := eng.ChangeStatus(p, domain.StatusQualityControl, "Hamid", strPtr("Ready for check"))
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if out.Status != domain.StatusQualityControl {
		t.Fatalf("unexpected status %s", out.Status)
	}
	if len(out.History) != len(p.History)+1 {
		t.Fatalf("expected one new event, got %d -> %d", len(p.History), len(out.History))
	}
	ev := out.History[len(out.History)-1]
	want := domain.WorkflowEvent{ID: "id-1", From: domain.StatusInProduction, To: domain.StatusQualityControl, Date: "2025-12-15 14:07", User: "Hamid", Comment: "Ready for check"}
	if ev != want {
		t.Fatalf("unexpected event %+v", ev)
	}
	if p.Status != domain.StatusInProduction || len(p.History) != 5 {
		t.Fatalf("input project mutated")
	}
}

func TestChangeStatusComments(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p4")
	cases := []struct {
		name    string
		to      domain.Status
		comment *string
		want    string
	}{
		{"nil default", domain.StatusFinished, nil, "Status changed from the actions panel"},
		{"blank default", domain.StatusFinished, strPtr("   "), "Status changed from the actions panel"},
		{"returned blank", domain.StatusReturned, strPtr(""), "Returned without specific observations"},
		{"returned reason", domain.StatusReturned, strPtr("Rayure porte gauche"), "Rayure porte gauche"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := eng.ChangeStatus(p, tc.to, "Younes", tc.comment)
			if err != nil {
				t.Fatalf("change: %v", err)
			}
			if got := out.History[len(out.History)-1].Comment; got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestChangeStatusReturnedCancelled(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p4")
	out, err := eng.ChangeStatus(p, domain.StatusReturned, "Younes", nil)
	if !errors.Is(err, engine.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
	if !reflect.DeepEqual(out, p) {
		t.Fatalf("cancelled change altered the project")
	}
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	eng := newTestEngine()
	if _, err := eng.ChangeStatus(project(t, "p1"), domain.Status("archived"), "x", nil); !errors.Is(err, engine.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestChangeStatusStrict(t *testing.T) {
	eng := newTestEngine()
	eng.Strict = true
	p := project(t, "p3")
	if _, err := eng.ChangeStatus(p, domain.StatusDelivered, "x", nil); !errors.Is(err, engine.ErrTransition) {
		t.Fatalf("expected transition error, got %v", err)
	}
	out, err := eng.ChangeStatus(p, domain.StatusPendingReview, "x", nil)
	if err != nil || out.Status != domain.StatusPendingReview {
		t.Fatalf("expected allowed transition: %v", err)
	}
	eng.Strict = false
	if _, err := eng.ChangeStatus(p, domain.StatusDelivered, "x", nil); err != nil {
		t.Fatalf("permissive mode rejected: %v", err)
	}
}

func TestNewProject(t *testing.T) {
	eng := newTestEngine()
	creator := seed.Users()[1]
	p, err := eng.NewProject(engine.ProjectInput{ClientName: "Salma", EstimatedDeadline: "2026-01-10"}, creator)
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	if p.Status != domain.StatusDraft || p.CreatedAt != "2025-12-15" || p.Type != "Other" || p.ResponsibleID != "u2" {
		t.Fatalf("unexpected project %+v", p)
	}
	if len(p.History) != 1 || p.History[0].From != domain.StatusDraft || p.History[0].To != domain.StatusDraft {
		t.Fatalf("expected synthetic creation event, got %+v", p.History)
	}
	if _, err := eng.NewProject(engine.ProjectInput{ClientName: " "}, creator); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := eng.NewProject(engine.ProjectInput{ClientName: "a", EstimatedDeadline: "10/01/2026"}, creator); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected deadline validation error, got %v", err)
	}
}

func intPtr(v int) *int { return &v }

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }

func TestSyncTaskRules(t *testing.T) {
	cases := []struct {
		name         string
		in           domain.Task
		upd          engine.TaskUpdate
		wantStatus   domain.TaskStatus
		wantProgress int
	}{
		{"progress 100 completes", domain.Task{Status: domain.TaskInProgress, Progress: 60}, engine.TaskUpdate{Progress: intPtr(100)}, domain.TaskDone, 100},
		{"progress 0 resets", domain.Task{Status: domain.TaskInProgress, Progress: 60}, engine.TaskUpdate{Progress: intPtr(0)}, domain.TaskTodo, 0},
		{"progress starts work", domain.Task{Status: domain.TaskTodo}, engine.TaskUpdate{Progress: intPtr(30)}, domain.TaskInProgress, 30},
		{"progress reopens done", domain.Task{Status: domain.TaskDone, Progress: 100}, engine.TaskUpdate{Progress: intPtr(70)}, domain.TaskInProgress, 70},
		{"blocked is sticky", domain.Task{Status: domain.TaskBlocked, Progress: 20}, engine.TaskUpdate{Progress: intPtr(40)}, domain.TaskBlocked, 40},
		{"blocked unblocks at 100", domain.Task{Status: domain.TaskBlocked, Progress: 20}, engine.TaskUpdate{Progress: intPtr(100)}, domain.TaskDone, 100},
		{"done sets 100", domain.Task{Status: domain.TaskInProgress, Progress: 40}, engine.TaskUpdate{Status: statusPtr(domain.TaskDone)}, domain.TaskDone, 100},
		{"todo sets 0", domain.Task{Status: domain.TaskInProgress, Progress: 40}, engine.TaskUpdate{Status: statusPtr(domain.TaskTodo)}, domain.TaskTodo, 0},
		{"in progress from 0", domain.Task{Status: domain.TaskTodo}, engine.TaskUpdate{Status: statusPtr(domain.TaskInProgress)}, domain.TaskInProgress, 10},
		{"in progress from 100", domain.Task{Status: domain.TaskDone, Progress: 100}, engine.TaskUpdate{Status: statusPtr(domain.TaskInProgress)}, domain.TaskInProgress, 90},
		{"in progress keeps value", domain.Task{Status: domain.TaskBlocked, Progress: 55}, engine.TaskUpdate{Status: statusPtr(domain.TaskInProgress)}, domain.TaskInProgress, 55},
		{"blocked keeps value", domain.Task{Status: domain.TaskInProgress, Progress: 55}, engine.TaskUpdate{Status: statusPtr(domain.TaskBlocked)}, domain.TaskBlocked, 55},
		// Status blocked otherwise leaves progress alone; 100 is the one
		// exception because it is reserved for done.
		{"blocked at 100 drops to 90 instead of keeping progress", domain.Task{Status: domain.TaskDone, Progress: 100}, engine.TaskUpdate{Status: statusPtr(domain.TaskBlocked)}, domain.TaskBlocked, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.SyncTask(tc.in, tc.upd)
			if err != nil {
				t.Fatalf("sync: %v", err)
			}
			if got.Status != tc.wantStatus || got.Progress != tc.wantProgress {
				t.Fatalf("expected %s/%d got %s/%d", tc.wantStatus, tc.wantProgress, got.Status, got.Progress)
			}
			if (got.Progress == 100) != (got.Status == domain.TaskDone) {
				t.Fatalf("progress 100 and done must go together: %+v", got)
			}
		})
	}
}

func TestSyncTaskRejects(t *testing.T) {
	base := domain.Task{Status: domain.TaskTodo}
	bad := []engine.TaskUpdate{
		{},
		{Progress: intPtr(-1)},
		{Progress: intPtr(101)},
		{Status: statusPtr("paused")},
		{Progress: intPtr(10), Status: statusPtr(domain.TaskDone)},
	}
	for _, upd := range bad {
		if _, err := engine.SyncTask(base, upd); !errors.Is(err, engine.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", upd, err)
		}
	}
}

func TestUpdateTaskUnknown(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p1")
	out, err := eng.UpdateTask(p, "t9", engine.TaskUpdate{Progress: intPtr(10)})
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !reflect.DeepEqual(out, p) {
		t.Fatalf("project changed on failure")
	}
	out, err = eng.UpdateTask(p, "t2", engine.TaskUpdate{Progress: intPtr(100)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Tasks[1].Status != domain.TaskDone || p.Tasks[1].Status != domain.TaskTodo {
		t.Fatalf("unexpected tasks %+v / %+v", out.Tasks[1], p.Tasks[1])
	}
}

func TestCompletion(t *testing.T) {
	p := project(t, "p1")
	// (60 + 0 + 0) / 3
	if got := engine.Completion(p); got != 20 {
		t.Fatalf("expected 20 got %d", got)
	}
	p.Tasks = []domain.Task{{Progress: 50}, {Progress: 51}}
	if got := engine.Completion(p); got != 51 {
		t.Fatalf("expected half rounded up, got %d", got)
	}
	if got := engine.Completion(project(t, "p3")); got != 0 {
		t.Fatalf("expected 0 without tasks, got %d", got)
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2025, 12, 15, 18, 45, 0, 0, time.UTC)
	cases := []struct {
		name     string
		status   domain.Status
		deadline string
		level    engine.Level
		days     int
	}{
		{"late", domain.StatusInProduction, "2025-12-12", engine.LevelLate, -3},
		{"approaching", domain.StatusInProduction, "2025-12-17", engine.LevelApproaching, 2},
		{"today", domain.StatusFinished, "2025-12-15", engine.LevelApproaching, 0},
		{"window edge", domain.StatusEstimated, "2025-12-18", engine.LevelApproaching, 3},
		{"beyond window", domain.StatusEstimated, "2025-12-19", engine.LevelNone, 4},
		{"validated overdue", domain.StatusValidated, "2025-12-01", engine.LevelNone, 0},
		{"delivered overdue", domain.StatusDelivered, "2025-12-01", engine.LevelNone, 0},
		{"timestamp deadline", domain.StatusDraft, "2025-12-16T09:00:00Z", engine.LevelApproaching, 1},
		{"garbage", domain.StatusDraft, "soon", engine.LevelNone, 0},
		{"empty", domain.StatusDraft, "", engine.LevelNone, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := domain.Project{ID: "x", Status: tc.status, EstimatedDeadline: tc.deadline}
			level, days := engine.Classify(p, now, engine.DefaultWindowDays)
			if level != tc.level || days != tc.days {
				t.Fatalf("expected %s/%d got %s/%d", tc.level, tc.days, level, days)
			}
		})
	}
}

func TestClassifyDeadlinesOrderIndependent(t *testing.T) {
	now := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	projects := seed.Projects()
	projects = append(projects, domain.Project{ID: "p0", Status: domain.StatusDraft, EstimatedDeadline: "2025-12-16"})
	first := engine.ClassifyDeadlines(projects, now, 3)
	reversed := make([]domain.Project, len(projects))
	for i, p := range projects {
		reversed[len(projects)-1-i] = p
	}
	second := engine.ClassifyDeadlines(reversed, now, 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification depends on input order")
	}
	if !reflect.DeepEqual(first, engine.ClassifyDeadlines(projects, now, 3)) {
		t.Fatalf("classification not idempotent")
	}
	var ids []string
	for _, n := range first.Approaching {
		ids = append(ids, n.Project.ID)
	}
	if !reflect.DeepEqual(ids, []string{"p2", "p0", "p1"}) {
		t.Fatalf("unexpected approaching order %v", ids)
	}
	if len(first.Late) != 1 || first.Late[0].Project.ID != "p4" || first.Count() != 4 {
		t.Fatalf("unexpected late %+v", first.Late)
	}
	empty := engine.ClassifyDeadlines(nil, now, 3)
	if empty.Late == nil || empty.Approaching == nil {
		t.Fatalf("expected empty, non-nil lists")
	}
}

func TestBuildMonthGrid(t *testing.T) {
	d := &domain.Delivery{ProposedDate: "2025-12-20", ValidatedDate: "2025-12-22"}
	g := engine.BuildMonthGrid(2025, time.December, d)
	if g.Days != 31 || g.LeadingBlanks != 0 {
		t.Fatalf("december 2025 starts on a Monday: %+v", g)
	}
	if g.Cells[19].Mark != engine.MarkProposed || g.Cells[21].Mark != engine.MarkValidated || g.Cells[0].Mark != engine.MarkNone {
		t.Fatalf("unexpected marks")
	}
	same := engine.BuildMonthGrid(2025, time.December, &domain.Delivery{ProposedDate: "2025-12-20", ValidatedDate: "2025-12-20"})
	if same.Cells[19].Mark != engine.MarkValidated {
		t.Fatalf("validated should win over proposed")
	}
	feb := engine.BuildMonthGrid(2026, time.February, nil)
	if feb.Days != 28 || feb.LeadingBlanks != 6 {
		t.Fatalf("february 2026 starts on a Sunday: %+v", feb)
	}
}

func TestResolveCalendarDay(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p2")
	// a click late in the evening east of UTC still lands on the clicked day
	zone := time.FixedZone("UTC+1", 3600)
	day := time.Date(2025, 12, 23, 0, 30, 0, 0, zone)

	out, err := eng.ResolveCalendarDay(p, day, engine.IntentPropose, "Karim")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if out.Delivery.ProposedDate != "2025-12-23" || out.Delivery.ValidatedDate != "2025-12-19" || !out.Delivery.ClientNotified {
		t.Fatalf("propose should merge: %+v", out.Delivery)
	}
	if p.Delivery.ProposedDate != "2025-12-19" {
		t.Fatalf("input delivery mutated")
	}

	out, err = eng.ResolveCalendarDay(out, day, engine.IntentValidate, "Youssef")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.Delivery.ValidatedDate != "2025-12-23" || out.Delivery.ValidatedBy != "Youssef" {
		t.Fatalf("unexpected delivery %+v", out.Delivery)
	}

	cleared, err := eng.ResolveCalendarDay(out, day, engine.IntentClear, "Youssef")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.Delivery.ProposedDate != "" || cleared.Delivery.ValidatedDate != "" {
		t.Fatalf("clear should drop both dates: %+v", cleared.Delivery)
	}

	other := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	same, err := eng.ResolveCalendarDay(out, other, engine.IntentClear, "Youssef")
	if err != nil || !reflect.DeepEqual(same, out) {
		t.Fatalf("clear on an empty day should be a no-op: %v", err)
	}

	fresh := project(t, "p3")
	out, err = eng.ResolveCalendarDay(fresh, other, engine.IntentPropose, "Karim")
	if err != nil || out.Delivery == nil || out.Delivery.ProposedDate != "2025-12-01" {
		t.Fatalf("propose on project without delivery: %v %+v", err, out.Delivery)
	}
	if _, err := eng.ResolveCalendarDay(fresh, other, engine.Intent("move"), "Karim"); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNotifyClient(t *testing.T) {
	eng := newTestEngine()
	out, err := eng.NotifyClient(project(t, "p1"))
	if err != nil || !out.Delivery.ClientNotified {
		t.Fatalf("notify: %v", err)
	}
	if _, err := eng.NotifyClient(project(t, "p3")); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMeasurements(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p3")
	bad := []engine.MeasurementInput{
		{Width: 100, Height: 100},
		{Room: "Cuisine", Height: 100},
		{Room: "Cuisine", Width: 100, Height: -1},
		{Room: "Cuisine", Width: 100, Height: 100, Unit: "inch"},
	}
	for _, in := range bad {
		out, _, err := eng.AddMeasurement(p, in)
		var ve engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError for %+v, got %v", in, err)
		}
		if len(out.Measurements) != 0 {
			t.Fatalf("invalid measurement was added")
		}
	}
	out, m, err := eng.AddMeasurement(p, engine.MeasurementInput{Room: " Cuisine ", Width: 320, Height: 90})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.ID != "id-1" || m.Room != "Cuisine" || m.Unit != domain.UnitCM || m.Depth != nil {
		t.Fatalf("unexpected measurement %+v", m)
	}
	out, err = eng.DeleteMeasurement(out, m.ID)
	if err != nil || len(out.Measurements) != 0 {
		t.Fatalf("delete: %v", err)
	}
	if _, err := eng.DeleteMeasurement(out, m.ID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttachments(t *testing.T) {
	eng := newTestEngine()
	p := project(t, "p1")
	out, a, err := eng.AddAttachment(p, engine.AttachmentInput{Filename: "salon.jpg", ContentType: "image/jpeg"}, "u3")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.Kind != domain.AttachmentPhoto || a.Locator != "#" || a.Date != "2025-12-15" || a.UploadedBy != "u3" {
		t.Fatalf("unexpected attachment %+v", a)
	}
	_, b, err := eng.AddAttachment(out, engine.AttachmentInput{Filename: "plan.pdf", ContentType: "application/pdf"}, "u2")
	if err != nil || b.Kind != domain.AttachmentDesignPDF {
		t.Fatalf("expected design pdf: %v %+v", err, b)
	}
	if photos := engine.AttachmentsOf(out, domain.AttachmentPhoto); len(photos) != 1 {
		t.Fatalf("expected one photo, got %d", len(photos))
	}
	if _, _, err := eng.AddAttachment(p, engine.AttachmentInput{Filename: " "}, "u2"); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	out, err = eng.DeleteAttachment(out, a.ID)
	if err != nil || len(out.Attachments) != 1 {
		t.Fatalf("delete: %v", err)
	}
	if _, err := eng.DeleteAttachment(out, "nope"); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestViews(t *testing.T) {
	projects := seed.Projects()
	lanes := engine.WorkshopBoard(projects)
	if len(lanes) != 5 || lanes[0].Status != domain.StatusReturned {
		t.Fatalf("unexpected lanes %+v", lanes)
	}
	if len(lanes[2].Projects) != 1 || lanes[2].Projects[0].ID != "p1" {
		t.Fatalf("expected p1 in production lane")
	}
	d := engine.BuildDashboard(projects, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), 3)
	if d.Total != 4 || d.Late != 1 || d.Approaching != 2 || d.InProduction != 1 || d.ByStatus[domain.StatusDraft] != 1 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	low := engine.LowStock(seed.StockItems())
	if len(low) != 2 || low[0].ID != "s2" || low[1].ID != "s4" {
		t.Fatalf("unexpected low stock %+v", low)
	}
}
