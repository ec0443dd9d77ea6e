package engine

import (
	"math"
	"strings"

	"atelier/internal/domain"
)

// TaskUpdate is a partial task edit. Exactly one of Progress or Status must
// be set; the other field is derived from it.
type TaskUpdate struct {
	Progress *int
	Status   *domain.TaskStatus
}

// UpdateTask applies a partial update to one task of the project.
func (e Engine) UpdateTask(p domain.Project, taskID string, upd TaskUpdate) (domain.Project, error) {
	idx := -1
	for i, t := range p.Tasks {
		if t.ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p, notFound("task", taskID)
	}
	synced, err := SyncTask(p.Tasks[idx], upd)
	if err != nil {
		return p, err
	}
	out := clone(p)
	out.Tasks[idx] = synced
	return out, nil
}

// SyncTask resolves the edited field and derives the other one so that
// progress 100 always means done and progress 0 never means in progress.
// Blocked is sticky against progress edits below 100.
func SyncTask(t domain.Task, upd TaskUpdate) (domain.Task, error) {
	switch {
	case upd.Progress != nil && upd.Status != nil:
		return t, invalid("task", "edit either progress or status, not both")
	case upd.Progress != nil:
		v := *upd.Progress
		if v < 0 || v > 100 {
			return t, invalid("progress", "must be between 0 and 100")
		}
		t.Progress = v
		switch {
		case v == 100:
			t.Status = domain.TaskDone
		case t.Status == domain.TaskBlocked:
		case v == 0:
			t.Status = domain.TaskTodo
		default:
			t.Status = domain.TaskInProgress
		}
	case upd.Status != nil:
		s := *upd.Status
		if !s.Valid() {
			return t, invalid("status", "unknown task status "+string(s))
		}
		t.Status = s
		switch s {
		case domain.TaskDone:
			t.Progress = 100
		case domain.TaskTodo:
			t.Progress = 0
		case domain.TaskInProgress:
			if t.Progress == 0 {
				t.Progress = 10
			} else if t.Progress == 100 {
				t.Progress = 90
			}
		case domain.TaskBlocked:
			// a blocked task cannot sit at 100, which is reserved for done
			if t.Progress == 100 {
				t.Progress = 90
			}
		}
	default:
		return t, invalid("task", "progress or status required")
	}
	return t, nil
}

// AddTask appends a new task in todo state.
func (e Engine) AddTask(p domain.Project, title, assignee string) (domain.Project, domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return p, domain.Task{}, invalid("title", "required")
	}
	t := domain.Task{
		ID:       e.newID(),
		Title:    title,
		Status:   domain.TaskTodo,
		Assignee: assignee,
		Progress: 0,
	}
	out := clone(p)
	out.Tasks = append(out.Tasks, t)
	return out, t, nil
}

func (e Engine) DeleteTask(p domain.Project, taskID string) (domain.Project, error) {
	for i, t := range p.Tasks {
		if t.ID == taskID {
			out := clone(p)
			out.Tasks = append(out.Tasks[:i], out.Tasks[i+1:]...)
			return out, nil
		}
	}
	return p, notFound("task", taskID)
}

// Completion is the rounded mean progress of all tasks, 0 without tasks.
func Completion(p domain.Project) int {
	if len(p.Tasks) == 0 {
		return 0
	}
	sum := 0
	for _, t := range p.Tasks {
		sum += t.Progress
	}
	return int(math.Round(float64(sum) / float64(len(p.Tasks))))
}
