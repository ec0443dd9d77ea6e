package app

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"

	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/events"
)

func (s *Service) Projects(ctx context.Context) ([]domain.Project, error) {
	return s.Repo.ListProjects(ctx)
}

func (s *Service) Project(ctx context.Context, id string) (domain.Project, error) {
	return s.Repo.GetProject(ctx, id)
}

func (s *Service) CreateProject(ctx context.Context, in engine.ProjectInput, actor domain.User) (domain.Project, error) {
	p, err := s.Engine.NewProject(in, actor)
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.Repo.InsertProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	s.journal(ctx, "project.created", p.ID, "project", p.ID, actor, events.EventPayload{"client_name": p.ClientName})
	s.Log.Info("project created", zap.String("project_id", p.ID), zap.String("actor", actor.ID))
	return p, nil
}

// mutate applies fn to the stored project and persists the result once.
// When fn hands back the project untouched nothing is written.
func (s *Service) mutate(ctx context.Context, id string, fn func(domain.Project) (domain.Project, error)) (domain.Project, bool, error) {
	p, err := s.Repo.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, false, err
	}
	out, err := fn(p)
	if err != nil {
		return p, false, err
	}
	if sameProject(p, out) {
		return out, false, nil
	}
	if err := s.Repo.SaveProject(ctx, out); err != nil {
		return p, false, err
	}
	return out, true, nil
}

func (s *Service) ChangeStatus(ctx context.Context, id string, to domain.Status, comment *string, actor domain.User) (domain.Project, error) {
	var from domain.Status
	out, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		from = p.Status
		return s.Engine.ChangeStatus(p, to, actor.Name, comment)
	})
	if err != nil {
		return out, err
	}
	last := out.History[len(out.History)-1]
	s.journal(ctx, "project.status_changed", id, "project", id, actor, events.EventPayload{
		"from": from, "to": to, "comment": last.Comment,
	})
	s.Log.Info("status changed", zap.String("project_id", id), zap.String("from", string(from)), zap.String("to", string(to)))
	return out, nil
}

func (s *Service) AddTask(ctx context.Context, id, title, assignee string, actor domain.User) (domain.Task, error) {
	var task domain.Task
	_, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		out, t, err := s.Engine.AddTask(p, title, assignee)
		task = t
		return out, err
	})
	if err != nil {
		return domain.Task{}, err
	}
	s.journal(ctx, "task.created", id, "task", task.ID, actor, events.EventPayload{"title": task.Title})
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, id, taskID string, upd engine.TaskUpdate, actor domain.User) (domain.Task, error) {
	out, changed, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		return s.Engine.UpdateTask(p, taskID, upd)
	})
	if err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	for _, t := range out.Tasks {
		if t.ID == taskID {
			task = t
		}
	}
	if changed {
		s.journal(ctx, "task.updated", id, "task", taskID, actor, events.EventPayload{
			"status": task.Status, "progress": task.Progress,
		})
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id, taskID string, actor domain.User) error {
	_, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		return s.Engine.DeleteTask(p, taskID)
	})
	if err != nil {
		return err
	}
	s.journal(ctx, "task.deleted", id, "task", taskID, actor, nil)
	return nil
}

func (s *Service) AddMeasurement(ctx context.Context, id string, in engine.MeasurementInput, actor domain.User) (domain.Measurement, error) {
	var m domain.Measurement
	_, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		out, added, err := s.Engine.AddMeasurement(p, in)
		m = added
		return out, err
	})
	if err != nil {
		return domain.Measurement{}, err
	}
	s.journal(ctx, "measurement.added", id, "measurement", m.ID, actor, events.EventPayload{"room": m.Room})
	return m, nil
}

func (s *Service) DeleteMeasurement(ctx context.Context, id, measurementID string, actor domain.User) error {
	_, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		return s.Engine.DeleteMeasurement(p, measurementID)
	})
	if err != nil {
		return err
	}
	s.journal(ctx, "measurement.deleted", id, "measurement", measurementID, actor, nil)
	return nil
}

func (s *Service) AddAttachment(ctx context.Context, id string, in engine.AttachmentInput, actor domain.User) (domain.Attachment, error) {
	var a domain.Attachment
	_, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		out, added, err := s.Engine.AddAttachment(p, in, actor.ID)
		a = added
		return out, err
	})
	if err != nil {
		return domain.Attachment{}, err
	}
	s.journal(ctx, "attachment.added", id, "attachment", a.ID, actor, events.EventPayload{"kind": a.Kind, "filename": a.Filename})
	return a, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, id, attachmentID string, actor domain.User) error {
	_, _, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		return s.Engine.DeleteAttachment(p, attachmentID)
	})
	if err != nil {
		return err
	}
	s.journal(ctx, "attachment.deleted", id, "attachment", attachmentID, actor, nil)
	return nil
}

// ResolveCalendarDay applies a calendar click. A clear on a day that holds
// no delivery date is a no-op and writes nothing.
func (s *Service) ResolveCalendarDay(ctx context.Context, id string, day time.Time, intent engine.Intent, actor domain.User) (domain.Project, error) {
	out, changed, err := s.mutate(ctx, id, func(p domain.Project) (domain.Project, error) {
		return s.Engine.ResolveCalendarDay(p, day, intent, actor.Name)
	})
	if err != nil {
		return out, err
	}
	if changed {
		s.journal(ctx, "delivery."+string(intent), id, "delivery", id, actor, events.EventPayload{"date": engine.LocalDate(day)})
		s.Log.Info("delivery updated", zap.String("project_id", id), zap.String("intent", string(intent)), zap.String("date", engine.LocalDate(day)))
	}
	return out, nil
}

func (s *Service) NotifyClient(ctx context.Context, id string, actor domain.User) (domain.Project, error) {
	out, changed, err := s.mutate(ctx, id, s.Engine.NotifyClient)
	if err != nil {
		return out, err
	}
	if changed {
		s.journal(ctx, "delivery.client_notified", id, "delivery", id, actor, nil)
	}
	return out, nil
}

// Calendar builds the month grid for a project's delivery dates.
func (s *Service) Calendar(ctx context.Context, id string, year int, month time.Month) (engine.MonthGrid, error) {
	p, err := s.Repo.GetProject(ctx, id)
	if err != nil {
		return engine.MonthGrid{}, err
	}
	return engine.BuildMonthGrid(year, month, p.Delivery), nil
}

func sameProject(a, b domain.Project) bool {
	return reflect.DeepEqual(a, b)
}
