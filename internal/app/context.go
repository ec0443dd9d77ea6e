package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"atelier/internal/config"
	"atelier/internal/db"
	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/events"
	"atelier/internal/migrate"
	"atelier/internal/repo"
	"atelier/internal/store"
)

// Service runs every mutation as load, pure engine transform, one save and
// one journal row.
type Service struct {
	Engine     engine.Engine
	Repo       repo.Repo
	Journal    events.Writer
	Log        *zap.Logger
	WindowDays int

	// WorkshopName is the display name from atelier.yml.
	WorkshopName string

	db *sql.DB
}

func newService(cfg *config.Config, kv store.KV, conn *sql.DB, log *zap.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	eng := engine.New()
	eng.Strict = cfg.Workflow.Strict
	window := cfg.Notifications.WindowDays
	if window == 0 {
		window = engine.DefaultWindowDays
	}
	return &Service{
		Engine:       eng,
		Repo:         repo.Repo{Gateway: store.New(kv, log.Named("store")), DB: conn},
		Journal:      events.Writer{DB: conn, Now: eng.Now},
		Log:          log,
		WindowDays:   window,
		WorkshopName: cfg.Workshop.Name,
		db:           conn,
	}
}

// Open opens the workspace database, applies migrations and returns a
// service backed by it.
func Open(ctx context.Context, workspace string, cfg *config.Config, log *zap.Logger) (*Service, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	version, err := migrate.Migrate(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s := newService(cfg, store.SQLite{DB: conn}, conn, log)
	s.Log.Debug("workspace opened", zap.String("path", db.Path(workspace)), zap.Int("schema_version", version))
	return s, nil
}

// OpenMemory returns a service over an in-process store with no journal.
func OpenMemory(cfg *config.Config, log *zap.Logger) (*Service, error) {
	kv, err := store.NewMemory()
	if err != nil {
		return nil, err
	}
	return newService(cfg, kv, nil, log), nil
}

func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Actor resolves the acting user. An empty id picks the first user, the
// same fallback Login uses.
func (s *Service) Actor(ctx context.Context, id string) (domain.User, error) {
	if strings.TrimSpace(id) != "" {
		return s.Repo.GetUser(ctx, id)
	}
	users, err := s.Repo.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if len(users) == 0 {
		return domain.User{}, fmt.Errorf("no users: %w", repo.ErrNotFound)
	}
	return users[0], nil
}

// Login finds a user by email. There is no password check: an unknown
// email logs in as the first user.
func (s *Service) Login(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Repo.FindUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}
	s.Log.Info("unknown email, falling back to first user", zap.String("email", email))
	return s.Actor(ctx, "")
}

func (s *Service) journal(ctx context.Context, evtType, projectID, kind, entityID string, actor domain.User, payload events.EventPayload) {
	if err := s.Journal.Append(ctx, evtType, projectID, kind, entityID, actor.ID, payload); err != nil {
		s.Log.Warn("journal append failed", zap.String("type", evtType), zap.String("project_id", projectID), zap.Error(err))
	}
}
