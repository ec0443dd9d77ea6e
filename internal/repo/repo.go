package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/seed"
	"atelier/internal/store"
)

// Repo gives typed access to the stored collections. Each write loads the
// whole collection, replaces one entry and saves it back: last write wins.
// Writes load strictly, so a collection that cannot be read is never
// replaced by the seed.
type Repo struct {
	Gateway store.Gateway
	DB      *sql.DB
}

var (
	// ErrNotFound is the engine sentinel so callers can match either.
	ErrNotFound  = engine.ErrNotFound
	ErrDuplicate = errors.New("already exists")
)

func (r Repo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return store.Load(ctx, r.Gateway, store.Projects, seed.Projects)
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	items, err := r.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	for _, p := range items {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
}

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	items, err := store.LoadStrict(ctx, r.Gateway, store.Projects, seed.Projects)
	if err != nil {
		return err
	}
	for _, existing := range items {
		if existing.ID == p.ID {
			return fmt.Errorf("project %s: %w", p.ID, ErrDuplicate)
		}
	}
	return store.Save(ctx, r.Gateway, store.Projects, append(items, p))
}

// SaveProject replaces the stored project with the same id.
func (r Repo) SaveProject(ctx context.Context, p domain.Project) error {
	items, err := store.LoadStrict(ctx, r.Gateway, store.Projects, seed.Projects)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == p.ID {
			items[i] = p
			return store.Save(ctx, r.Gateway, store.Projects, items)
		}
	}
	return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	return store.Load(ctx, r.Gateway, store.Users, seed.Users)
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

func (r Repo) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	email = strings.TrimSpace(email)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (r Repo) InsertUser(ctx context.Context, u domain.User) error {
	users, err := store.LoadStrict(ctx, r.Gateway, store.Users, seed.Users)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.ID == u.ID {
			return fmt.Errorf("user %s: %w", u.ID, ErrDuplicate)
		}
	}
	return store.Save(ctx, r.Gateway, store.Users, append(users, u))
}

func (r Repo) UpdateUser(ctx context.Context, u domain.User) error {
	users, err := store.LoadStrict(ctx, r.Gateway, store.Users, seed.Users)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			return store.Save(ctx, r.Gateway, store.Users, users)
		}
	}
	return fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
}

func (r Repo) DeleteUser(ctx context.Context, id string) error {
	users, err := store.LoadStrict(ctx, r.Gateway, store.Users, seed.Users)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == id {
			return store.Save(ctx, r.Gateway, store.Users, append(users[:i], users[i+1:]...))
		}
	}
	return fmt.Errorf("user %s: %w", id, ErrNotFound)
}

func (r Repo) ListStock(ctx context.Context) ([]domain.StockItem, error) {
	return store.Load(ctx, r.Gateway, store.StockItems, seed.StockItems)
}

// UpsertStockItem replaces the item with the same id or appends it.
func (r Repo) UpsertStockItem(ctx context.Context, it domain.StockItem) error {
	items, err := store.LoadStrict(ctx, r.Gateway, store.StockItems, seed.StockItems)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == it.ID {
			items[i] = it
			return store.Save(ctx, r.Gateway, store.StockItems, items)
		}
	}
	return store.Save(ctx, r.Gateway, store.StockItems, append(items, it))
}

func (r Repo) ListPurchaseOrders(ctx context.Context) ([]domain.PurchaseOrder, error) {
	return store.Load(ctx, r.Gateway, store.PurchaseOrders, seed.PurchaseOrders)
}

func (r Repo) UpsertPurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	orders, err := store.LoadStrict(ctx, r.Gateway, store.PurchaseOrders, seed.PurchaseOrders)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID == po.ID {
			orders[i] = po
			return store.Save(ctx, r.Gateway, store.PurchaseOrders, orders)
		}
	}
	return store.Save(ctx, r.Gateway, store.PurchaseOrders, append(orders, po))
}

// LatestEvents returns journal rows newest first.
func (r Repo) LatestEvents(ctx context.Context, limit int, projectID, evtType string) ([]domain.Event, error) {
	if r.DB == nil {
		return []domain.Event{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	clauses := []string{"1=1"}
	var args []any
	if projectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, projectID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	query := fmt.Sprintf(`SELECT id,ts,type,COALESCE(project_id,''),entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE %s ORDER BY id DESC LIMIT ?`,
		strings.Join(clauses, " AND "))
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.ProjectID, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
