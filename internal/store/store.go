package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Key names a stored collection.
type Key string

const (
	Users          Key = "users"
	Projects       Key = "projects"
	StockItems     Key = "stock_items"
	PurchaseOrders Key = "purchase_orders"
)

// ErrMissing is returned by a KV when nothing is stored under the key.
var ErrMissing = errors.New("key not stored")

// KV is the raw key-value substrate: whole collections are read and
// written as one JSON document.
type KV interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, payload []byte) error
}

// PersistenceError wraps a storage failure with the operation and key.
type PersistenceError struct {
	Op  string
	Key Key
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Gateway loads and saves typed collections over a KV.
type Gateway struct {
	KV  KV
	Log *zap.Logger
}

func New(kv KV, log *zap.Logger) Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return Gateway{KV: kv, Log: log}
}

func (g Gateway) logger() *zap.Logger {
	if g.Log != nil {
		return g.Log
	}
	return zap.NewNop()
}

// Load returns the stored collection. On first access the seed is stored
// and returned. A read or decode failure falls back to the seed without
// overwriting what is stored.
func Load[T any](ctx context.Context, g Gateway, key Key, seed func() []T) ([]T, error) {
	items, err := LoadStrict(ctx, g, key, seed)
	var pe *PersistenceError
	if errors.As(err, &pe) {
		g.logger().Warn("collection unreadable, using defaults", zap.String("key", string(key)), zap.String("op", pe.Op), zap.Error(pe.Err))
		return seed(), nil
	}
	return items, err
}

// LoadStrict is Load for write paths: a read or decode failure is returned
// as a PersistenceError so the caller never saves over data it could not
// read. A missing key still seeds.
func LoadStrict[T any](ctx context.Context, g Gateway, key Key, seed func() []T) ([]T, error) {
	raw, err := g.KV.Get(ctx, key)
	if errors.Is(err, ErrMissing) {
		items := seed()
		if err := Save(ctx, g, key, items); err != nil {
			g.logger().Warn("seed collection not stored", zap.String("key", string(key)), zap.Error(err))
		}
		return items, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &PersistenceError{Op: "decode", Key: key, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save overwrites the collection wholesale.
func Save[T any](ctx context.Context, g Gateway, key Key, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := g.KV.Put(ctx, key, payload); err != nil {
		g.logger().Error("collection write failed", zap.String("key", string(key)), zap.Error(err))
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}
