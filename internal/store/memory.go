package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const memTable = "collections"

type memRecord struct {
	Key     string
	Payload []byte
}

func memSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			memTable: {
				Name: memTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// Memory is an in-process KV used by tests and throwaway sessions.
type Memory struct {
	db *memdb.MemDB
}

func NewMemory() (*Memory, error) {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &Memory{db: db}, nil
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	txn := m.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(memTable, "id", string(key))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrMissing
	}
	rec := raw.(*memRecord)
	return append([]byte(nil), rec.Payload...), nil
}

func (m *Memory) Put(_ context.Context, key Key, payload []byte) error {
	txn := m.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(memTable, &memRecord{Key: string(key), Payload: append([]byte(nil), payload...)}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
