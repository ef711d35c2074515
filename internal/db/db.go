package db

import (
	"context"
	"time"
)

// Store is everything the catalog needs from storage: JSON documents, their
// search indexes and connection lifecycle.
type Store interface {
	Pinger
	JSONStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONSetItem is one document write in a pipelined batch.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// JSONStore reads and writes whole JSON documents. Writes are last-write-wins.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	// JSONGet returns ErrKeyNotFound for an absent key.
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// IndexManager bootstraps search indexes.
type IndexManager interface {
	// CreateIndex returns ErrIndexExists when the name is taken.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher queries search indexes.
type Searcher interface {
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
}
