// Package breaker guards store round trips with a circuit breaker.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketplace/internal/db"
)

// Config holds circuit breaker settings.
type Config struct {
	Name             string
	MaxRequests      uint32        // requests allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open-state duration before half-open
	MinRequests      uint32        // requests observed before the ratio is considered
	ReadyToTripRatio float64
}

// StateObserver receives breaker state transitions.
type StateObserver func(name string, from, to gobreaker.State)

// Store decorates a db.Store: reads and writes run through the breaker, lifecycle calls pass through.
type Store struct {
	db.Store
	cb *gobreaker.CircuitBreaker
}

var _ db.Store = (*Store)(nil)

// New wraps next with a circuit breaker.
func New(next db.Store, cfg Config, logger *zap.Logger, observers ...StateObserver) *Store {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn("circuit breaker opened",
					zap.String("breaker", name), zap.Stringer("from", from))
			} else {
				logger.Info("circuit breaker state changed",
					zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
			}
			for _, o := range observers {
				o(name, from, to)
			}
		},
		IsSuccessful: isSuccessful,
	}
	return &Store{Store: next, cb: gobreaker.NewCircuitBreaker(st)}
}

// State returns the current breaker state.
func (s *Store) State() gobreaker.State { return s.cb.State() }

// JSONSet implements db.JSONStore.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.Store.JSONSet(ctx, key, path, data)
	})
	return err
}

// JSONSetMulti implements db.JSONStore.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.Store.JSONSetMulti(ctx, items)
	})
	return err
}

// JSONGet implements db.JSONStore.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	res, err := s.execute(func() (any, error) {
		return s.Store.JSONGet(ctx, key, paths...)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// SearchList implements db.Searcher.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	res, err := s.execute(func() (any, error) {
		return s.Store.SearchList(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.(*db.SearchResult), nil
}

// SearchText implements db.Searcher.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	res, err := s.execute(func() (any, error) {
		return s.Store.SearchText(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return res.(*db.SearchResult), nil
}

func (s *Store) execute(fn func() (any, error)) (any, error) {
	res, err := s.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	return res, err
}

// isSuccessful counts only unreachable storage as a failure. Rejected commands,
// absent keys and caller cancellations leave the breaker alone.
func isSuccessful(err error) bool {
	return err == nil || !errors.Is(err, db.ErrUnavailable)
}
