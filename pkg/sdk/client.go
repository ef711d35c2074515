package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/marketplace/internal/db"
	dbRedis "github.com/kailas-cloud/marketplace/internal/db/redis"
	"github.com/kailas-cloud/marketplace/internal/domain/access"
	"github.com/kailas-cloud/marketplace/internal/domain/project"
	"github.com/kailas-cloud/marketplace/internal/domain/search/page"
	"github.com/kailas-cloud/marketplace/internal/domain/search/request"
	"github.com/kailas-cloud/marketplace/internal/domain/search/result"
	"github.com/kailas-cloud/marketplace/internal/domain/tag"
	projectrepo "github.com/kailas-cloud/marketplace/internal/repository/project"
	tagrepo "github.com/kailas-cloud/marketplace/internal/repository/tag"
	healthuc "github.com/kailas-cloud/marketplace/internal/usecase/health"
	marketplaceuc "github.com/kailas-cloud/marketplace/internal/usecase/marketplace"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "marketplace:"
)

// catalogUseCase is the slice of the marketplace service a Session drives.
type catalogUseCase interface {
	SearchProjects(
		ctx context.Context, req *request.SearchRequest, pageable page.Pageable, token *access.Token,
	) (page.Page[project.Project], error)
	PerformSearchByText(
		ctx context.Context, pageable page.Pageable, query string, conjunctive bool, token *access.Token,
	) ([]result.SearchResult, error)
	FindEntry(ctx context.Context, id string, token *access.Token) (project.Project, error)
	FindEntriesForProjects(
		ctx context.Context, pageable page.Pageable, projects map[string]access.Level,
	) ([]project.Project, error)
	FindEntryBySlug(ctx context.Context, projects map[string]access.Level, slug string) (project.Project, error)
	PublishEntry(ctx context.Context, searchable project.Searchable, token *access.Token) (project.Project, error)
	AddStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)
	RemoveStar(ctx context.Context, p project.Project, person access.Subject) (project.Project, error)
	AddTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)
	DefineTags(ctx context.Context, p project.Project, tags []tag.Tag) (project.Project, error)
	ResolveTags(ctx context.Context, names []string) ([]tag.Tag, error)
}

// indexer bootstraps one search index.
type indexer interface {
	EnsureIndex(ctx context.Context) error
	IndexName() string
}

// Client is the embedded marketplace entry point.
type Client struct {
	store     db.Store
	catalog   catalogUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New connects to storage, ensures the search indexes exist and wires the catalog.
// The provided context bounds the readiness check and index bootstrap.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("marketplace: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("marketplace: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("marketplace: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	projRepo := projectrepo.New(store, cfg.keyPrefix).WithBatchSize(cfg.projectBatchSize)
	tagRepo := tagrepo.New(store, cfg.keyPrefix).WithBatchSize(cfg.tagBatchSize)

	if !cfg.skipIndexes {
		if err := ensureIndexes(ctx, projRepo, tagRepo); err != nil {
			return nil, err
		}
	}

	return &Client{
		store:     store,
		catalog:   marketplaceuc.New(projRepo, tagRepo, nil),
		healthSvc: healthuc.New(store, store, projRepo.IndexName(), tagRepo.IndexName()),
		obs:       obs,
	}, nil
}

func ensureIndexes(ctx context.Context, indexers ...indexer) error {
	for _, ix := range indexers {
		if err := ix.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("marketplace: ensure index %s: %w", ix.IndexName(), err)
		}
	}
	return nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// As returns a Session acting for caller.
func (c *Client) As(caller Caller) *Session {
	return &Session{caller: caller, token: caller.token(), svc: c.catalog, obs: c.obs}
}
