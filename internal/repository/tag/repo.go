package tag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/marketplace/internal/db"
	"github.com/kailas-cloud/marketplace/internal/domain"
	domtag "github.com/kailas-cloud/marketplace/internal/domain/tag"
)

const defaultBatchSize = 200

// store is the consumer interface for tags (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

type tagDoc struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Public  bool   `json:"public"`
	OwnerID string `json:"owner_id,omitempty"`
}

// Repo implements usecase/marketplace.TagRepository.
type Repo struct {
	store     store
	prefix    string
	index     *db.IndexDefinition
	batchSize int
}

// New creates a tag repository. prefix namespaces keys and the index name.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, index: buildIndex(prefix), batchSize: defaultBatchSize}
}

// WithBatchSize sets the page size used to drain name lookups.
func (r *Repo) WithBatchSize(n int) *Repo {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

func keyPrefix(prefix string) string { return prefix + "tag:" }

func indexName(prefix string) string { return prefix + "tag:idx" }

// buildIndex indexes names without CASESENSITIVE so lookups fold case.
func buildIndex(prefix string) *db.IndexDefinition {
	return db.NewIndex(indexName(prefix)).
		OnJSON().
		Prefix(keyPrefix(prefix)).
		Tag("$.id", "id", db.CaseSensitive()).
		Tag("$.name", "name").
		Tag("$.owner_id", "owner_id", db.CaseSensitive()).
		MustBuild()
}

// IndexName returns the name of the tag search index.
func (r *Repo) IndexName() string { return r.index.Name }

// EnsureIndex creates the tag index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.index.Name)
	if err != nil {
		return fmt.Errorf("check tag index: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, r.index); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create tag index: %w", err)
	}
	return nil
}

// Get loads a tag by id.
func (r *Repo) Get(ctx context.Context, id string) (domtag.Tag, error) {
	data, err := r.store.JSONGet(ctx, keyPrefix(r.prefix)+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtag.Tag{}, domain.ErrNotFound
		}
		return domtag.Tag{}, fmt.Errorf("get tag %s: %w", id, err)
	}
	return unmarshalTag(data)
}

// Save writes a tag document.
func (r *Repo) Save(ctx context.Context, t domtag.Tag) error {
	data, err := marshalTag(t)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, keyPrefix(r.prefix)+t.ID(), "$", data); err != nil {
		return fmt.Errorf("save tag %s: %w", t.ID(), err)
	}
	return nil
}

// SaveAll writes tags in one pipeline.
func (r *Repo) SaveAll(ctx context.Context, tags []domtag.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	items := make([]db.JSONSetItem, len(tags))
	for i, t := range tags {
		data, err := marshalTag(t)
		if err != nil {
			return err
		}
		items[i] = db.JSONSetItem{Key: keyPrefix(r.prefix) + t.ID(), Path: "$", Data: data}
	}
	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// FindByNamesIgnoreCase returns every tag whose name equals one of names, ignoring case.
// Several tags may share a name.
func (r *Repo) FindByNamesIgnoreCase(ctx context.Context, names []string) ([]domtag.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := "@name:{" + joinTags(names) + "}"
	var out []domtag.Tag
	for offset := 0; ; offset += r.batchSize {
		res, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName: r.index.Name,
			Query:     query,
			Offset:    offset,
			Limit:     r.batchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("find tags by name: %w", err)
		}
		for _, e := range res.Entries {
			t, err := unmarshalTag([]byte(e.Fields["$"]))
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.Key, err)
			}
			if matchesAny(t, names) {
				out = append(out, t)
			}
		}
		if len(res.Entries) < r.batchSize || offset+r.batchSize >= res.Total {
			return out, nil
		}
	}
}

func matchesAny(t domtag.Tag, names []string) bool {
	for _, n := range names {
		if t.HasName(n) {
			return true
		}
	}
	return false
}

func joinTags(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = db.EscapeTag(v)
	}
	return strings.Join(escaped, "|")
}

func marshalTag(t domtag.Tag) ([]byte, error) {
	data, err := json.Marshal(tagDoc{ID: t.ID(), Name: t.Name(), Public: t.Public(), OwnerID: t.OwnerID()})
	if err != nil {
		return nil, fmt.Errorf("marshal tag %s: %w", t.ID(), err)
	}
	return data, nil
}

func unmarshalTag(data []byte) (domtag.Tag, error) {
	var doc tagDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domtag.Tag{}, fmt.Errorf("unmarshal tag: %w", err)
	}
	return domtag.Reconstruct(doc.ID, doc.Name, doc.Public, doc.OwnerID), nil
}
