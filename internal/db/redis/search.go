package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/marketplace/internal/db"
)

// SearchList runs a filtered, paginated FT.SEARCH.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if err := checkQuery(q.IndexName, q.Query); err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, errors.New("offset and limit must not be negative")
	}

	args := searchArgs(q.IndexName, q.Query, q.ReturnFields)
	if q.SortBy != nil {
		dir := "ASC"
		if q.SortBy.Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy.Field, dir)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", "2")

	return s.search(ctx, args, false)
}

// SearchText runs a scored FT.SEARCH WITHSCORES. Entries keep engine order.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if err := checkQuery(q.IndexName, q.Query); err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		return nil, errors.New("topK must be positive")
	}

	args := searchArgs(q.IndexName, q.Query, q.ReturnFields)
	args = append(args, "WITHSCORES", "LIMIT", "0", strconv.Itoa(q.TopK), "DIALECT", "2")

	return s.search(ctx, args, true)
}

func (s *Store) search(ctx context.Context, args []string, scored bool) (*db.SearchResult, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, fail(db.OpSearch, err)
	}
	return parseResult(raw, scored)
}

func checkQuery(index, query string) error {
	if index == "" {
		return errors.New("index name is required")
	}
	if query == "" {
		return errors.New("query is required")
	}
	return nil
}

func searchArgs(index, query string, fields []string) []string {
	args := make([]string, 0, 10+len(fields))
	args = append(args, index, query)
	if len(fields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}
	return args
}

// parseResult decodes a RESP2 FT.SEARCH reply: the total, then per hit the key,
// the score when scored, and a flat field/value array. Malformed hits are skipped.
func parseResult(raw []rueidis.RedisMessage, scored bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	stride := 2
	if scored {
		stride = 3
	}
	entries := make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		entry, ok := parseEntry(raw[i:i+stride], scored)
		if ok {
			entries = append(entries, entry)
		}
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseEntry(hit []rueidis.RedisMessage, scored bool) (db.SearchEntry, bool) {
	key, err := hit[0].ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	entry := db.SearchEntry{Key: key}

	fieldsAt := 1
	if scored {
		raw, err := hit[1].ToString()
		if err != nil {
			return db.SearchEntry{}, false
		}
		if entry.Score, err = strconv.ParseFloat(raw, 64); err != nil {
			return db.SearchEntry{}, false
		}
		fieldsAt = 2
	}

	fields, err := hit[fieldsAt].ToArray()
	if err != nil {
		return db.SearchEntry{}, false
	}
	entry.Fields = make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, nerr := fields[j].ToString()
		value, verr := fields[j+1].ToString()
		if nerr == nil && verr == nil {
			entry.Fields[name] = value
		}
	}
	return entry, true
}
