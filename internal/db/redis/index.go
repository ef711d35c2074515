package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/marketplace/internal/db"
)

var fieldTypeNames = map[db.IndexFieldType]string{
	db.IndexFieldNumeric: "NUMERIC",
	db.IndexFieldTag:     "TAG",
	db.IndexFieldText:    "TEXT",
}

// CreateIndex issues FT.CREATE for def. A taken name yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return fail(db.OpCreateIndex, err)
	}
	return nil
}

// IndexExists probes an index with FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, fail(db.OpIndexInfo, err)
	}
	return true, nil
}

// buildCreateArgs renders def as FT.CREATE arguments. Storage defaults to JSON.
func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	storage := def.StorageType
	if storage == "" {
		storage = db.StorageJSON
	}
	args := []string{def.Name, "ON", string(storage)}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fieldArgs, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}
	typeName, ok := fieldTypeNames[f.Type]
	if !ok {
		return nil, fmt.Errorf("unknown field type %d", f.Type)
	}

	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}
	args = append(args, typeName)

	switch f.Type {
	case db.IndexFieldText:
		if f.TextWeight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.TextWeight, 'f', -1, 64))
		}
	case db.IndexFieldTag:
		if f.TagSeparator != "" {
			args = append(args, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}

	// INDEXMISSING must precede SORTABLE.
	if f.IndexMissing {
		args = append(args, "INDEXMISSING")
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args, nil
}
