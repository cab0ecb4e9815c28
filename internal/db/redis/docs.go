package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/spendex/internal/db"
)

// PutDoc stores a JSON document under prefix+id.
func (s *Store) PutDoc(ctx context.Context, prefix, id string, doc []byte) error {
	cmd := s.b().Set().Key(prefix + id).Value(string(doc)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPutDoc, Err: err}
	}
	return nil
}

// ScanDocs returns all documents under the prefix.
func (s *Store) ScanDocs(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	keys, err := s.scanKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return s.fetchDocs(ctx, keys)
}

// Query evaluates a structured query over the documents under prefix.
// Where clauses are conjunctive. An orderBy combined with where clauses
// on other fields is served only when a declared composite index covers
// the combination; otherwise the query is rejected with ErrIndexMissing
// before any document is read.
func (s *Store) Query(ctx context.Context, prefix string, q db.Query) ([]json.RawMessage, error) {
	if err := s.checkIndexes(q); err != nil {
		return nil, err
	}

	raw, err := s.ScanDocs(ctx, prefix)
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(raw))
	kept := make([]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("decode doc: %w", err)}
		}
		if !matchesAll(m, q.Wheres) {
			continue
		}
		docs = append(docs, m)
		kept = append(kept, r)
	}

	if q.OrderBy != "" {
		idx := make([]int, len(kept))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			less, _ := lessValues(docs[idx[a]][q.OrderBy], docs[idx[b]][q.OrderBy])
			if q.Desc {
				return !less && !equalValues(docs[idx[a]][q.OrderBy], docs[idx[b]][q.OrderBy])
			}
			return less
		})
		sorted := make([]json.RawMessage, len(kept))
		for i, j := range idx {
			sorted[i] = kept[j]
		}
		kept = sorted
	}

	if q.Limit > 0 && len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}

	return kept, nil
}

// checkIndexes rejects where+orderBy combinations with no declared index.
func (s *Store) checkIndexes(q db.Query) error {
	if q.OrderBy == "" {
		return nil
	}

	var whereFields []string
	for _, w := range q.Wheres {
		if w.Field != q.OrderBy {
			whereFields = append(whereFields, w.Field)
		}
	}
	if len(whereFields) == 0 {
		return nil
	}

	for _, spec := range s.indexes {
		if spec.Covers(whereFields, q.OrderBy) {
			return nil
		}
	}
	return &db.Error{
		Op:  db.OpQuery,
		Err: fmt.Errorf("%w: where %v orderBy %s", db.ErrIndexMissing, whereFields, q.OrderBy),
	}
}

func (s *Store) scanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		cmd := s.b().Scan().Cursor(cursor).Match(prefix + "*").Count(200).Build()
		entry, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (s *Store) fetchDocs(ctx context.Context, keys []string) ([]json.RawMessage, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmd := s.b().Mget().Key(keys...).Build()
	vals, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	docs := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		data, err := v.AsBytes()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue // key expired between SCAN and MGET
			}
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		docs = append(docs, json.RawMessage(data))
	}
	return docs, nil
}

func matchesAll(doc map[string]any, wheres []db.Where) bool {
	for _, w := range wheres {
		val, ok := doc[w.Field]
		if !ok {
			return false
		}
		less, eq := lessValues(val, w.Value)
		switch w.Op {
		case "==":
			if !eq {
				return false
			}
		case ">=":
			if less {
				return false
			}
		case "<=":
			if !less && !eq {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// lessValues compares two JSON scalars: numerically when both are
// numbers, lexically otherwise.
func lessValues(a, b any) (less, eq bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af < bf, af == bf
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	return as < bs, as == bs
}

func equalValues(a, b any) bool {
	_, eq := lessValues(a, b)
	return eq
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
