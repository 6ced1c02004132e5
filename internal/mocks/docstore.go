package mocks

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/daily-digest-api/internal/docstore"
)

// MemStore is an in-memory implementation of docstore.Store for tests.
// Failure hooks let tests script store-level errors per operation.
type MemStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}

	InsertErr error
	UpsertErr error
	DeleteErr error
	FindErr   error
	CountErr  error

	// InsertFunc, when set, runs before each insert; returning an error
	// aborts that insert only.
	InsertFunc func(collection, id string) error
	// DeleteFunc, when set, runs before each DeleteWhere call.
	DeleteFunc func(collection string, filter docstore.Filter) error

	InsertCalls int
	UpsertCalls int
	DeleteCalls int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

func (m *MemStore) coll(name string) map[string]map[string]interface{} {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]map[string]interface{})
		m.collections[name] = c
	}
	return c
}

func toMap(doc interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert adds a document, failing with docstore.ErrAlreadyExists on
// duplicate ids.
func (m *MemStore) Insert(ctx context.Context, collection, id string, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if m.InsertFunc != nil {
		if err := m.InsertFunc(collection, id); err != nil {
			return err
		}
	}

	c := m.coll(collection)
	if _, exists := c[id]; exists {
		return docstore.ErrAlreadyExists
	}
	body, err := toMap(doc)
	if err != nil {
		return err
	}
	c[id] = body
	return nil
}

// UpsertByID creates the document or merges top-level fields.
func (m *MemStore) UpsertByID(ctx context.Context, collection, id string, partial interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	body, err := toMap(partial)
	if err != nil {
		return err
	}
	c := m.coll(collection)
	existing, ok := c[id]
	if !ok {
		c[id] = body
		return nil
	}
	for k, v := range body {
		existing[k] = v
	}
	return nil
}

// DeleteWhere removes matching documents and returns the count.
func (m *MemStore) DeleteWhere(ctx context.Context, collection string, filter docstore.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(collection, filter); err != nil {
			return 0, err
		}
	}

	c := m.coll(collection)
	removed := 0
	for id, doc := range c {
		if matches(id, doc, filter) {
			delete(c, id)
			removed++
		}
	}
	return removed, nil
}

// FindWhere returns an ordered page of matching documents.
func (m *MemStore) FindWhere(ctx context.Context, collection string, filter docstore.Filter, orderBy []docstore.Order, skip, limit int) ([]docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}

	c := m.coll(collection)
	type row struct {
		id  string
		doc map[string]interface{}
	}
	var rows []row
	for id, doc := range c {
		if matches(id, doc, filter) {
			rows = append(rows, row{id: id, doc: doc})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orderBy {
			a, _ := fieldText(rows[i].id, rows[i].doc, o.Field)
			b, _ := fieldText(rows[j].id, rows[j].doc, o.Field)
			if a == b {
				continue
			}
			if o.Desc {
				return a > b
			}
			return a < b
		}
		// stable fallback so pagination never shuffles equal keys
		return rows[i].id < rows[j].id
	})

	if skip > len(rows) {
		skip = len(rows)
	}
	rows = rows[skip:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, r := range rows {
		raw, err := json.Marshal(r.doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: r.id, Data: raw})
	}
	return docs, nil
}

// CountWhere returns the number of matching documents.
func (m *MemStore) CountWhere(ctx context.Context, collection string, filter docstore.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CountErr != nil {
		return 0, m.CountErr
	}

	c := m.coll(collection)
	count := 0
	for id, doc := range c {
		if matches(id, doc, filter) {
			count++
		}
	}
	return count, nil
}

// Len reports the number of documents in a collection.
func (m *MemStore) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coll(collection))
}

// Doc returns one stored document body (nil when absent).
func (m *MemStore) Doc(collection, id string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coll(collection)[id]
}

func matches(id string, doc map[string]interface{}, filter docstore.Filter) bool {
	for _, cond := range filter.Conds {
		text, present := fieldText(id, doc, cond.Field)
		switch cond.Op {
		case docstore.OpEq:
			if !present || text != cond.Value {
				return false
			}
		case docstore.OpNe:
			if present && text == cond.Value {
				return false
			}
		case docstore.OpGte:
			if !present || text < cond.Value {
				return false
			}
		case docstore.OpLt:
			if !present || text >= cond.Value {
				return false
			}
		default:
			return false
		}
	}

	if filter.Search != nil && filter.Search.Term != "" {
		term := strings.ToLower(filter.Search.Term)
		found := false
		for _, f := range filter.Search.Fields {
			if text, present := fieldText(id, doc, f); present && strings.Contains(strings.ToLower(text), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// fieldText mirrors the text representation Postgres yields from
// doc->>'field'.
func fieldText(id string, doc map[string]interface{}, field string) (string, bool) {
	if field == docstore.FieldID {
		return id, true
	}
	v, ok := doc[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(raw), true
	}
}
