package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrAlreadyExists is returned by Insert when the document id is taken.
var ErrAlreadyExists = errors.New("document already exists")

// FieldID addresses the document id in filters and ordering, mirroring
// the _id key embedded in every stored document.
const FieldID = "_id"

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"  // absent fields match
	OpGte Op = "gte"
	OpLt  Op = "lt"
)

// Cond compares one document field against a value. Values compare
// against the field's text representation (strings raw, booleans
// true/false, numbers in decimal), which keeps RFC 3339 timestamps
// ordered correctly.
type Cond struct {
	Field string
	Op    Op
	Value string
}

// TextSearch is a case-insensitive substring match across one or more
// fields.
type TextSearch struct {
	Fields []string
	Term   string
}

// Filter is a conjunction of conditions plus an optional text search.
// The zero value matches every document in a collection.
type Filter struct {
	Conds  []Cond
	Search *TextSearch
}

// Eq adds an equality condition.
func (f Filter) Eq(field, value string) Filter {
	f.Conds = append(f.Conds, Cond{Field: field, Op: OpEq, Value: value})
	return f
}

// Ne adds a not-equal condition; documents without the field match.
func (f Filter) Ne(field, value string) Filter {
	f.Conds = append(f.Conds, Cond{Field: field, Op: OpNe, Value: value})
	return f
}

// Gte adds a greater-or-equal condition.
func (f Filter) Gte(field, value string) Filter {
	f.Conds = append(f.Conds, Cond{Field: field, Op: OpGte, Value: value})
	return f
}

// Lt adds a less-than condition.
func (f Filter) Lt(field, value string) Filter {
	f.Conds = append(f.Conds, Cond{Field: field, Op: OpLt, Value: value})
	return f
}

// Match adds a case-insensitive substring search over the given fields.
func (f Filter) Match(term string, fields ...string) Filter {
	f.Search = &TextSearch{Fields: fields, Term: term}
	return f
}

// Order is one sort key; keys apply in sequence.
type Order struct {
	Field string
	Desc  bool
}

// Document is one stored row: the id column plus the raw JSON body.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Store is the collection-oriented document store both pipelines depend
// on. It guarantees per-document atomicity only; multi-document batches
// are not transactional.
type Store interface {
	// Insert adds a document, failing with ErrAlreadyExists if the id is
	// taken.
	Insert(ctx context.Context, collection, id string, doc interface{}) error

	// UpsertByID creates the document or merges the partial document's
	// top-level fields into the existing one.
	UpsertByID(ctx context.Context, collection, id string, partial interface{}) error

	// DeleteWhere removes matching documents and returns the count, which
	// may be zero.
	DeleteWhere(ctx context.Context, collection string, filter Filter) (int, error)

	// FindWhere returns an ordered page of matching documents. A limit of
	// zero or less means no limit.
	FindWhere(ctx context.Context, collection string, filter Filter, orderBy []Order, skip, limit int) ([]Document, error)

	// CountWhere returns the total number of matching documents.
	CountWhere(ctx context.Context, collection string, filter Filter) (int, error)
}
