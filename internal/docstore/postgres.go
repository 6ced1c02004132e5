package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Field names come from code constants; anything else is refused before
// it reaches an interpolated jsonb expression.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_\x{0080}-\x{FFFF}][A-Za-z0-9_\x{0080}-\x{FFFF}]*$`)

// postgresStore keeps every collection in a single jsonb-backed table
// with per-row atomicity, which is all the pipelines assume.
type postgresStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPostgres creates a Store backed by the documents table.
func NewPostgres(db *sql.DB, log zerolog.Logger) Store {
	return &postgresStore{
		db:  db,
		log: log.With().Str("component", "docstore").Logger(),
	}
}

// Insert adds a document, failing with ErrAlreadyExists on id collision.
func (s *postgresStore) Insert(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query, args, err := psql.Insert("documents").
		Columns("collection", "id", "doc").
		Values(collection, id, raw).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// UpsertByID creates the document or merges the partial document's
// top-level fields into the stored jsonb body.
func (s *postgresStore) UpsertByID(ctx context.Context, collection, id string, partial interface{}) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query, args, err := psql.Insert("documents").
		Columns("collection", "id", "doc").
		Values(collection, id, raw).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET doc = documents.doc || EXCLUDED.doc").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// DeleteWhere removes matching documents and returns how many went away.
func (s *postgresStore) DeleteWhere(ctx context.Context, collection string, filter Filter) (int, error) {
	where, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}

	query, args, err := psql.Delete("documents").
		Where(sq.Eq{"collection": collection}).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete rows affected: %w", err)
	}
	return int(affected), nil
}

// FindWhere returns an ordered page of matching documents.
func (s *postgresStore) FindWhere(ctx context.Context, collection string, filter Filter, orderBy []Order, skip, limit int) ([]Document, error) {
	where, err := buildWhere(filter)
	if err != nil {
		return nil, err
	}

	builder := psql.Select("id", "doc").
		From("documents").
		Where(sq.Eq{"collection": collection}).
		Where(where)

	for _, o := range orderBy {
		expr, err := orderExpr(o)
		if err != nil {
			return nil, err
		}
		builder = builder.OrderBy(expr)
	}
	if skip > 0 {
		builder = builder.Offset(uint64(skip))
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, (*[]byte)(&doc.Data)); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountWhere returns the total number of matching documents.
func (s *postgresStore) CountWhere(ctx context.Context, collection string, filter Filter) (int, error) {
	where, err := buildWhere(filter)
	if err != nil {
		return 0, err
	}

	query, args, err := psql.Select("COUNT(*)").
		From("documents").
		Where(sq.Eq{"collection": collection}).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// buildWhere turns a Filter into a squirrel conjunction over jsonb text
// expressions.
func buildWhere(filter Filter) (sq.Sqlizer, error) {
	conj := sq.And{}

	for _, c := range filter.Conds {
		expr, err := fieldExpr(c.Field)
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case OpEq:
			conj = append(conj, sq.Expr(expr+" = ?", c.Value))
		case OpNe:
			// IS DISTINCT FROM lets documents without the field match
			conj = append(conj, sq.Expr(expr+" IS DISTINCT FROM ?", c.Value))
		case OpGte:
			conj = append(conj, sq.Expr(expr+" >= ?", c.Value))
		case OpLt:
			conj = append(conj, sq.Expr(expr+" < ?", c.Value))
		default:
			return nil, fmt.Errorf("unsupported filter op: %s", c.Op)
		}
	}

	if filter.Search != nil && filter.Search.Term != "" {
		or := sq.Or{}
		pattern := "%" + escapeLike(filter.Search.Term) + "%"
		for _, field := range filter.Search.Fields {
			expr, err := fieldExpr(field)
			if err != nil {
				return nil, err
			}
			or = append(or, sq.Expr(expr+" ILIKE ?", pattern))
		}
		if len(or) > 0 {
			conj = append(conj, or)
		}
	}

	if len(conj) == 0 {
		return sq.Expr("TRUE"), nil
	}
	return conj, nil
}

func fieldExpr(field string) (string, error) {
	if field == FieldID {
		return "id", nil
	}
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid filter field: %q", field)
	}
	return fmt.Sprintf("doc->>'%s'", field), nil
}

func orderExpr(o Order) (string, error) {
	expr, err := fieldExpr(o.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return expr + " " + dir, nil
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
