package docstore

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
)

func TestBuildWhere_Conditions(t *testing.T) {
	where, err := buildWhere(Filter{}.Eq("date", "2026-08-28").Ne("pending", "true"))
	if err != nil {
		t.Fatalf("buildWhere failed: %v", err)
	}

	query, args, err := psql.Select("id", "doc").
		From("documents").
		Where(sq.Eq{"collection": "daily_articles"}).
		Where(where).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	for _, fragment := range []string{
		"doc->>'date' = $2",
		"doc->>'pending' IS DISTINCT FROM $3",
	} {
		if !strings.Contains(query, fragment) {
			t.Errorf("Expected query to contain %q, got %q", fragment, query)
		}
	}
	if len(args) != 3 || args[1] != "2026-08-28" || args[2] != "true" {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestBuildWhere_RangeOps(t *testing.T) {
	where, err := buildWhere(Filter{}.Gte("created_at", "2026-06-01T00:00:00Z").Lt("date", "2026-08-28"))
	if err != nil {
		t.Fatalf("buildWhere failed: %v", err)
	}

	query, _, err := psql.Select("COUNT(*)").From("documents").Where(where).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.Contains(query, "doc->>'created_at' >= $1") {
		t.Errorf("Expected >= comparison, got %q", query)
	}
	if !strings.Contains(query, "doc->>'date' < $2") {
		t.Errorf("Expected < comparison, got %q", query)
	}
}

func TestBuildWhere_EmptyFilterMatchesAll(t *testing.T) {
	where, err := buildWhere(Filter{})
	if err != nil {
		t.Fatalf("buildWhere failed: %v", err)
	}
	query, _, err := where.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if query != "TRUE" {
		t.Errorf("Expected TRUE for the zero filter, got %q", query)
	}
}

func TestBuildWhere_TextSearch(t *testing.T) {
	where, err := buildWhere(Filter{}.Match("quantum", "title", "content"))
	if err != nil {
		t.Fatalf("buildWhere failed: %v", err)
	}

	query, args, err := psql.Select("id").From("documents").Where(where).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if !strings.Contains(query, "doc->>'title' ILIKE $1") || !strings.Contains(query, "doc->>'content' ILIKE $2") {
		t.Errorf("Expected ILIKE over both fields, got %q", query)
	}
	if len(args) != 2 || args[0] != "%quantum%" {
		t.Errorf("Unexpected args: %v", args)
	}
}

func TestFieldExpr(t *testing.T) {
	tests := []struct {
		field   string
		want    string
		wantErr bool
	}{
		{field: "_id", want: "id"},
		{field: "date", want: "doc->>'date'"},
		{field: "question_id", want: "doc->>'question_id'"},
		// domain codes include non-ASCII letters
		{field: "Φ", want: "doc->>'Φ'"},
		{field: "bad-field", wantErr: true},
		{field: "a'b", wantErr: true},
		{field: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := fieldExpr(tt.field)
		if tt.wantErr {
			if err == nil {
				t.Errorf("fieldExpr(%q): expected error, got %q", tt.field, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("fieldExpr(%q) failed: %v", tt.field, err)
			continue
		}
		if got != tt.want {
			t.Errorf("fieldExpr(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestOrderExpr(t *testing.T) {
	asc, err := orderExpr(Order{Field: "date"})
	if err != nil || asc != "doc->>'date' ASC" {
		t.Errorf("Expected ascending order expr, got %q err=%v", asc, err)
	}
	desc, err := orderExpr(Order{Field: "date", Desc: true})
	if err != nil || desc != "doc->>'date' DESC" {
		t.Errorf("Expected descending order expr, got %q err=%v", desc, err)
	}
	if _, err := orderExpr(Order{Field: "no;drop"}); err == nil {
		t.Error("Expected error for invalid order field")
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("escapeLike mangled the pattern: %q", got)
	}
}
