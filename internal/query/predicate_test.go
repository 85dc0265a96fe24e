package query

import (
	"reflect"
	"testing"
)

type row map[string]any

func (r row) Field(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

func TestPredicate_Eval(t *testing.T) {
	r := row{"sizes": "39 - 40", "brand": "Nike Air", "price": 250.0}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"contains case insensitive", Contains("brand", "nike"), true},
		{"contains miss", Contains("brand", "adidas"), false},
		{"starts with", StartsWith("sizes", "39 - "), true},
		{"ends with", EndsWith("sizes", " - 40"), true},
		{"eq string", Eq("brand", "Nike Air"), true},
		{"ge inclusive", Ge("price", 250), true},
		{"le inclusive", Le("price", 250), true},
		{"le miss", Le("price", 200), false},
		{"has token", HasToken("sizes", "40", " - "), true},
		{"has token no partial", HasToken("sizes", "4", " - "), false},
		{"missing field", Eq("code", "X"), false},
		{"empty and matches all", And(), true},
		{"empty or matches none", Or(), false},
		{"and", And(Contains("brand", "nike"), Ge("price", 200)), true},
		{"and miss", And(Contains("brand", "nike"), Ge("price", 300)), false},
		{"or", Or(Eq("brand", "x"), Le("price", 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Eval(r); got != tt.want {
				t.Errorf("Eval(%s) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPredicate_HasTokenMatchesExpansion(t *testing.T) {
	values := []string{"40", "39 - 40", "40 - 41", "39 - 40 - 41", "140", "39 - 140", "400", "38 - 39"}

	p := HasToken("sizes", "40", " - ")
	expanded := p.Expand()
	for _, v := range values {
		r := row{"sizes": v}
		if p.Eval(r) != expanded.Eval(r) {
			t.Errorf("token match and expansion disagree for %q", v)
		}
	}

	if p.Eval(row{"sizes": "140"}) {
		t.Error("40 must not match 140")
	}
}

func TestFilter(t *testing.T) {
	records := []row{
		{"brand": "Nike", "price": 100.0},
		{"brand": "Adidas", "price": 350.0},
		{"brand": "Nike Pro", "price": 450.0},
	}

	got := Filter(records, And(Contains("brand", "nike"), Ge("price", 200)))
	if len(got) != 1 || got[0]["brand"] != "Nike Pro" {
		t.Fatalf("unexpected filter result: %v", got)
	}
}

func TestToSQL(t *testing.T) {
	cols := Columns{"sizes": "sizes", "brand": "brand", "price": "price"}

	t.Run("empty and", func(t *testing.T) {
		clause, args, err := ToSQL(And(), cols)
		if err != nil {
			t.Fatalf("ToSQL() error = %v", err)
		}
		if clause != "1 = 1" || len(args) != 0 {
			t.Errorf("got %q %v", clause, args)
		}
	})

	t.Run("compound", func(t *testing.T) {
		p := And(HasToken("sizes", "40", " - "), Contains("brand", "50%_off"), Ge("price", 200), Le("price", 300))
		clause, args, err := ToSQL(p, cols)
		if err != nil {
			t.Fatalf("ToSQL() error = %v", err)
		}

		wantClause := "((sizes = ? OR sizes LIKE ? ESCAPE '!' OR sizes LIKE ? ESCAPE '!' OR sizes LIKE ? ESCAPE '!')" +
			" AND brand LIKE ? ESCAPE '!' AND price >= ? AND price <= ?)"
		if clause != wantClause {
			t.Errorf("clause = %q\nwant     %q", clause, wantClause)
		}

		wantArgs := []any{"40", "40 - %", "% - 40", "% - 40 - %", "%50!%!_off%", 200.0, 300.0}
		if !reflect.DeepEqual(args, wantArgs) {
			t.Errorf("args = %v, want %v", args, wantArgs)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, _, err := ToSQL(Eq("nope", 1), cols); err == nil {
			t.Error("expected error for unknown field")
		}
	})
}

func TestToCMS(t *testing.T) {
	got, err := ToCMS(And(Contains("brand", "Nike"), Le("price", 200)), nil)
	if err != nil {
		t.Fatalf("ToCMS() error = %v", err)
	}

	want := map[string]any{
		"$and": []map[string]any{
			{"brand": map[string]any{"$contains": "Nike"}},
			{"price": map[string]any{"$lte": 200.0}},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToCMS() = %v, want %v", got, want)
	}

	empty, err := ToCMS(And(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("empty And should render to empty object, got %v, %v", empty, err)
	}

	mapped, err := ToCMS(Contains("brand", "Nike"), Columns{"brand": "marca"})
	if err != nil {
		t.Fatalf("ToCMS() error = %v", err)
	}
	if _, ok := mapped["marca"]; !ok {
		t.Errorf("field should be renamed, got %v", mapped)
	}

	if _, err := ToCMS(Contains("stock", "1"), Columns{"brand": "marca"}); err == nil {
		t.Error("unknown field should fail")
	}
}
