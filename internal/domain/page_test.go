package domain

import (
	"reflect"
	"testing"
)

func TestPageState_Transitions(t *testing.T) {
	s := NewPageState(0)
	if s.PageSize != DefaultPageSize || s.CurrentPage != 0 {
		t.Fatalf("NewPageState(0) = %+v", s)
	}

	if got := s.Prev(); got != s {
		t.Errorf("Prev() on page 0 changed state: %+v", got)
	}
	if got := s.Next(); got != s {
		t.Errorf("Next() without more items changed state: %+v", got)
	}

	s = s.WithFetched(DefaultPageSize)
	if !s.HasMoreItems {
		t.Fatal("full page should report more items")
	}

	s = s.Next()
	if s.CurrentPage != 1 || s.Offset() != 18 || !s.HasPrevious() {
		t.Errorf("after Next(): %+v offset=%d", s, s.Offset())
	}

	s = s.WithFetched(5)
	if s.HasMoreItems {
		t.Error("short page should report no more items")
	}

	s = s.Reset()
	if s.CurrentPage != 0 || s.HasPrevious() {
		t.Errorf("Reset() = %+v", s)
	}
}

func TestFilterSelection_IsEmpty(t *testing.T) {
	if !(FilterSelection{}).IsEmpty() {
		t.Error("zero selection should be empty")
	}
	if (FilterSelection{Brand: "Nike"}).IsEmpty() {
		t.Error("selection with brand should not be empty")
	}
}

func TestSizeTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"38 - 39 - 40", []string{"38", "39", "40"}},
		{"40", []string{"40"}},
		{"", nil},
		{"  ", nil},
		{"38 -  - 39", []string{"38", "39"}},
		{"38 - 38", []string{"38", "38"}},
	}

	for _, tt := range tests {
		if got := SizeTokens(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SizeTokens(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProduct_Field(t *testing.T) {
	p := &Product{Code: "C1", Brand: "Nike"}
	if _, ok := p.Field(FieldPrice); ok {
		t.Error("missing price should not be readable")
	}
	if v, ok := p.Field(FieldBrand); !ok || v != "Nike" {
		t.Errorf("Field(brand) = %v, %v", v, ok)
	}
	if _, ok := p.Field("stock"); ok {
		t.Error("unknown field should not be readable")
	}
}
