package search

import "testing"

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"price_asc", "price ASC, id ASC"},
		{"price_desc", "price DESC, id DESC"},
		{"year_asc", "year ASC, id ASC"},
		{"year_desc", "year DESC, id DESC"},
		{"views_desc", "views DESC, id DESC"},
		{"", "created_at DESC, id DESC"},
		{"cheapest", "created_at DESC, id DESC"},
		{"price_asc; DROP TABLE cars", "created_at DESC, id DESC"},
		{"PRICE_ASC", "created_at DESC, id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := ResolveOrder(tt.token).SQL(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOrder_SQLOnID(t *testing.T) {
	if got := (Order{Column: "id"}).SQL(); got != "id ASC" {
		t.Errorf("expected %q, got %q", "id ASC", got)
	}
}
