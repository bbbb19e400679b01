package search

import "fmt"

// Order tokens accepted in the orderBy parameter.
const (
	OrderPriceAsc  = "price_asc"
	OrderPriceDesc = "price_desc"
	OrderYearAsc   = "year_asc"
	OrderYearDesc  = "year_desc"
	OrderViewsDesc = "views_desc"
)

// Order is a single sort key. Column is always one of a fixed set of
// identifiers, never caller input.
type Order struct {
	Column string
	Desc   bool
}

var orders = map[string]Order{
	OrderPriceAsc:  {Column: "price"},
	OrderPriceDesc: {Column: "price", Desc: true},
	OrderYearAsc:   {Column: "year"},
	OrderYearDesc:  {Column: "year", Desc: true},
	OrderViewsDesc: {Column: "views", Desc: true},
}

// Newest orders by creation time, latest first.
var Newest = Order{Column: "created_at", Desc: true}

// FeaturedOrder orders featured cars by last update.
var FeaturedOrder = Order{Column: "updated_at", Desc: true}

// ResolveOrder maps an order token to a sort key. Unknown or empty tokens
// fall back to Newest.
func ResolveOrder(token string) Order {
	if o, ok := orders[token]; ok {
		return o
	}
	return Newest
}

// SQL renders the ORDER BY body. id is appended in the same direction so
// rows with equal keys come back in a stable order across pages.
func (o Order) SQL() string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	if o.Column == "id" {
		return "id " + dir
	}
	return fmt.Sprintf("%s %s, id %s", o.Column, dir, dir)
}
