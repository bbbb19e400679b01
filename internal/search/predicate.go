package search

import (
	"fmt"
	"strings"
)

// Op is a comparison operator of a predicate.
type Op int

const (
	OpEq Op = iota
	OpNotEq
	OpGte
	OpLte
	OpContains // case-insensitive substring match on any of the columns
)

// Predicate is one AND-ed condition of a search.
type Predicate struct {
	Columns []string
	Op      Op
	Value   any
}

// TextColumns are matched by free-text search.
var TextColumns = []string{
	"title",
	"description",
	"make",
	"model",
	"fuel",
	"transmission",
	"drive_type",
	"engine_size",
	"exterior_color",
	"origin",
	"vin",
}

// BuildPredicates translates a filter into predicates. Fields that are
// unset produce nothing, so an empty filter yields an empty slice.
// A year range takes precedence over an exact year.
func BuildPredicates(f Filter) []Predicate {
	var preds []Predicate

	eq := func(column string, value any) {
		preds = append(preds, Predicate{Columns: []string{column}, Op: OpEq, Value: value})
	}

	if f.Type != "" {
		eq("type", string(f.Type))
	}
	if f.Category != "" {
		eq("category", string(f.Category))
	}
	if f.Make != "" {
		eq("make", f.Make)
	}
	if f.Model != "" {
		eq("model", f.Model)
	}

	if f.YearRange != nil {
		preds = append(preds,
			Predicate{Columns: []string{"year"}, Op: OpGte, Value: f.YearRange.Min},
			Predicate{Columns: []string{"year"}, Op: OpLte, Value: f.YearRange.Max},
		)
	} else if f.Year != nil {
		eq("year", *f.Year)
	}

	if f.PriceRange != nil {
		preds = append(preds,
			Predicate{Columns: []string{"price"}, Op: OpGte, Value: f.PriceRange.Min},
			Predicate{Columns: []string{"price"}, Op: OpLte, Value: f.PriceRange.Max},
		)
	}

	if f.IsFeatured != nil {
		eq("is_featured", *f.IsFeatured)
	}

	if f.SearchText != "" {
		preds = append(preds, Predicate{Columns: TextColumns, Op: OpContains, Value: f.SearchText})
	}

	if f.ExcludeID != nil {
		preds = append(preds, Predicate{Columns: []string{"id"}, Op: OpNotEq, Value: *f.ExcludeID})
	}

	if f.Fuel != "" {
		eq("fuel", f.Fuel)
	}
	if f.Transmission != "" {
		eq("transmission", f.Transmission)
	}
	if f.DriveType != "" {
		eq("drive_type", f.DriveType)
	}
	if f.Doors != nil {
		eq("doors", *f.Doors)
	}
	if f.Origin != "" {
		eq("origin", f.Origin)
	}

	return preds
}

// WhereClause renders predicates as a PostgreSQL WHERE clause with
// positional parameters starting at $firstArg. It returns an empty string
// when there are no predicates.
func WhereClause(preds []Predicate, firstArg int) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	argIndex := firstArg

	for _, p := range preds {
		placeholder := fmt.Sprintf("$%d", argIndex)

		switch p.Op {
		case OpContains:
			group := make([]string, len(p.Columns))
			for i, column := range p.Columns {
				group[i] = fmt.Sprintf("%s ILIKE %s", column, placeholder)
			}
			conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
			args = append(args, "%"+escapeLike(fmt.Sprint(p.Value))+"%")
		default:
			conditions = append(conditions, fmt.Sprintf("%s %s %s", p.Columns[0], p.Op.sql(), placeholder))
			args = append(args, p.Value)
		}

		argIndex++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (o Op) sql() string {
	switch o {
	case OpNotEq:
		return "<>"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return "="
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
