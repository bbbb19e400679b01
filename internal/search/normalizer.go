package search

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"car-marketplace/internal/domain"
)

const (
	// MinYear is the lower year bound applied when only yearMax is given.
	MinYear = domain.MinCarYear

	// MaxSafeInteger is the upper price bound applied when only priceMin is given.
	MaxSafeInteger = 1<<53 - 1

	DefaultPage = 1
)

// Limits holds the page-size defaults for the different listing endpoints.
type Limits struct {
	Default int // list and search endpoints
	All     int // endpoints that return every row by default
	Similar int // similar cars
	Max     int // hard ceiling for any caller-supplied limit
}

// DefaultLimits returns the stock page sizes.
func DefaultLimits() Limits {
	return Limits{
		Default: 10,
		All:     1000,
		Similar: 6,
		Max:     1000,
	}
}

// RawCriteria carries search input exactly as received from the caller.
type RawCriteria struct {
	SearchText   string
	Type         string
	Category     string
	Make         string
	BrandID      string
	Model        string
	Year         string
	YearMin      string
	YearMax      string
	PriceMin     string
	PriceMax     string
	Fuel         string
	Transmission string
	DriveType    string
	Doors        string
	Origin       string
	OrderBy      string
	ExcludeID    string
}

// CriteriaFromQuery extracts raw criteria from URL query parameters.
func CriteriaFromQuery(q url.Values) RawCriteria {
	return RawCriteria{
		SearchText:   q.Get("searchText"),
		Type:         q.Get("type"),
		Category:     q.Get("category"),
		Make:         q.Get("make"),
		BrandID:      q.Get("brandId"),
		Model:        q.Get("model"),
		Year:         q.Get("year"),
		YearMin:      q.Get("yearMin"),
		YearMax:      q.Get("yearMax"),
		PriceMin:     q.Get("priceMin"),
		PriceMax:     q.Get("priceMax"),
		Fuel:         q.Get("fuel"),
		Transmission: q.Get("transmission"),
		DriveType:    q.Get("driveType"),
		Doors:        q.Get("doors"),
		Origin:       q.Get("origin"),
		OrderBy:      q.Get("orderBy"),
		ExcludeID:    q.Get("excludeId"),
	}
}

// Normalizer turns raw criteria into a Filter. Now is consulted for the
// default upper year bound.
type Normalizer struct {
	Now    func() time.Time
	Limits Limits
}

// NewNormalizer creates a Normalizer using the wall clock.
func NewNormalizer(limits Limits) *Normalizer {
	return &Normalizer{Now: time.Now, Limits: limits}
}

// Normalize converts raw criteria into a Filter. Absent or malformed values
// never produce a constraint and never cause an error.
func (n *Normalizer) Normalize(raw RawCriteria) Filter {
	f := Filter{
		Model:        present(raw.Model),
		Fuel:         present(raw.Fuel),
		Transmission: present(raw.Transmission),
		DriveType:    present(raw.DriveType),
		Origin:       present(raw.Origin),
	}

	if strings.TrimSpace(raw.SearchText) != "" && utf8.ValidString(raw.SearchText) {
		f.SearchText = raw.SearchText
	}

	if t := domain.CarType(strings.ToUpper(present(raw.Type))); t.Valid() {
		f.Type = t
	}
	if c := domain.CarCategory(strings.ToUpper(present(raw.Category))); c.Valid() {
		f.Category = c
	}

	// brandId is the catalog name of a make
	f.Make = present(raw.BrandID)
	if f.Make == "" {
		f.Make = present(raw.Make)
	}

	if year, ok := parseInt(raw.Year); ok {
		f.Year = intPtr(year)
	}

	yearMin, minOK := parseInt(raw.YearMin)
	yearMax, maxOK := parseInt(raw.YearMax)
	if minOK || maxOK {
		if !minOK {
			yearMin = MinYear
		}
		if !maxOK {
			yearMax = n.now().Year() + 1
		}
		f.YearRange = &IntRange{Min: yearMin, Max: yearMax}
	}

	priceMin, minOK := parseFloat(raw.PriceMin)
	priceMax, maxOK := parseFloat(raw.PriceMax)
	if minOK || maxOK {
		if !minOK {
			priceMin = 0
		}
		if !maxOK {
			priceMax = MaxSafeInteger
		}
		f.PriceRange = &FloatRange{Min: priceMin, Max: priceMax}
	}

	if doors, ok := parseInt(raw.Doors); ok && doors > 0 {
		f.Doors = intPtr(doors)
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(raw.ExcludeID), 10, 64); err == nil {
		f.ExcludeID = int64Ptr(id)
	}

	return f
}

// Page resolves raw page and limit values. defaultLimit is used when the
// limit is absent or malformed.
func (n *Normalizer) Page(rawPage, rawLimit string, defaultLimit int) PageRequest {
	page, ok := parseInt(rawPage)
	if !ok {
		page = DefaultPage
	}

	limit, ok := parseInt(rawLimit)
	if !ok {
		limit = defaultLimit
	}

	return NewPageRequest(page, limit, n.Limits.Max)
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

// present trims s. Text that is not valid UTF-8 counts as absent since
// PostgreSQL rejects it as a parameter.
func present(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
