// Package catalog turns catalog request parameters into typed query values and
// shapes stored products into their public list and detail responses.
package catalog

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type SortField string

const (
	SortByName   SortField = "name"
	SortByPrice  SortField = "price"
	SortByRating SortField = "rating"
)

type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ListQuery is the validated form of GET /api/products parameters. An empty
// SortOrder means the caller did not choose one.
type ListQuery struct {
	Page      int
	Limit     int
	MinPrice  *float64
	MaxPrice  *float64
	Category  string
	InStock   bool
	SortBy    SortField
	SortOrder SortOrder
}

// Filter selects which products a list query returns
type Filter struct {
	MinPrice    *float64
	MaxPrice    *float64
	Category    string
	InStockOnly bool
}

// Sort is the single ordering key of a list query
type Sort struct {
	Field      SortField
	Descending bool
}

// Window is the slice of the ordered result set to return
type Window struct {
	Skip int
	Take int
}

// SearchQuery is the validated form of GET /api/products/search parameters
type SearchQuery struct {
	Keyword string
	Page    int
	Limit   int
}

var (
	listParams   = []string{"page", "limit", "minPrice", "maxPrice", "category", "inStock", "sortBy", "sortOrder"}
	searchParams = []string{"keyword", "page", "limit"}
)

// FieldError describes one rejected parameter
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected parameter of a request
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid query parameters: " + strings.Join(parts, "; ")
}

// ParseListQuery validates list parameters. Unknown parameter names are
// rejected rather than ignored.
func ParseListQuery(values url.Values) (ListQuery, error) {
	p := newParser(values, listParams)

	q := ListQuery{
		Page:      p.positiveInt("page", DefaultPage),
		Limit:     p.positiveInt("limit", DefaultLimit),
		MinPrice:  p.price("minPrice"),
		MaxPrice:  p.price("maxPrice"),
		Category:  p.single("category"),
		InStock:   p.boolean("inStock"),
		SortBy:    SortByName,
	}
	p.windowFits(q.Page, q.Limit)

	switch field := SortField(p.single("sortBy")); field {
	case "":
	case SortByName, SortByPrice, SortByRating:
		q.SortBy = field
	default:
		p.fail("sortBy", "must be one of name, price, rating")
	}

	switch order := SortOrder(p.single("sortOrder")); order {
	case "", SortOrderAsc, SortOrderDesc:
		q.SortOrder = order
	default:
		p.fail("sortOrder", "must be asc or desc")
	}

	if err := p.err(); err != nil {
		return ListQuery{Page: q.Page, Limit: q.Limit}, err
	}
	return q, nil
}

// ParseSearchQuery validates search parameters. A blank keyword is accepted
// here and rejected by the search service as a business error.
func ParseSearchQuery(values url.Values) (SearchQuery, error) {
	p := newParser(values, searchParams)

	q := SearchQuery{
		Keyword: p.single("keyword"),
		Page:    p.positiveInt("page", DefaultPage),
		Limit:   p.positiveInt("limit", DefaultLimit),
	}
	p.windowFits(q.Page, q.Limit)

	if err := p.err(); err != nil {
		return q, err
	}
	return q, nil
}

// Filter returns the predicate part of the query
func (q ListQuery) Filter() Filter {
	return Filter{
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		Category:    q.Category,
		InStockOnly: q.InStock,
	}
}

// Sort maps sortBy/sortOrder to an ordering. Rating is best-first unless the
// caller explicitly asks for ascending; other fields follow sortOrder as given.
func (q ListQuery) Sort() Sort {
	field := q.SortBy
	if field == "" {
		field = SortByName
	}

	if field == SortByRating {
		return Sort{Field: field, Descending: q.SortOrder != SortOrderAsc}
	}
	return Sort{Field: field, Descending: q.SortOrder == SortOrderDesc}
}

// Window returns skip/take for the requested page
func (q ListQuery) Window() Window {
	return newWindow(q.Page, q.Limit)
}

// Window returns skip/take for the requested page
func (q SearchQuery) Window() Window {
	return newWindow(q.Page, q.Limit)
}

func newWindow(page, limit int) Window {
	return Window{Skip: (page - 1) * limit, Take: limit}
}

// Matches evaluates the filter against a product. The SQL repository renders
// the same predicate as a WHERE clause.
func (f Filter) Matches(p domain.Product) bool {
	if f.MinPrice != nil && p.Price.Amount < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price.Amount > *f.MaxPrice {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.InStockOnly && p.Stock <= 0 {
		return false
	}
	return true
}

// Apply clamps the window to a result set of n items and returns the bounds
func (w Window) Apply(n int) (start, end int) {
	start = max(0, min(w.Skip, n))
	end = start + min(max(0, w.Take), n-start)
	return start, end
}

// Pagination is the envelope that accompanies every list response
type Pagination struct {
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPagination computes totalPages = ceil(totalItems/limit)
func NewPagination(totalItems, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(limit)))
	}
	return Pagination{
		TotalItems:   totalItems,
		TotalPages:   totalPages,
		CurrentPage:  page,
		ItemsPerPage: limit,
	}
}

// EmptyPagination is the zeroed block returned alongside error messages
func EmptyPagination(page, limit int) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return Pagination{CurrentPage: page, ItemsPerPage: limit}
}

type parser struct {
	values url.Values
	errors []FieldError
}

func newParser(values url.Values, allowed []string) *parser {
	p := &parser{values: values}

	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}

	unknown := make([]string, 0)
	for name := range values {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		p.fail(name, "unknown parameter")
	}
	return p
}

func (p *parser) fail(field, message string) {
	p.errors = append(p.errors, FieldError{Field: field, Message: message})
}

func (p *parser) err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return &ValidationError{Fields: p.errors}
}

func (p *parser) single(name string) string {
	vals, ok := p.values[name]
	if !ok || len(vals) == 0 {
		return ""
	}
	if len(vals) > 1 {
		p.fail(name, "must be given once")
	}
	return strings.TrimSpace(vals[0])
}

func (p *parser) positiveInt(name string, def int) int {
	raw := p.single(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		p.fail(name, "must be a positive integer")
		return def
	}
	return n
}

// windowFits rejects a page whose offset (page-1)*limit does not fit in an int
func (p *parser) windowFits(page, limit int) {
	if page-1 > math.MaxInt/limit {
		p.fail("page", fmt.Sprintf("is too large for limit %d", limit))
	}
}

func (p *parser) price(name string) *float64 {
	raw := p.single(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		p.fail(name, fmt.Sprintf("must be a non-negative number, got %q", raw))
		return nil
	}
	return &v
}

func (p *parser) boolean(name string) bool {
	raw := p.single(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(name, "must be true or false")
		return false
	}
	return v
}
