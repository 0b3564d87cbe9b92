package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	OptionAll = "all"

	SortTopSelling = "top-selling"
	SortPriceAsc   = "price-asc"
	SortPriceDesc  = "price-desc"
	SortNewest     = "newest"
)

var ErrUnknownOption = errors.New("unknown filter option")

// Bounds is the half-open interval [Min, Max). A missing side is unbounded.
type Bounds struct {
	Min    decimal.Decimal
	Max    decimal.Decimal
	HasMin bool
	HasMax bool
}

func (b Bounds) Contains(v decimal.Decimal) bool {
	if b.HasMin && v.LessThan(b.Min) {
		return false
	}
	if b.HasMax && !v.LessThan(b.Max) {
		return false
	}
	return true
}

func atLeast(min int64) Bounds {
	return Bounds{Min: decimal.NewFromInt(min), HasMin: true}
}

func below(max int64) Bounds {
	return Bounds{Max: decimal.NewFromInt(max), HasMax: true}
}

func between(min, max int64) Bounds {
	return Bounds{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max), HasMin: true, HasMax: true}
}

type RangeOption struct {
	Key    string
	Label  string
	Bounds Bounds
}

// SizeOptions bucket the floor area in square metres.
var SizeOptions = []RangeOption{
	{Key: "small", Label: "Small (under 100 m²)", Bounds: below(100)},
	{Key: "medium", Label: "Medium (100-200 m²)", Bounds: between(100, 200)},
	{Key: "large", Label: "Large (200-400 m²)", Bounds: between(200, 400)},
	{Key: "estate", Label: "Estate (400 m² and above)", Bounds: atLeast(400)},
}

// BudgetOptions bucket the plan price.
var BudgetOptions = []RangeOption{
	{Key: "under-150k", Label: "Under 150,000", Bounds: below(150_000)},
	{Key: "standard", Label: "Standard: 150,000-500,000", Bounds: between(150_000, 500_000)},
	{Key: "premium", Label: "Premium: 500,000-1,000,000", Bounds: between(500_000, 1_000_000)},
	{Key: "luxury", Label: "Luxury: 1,000,000 and above", Bounds: atLeast(1_000_000)},
}

// BedroomOptions use inclusive labels; "3-4" is [3, 5).
var BedroomOptions = []RangeOption{
	{Key: "1-2", Label: "1-2 bedrooms", Bounds: between(1, 3)},
	{Key: "3-4", Label: "3-4 bedrooms", Bounds: between(3, 5)},
	{Key: "5+", Label: "5+ bedrooms", Bounds: atLeast(5)},
}

var FloorOptions = []RangeOption{
	{Key: "1", Label: "Single storey", Bounds: between(1, 2)},
	{Key: "2", Label: "Two storeys", Bounds: between(2, 3)},
	{Key: "3+", Label: "Three storeys or more", Bounds: atLeast(3)},
}

var sortKeys = []string{SortTopSelling, SortPriceAsc, SortPriceDesc, SortNewest}

// Criteria is the set of browse filters. Empty or "all" disables a dimension.
type Criteria struct {
	Style    string
	Size     string
	Budget   string
	Bedrooms string
	Floors   string
	Search   string
	Sort     string
}

func lookup(options []RangeOption, key string) (RangeOption, bool) {
	for _, o := range options {
		if o.Key == key {
			return o, true
		}
	}
	return RangeOption{}, false
}

func active(key string) bool {
	return key != "" && key != OptionAll
}

// Validate rejects option keys that are not in the tables.
func (c Criteria) Validate() error {
	for _, dim := range []struct {
		name    string
		key     string
		options []RangeOption
	}{
		{"size", c.Size, SizeOptions},
		{"budget", c.Budget, BudgetOptions},
		{"bedrooms", c.Bedrooms, BedroomOptions},
		{"floors", c.Floors, FloorOptions},
	} {
		if !active(dim.key) {
			continue
		}
		if _, ok := lookup(dim.options, dim.key); !ok {
			return fmt.Errorf("%w: %s=%q", ErrUnknownOption, dim.name, dim.key)
		}
	}

	if c.Sort != "" {
		for _, k := range sortKeys {
			if c.Sort == k {
				return nil
			}
		}
		return fmt.Errorf("%w: sort=%q", ErrUnknownOption, c.Sort)
	}
	return nil
}

// Predicate reports whether a plan passes one filter dimension.
type Predicate func(Plan) bool

// Predicates builds the filter chain for c. Unknown option keys match nothing.
func (c Criteria) Predicates() []Predicate {
	var preds []Predicate

	if active(c.Style) {
		style := strings.ToLower(strings.TrimSpace(c.Style))
		preds = append(preds, func(p Plan) bool {
			return strings.EqualFold(p.Style, style) ||
				strings.EqualFold(p.Category, style) ||
				strings.EqualFold(p.ProjectType, style)
		})
	}
	if active(c.Size) {
		preds = append(preds, rangePredicate(SizeOptions, c.Size, func(p Plan) decimal.Decimal {
			return decimal.NewFromFloat(p.Area)
		}))
	}
	if active(c.Budget) {
		preds = append(preds, rangePredicate(BudgetOptions, c.Budget, func(p Plan) decimal.Decimal {
			return p.Price
		}))
	}
	if active(c.Bedrooms) {
		preds = append(preds, rangePredicate(BedroomOptions, c.Bedrooms, func(p Plan) decimal.Decimal {
			return decimal.NewFromInt(int64(p.Bedrooms))
		}))
	}
	if active(c.Floors) {
		preds = append(preds, rangePredicate(FloorOptions, c.Floors, func(p Plan) decimal.Decimal {
			return decimal.NewFromInt(int64(p.Floors))
		}))
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		preds = append(preds, func(p Plan) bool {
			for _, field := range []string{p.Name, p.Description, p.Category, p.Style, p.ProjectType} {
				if strings.Contains(strings.ToLower(field), q) {
					return true
				}
			}
			return false
		})
	}
	return preds
}

func rangePredicate(options []RangeOption, key string, value func(Plan) decimal.Decimal) Predicate {
	opt, ok := lookup(options, key)
	if !ok {
		return func(Plan) bool { return false }
	}
	return func(p Plan) bool { return opt.Bounds.Contains(value(p)) }
}

// Matches reports whether p passes every predicate of c.
func (c Criteria) Matches(p Plan) bool {
	for _, pred := range c.Predicates() {
		if !pred(p) {
			return false
		}
	}
	return true
}

// Apply filters plans by c and sorts if c.Sort is set. The input is not
// modified and source order is kept otherwise.
func Apply(plans []Plan, c Criteria) []Plan {
	preds := c.Predicates()
	out := make([]Plan, 0, len(plans))

next:
	for _, p := range plans {
		for _, pred := range preds {
			if !pred(p) {
				continue next
			}
		}
		out = append(out, p)
	}

	switch c.Sort {
	case SortTopSelling:
		sort.SliceStable(out, func(i, j int) bool { return out[i].SalesCount > out[j].SalesCount })
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}
