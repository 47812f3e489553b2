package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllCategories is the category wildcard.
const AllCategories = "All"

// GreensCategory items start with a smaller quantity when added to a cart.
const GreensCategory = "Greens"

var (
	greensDefault = decimal.RequireFromString("0.25")
	otherDefault  = decimal.NewFromInt(1)
)

// DefaultQuantity is the starting kg when an item is first added to a cart.
func DefaultQuantity(v Vegetable) decimal.Decimal {
	if v.Category == GreensCategory {
		return greensDefault
	}
	return otherDefault
}

// NameCollator orders names the way a shopper reads them: locale aware and
// case insensitive. A collator is not safe for concurrent use, so callers get
// a fresh one.
func NameCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}

// LessByName reports whether a sorts before b, using the id to break ties.
func LessByName(c *collate.Collator, aName, aID, bName, bID string) bool {
	if n := c.CompareString(aName, bName); n != 0 {
		return n < 0
	}
	return aID < bID
}

// Filter returns the vegetables whose name contains search (case insensitive)
// and whose category equals category, or any category for AllCategories or "".
// The input slice is not modified.
func Filter(vegs []Vegetable, search, category string) []Vegetable {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]Vegetable, 0, len(vegs))
	for _, v := range vegs {
		if category != "" && category != AllCategories && v.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(v.Name), needle) {
			continue
		}
		out = append(out, v)
	}
	SortByName(out)
	return out
}

func SortByName(vegs []Vegetable) {
	c := NameCollator()
	sort.SliceStable(vegs, func(i, j int) bool {
		return LessByName(c, vegs[i].Name, vegs[i].ID, vegs[j].Name, vegs[j].ID)
	})
}

// Categories lists AllCategories followed by each distinct category in the
// order it first appears.
func Categories(vegs []Vegetable) []string {
	out := []string{AllCategories}
	seen := map[string]bool{}
	for _, v := range vegs {
		if v.Category == "" || seen[v.Category] {
			continue
		}
		seen[v.Category] = true
		out = append(out, v.Category)
	}
	return out
}
