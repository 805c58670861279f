package policy

import (
	"fmt"
	"strings"
)

// Category is a declared household-business category. The set is closed:
// only the constants below are valid, and an unknown value is an error rather
// than a fallback to some default.
type Category string

// Registered business categories, by wire value.
const (
	FoodService Category = "food_service"
	Retail      Category = "retail"
	Service     Category = "service"
)

var knownCategories = map[Category]string{
	FoodService: "FoodService",
	Retail:      "Retail",
	Service:     "Service",
}

// Valid reports whether c is one of the registered categories.
func (c Category) Valid() bool {
	_, ok := knownCategories[c]
	return ok
}

// Name returns the Go-style name of the category, e.g. "FoodService".
func (c Category) Name() string {
	if name, ok := knownCategories[c]; ok {
		return name
	}
	return string(c)
}

// ParseCategory resolves a wire value ("food_service") or a name
// ("FoodService"), ignoring case and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for c, name := range knownCategories {
		if strings.EqualFold(trimmed, string(c)) || strings.EqualFold(trimmed, name) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
