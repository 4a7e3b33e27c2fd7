package core

import "strings"

// Category is one of the fixed spending categories.
type Category string

const (
	CategoryFood      Category = "Alimentação"
	CategoryTransport Category = "Transporte"
	CategoryHousing   Category = "Moradia"
	CategoryHealth    Category = "Saúde"
	CategoryEducation Category = "Educação"
	CategoryLeisure   Category = "Lazer"
	CategoryClothing  Category = "Vestuário"
	CategoryOther     Category = "Outros"
)

// categories is the closed registry, in display order.
var categories = [...]Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryHealth,
	CategoryEducation,
	CategoryLeisure,
	CategoryClothing,
	CategoryOther,
}

// Categories returns a copy of the registry in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// CategoryNames returns the registry as plain strings.
func CategoryNames() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// IsValidCategory reports whether s is an exact member of the registry.
func IsValidCategory(s string) bool {
	for _, c := range categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// ParseCategory trims s and checks registry membership. Matching is exact:
// "alimentação" is not "Alimentação".
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", NewValidationError("category", "is required")
	}
	if !IsValidCategory(s) {
		return "", NewValidationError("category", "must be one of: "+strings.Join(CategoryNames(), ", "))
	}
	return Category(s), nil
}

func (c Category) String() string {
	return string(c)
}
