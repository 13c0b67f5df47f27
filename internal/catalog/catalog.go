package catalog

import (
	"fmt"
	"strings"
)

// Category is one Maconomy expense classification entry
type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// categories is the fixed Maconomy category list, in display order.
// The last entry is the designated fallback for anything unclassifiable.
var categories = []Category{
	{Code: "1", Name: "Inköp hårdvara"},
	{Code: "2", Name: "Programvara"},
	{Code: "3", Name: "Förbrukningsmaterial"},
	{Code: "4", Name: "Trängselskatt"},
	{Code: "5", Name: "Övriga förmånsbilkostnader"},
	{Code: "6", Name: "Flygresor"},
	{Code: "7", Name: "Resekostnader"},
	{Code: "8", Name: "Parkering"},
	{Code: "9", Name: "Hotell Sverige"},
	{Code: "10", Name: "Hotell Utland"},
	{Code: "11", Name: "Extern representation"},
	{Code: "12", Name: "Kontorsmatrial"},
	{Code: "13", Name: "Telefon- & bredbandsabonnemang"},
	{Code: "14", Name: "Utbildning"},
	{Code: "15", Name: "Friskvård"},
	{Code: "16", Name: "Intern representation"},
	{Code: "17", Name: "Övriga personalkostnader"},
	{Code: "18", Name: "Kaffe, fika m.m."},
	{Code: "19", Name: "Inget av ovanstående - övrigt"},
}

// All returns every category in fixed order
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup finds a category by its code
func Lookup(code string) (Category, bool) {
	for _, c := range categories {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

// Fallback returns the designated "none of the above" entry
func Fallback() Category {
	return categories[len(categories)-1]
}

// Name returns the display name for a code, or the fallback name
// when the code is unknown
func Name(code string) string {
	if c, ok := Lookup(code); ok {
		return c.Name
	}
	return Fallback().Name
}

// Resolve matches a value against the catalog by code or by display
// name. Extraction output sometimes carries the name instead of the
// code, so both are accepted.
func Resolve(value string) (Category, bool) {
	value = strings.TrimSpace(value)
	if c, ok := Lookup(value); ok {
		return c, true
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, value) {
			return c, true
		}
	}
	return Category{}, false
}

// FormatOption renders a category as "code - name"
func FormatOption(c Category) string {
	return fmt.Sprintf("%s - %s", c.Code, c.Name)
}

// PromptList renders the whole catalog as "code - name" lines for
// injection into the extraction prompt
func PromptList() string {
	lines := make([]string, 0, len(categories))
	for _, c := range categories {
		lines = append(lines, FormatOption(c))
	}
	return strings.Join(lines, "\n")
}
