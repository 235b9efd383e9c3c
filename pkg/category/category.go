// Package category holds the marketplace's fixed category registry.
//
// The list is ordered the way the marketplace presents it and never changes
// at runtime. Lookups are case-insensitive using Unicode case folding so a
// route segment such as "GRAPHICS & design" resolves to "Graphics & Design".
package category

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var names = []string{
	"Graphics & Design",
	"Digital Marketing",
	"Writing & Translation",
	"Video & Animation",
	"Music & Audio",
	"Programming & Tech",
	"Photography",
	"Data",
	"Business",
}

// Registry resolves category names. The zero value is not usable; use
// Default or New.
type Registry struct {
	names  []string
	folded map[string]string
}

var defaultRegistry = New(names...)

// Default returns the marketplace's registry.
func Default() *Registry {
	return defaultRegistry
}

// New builds a registry over the given ordered names.
func New(list ...string) *Registry {
	r := &Registry{
		names:  make([]string, 0, len(list)),
		folded: make(map[string]string, len(list)),
	}
	for _, n := range list {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := fold(n)
		if _, dup := r.folded[key]; dup {
			continue
		}
		r.names = append(r.names, n)
		r.folded[key] = n
	}
	return r
}

// All returns the category names in registry order.
func (r *Registry) All() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Lookup returns the canonical category name matching phrase.
func (r *Registry) Lookup(phrase string) (string, bool) {
	name, ok := r.folded[fold(phrase)]
	return name, ok
}

// Title renders a lowercase phrase the way category names are displayed.
func Title(phrase string) string {
	return cases.Title(language.English).String(phrase)
}

func fold(s string) string {
	// Casers are stateful; each call gets its own.
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
