// Package lexicon maps the crop aliases that appear in mandi trade messages
// to standardized crop names and commodity categories.
package lexicon

import (
	"fmt"
	"sort"
	"strings"
)

// Table holds the configured taxonomy: category → standardized crop → aliases.
type Table map[string]map[string][]string

// Entry is the resolution result for a single alias.
type Entry struct {
	Crop     string
	Category string
}

// Lexicon answers alias lookups against a compiled, case-folded index.
type Lexicon struct {
	index      map[string]Entry
	crops      []string
	categories []string
}

// FromTable compiles a lookup index from the nested table. Every alias and
// every standardized crop name resolves, keyed by its upper-cased form.
// Later duplicates overwrite earlier ones; run Verify first to catch them.
func FromTable(t Table) *Lexicon {
	lex := &Lexicon{index: make(map[string]Entry)}
	seenCat := make(map[string]bool)
	for category, crops := range t {
		if !seenCat[category] {
			seenCat[category] = true
			lex.categories = append(lex.categories, category)
		}
		for crop, aliases := range crops {
			entry := Entry{Crop: crop, Category: category}
			lex.crops = append(lex.crops, crop)
			lex.index[fold(crop)] = entry
			for _, alias := range aliases {
				lex.index[fold(alias)] = entry
			}
		}
	}
	sort.Strings(lex.crops)
	sort.Strings(lex.categories)
	return lex
}

// Resolve looks up a name as it appeared in a message. Matching ignores case
// and surrounding whitespace.
func (l *Lexicon) Resolve(name string) (Entry, bool) {
	e, ok := l.index[fold(name)]
	return e, ok
}

// StandardNames returns every standardized crop name, sorted.
func (l *Lexicon) StandardNames() []string {
	out := make([]string, len(l.crops))
	copy(out, l.crops)
	return out
}

// Categories returns every commodity category, sorted.
func (l *Lexicon) Categories() []string {
	out := make([]string, len(l.categories))
	copy(out, l.categories)
	return out
}

// Verify reports configuration defects in a table: aliases that appear under
// more than one crop, and aliases that collide with a standardized crop name.
// An empty result means the table is sound.
func Verify(t Table) []string {
	var defects []string
	owner := make(map[string]string)

	claim := func(name, crop string) {
		key := fold(name)
		if prev, ok := owner[key]; ok && prev != crop {
			defects = append(defects, fmt.Sprintf("alias %q claimed by both %q and %q", name, prev, crop))
			return
		}
		owner[key] = crop
	}

	for _, category := range sortedKeys(t) {
		crops := t[category]
		for _, crop := range sortedCropKeys(crops) {
			claim(crop, crop)
			for _, alias := range crops[crop] {
				claim(alias, crop)
			}
		}
	}
	return defects
}

func fold(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func sortedKeys(t Table) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCropKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
