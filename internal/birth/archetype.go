// Package birth implements the agent birth flow: the personality quiz,
// archetype resolution, the wizard steps, and the reveal timeline.
package birth

import (
	"fmt"
	"strings"
)

// Category is a quiz answer bucket
type Category string

// Categories in tie-break order
const (
	Analyst Category = "analyst"
	Creator Category = "creator"
	Hybrid  Category = "hybrid"
)

// Categories lists every category in enumeration order. Ties during
// resolution favor the earlier entry.
var Categories = []Category{Analyst, Creator, Hybrid}

// Archetype is what a category resolves to
type Archetype struct {
	Category    Category
	Name        string
	Personality string // backend personality tag
}

// Archetypes maps each category to its archetype
var Archetypes = map[Category]Archetype{
	Analyst: {Category: Analyst, Name: "The Analyst", Personality: "scholar"},
	Creator: {Category: Creator, Name: "The Creator", Personality: "creative"},
	Hybrid:  {Category: Hybrid, Name: "The Hybrid", Personality: "alfred"},
}

// ParseCategory validates a category string
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Archetypes[c]; !ok {
		return "", fmt.Errorf("unknown category %q (want analyst, creator or hybrid)", s)
	}
	return c, nil
}

// Tally counts answers per category. Unknown values are ignored.
func Tally(answers map[string]Category) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, c := range answers {
		if _, ok := counts[c]; ok {
			counts[c]++
		}
	}
	return counts
}

// Resolve picks the category with the strictly greatest count, folding
// over Categories in order and keeping the incumbent on ties. An empty
// answer set resolves to Analyst.
func Resolve(answers map[string]Category) Category {
	counts := Tally(answers)
	best := Categories[0]
	for _, c := range Categories[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
