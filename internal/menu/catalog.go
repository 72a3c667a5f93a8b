// Package menu holds the restaurant's menu catalog: canonical item names,
// the aliases customers use for them, half-portion relations, categories
// and the modifier vocabulary (sauces, spice levels).
//
// A Catalog is immutable once built and safe for concurrent reads from any
// number of call sessions.
package menu

import (
	"fmt"
	"strings"

	"github.com/nadzzz/ordertaker/internal/fold"
)

// ModifierKind names a per-item attribute. The set of kinds is fixed.
type ModifierKind string

const (
	Sauce      ModifierKind = "sauce"
	SpiceLevel ModifierKind = "spice_level"
)

// Kinds lists every modifier kind in the order they are asked for.
var Kinds = []ModifierKind{Sauce, SpiceLevel}

// Valid reports whether k is a known modifier kind.
func (k ModifierKind) Valid() bool {
	return k == Sauce || k == SpiceLevel
}

// HalfPrefix is prepended to a canonical name to form its half-portion
// display name when the catalog has no dedicated half entry.
const HalfPrefix = "1/2 "

// Entry is one canonical menu item.
type Entry struct {
	// Name is the canonical display name, unique in the catalog.
	Name string

	// Category groups entries for rendering and modifier requirements.
	Category string

	// Aliases are the folded spoken forms that resolve to this entry.
	// The folded Name is always the first alias.
	Aliases []string

	// HalfOf names the full-portion entry this one is the half of.
	HalfOf string

	// Price is free-form display text ("7.90€", "36.50€/kg").
	Price string
}

// Category describes a menu section.
type Category struct {
	Name     string
	Title    string
	Requires []ModifierKind
}

// ModifierValue is one choosable modifier with its spoken aliases.
type ModifierValue struct {
	Kind    ModifierKind
	Value   string
	Aliases []string
}

// Match is one resolved alias occurrence inside a folded text.
type Match struct {
	Name  string
	Alias string
	Start int
	End   int
}

// ModifierMatch is one resolved modifier occurrence inside a folded text.
type ModifierMatch struct {
	Kind  ModifierKind
	Value string
	Start int
	End   int
}

// Catalog is the immutable menu.
type Catalog struct {
	entries    []Entry
	byName     map[string]int
	halfByBase map[string]string
	categories []Category
	catByName  map[string]int
	modifiers  []ModifierValue
	items      *matcher
	mods       *matcher
}

// New builds a catalog. Entry and alias declaration order is significant:
// it breaks ties between equally long aliases.
func New(categories []Category, entries []Entry, modifiers []ModifierValue) (*Catalog, error) {
	c := &Catalog{
		byName:     make(map[string]int, len(entries)),
		halfByBase: make(map[string]string),
		catByName:  make(map[string]int, len(categories)),
		items:      &matcher{},
		mods:       &matcher{},
	}

	for _, cat := range categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if _, dup := c.catByName[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}
		for _, k := range cat.Requires {
			if !k.Valid() {
				return nil, fmt.Errorf("category %q requires unknown modifier kind %q", cat.Name, k)
			}
		}
		c.catByName[cat.Name] = len(c.categories)
		c.categories = append(c.categories, cat)
	}

	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("menu entry with empty name")
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate menu entry %q", e.Name)
		}
		if _, ok := c.catByName[e.Category]; !ok && e.Category != "" {
			return nil, fmt.Errorf("entry %q: unknown category %q", e.Name, e.Category)
		}
		aliases := fold.All(append([]string{e.Name}, e.Aliases...))
		e.Aliases = dedupe(aliases)
		idx := len(c.entries)
		c.byName[e.Name] = idx
		c.entries = append(c.entries, e)
		for _, a := range e.Aliases {
			c.items.add(a, idx)
		}
	}

	for _, e := range c.entries {
		if e.HalfOf == "" {
			continue
		}
		if _, ok := c.byName[e.HalfOf]; !ok {
			return nil, fmt.Errorf("entry %q: half of unknown entry %q", e.Name, e.HalfOf)
		}
		if _, taken := c.halfByBase[e.HalfOf]; !taken {
			c.halfByBase[e.HalfOf] = e.Name
		}
	}

	for _, m := range modifiers {
		if !m.Kind.Valid() {
			return nil, fmt.Errorf("modifier %q: unknown kind %q", m.Value, m.Kind)
		}
		if m.Value == "" {
			return nil, fmt.Errorf("modifier of kind %q with empty value", m.Kind)
		}
		m.Aliases = dedupe(fold.All(append([]string{m.Value}, m.Aliases...)))
		idx := len(c.modifiers)
		c.modifiers = append(c.modifiers, m)
		for _, a := range m.Aliases {
			c.mods.add(a, idx)
		}
	}

	c.items.sort()
	c.mods.sort()
	return c, nil
}

// Resolve returns every canonical name mentioned in text, in order of
// first mention. Overlapping aliases resolve longest-first, then
// first-declared.
func (c *Catalog) Resolve(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range c.Match(text) {
		if !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

// Match returns the accepted alias occurrences in text with byte spans
// into the folded text. Callers that already hold folded text should pass
// it unchanged; the spans refer to fold.String(text).
func (c *Catalog) Match(text string) []Match {
	folded := fold.String(text)
	hits := c.items.find(folded)
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		out = append(out, Match{
			Name:  c.entries[h.target].Name,
			Alias: h.alias,
			Start: h.start,
			End:   h.end,
		})
	}
	return out
}

// MatchModifiers returns the modifier values mentioned anywhere in text.
func (c *Catalog) MatchModifiers(text string) []ModifierMatch {
	hits := c.mods.find(fold.String(text))
	out := make([]ModifierMatch, 0, len(hits))
	for _, h := range hits {
		m := c.modifiers[h.target]
		out = append(out, ModifierMatch{Kind: m.Kind, Value: m.Value, Start: h.start, End: h.end})
	}
	return out
}

// Entry looks up a canonical entry by name.
func (c *Catalog) Entry(name string) (Entry, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Entries returns the entries in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Categories returns the categories in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// InCategory returns the entries of one category in declaration order.
func (c *Catalog) InCategory(category string) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Modifiers returns the modifier vocabulary of one kind.
func (c *Catalog) Modifiers(kind ModifierKind) []ModifierValue {
	var out []ModifierValue
	for _, m := range c.modifiers {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// IsHalf reports whether name is a half-portion entry or a derived
// half-portion display name.
func (c *Catalog) IsHalf(name string) bool {
	if e, ok := c.Entry(name); ok && e.HalfOf != "" {
		return true
	}
	return strings.HasPrefix(name, HalfPrefix)
}

// HalfFormOf returns the half-portion display name for a canonical entry:
// the dedicated half entry when one exists, otherwise HalfPrefix + name.
func (c *Catalog) HalfFormOf(name string) string {
	if c.IsHalf(name) {
		return name
	}
	if half, ok := c.halfByBase[name]; ok {
		return half
	}
	return HalfPrefix + name
}

// RequiredModifiers returns the modifier kinds an entry must have before
// the order is complete. Derived half names inherit from their base entry.
func (c *Catalog) RequiredModifiers(name string) []ModifierKind {
	e, ok := c.Entry(name)
	if !ok {
		e, ok = c.Entry(strings.TrimPrefix(name, HalfPrefix))
		if !ok {
			return nil
		}
	}
	idx, ok := c.catByName[e.Category]
	if !ok {
		return nil
	}
	return c.categories[idx].Requires
}

// NeedsModifiers reports whether an entry requires any modifier.
func (c *Catalog) NeedsModifiers(name string) bool {
	return len(c.RequiredModifiers(name)) > 0
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
