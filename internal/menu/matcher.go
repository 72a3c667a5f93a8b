package menu

import (
	"sort"
	"strings"
)

type pattern struct {
	alias  string
	target int
	order  int
}

type hit struct {
	alias  string
	target int
	order  int
	start  int
	end    int
}

// matcher resolves literal substring aliases with explicit precedence:
// longer aliases first, then declaration order.
type matcher struct {
	patterns []pattern
}

func (m *matcher) add(alias string, target int) {
	m.patterns = append(m.patterns, pattern{alias: alias, target: target, order: len(m.patterns)})
}

func (m *matcher) sort() {
	sort.SliceStable(m.patterns, func(i, j int) bool {
		a, b := m.patterns[i], m.patterns[j]
		if len(a.alias) != len(b.alias) {
			return len(a.alias) > len(b.alias)
		}
		return a.order < b.order
	})
}

// find returns non-overlapping hits in text, ordered by position.
func (m *matcher) find(text string) []hit {
	if text == "" {
		return nil
	}
	var candidates []hit
	for _, p := range m.patterns {
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], p.alias)
			if i < 0 {
				break
			}
			start := from + i
			candidates = append(candidates, hit{
				alias:  p.alias,
				target: p.target,
				order:  p.order,
				start:  start,
				end:    start + len(p.alias),
			})
			from = start + 1
		}
	}

	// Patterns are already in precedence order; a stable sort keeps that
	// and orders equal-precedence hits by position.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if len(a.alias) != len(b.alias) {
			return len(a.alias) > len(b.alias)
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.start < b.start
	})

	var accepted []hit
	for _, c := range candidates {
		overlaps := false
		for _, a := range accepted {
			if c.start < a.end && a.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })
	return accepted
}
