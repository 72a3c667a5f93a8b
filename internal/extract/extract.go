// Package extract applies one normalised utterance to an order.
//
// Steps run in a fixed order on every turn:
//
//  1. customer name, first write wins
//  2. pickup time, first write wins
//  3. item mentions: quantity, half portion, upsert (customer turns only)
//  4. modifier mentions attached to meat items still missing that kind
//
// Apply never fails. Unresolved mentions are dropped and malformed
// candidates leave the order untouched. Applying the same utterance twice
// leaves the order as the first application left it.
package extract

import (
	"fmt"

	"github.com/nadzzz/ordertaker/internal/menu"
	"github.com/nadzzz/ordertaker/internal/order"
	"github.com/nadzzz/ordertaker/internal/transcript"
	"github.com/nadzzz/ordertaker/internal/utterance"
)

// Scope controls which items a modifier mention is attached to.
type Scope string

const (
	// ScopeAll attaches a mention to every meat item missing that kind.
	ScopeAll Scope = "all"

	// ScopeLatest attaches a mention to the closest preceding item
	// mentioned in the same turn, or else to the most recently added item
	// missing that kind.
	ScopeLatest Scope = "latest"
)

// ParseScope validates a configured scope. Empty selects ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeLatest:
		return ScopeLatest, nil
	default:
		return "", fmt.Errorf("unknown modifier scope %q", s)
	}
}

// Attached records one modifier set by a turn.
type Attached struct {
	Item  string
	Kind  menu.ModifierKind
	Value string
}

// Result reports what a turn changed. It is meant for logging.
type Result struct {
	NameSet       bool
	PickupTimeSet bool
	Added         []string
	Updated       []string
	Modifiers     []Attached
}

// Changed reports whether the turn changed the order at all.
func (r Result) Changed() bool {
	return r.NameSet || r.PickupTimeSet || len(r.Added) > 0 || len(r.Updated) > 0 || len(r.Modifiers) > 0
}

// Engine is stateless apart from its configuration and may be shared by
// every call.
type Engine struct {
	catalog *menu.Catalog
	scope   Scope
}

// Option configures an Engine.
type Option func(*Engine)

// WithScope sets the modifier attribution scope.
func WithScope(s Scope) Option {
	return func(e *Engine) { e.scope = s }
}

// New returns an engine over catalog.
func New(catalog *menu.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: catalog, scope: ScopeAll}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Apply updates state from u, spoken by role.
func (e *Engine) Apply(u utterance.Utterance, state *order.State, role transcript.Role) Result {
	var res Result

	if u.Name != "" {
		res.NameSet = state.SetName(u.Name)
	}
	if u.PickupTime != "" {
		res.PickupTimeSet = state.SetPickupTime(u.PickupTime)
	}

	var mentioned []mention
	if role == transcript.Customer {
		mentioned = e.applyItems(u, state, &res)
	}

	e.applyModifiers(u, state, mentioned, &res)
	return res
}

// mention is an item line touched this turn with the span that named it.
type mention struct {
	item *order.Item
	span utterance.Span
}

func (e *Engine) applyItems(u utterance.Utterance, state *order.State, res *Result) []mention {
	var out []mention
	for _, m := range u.Items {
		span := utterance.Span{Start: m.Start, End: m.End}

		quantity, explicit := 1, false
		for _, q := range u.Quantities {
			if q.Span.Overlaps(span) {
				quantity, explicit = q.Value, true
				break
			}
		}
		if quantity < 1 {
			continue
		}

		name := m.Name
		for _, p := range u.Portions {
			if p.Size == utterance.Half && p.Span.Overlaps(span) {
				name = e.catalog.HalfFormOf(m.Name)
				break
			}
		}

		before := 0
		if existing, ok := state.Find(name); ok {
			before = existing.Quantity
		}
		it, added := state.Upsert(name, m.Name, quantity, explicit)
		switch {
		case added:
			res.Added = append(res.Added, it.Line())
		case it.Quantity != before:
			res.Updated = append(res.Updated, it.Line())
		}
		out = append(out, mention{item: it, span: span})
	}
	return out
}

func (e *Engine) applyModifiers(u utterance.Utterance, state *order.State, mentioned []mention, res *Result) {
	if len(u.Modifiers) == 0 {
		return
	}
	switch e.scope {
	case ScopeLatest:
		for _, mm := range u.Modifiers {
			if it := e.latestTarget(mm, state, mentioned); it != nil {
				e.attach(state, it, mm.Kind, mm.Value, res)
			}
		}
	default:
		seen := make(map[menu.ModifierKind]bool)
		for _, mm := range u.Modifiers {
			if seen[mm.Kind] {
				continue
			}
			seen[mm.Kind] = true
			for _, it := range state.Items {
				if e.requires(it, mm.Kind) {
					e.attach(state, it, mm.Kind, mm.Value, res)
				}
			}
		}
	}
}

func (e *Engine) latestTarget(mm utterance.ModifierMention, state *order.State, mentioned []mention) *order.Item {
	var best *order.Item
	for _, m := range mentioned {
		if m.span.Start < mm.Span.Start && e.requires(m.item, mm.Kind) {
			best = m.item
		}
	}
	if best != nil {
		return best
	}
	for i := len(state.Items) - 1; i >= 0; i-- {
		if e.requires(state.Items[i], mm.Kind) {
			return state.Items[i]
		}
	}
	return nil
}

// requires reports whether it needs kind and does not have it yet.
func (e *Engine) requires(it *order.Item, kind menu.ModifierKind) bool {
	if it.HasModifier(kind) {
		return false
	}
	for _, k := range e.catalog.RequiredModifiers(it.Canonical) {
		if k == kind {
			return true
		}
	}
	return false
}

func (e *Engine) attach(state *order.State, it *order.Item, kind menu.ModifierKind, value string, res *Result) {
	if state.SetModifier(it, kind, value) {
		res.Modifiers = append(res.Modifiers, Attached{Item: it.Name, Kind: kind, Value: value})
	}
}
