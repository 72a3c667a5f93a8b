// Package order holds the accumulating order of one call: items with
// quantity and modifiers, the pickup time and the customer name.
//
// A State is owned by exactly one call session and is not safe for
// concurrent use.
package order

import (
	"fmt"
	"strings"

	"github.com/nadzzz/ordertaker/internal/lexicon"
	"github.com/nadzzz/ordertaker/internal/menu"
)

// Item is one order line. Name is the display form (the canonical entry or
// its half-portion form) and is the upsert key.
type Item struct {
	Name      string
	Canonical string
	Quantity  int
	Modifiers map[menu.ModifierKind]string
}

// Modifier returns the chosen value of kind, or "".
func (it *Item) Modifier(kind menu.ModifierKind) string {
	return it.Modifiers[kind]
}

// HasModifier reports whether kind is set on the item.
func (it *Item) HasModifier(kind menu.ModifierKind) bool {
	_, ok := it.Modifiers[kind]
	return ok
}

// State is the order of one call.
type State struct {
	Items        []*Item
	PickupTime   string
	CustomerName string

	revision uint64
}

// New returns an empty order.
func New() *State {
	return &State{}
}

// Revision increases on every mutation. Two equal revisions mean the
// order did not change in between.
func (s *State) Revision() uint64 {
	return s.revision
}

// SetName records the customer name if none is set yet. It reports
// whether the name was taken.
func (s *State) SetName(name string) bool {
	if s.CustomerName != "" || name == "" {
		return false
	}
	s.CustomerName = name
	s.revision++
	return true
}

// SetPickupTime records the pickup time if none is set yet.
func (s *State) SetPickupTime(hhmm string) bool {
	if s.PickupTime != "" || hhmm == "" {
		return false
	}
	s.PickupTime = hhmm
	s.revision++
	return true
}

// Find returns the item with the given display name.
func (s *State) Find(name string) (*Item, bool) {
	for _, it := range s.Items {
		if it.Name == name {
			return it, true
		}
	}
	return nil, false
}

// Upsert adds name with quantity, or updates the existing line. An
// existing line keeps its quantity unless explicit is true. Quantities
// below one are clamped to one.
func (s *State) Upsert(name, canonical string, quantity int, explicit bool) (it *Item, added bool) {
	if quantity < 1 {
		quantity = 1
	}
	if existing, ok := s.Find(name); ok {
		if explicit && existing.Quantity != quantity {
			existing.Quantity = quantity
			s.revision++
		}
		return existing, false
	}
	it = &Item{
		Name:      name,
		Canonical: canonical,
		Quantity:  quantity,
		Modifiers: make(map[menu.ModifierKind]string),
	}
	s.Items = append(s.Items, it)
	s.revision++
	return it, true
}

// SetModifier sets kind on the item if it is not set yet.
func (s *State) SetModifier(it *Item, kind menu.ModifierKind, value string) bool {
	if it.HasModifier(kind) || value == "" {
		return false
	}
	if it.Modifiers == nil {
		it.Modifiers = make(map[menu.ModifierKind]string)
	}
	it.Modifiers[kind] = value
	s.revision++
	return true
}

// Empty reports whether no item has been ordered.
func (s *State) Empty() bool {
	return len(s.Items) == 0
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		PickupTime:   s.PickupTime,
		CustomerName: s.CustomerName,
		revision:     s.revision,
		Items:        make([]*Item, len(s.Items)),
	}
	for i, it := range s.Items {
		mods := make(map[menu.ModifierKind]string, len(it.Modifiers))
		for k, v := range it.Modifiers {
			mods[k] = v
		}
		c.Items[i] = &Item{Name: it.Name, Canonical: it.Canonical, Quantity: it.Quantity, Modifiers: mods}
	}
	return c
}

// Line renders one item as "2x Name".
func (it *Item) Line() string {
	return fmt.Sprintf("%dx %s", it.Quantity, it.Name)
}

// Summary renders the human-readable order:
//
//	Resumo do pedido:
//	- 1x Frango do Churrasco (molho da casa, picante)
//
//	Horário de levantamento: 15:30
//	Nome: Maria Silva
func (s *State) Summary(labels lexicon.SummaryLabels) string {
	if s.Empty() {
		return labels.Empty
	}
	var b strings.Builder
	b.WriteString(labels.Header)
	b.WriteByte('\n')
	for _, it := range s.Items {
		b.WriteString("- ")
		b.WriteString(it.Line())
		var mods []string
		for _, k := range menu.Kinds {
			if v := it.Modifier(k); v != "" {
				mods = append(mods, v)
			}
		}
		if len(mods) > 0 {
			b.WriteString(" (" + strings.Join(mods, ", ") + ")")
		}
		b.WriteByte('\n')
	}
	if s.PickupTime != "" {
		fmt.Fprintf(&b, "\n%s %s", labels.PickupTime, s.PickupTime)
	}
	if s.CustomerName != "" {
		fmt.Fprintf(&b, "\n%s %s", labels.Name, s.CustomerName)
	}
	return strings.TrimRight(b.String(), "\n")
}
