// Package policy decides what the assistant says next, given the order
// and the customer's latest words.
//
// Per call the policy moves through three phases:
//
//	Collecting ──complete/confirm──▶ AwaitingCompletion ──confirm──▶ Closed
//
// Missing modifiers are always asked before the name, the pickup time or
// a summary, so an under-specified meat item never reaches the naming
// stage. A Confirm is only produced after the customer heard a summary of
// the unchanged order.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/nadzzz/ordertaker/internal/fold"
	"github.com/nadzzz/ordertaker/internal/lexicon"
	"github.com/nadzzz/ordertaker/internal/menu"
	"github.com/nadzzz/ordertaker/internal/order"
)

// Kind is the closed set of things the assistant can do.
type Kind string

const (
	Speak              Kind = "speak"
	AskMissingModifier Kind = "ask_missing_modifier"
	AskMissingField    Kind = "ask_missing_field"
	Summarize          Kind = "summarize"
	Confirm            Kind = "confirm"
	Silent             Kind = "silent"
)

// Field is an order-level slot.
type Field string

const (
	FieldName Field = "name"
	FieldTime Field = "time"
)

// Phase is the conversation state of one call.
type Phase string

const (
	Collecting         Phase = "collecting"
	AwaitingCompletion Phase = "awaiting_completion"
	Closed             Phase = "closed"
)

// Action is the next assistant move. Text is empty for Silent.
type Action struct {
	Kind     Kind              `json:"kind"`
	Text     string            `json:"text,omitempty"`
	Modifier menu.ModifierKind `json:"modifier,omitempty"`
	Field    Field             `json:"field,omitempty"`
	Item     string            `json:"item,omitempty"`
}

// Policy holds the conversation state of one call. It is not safe for
// concurrent use.
type Policy struct {
	catalog *menu.Catalog
	lex     *lexicon.Lexicon
	phrases *lexicon.Phrases

	phase         Phase
	seenRev       uint64
	known         map[string]int
	summarized    bool
	summarizedRev uint64
	lastSpoken    string
}

// New returns a policy in the Collecting phase. It fails when the
// lexicon lacks a question for a modifier kind the catalog requires.
func New(catalog *menu.Catalog, lex *lexicon.Lexicon) (*Policy, error) {
	for _, c := range catalog.Categories() {
		for _, k := range c.Requires {
			if strings.TrimSpace(lex.Phrases.AskModifier[string(k)]) == "" {
				return nil, fmt.Errorf("policy: no ask_modifier phrase for %q required by category %q", k, c.Name)
			}
		}
	}
	return &Policy{
		catalog: catalog,
		lex:     lex,
		phrases: &lex.Phrases,
		phase:   Collecting,
		known:   make(map[string]int),
	}, nil
}

// Phase returns the current phase.
func (p *Policy) Phase() Phase {
	return p.phase
}

// LastSpoken returns the last non-silent line the policy produced.
func (p *Policy) LastSpoken() string {
	return p.lastSpoken
}

// Sync records the order as seen, so changes made outside a customer turn
// (reactive extraction on the assistant's own words) are not reported as
// new on the next turn.
func (p *Policy) Sync(state *order.State) {
	p.seenRev = state.Revision()
	p.known = make(map[string]int, len(state.Items))
	for _, it := range state.Items {
		p.known[it.Name] = it.Quantity
	}
}

// Next decides the reply to text, the customer's latest words, after the
// engine has applied them to state.
func (p *Policy) Next(state *order.State, text string) Action {
	folded := fold.String(text)
	changed := state.Revision() != p.seenRev
	fresh := p.freshLines(state)
	defer p.Sync(state)

	if p.phase == Closed {
		if p.lex.Has(lexicon.IntentRepeat, folded) {
			return p.repeat()
		}
		return Action{Kind: Silent}
	}

	if p.lex.Has(lexicon.IntentRepeat, folded) {
		return p.repeat()
	}

	if !changed {
		if a, ok := p.information(folded); ok {
			return p.say(a)
		}
	}

	if a, ok := p.missingModifier(state); ok {
		return p.say(a)
	}

	confirm := p.lex.Has(lexicon.IntentConfirm, folded)
	complete := p.lex.Has(lexicon.IntentComplete, folded)

	if state.Empty() {
		if !confirm && !complete && p.lex.Has(lexicon.IntentOrder, folded) && len(p.catalog.Resolve(folded)) == 0 {
			return p.say(Action{Kind: Speak, Text: p.phrases.NotAvailable})
		}
		return Action{Kind: Silent}
	}

	if confirm && p.summarized && p.summarizedRev == state.Revision() && fieldsComplete(state) {
		p.phase = Closed
		return p.say(Action{
			Kind: Confirm,
			Text: lexicon.Fill(p.phrases.Confirmed, map[string]string{"summary": state.Summary(p.phrases.Summary)}),
		})
	}

	if confirm || complete {
		p.phase = AwaitingCompletion
	}

	switch p.phase {
	case AwaitingCompletion:
		if a, ok := p.missingField(state); ok {
			return p.say(a)
		}
		if changed || confirm || complete || !p.summarized {
			return p.summarize(state)
		}
		return Action{Kind: Silent}

	default:
		if changed && fieldsComplete(state) {
			p.phase = AwaitingCompletion
			return p.summarize(state)
		}
		if len(fresh) > 0 {
			return p.say(Action{
				Kind: Speak,
				Text: lexicon.Fill(p.phrases.Acknowledge, map[string]string{"items": joinLines(fresh)}),
			})
		}
		if changed {
			if a, ok := p.missingField(state); ok {
				return p.say(a)
			}
		}
		if p.lex.Has(lexicon.IntentOrder, folded) && len(p.catalog.Resolve(folded)) == 0 {
			return p.say(Action{Kind: Speak, Text: p.phrases.NotAvailable})
		}
		return Action{Kind: Silent}
	}
}

// Digits answers a keypad selection: 1 menu, 2 drinks, 3 desserts,
// 4 wines, 0 goodbye.
func (p *Policy) Digits(digits string) Action {
	if p.phase == Closed && digits != "0" {
		return Action{Kind: Silent}
	}
	prefix := func(key, body string) string {
		if pre := p.phrases.DTMF[key]; pre != "" {
			return pre + " " + body
		}
		return body
	}
	switch strings.TrimSpace(digits) {
	case "1":
		return p.say(Action{Kind: Speak, Text: prefix("menu", p.menuText())})
	case "2":
		return p.say(Action{Kind: Speak, Text: prefix("drinks", p.phrases.Drinks)})
	case "3":
		return p.say(Action{Kind: Speak, Text: prefix("desserts", p.phrases.Desserts)})
	case "4":
		return p.say(Action{Kind: Speak, Text: prefix("wine", p.phrases.Wine["any"])})
	case "0":
		return p.say(Action{Kind: Speak, Text: p.phrases.Closing})
	default:
		return Action{Kind: Silent}
	}
}

// Greeting opens the call with a time-of-day greeting in loc.
func (p *Policy) Greeting(now time.Time, loc *time.Location) Action {
	if loc != nil {
		now = now.In(loc)
	}
	g := p.phrases.Greetings
	text := g.Evening
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		text = g.Morning
	case h >= 12 && h < 20:
		text = g.Afternoon
	}
	return p.say(Action{Kind: Speak, Text: text})
}

func (p *Policy) say(a Action) Action {
	if a.Text != "" {
		p.lastSpoken = a.Text
	}
	return a
}

func (p *Policy) repeat() Action {
	if p.lastSpoken == "" {
		return Action{Kind: Speak, Text: p.phrases.NothingSaid}
	}
	return Action{Kind: Speak, Text: p.lastSpoken}
}

func (p *Policy) summarize(state *order.State) Action {
	p.summarized = true
	p.summarizedRev = state.Revision()
	return p.say(Action{
		Kind: Summarize,
		Text: lexicon.Fill(p.phrases.Summarize, map[string]string{"summary": state.Summary(p.phrases.Summary)}),
	})
}

// information answers menu, wine, dessert and drinks questions.
func (p *Policy) information(folded string) (Action, bool) {
	switch {
	case p.lex.Has(lexicon.IntentMenu, folded):
		return Action{Kind: Speak, Text: p.menuText()}, true
	case p.lex.Has(lexicon.IntentWine, folded):
		style := p.lex.WineStyle(folded)
		if text := p.phrases.Wine[style]; style != "" && text != "" {
			return Action{Kind: Speak, Text: text}, true
		}
		return Action{Kind: Speak, Text: p.phrases.Wine["any"]}, p.phrases.Wine["any"] != ""
	case p.lex.Has(lexicon.IntentDessert, folded):
		return Action{Kind: Speak, Text: p.phrases.Desserts}, p.phrases.Desserts != ""
	case p.lex.Has(lexicon.IntentDrinks, folded):
		return Action{Kind: Speak, Text: p.phrases.Drinks}, p.phrases.Drinks != ""
	}
	return Action{}, false
}

func (p *Policy) missingModifier(state *order.State) (Action, bool) {
	for _, it := range state.Items {
		for _, k := range p.catalog.RequiredModifiers(it.Canonical) {
			if it.HasModifier(k) {
				continue
			}
			return Action{
				Kind:     AskMissingModifier,
				Modifier: k,
				Item:     it.Name,
				Text:     lexicon.Fill(p.phrases.AskModifier[string(k)], map[string]string{"item": it.Name}),
			}, true
		}
	}
	return Action{}, false
}

func (p *Policy) missingField(state *order.State) (Action, bool) {
	switch {
	case state.CustomerName == "":
		return Action{Kind: AskMissingField, Field: FieldName, Text: p.phrases.AskName}, true
	case state.PickupTime == "":
		return Action{Kind: AskMissingField, Field: FieldTime, Text: p.phrases.AskTime}, true
	}
	return Action{}, false
}

// freshLines returns the lines added or requantified since the last Sync.
func (p *Policy) freshLines(state *order.State) []*order.Item {
	var out []*order.Item
	for _, it := range state.Items {
		if q, ok := p.known[it.Name]; !ok || q != it.Quantity {
			out = append(out, it)
		}
	}
	return out
}

func (p *Policy) menuText() string {
	var b strings.Builder
	b.WriteString(p.phrases.MenuIntro)
	for _, c := range p.catalog.Categories() {
		var names []string
		for _, e := range p.catalog.InCategory(c.Name) {
			if e.HalfOf != "" {
				continue
			}
			if e.Price != "" {
				names = append(names, e.Name+" "+e.Price)
			} else {
				names = append(names, e.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, " %s: %s.", c.Title, strings.Join(names, ", "))
	}
	return strings.TrimSpace(b.String())
}

func fieldsComplete(state *order.State) bool {
	return state.CustomerName != "" && state.PickupTime != ""
}

func joinLines(items []*order.Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Line()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " e " + parts[len(parts)-1]
}
