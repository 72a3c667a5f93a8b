// Package utterance turns one raw recognised utterance into the facts the
// extraction engine consumes: folded text, a name candidate, a pickup
// time candidate, quantity and portion hints with spans, and the menu item
// and modifier mentions found in the text.
//
// All spans are byte offsets into Utterance.Text.
package utterance

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nadzzz/ordertaker/internal/fold"
	"github.com/nadzzz/ordertaker/internal/lexicon"
	"github.com/nadzzz/ordertaker/internal/menu"
)

// Span is a half-open byte range into the folded text.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Quantity is a number followed by the item text it counts.
type Quantity struct {
	Value int
	Text  string
	Span  Span
}

// PortionSize distinguishes a full dose from a half one.
type PortionSize string

const (
	Full PortionSize = "full"
	Half PortionSize = "half"
)

// Portion is a portion hint keyed to the text that follows it.
type Portion struct {
	Size PortionSize
	Text string
	Span Span
}

// ModifierMention is a modifier value found anywhere in the text. It is
// not scoped to an item.
type ModifierMention struct {
	Kind  menu.ModifierKind
	Value string
	Span  Span
}

// Utterance is one normalised turn.
type Utterance struct {
	Raw        string
	Text       string
	Name       string
	PickupTime string
	Quantities []Quantity
	Portions   []Portion
	Items      []menu.Match
	Modifiers  []ModifierMention
}

// Normalizer is safe for concurrent use once built.
type Normalizer struct {
	catalog   *menu.Catalog
	lex       *lexicon.Lexicon
	tag       language.Tag
	menuWords map[string]bool

	quantityRe *regexp.Regexp
	portionRe  *regexp.Regexp
	fullRe     *regexp.Regexp
	boundaryRe *regexp.Regexp
	fallbackRe *regexp.Regexp
}

// Name patterns, tried in order. Each captures everything after the cue;
// the candidate is cut later at a terminator word or punctuation.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:^|[^\pL])meu nome [eé]\s+(.+)`),
	regexp.MustCompile(`(?i)(?:^|[^\pL])(?:chamo-me|me chamo)\s+(.+)`),
	regexp.MustCompile(`(?i)(?:^|[^\pL])nome (?:[eé]|para|de)\s+(.+)`),
	regexp.MustCompile(`(?i)(?:^|[^\pL])nome\s*:\s*(.+)`),
}

// Time patterns over folded text, tried in order.
var timePatterns = []*regexp.Regexp{
	// "levantar as 19", "buscar pelas 19h30", "recolher para as 7:15"
	regexp.MustCompile(`(?:levantar|buscar|recolher)\s+(?:as|pelas|para as|a|por volta das)\s+(\d{1,2})(?:\s*[h:.]\s*(\d{2}))?`),
	// "15h30", "15:30", "15 h 30"
	regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*[h:]\s*(\d{2})(?:[^\d]|$)`),
	// "15h", "15 horas"
	regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*(?:h|horas?)(?:[^\pL\pN]|$)`),
}

// New builds a normalizer for one catalog and lexicon. tag selects the
// title-casing rules for captured names.
func New(catalog *menu.Catalog, lex *lexicon.Lexicon, tag language.Tag) *Normalizer {
	n := &Normalizer{
		catalog:   catalog,
		lex:       lex,
		tag:       tag,
		menuWords: make(map[string]bool),
	}
	for _, e := range catalog.Entries() {
		for _, a := range e.Aliases {
			for _, w := range strings.FieldsFunc(a, notLetter) {
				if len([]rune(w)) >= 3 && !lex.IsNameParticle(w) {
					n.menuWords[w] = true
				}
			}
		}
	}

	numbers := alternation(append([]string{`\d{1,3}`}, quoteAll(lex.NumberWords())...))
	n.quantityRe = regexp.MustCompile(`(?:^|[^\pL\pN./,])(` + numbers + `)\s+`)
	if len(lex.HalfWords) > 0 {
		n.portionRe = regexp.MustCompile(`(?:^|[^\pL\pN])(` + alternation(quoteAll(byLength(lex.HalfWords))) + `)(?:\s+|$)`)
	}
	if len(lex.FullWords) > 0 {
		n.fullRe = regexp.MustCompile(`(?:^|[^\pL\pN])(` + alternation(quoteAll(byLength(lex.FullWords))) + `)(?:[^\pL\pN]|$)`)
	}
	n.boundaryRe = regexp.MustCompile(`[,;.!?]|\s(?:e|com|mais|para|ou)\s`)

	upper := `\p{Lu}[\pL'-]*\p{Ll}[\pL'-]*`
	link := `\s+`
	if len(lex.NameParticles) > 0 {
		link = `\s+(?:(?:` + alternation(quoteAll(lex.NameParticles)) + `)\s+)?`
	}
	n.fallbackRe = regexp.MustCompile(`(?:^|[^\pL])(` + upper + `(?:` + link + upper + `)+)`)
	return n
}

// Normalize extracts every hint from raw. It never fails; an utterance
// with nothing recognisable yields only Raw and Text.
func (n *Normalizer) Normalize(raw string) Utterance {
	return n.normalize(raw, true)
}

// NormalizeReply is Normalize for the assistant's own lines. A name is only
// taken from an explicit cue such as "Nome:" or "em nome de", since scripted
// replies mention capitalised dish names that are not the caller's.
func (n *Normalizer) NormalizeReply(raw string) Utterance {
	return n.normalize(raw, false)
}

func (n *Normalizer) normalize(raw string, fallback bool) Utterance {
	text := fold.String(raw)
	u := Utterance{Raw: raw, Text: text}
	if text == "" {
		return u
	}
	u.Name = n.extractName(raw, fallback)
	u.PickupTime = extractTime(text)
	u.Quantities, u.Portions = n.extractCounts(text)
	u.Items = n.catalog.Match(text)
	for _, m := range n.catalog.MatchModifiers(text) {
		u.Modifiers = append(u.Modifiers, ModifierMention{
			Kind:  m.Kind,
			Value: m.Value,
			Span:  Span{Start: m.Start, End: m.End},
		})
	}
	return u
}

func (n *Normalizer) extractName(raw string, fallback bool) string {
	for _, re := range namePatterns {
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			if name, ok := n.acceptName(m[1], false); ok {
				return name
			}
		}
	}
	if !fallback {
		return ""
	}
	for _, m := range n.fallbackRe.FindAllStringSubmatch(raw, -1) {
		if name, ok := n.acceptName(m[1], true); ok {
			return name
		}
	}
	return ""
}

// acceptName cuts a candidate at the first terminator and validates it.
// Fallback candidates must also avoid every word used on the menu.
func (n *Normalizer) acceptName(candidate string, fallback bool) (string, bool) {
	var words []string
	for _, w := range strings.Fields(candidate) {
		end := strings.IndexAny(w, ",.;:!?")
		word := w
		if end >= 0 {
			word = w[:end]
		}
		if word == "" || !isNameWord(word) || n.lex.IsNameTerminator(fold.String(word)) {
			break
		}
		words = append(words, word)
		if end >= 0 || len(words) == 5 {
			break
		}
	}
	for len(words) > 0 && n.lex.IsNameParticle(fold.String(words[len(words)-1])) {
		words = words[:len(words)-1]
	}
	if len(words) < 2 {
		return "", false
	}
	for _, w := range words {
		f := fold.String(w)
		if n.lex.IsStopword(f) {
			return "", false
		}
		if fallback && n.menuWords[f] {
			return "", false
		}
	}
	name := strings.Join(words, " ")
	if len(n.catalog.Match(name)) > 0 {
		return "", false
	}

	title := cases.Title(n.tag)
	for i, w := range words {
		f := fold.String(w)
		if i > 0 && n.lex.IsNameParticle(f) {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, " "), true
}

func extractTime(text string) string {
	for _, re := range timePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			hour, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			minute := 0
			if len(m) > 2 && m[2] != "" {
				if minute, err = strconv.Atoi(m[2]); err != nil {
					continue
				}
			}
			if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
				continue
			}
			return fmt.Sprintf("%02d:%02d", hour, minute)
		}
	}
	return ""
}

type token struct {
	start, end int // of the cue word itself
	value      int
	size       PortionSize
	quantity   bool
}

// extractCounts finds quantity and portion cues. Each cue covers the text
// from the cue to the next clause boundary or the next cue.
func (n *Normalizer) extractCounts(text string) ([]Quantity, []Portion) {
	var toks []token
	for _, m := range n.quantityRe.FindAllStringSubmatchIndex(text, -1) {
		word := text[m[2]:m[3]]
		v, err := strconv.Atoi(word)
		if err != nil {
			var ok bool
			if v, ok = n.lex.Number(word); !ok {
				continue
			}
		}
		toks = append(toks, token{start: m[2], end: m[3], value: v, quantity: true})
	}
	if n.portionRe != nil {
		for _, m := range n.portionRe.FindAllStringSubmatchIndex(text, -1) {
			toks = append(toks, token{start: m[2], end: m[3], size: Half})
		}
	}
	if n.fullRe != nil {
		for _, m := range n.fullRe.FindAllStringSubmatchIndex(text, -1) {
			toks = append(toks, token{start: m[2], end: m[3], size: Full})
		}
	}

	var quantities []Quantity
	var portions []Portion
	for _, t := range toks {
		end := len(text)
		if loc := n.boundaryRe.FindStringIndex(text[t.end:]); loc != nil {
			end = t.end + loc[0]
		}
		for _, o := range toks {
			if o.start > t.start && o.start >= t.end && o.start < end && o.quantity == t.quantity {
				end = o.start
			}
		}
		span := Span{Start: t.start, End: end}
		rest := strings.TrimSpace(text[t.end:end])
		if t.quantity {
			quantities = append(quantities, Quantity{Value: t.value, Text: rest, Span: span})
		} else {
			portions = append(portions, Portion{Size: t.size, Text: rest, Span: span})
		}
	}
	sortQuantities(quantities)
	sortPortions(portions)
	return quantities, portions
}

func isNameWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func notLetter(r rune) bool {
	return !unicode.IsLetter(r)
}

func sortQuantities(qs []Quantity) {
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Span.Start < qs[j].Span.Start })
}

func sortPortions(ps []Portion) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Span.Start < ps[j].Span.Start })
}

func byLength(words []string) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func quoteAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}

func alternation(parts []string) string {
	return "(?:" + strings.Join(parts, "|") + ")"
}
