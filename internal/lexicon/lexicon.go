// Package lexicon holds the dialect-specific vocabulary the engine matches
// against and the phrases the policy speaks. None of it is hard-coded in
// the extraction or policy logic; a lexicon is loaded as data alongside
// the menu.
package lexicon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nadzzz/ordertaker/internal/fold"
)

// Intent is a keyword-triggered customer intention.
type Intent string

const (
	IntentConfirm  Intent = "confirm"
	IntentComplete Intent = "complete"
	IntentRepeat   Intent = "repeat"
	IntentMenu     Intent = "menu"
	IntentWine     Intent = "wine"
	IntentDessert  Intent = "dessert"
	IntentDrinks   Intent = "drinks"
	IntentOrder    Intent = "order"
)

// Elaboration is a supplementary sentence appended in detailed mode when
// any of its keywords appears in a sentence.
type Elaboration struct {
	Keywords []string `yaml:"keywords"`
	Text     string   `yaml:"text"`
}

// Lexicon is the vocabulary for one dialect.
type Lexicon struct {
	Numbers         map[string]int      `yaml:"numbers"`
	HalfWords       []string            `yaml:"half_words"`
	FullWords       []string            `yaml:"full_words"`
	NameStopwords   []string            `yaml:"name_stopwords"`
	NameTerminators []string            `yaml:"name_terminators"`
	NameParticles   []string            `yaml:"name_particles"`
	Noise           []string            `yaml:"noise"`
	Intents         map[Intent][]string `yaml:"intents"`
	WineStyles      map[string][]string `yaml:"wine_styles"`
	Fillers         []string            `yaml:"fillers"`
	Elaborations    []Elaboration       `yaml:"elaborations"`
	Phrases         Phrases             `yaml:"phrases"`

	intentRes map[Intent]*regexp.Regexp
	wineRes   map[string]*regexp.Regexp
	elabRes   []*regexp.Regexp
	fillerRe  *regexp.Regexp
}

// WineStyleOrder is the order in which wine styles are checked.
var WineStyleOrder = []string{"red", "white", "green"}

// Prepare folds every keyword list and compiles the intent matchers. It
// must be called once before the lexicon is shared.
func (l *Lexicon) Prepare() error {
	if len(l.Numbers) == 0 {
		return fmt.Errorf("lexicon: no number words")
	}
	numbers := make(map[string]int, len(l.Numbers))
	for w, n := range l.Numbers {
		if n < 0 {
			return fmt.Errorf("lexicon: number word %q has negative value", w)
		}
		numbers[fold.String(w)] = n
	}
	l.Numbers = numbers
	l.HalfWords = fold.All(l.HalfWords)
	l.FullWords = fold.All(l.FullWords)
	l.NameStopwords = fold.All(l.NameStopwords)
	l.NameTerminators = fold.All(l.NameTerminators)
	l.NameParticles = fold.All(l.NameParticles)
	l.Noise = fold.All(l.Noise)
	// Fillers are removed from spoken text, which keeps its accents, so
	// both spellings are matched.
	fillers := append([]string(nil), l.Fillers...)
	l.Fillers = fold.All(l.Fillers)
	fillers = append(fillers, l.Fillers...)
	for i := range l.Elaborations {
		l.Elaborations[i].Keywords = fold.All(l.Elaborations[i].Keywords)
		if len(l.Elaborations[i].Keywords) == 0 {
			return fmt.Errorf("lexicon: elaboration %d has no keywords", i)
		}
		l.elabRes = append(l.elabRes, wordsRegexp(l.Elaborations[i].Keywords))
	}

	l.intentRes = make(map[Intent]*regexp.Regexp, len(l.Intents))
	for intent, words := range l.Intents {
		words = fold.All(words)
		l.Intents[intent] = words
		if len(words) == 0 {
			continue
		}
		l.intentRes[intent] = wordsRegexp(words)
	}
	l.wineRes = make(map[string]*regexp.Regexp, len(l.WineStyles))
	for style, words := range l.WineStyles {
		if words = fold.All(words); len(words) > 0 {
			l.wineRes[style] = wordsRegexp(words)
		}
	}
	if len(fillers) > 0 {
		l.fillerRe = wordsRegexp(fillers)
	}
	return l.Phrases.validate()
}

// Has reports whether the folded text contains any keyword of intent as
// whole words.
func (l *Lexicon) Has(intent Intent, folded string) bool {
	re, ok := l.intentRes[intent]
	return ok && re.MatchString(folded)
}

// WineStyle returns the first wine style named in the folded text, or "".
func (l *Lexicon) WineStyle(folded string) string {
	for _, style := range WineStyleOrder {
		if re, ok := l.wineRes[style]; ok && re.MatchString(folded) {
			return style
		}
	}
	return ""
}

// Elaborate returns the first elaboration whose keyword appears in the
// folded sentence.
func (l *Lexicon) Elaborate(folded string) (string, bool) {
	for i, re := range l.elabRes {
		if re.MatchString(folded) {
			return l.Elaborations[i].Text, true
		}
	}
	return "", false
}

// Number returns the value of a folded number word or digit string.
func (l *Lexicon) Number(word string) (int, bool) {
	n, ok := l.Numbers[word]
	return n, ok
}

// NumberWords returns the folded number words, longest first.
func (l *Lexicon) NumberWords() []string {
	words := make([]string, 0, len(l.Numbers))
	for w := range l.Numbers {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}

// IsNoise reports whether a folded utterance is background noise.
func (l *Lexicon) IsNoise(folded string) bool {
	trimmed := strings.Trim(folded, " .,!?…")
	if len([]rune(trimmed)) < 2 {
		return true
	}
	for _, n := range l.Noise {
		if trimmed == n {
			return true
		}
	}
	return false
}

// IsStopword reports whether a folded word is block-listed from names.
func (l *Lexicon) IsStopword(word string) bool {
	return contains(l.NameStopwords, word)
}

// IsNameTerminator reports whether a folded word ends a name candidate.
func (l *Lexicon) IsNameTerminator(word string) bool {
	return contains(l.NameTerminators, word)
}

// IsNameParticle reports whether a folded word stays lower-case in names.
func (l *Lexicon) IsNameParticle(word string) bool {
	return contains(l.NameParticles, word)
}

// FillerRegexp matches any filler phrase as whole words. Nil when the
// lexicon has no fillers.
func (l *Lexicon) FillerRegexp() *regexp.Regexp {
	return l.fillerRe
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// wordsRegexp builds a case-insensitive whole-word alternation, longest
// phrase first so multi-word keywords beat their prefixes.
func wordsRegexp(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(?:` + strings.Join(quoted, "|") + `)(?:[^\pL\pN]|$)`)
}
