package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nadzzz/ordertaker/internal/fold"
	"github.com/nadzzz/ordertaker/internal/lexicon"
)

// Pacing selects how a spoken line is reshaped for the caller.
type Pacing string

const (
	PacingNormal   Pacing = "normal"
	PacingConcise  Pacing = "concise"
	PacingDetailed Pacing = "detailed"
	PacingAuto     Pacing = "auto"
)

// ParsePacing validates a configured or requested pacing. Empty is normal.
func ParsePacing(s string) (Pacing, error) {
	switch p := Pacing(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PacingNormal, nil
	case PacingNormal, PacingConcise, PacingDetailed, PacingAuto:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pacing %q", s)
	}
}

const (
	conciseMaxSentences = 3
	detailedMaxLength   = 200
	autoShortWords      = 4
	autoLongWords       = 20
)

var sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// Shaper rewrites the text of Speak actions. It never changes the kind.
type Shaper struct {
	lex *lexicon.Lexicon
}

// NewShaper returns a shaper using the lexicon's fillers and elaborations.
func NewShaper(lex *lexicon.Lexicon) *Shaper {
	return &Shaper{lex: lex}
}

// Resolve turns auto pacing into a concrete one from the length of the
// customer's turn.
func (s *Shaper) Resolve(p Pacing, customerText string) Pacing {
	if p != PacingAuto {
		return p
	}
	switch n := len(strings.Fields(customerText)); {
	case n <= autoShortWords:
		return PacingConcise
	case n >= autoLongWords:
		return PacingDetailed
	default:
		return PacingNormal
	}
}

// Shape applies pacing to a. Structured replies (questions, summaries,
// confirmations) keep their wording so the order read back is intact.
func (s *Shaper) Shape(a Action, p Pacing, customerText string) Action {
	if a.Kind != Speak || a.Text == "" {
		return a
	}
	switch s.Resolve(p, customerText) {
	case PacingConcise:
		a.Text = s.concise(a.Text)
	case PacingDetailed:
		a.Text = s.detailed(a.Text)
	}
	return a
}

func (s *Shaper) concise(text string) string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return text
	}
	re := s.lex.FillerRegexp()
	var kept []string
	for _, sent := range sentences {
		if re != nil {
			sent = re.ReplaceAllString(sent, " ")
		}
		sent = strings.Trim(strings.Join(strings.Fields(sent), " "), " ,;")
		if strings.Trim(sent, ".!?") == "" {
			continue
		}
		kept = append(kept, capitalize(sent))
		if len(kept) == conciseMaxSentences {
			break
		}
	}
	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, " ")
}

func (s *Shaper) detailed(text string) string {
	if len(text) > detailedMaxLength {
		return text
	}
	var out []string
	for _, sent := range splitSentences(text) {
		out = append(out, sent)
		if extra, ok := s.lex.Elaborate(fold.String(sent)); ok {
			out = append(out, extra+".")
		}
	}
	return strings.Join(out, " ")
}

// splitSentences splits on terminal punctuation followed by a space, so
// prices such as 7.90€ stay whole. Each sentence keeps its terminator.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if sent := strings.TrimSpace(text[last:loc[1]]); sent != "" {
			out = append(out, sent)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func capitalize(s string) string {
	for i, r := range s {
		return strings.ToUpper(string(r)) + s[i+len(string(r)):]
	}
	return s
}
