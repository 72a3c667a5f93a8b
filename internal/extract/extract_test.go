package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/menu"
	"github.com/nadzzz/ordertaker/internal/order"
	"github.com/nadzzz/ordertaker/internal/transcript"
	"github.com/nadzzz/ordertaker/internal/utterance"
)

type line struct {
	Name      string
	Quantity  int
	Modifiers map[menu.ModifierKind]string
}

func lines(s *order.State) []line {
	out := make([]line, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, line{Name: it.Name, Quantity: it.Quantity, Modifiers: it.Modifiers})
	}
	return out
}

type harness struct {
	t      *testing.T
	norm   *utterance.Normalizer
	engine *Engine
	state  *order.State
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	b, err := locale.Default()
	require.NoError(t, err)
	return &harness{
		t:      t,
		norm:   utterance.New(b.Catalog, b.Lexicon, language.Portuguese),
		engine: New(b.Catalog, opts...),
		state:  order.New(),
	}
}

func (h *harness) say(text string) Result {
	return h.engine.Apply(h.norm.Normalize(text), h.state, transcript.Customer)
}

func (h *harness) hear(text string) Result {
	return h.engine.Apply(h.norm.NormalizeReply(text), h.state, transcript.Assistant)
}

func TestFullOrderInOneTurn(t *testing.T) {
	h := newHarness(t)
	res := h.say("quero um frango do churrasco com molho da casa e picante, para as 15h30, em nome de Maria Silva")

	want := []line{{
		Name:     "Frango do Churrasco",
		Quantity: 1,
		Modifiers: map[menu.ModifierKind]string{
			menu.Sauce:      "molho da casa",
			menu.SpiceLevel: "picante",
		},
	}}
	if diff := cmp.Diff(want, lines(h.state)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "15:30", h.state.PickupTime)
	assert.Equal(t, "Maria Silva", h.state.CustomerName)
	assert.True(t, res.NameSet)
	assert.True(t, res.PickupTimeSet)
	assert.Equal(t, []string{"1x Frango do Churrasco"}, res.Added)
	assert.Len(t, res.Modifiers, 2)
}

func TestApplyIsIdempotent(t *testing.T) {
	utterances := []string{
		"quero um frango do churrasco com molho da casa e picante, para as 15h30, em nome de Maria Silva",
		"dois frangos e três doses de arroz",
		"meia picanha sem molho",
		"quero uma espetada de frango",
	}
	for _, text := range utterances {
		t.Run(text, func(t *testing.T) {
			h := newHarness(t)
			h.say(text)
			first := h.state.Clone()

			res := h.say(text)
			assert.False(t, res.Changed())
			if diff := cmp.Diff(lines(first), lines(h.state)); diff != "" {
				t.Errorf("second application changed items (-first +second):\n%s", diff)
			}
			assert.Equal(t, first.CustomerName, h.state.CustomerName)
			assert.Equal(t, first.PickupTime, h.state.PickupTime)
		})
	}
}

func TestNameAndTimeFirstWriteWins(t *testing.T) {
	h := newHarness(t)
	h.say("em nome de Maria Silva para as 15h30")
	res := h.say("o meu nome é João Costa, afinal às 18h00")

	assert.False(t, res.NameSet)
	assert.False(t, res.PickupTimeSet)
	assert.Equal(t, "Maria Silva", h.state.CustomerName)
	assert.Equal(t, "15:30", h.state.PickupTime)
}

func TestLongestAliasWins(t *testing.T) {
	h := newHarness(t)
	h.say("quero uma espetada de frango")

	require.Len(t, h.state.Items, 1)
	assert.Equal(t, "Espetada de Frango c/ Bacon", h.state.Items[0].Name)
}

func TestUpsertNotDuplicate(t *testing.T) {
	h := newHarness(t)
	h.say("dois frangos")
	res := h.say("agora três frangos")

	want := []line{{Name: "Frango do Churrasco", Quantity: 3, Modifiers: map[menu.ModifierKind]string{}}}
	if diff := cmp.Diff(want, lines(h.state)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"3x Frango do Churrasco"}, res.Updated)
}

func TestImplicitMentionKeepsQuantity(t *testing.T) {
	h := newHarness(t)
	h.say("dois frangos")
	h.say("o frango com molho de alho")

	require.Len(t, h.state.Items, 1)
	assert.Equal(t, 2, h.state.Items[0].Quantity)
	assert.Equal(t, "molho de alho", h.state.Items[0].Modifier(menu.Sauce))
}

func TestHalfPortions(t *testing.T) {
	h := newHarness(t)
	h.say("meia picanha e meio frango e meia dose de arroz")

	names := make([]string, 0, len(h.state.Items))
	for _, it := range h.state.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"1/2 Picanha", "1/2 Frango do Churrasco", "1/2 Dose de Arroz"}, names)
}

func TestAssistantTurnsDoNotAddItems(t *testing.T) {
	h := newHarness(t)
	res := h.hear("Anotado, 2x Frango do Churrasco. Nome: Maria Silva")

	assert.Empty(t, h.state.Items)
	assert.Empty(t, res.Added)
	assert.True(t, res.NameSet)
	assert.Equal(t, "Maria Silva", h.state.CustomerName)
}

func TestUnresolvedMentionIsDropped(t *testing.T) {
	h := newHarness(t)
	res := h.say("queria uma francesinha")

	assert.False(t, res.Changed())
	assert.True(t, h.state.Empty())
}

func TestBroadModifierAttribution(t *testing.T) {
	h := newHarness(t)
	h.say("um frango, uma picanha e arroz")
	h.say("molho de alho para tudo")

	for _, it := range h.state.Items {
		if it.Name == "Dose de Arroz" {
			assert.False(t, it.HasModifier(menu.Sauce), "side dishes take no sauce")
			continue
		}
		assert.Equal(t, "molho de alho", it.Modifier(menu.Sauce), it.Name)
	}

	// A later sauce never overwrites one already chosen.
	h.say("uma costelinha com molho da casa")
	for _, it := range h.state.Items {
		switch it.Name {
		case "Costelinha":
			assert.Equal(t, "molho da casa", it.Modifier(menu.Sauce))
		case "Frango do Churrasco", "Picanha":
			assert.Equal(t, "molho de alho", it.Modifier(menu.Sauce))
		}
	}
}

func TestLatestModifierScope(t *testing.T) {
	h := newHarness(t, WithScope(ScopeLatest))
	h.say("um frango com molho de alho e uma picanha com molho da casa")

	want := []line{
		{Name: "Frango do Churrasco", Quantity: 1, Modifiers: map[menu.ModifierKind]string{menu.Sauce: "molho de alho"}},
		{Name: "Picanha", Quantity: 1, Modifiers: map[menu.ModifierKind]string{menu.Sauce: "molho da casa"}},
	}
	if diff := cmp.Diff(want, lines(h.state)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	// Without an item in the same turn the most recent line takes it.
	h.say("picante")
	assert.Equal(t, "picante", h.state.Items[1].Modifier(menu.SpiceLevel))
	assert.False(t, h.state.Items[0].HasModifier(menu.SpiceLevel))
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, s)

	s, err = ParseScope("latest")
	require.NoError(t, err)
	assert.Equal(t, ScopeLatest, s)

	_, err = ParseScope("nearest")
	assert.Error(t, err)
}
