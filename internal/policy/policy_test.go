package policy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nadzzz/ordertaker/internal/extract"
	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/menu"
	"github.com/nadzzz/ordertaker/internal/order"
	"github.com/nadzzz/ordertaker/internal/transcript"
	"github.com/nadzzz/ordertaker/internal/utterance"
)

type call struct {
	t      *testing.T
	bundle *locale.Bundle
	norm   *utterance.Normalizer
	engine *extract.Engine
	state  *order.State
	policy *Policy
}

func newCall(t *testing.T) *call {
	t.Helper()
	b, err := locale.Default()
	require.NoError(t, err)
	p, err := New(b.Catalog, b.Lexicon)
	require.NoError(t, err)
	return &call{
		t:      t,
		bundle: b,
		norm:   utterance.New(b.Catalog, b.Lexicon, language.Portuguese),
		engine: extract.New(b.Catalog),
		state:  order.New(),
		policy: p,
	}
}

func (c *call) say(text string) Action {
	c.engine.Apply(c.norm.Normalize(text), c.state, transcript.Customer)
	return c.policy.Next(c.state, text)
}

func TestFullOrderIsSummarized(t *testing.T) {
	c := newCall(t)
	a := c.say("quero um frango do churrasco com molho da casa e picante, para as 15h30, em nome de Maria Silva")

	assert.Equal(t, Summarize, a.Kind)
	assert.True(t, strings.HasPrefix(a.Text, "Resumindo o seu pedido."))
	assert.Contains(t, a.Text, "1x Frango do Churrasco (molho da casa, picante)")
	assert.Contains(t, a.Text, "Maria Silva")
	assert.Equal(t, AwaitingCompletion, c.policy.Phase())
}

func TestModifierQuestionsComeFirst(t *testing.T) {
	c := newCall(t)

	a := c.say("quero um frango para as 15h30 em nome de Maria Silva")
	assert.Equal(t, AskMissingModifier, a.Kind)
	assert.Equal(t, menu.Sauce, a.Modifier)
	assert.Equal(t, "Frango do Churrasco", a.Item)
	assert.Equal(t, "Que molho prefere para Frango do Churrasco?", a.Text)

	a = c.say("confirmar")
	assert.Equal(t, AskMissingModifier, a.Kind, "confirm cannot skip a missing modifier")
	assert.Equal(t, menu.Sauce, a.Modifier)

	a = c.say("molho de alho")
	assert.Equal(t, AskMissingModifier, a.Kind)
	assert.Equal(t, menu.SpiceLevel, a.Modifier)

	a = c.say("sem picante")
	assert.Equal(t, Summarize, a.Kind)
}

func TestConfirmNeedsSummaryThenCloses(t *testing.T) {
	c := newCall(t)
	c.say("quero um frango do churrasco com molho da casa e picante, para as 15h30, em nome de Maria Silva")

	a := c.say("sim, confirmo")
	require.Equal(t, Confirm, a.Kind)
	assert.Contains(t, a.Text, "confirmado")
	assert.Equal(t, Closed, c.policy.Phase())

	assert.Equal(t, Silent, c.say("quero mais um frango").Kind)
	assert.Equal(t, Silent, c.say("confirmar").Kind)

	a = c.say("pode repetir?")
	assert.Equal(t, Speak, a.Kind)
	assert.Contains(t, a.Text, "confirmado")
}

func TestChangedOrderIsSummarizedAgainBeforeConfirm(t *testing.T) {
	c := newCall(t)
	c.say("quero um frango do churrasco com molho da casa e picante, para as 15h30, em nome de Maria Silva")

	a := c.say("e uma dose de arroz, confirmo")
	assert.Equal(t, Summarize, a.Kind)
	assert.Contains(t, a.Text, "1x Dose de Arroz")

	assert.Equal(t, Confirm, c.say("confirmo").Kind)
}

func TestConfirmOnEmptyOrderIsSilent(t *testing.T) {
	c := newCall(t)
	before := c.state.Revision()

	a := c.say("confirmar")
	assert.Equal(t, Action{Kind: Silent}, a)
	assert.Equal(t, before, c.state.Revision())
	assert.True(t, c.state.Empty())
	assert.Equal(t, Collecting, c.policy.Phase())
}

func TestCompletionAsksNameThenTime(t *testing.T) {
	c := newCall(t)

	a := c.say("dois frangos com molho da casa e picante")
	assert.Equal(t, Speak, a.Kind)
	assert.Equal(t, "Anotado, 2x Frango do Churrasco. Mais alguma coisa?", a.Text)

	a = c.say("é tudo")
	assert.Equal(t, AskMissingField, a.Kind)
	assert.Equal(t, FieldName, a.Field)

	a = c.say("em nome de Ana Lopes")
	assert.Equal(t, AskMissingField, a.Kind)
	assert.Equal(t, FieldTime, a.Field)

	a = c.say("às 19h")
	assert.Equal(t, Summarize, a.Kind)
	assert.Contains(t, a.Text, "19:00")
}

func TestInformationRequests(t *testing.T) {
	c := newCall(t)

	a := c.say("qual é o menu?")
	assert.Equal(t, Speak, a.Kind)
	assert.True(t, strings.HasPrefix(a.Text, "Aqui está o nosso menu principal."))
	assert.Contains(t, a.Text, "Frango do Churrasco 7.90€")
	assert.NotContains(t, a.Text, "1/2 Frango do Churrasco")

	a = c.say("tem vinho tinto?")
	assert.Contains(t, a.Text, "Monte Velho Tinto")

	a = c.say("que vinhos tem?")
	assert.Equal(t, c.bundle.Lexicon.Phrases.Wine["any"], a.Text)

	a = c.say("e sobremesas?")
	assert.Equal(t, c.bundle.Lexicon.Phrases.Desserts, a.Text)

	assert.True(t, c.state.Empty())
}

func TestNotAvailable(t *testing.T) {
	c := newCall(t)
	a := c.say("queria uma francesinha")
	assert.Equal(t, Speak, a.Kind)
	assert.Equal(t, c.bundle.Lexicon.Phrases.NotAvailable, a.Text)
}

func TestRepeat(t *testing.T) {
	c := newCall(t)
	a := c.say("pode repetir?")
	assert.Equal(t, c.bundle.Lexicon.Phrases.NothingSaid, a.Text)

	menuText := c.say("o menu por favor").Text
	assert.Equal(t, menuText, c.say("não percebi, pode repetir?").Text)
}

func TestDigits(t *testing.T) {
	c := newCall(t)

	a := c.policy.Digits("1")
	assert.Equal(t, Speak, a.Kind)
	assert.True(t, strings.HasPrefix(a.Text, "Selecionou a opção de menu. Aqui está o nosso menu principal."))

	a = c.policy.Digits("2")
	assert.True(t, strings.HasPrefix(a.Text, "Selecionou a opção de bebidas."))

	assert.Equal(t, Silent, c.policy.Digits("9").Kind)
	assert.Equal(t, c.bundle.Lexicon.Phrases.Closing, c.policy.Digits("0").Text)
}

func TestGreeting(t *testing.T) {
	c := newCall(t)
	lisbon := time.FixedZone("WEST", 3600)
	g := c.bundle.Lexicon.Phrases.Greetings

	tests := []struct {
		utc  time.Time
		want string
	}{
		{time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC), g.Morning},
		{time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC), g.Afternoon},
		{time.Date(2024, 7, 1, 19, 30, 0, 0, time.UTC), g.Evening},
		{time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC), g.Evening},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.policy.Greeting(tt.utc, lisbon).Text, tt.utc.String())
	}
}
