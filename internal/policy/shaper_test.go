package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/ordertaker/internal/locale"
)

func newShaper(t *testing.T) *Shaper {
	t.Helper()
	b, err := locale.Default()
	require.NoError(t, err)
	return NewShaper(b.Lexicon)
}

func TestParsePacing(t *testing.T) {
	for in, want := range map[string]Pacing{"": PacingNormal, "Concise": PacingConcise, "auto": PacingAuto} {
		got, err := ParsePacing(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePacing("fast")
	assert.Error(t, err)
}

func TestConciseDropsFillersAndCaps(t *testing.T) {
	s := newShaper(t)
	in := Action{Kind: Speak, Text: "Pronto, temos frango. Então temos arroz também. Temos salada. Temos broa."}

	out := s.Shape(in, PacingConcise, "")
	assert.Equal(t, Speak, out.Kind)
	assert.Equal(t, "Temos frango. Temos arroz também. Temos salada.", out.Text)
}

func TestConciseKeepsSingleSentence(t *testing.T) {
	s := newShaper(t)
	in := Action{Kind: Speak, Text: "Pronto, o frango custa 7.90€."}
	assert.Equal(t, in, s.Shape(in, PacingConcise, ""))
}

func TestDetailedAddsElaboration(t *testing.T) {
	s := newShaper(t)
	out := s.Shape(Action{Kind: Speak, Text: "Temos bacalhau hoje."}, PacingDetailed, "")
	assert.Equal(t, "Temos bacalhau hoje. O nosso bacalhau é importado diretamente da Noruega e preparado segundo as melhores tradições portuguesas.", out.Text)

	long := Action{Kind: Speak, Text: strings.Repeat("Temos bacalhau. ", 20)}
	assert.Equal(t, long, s.Shape(long, PacingDetailed, ""))
}

func TestShapeLeavesStructuredRepliesAlone(t *testing.T) {
	s := newShaper(t)
	a := Action{Kind: Summarize, Text: "Resumindo o seu pedido. Pronto. Então. Bem."}
	assert.Equal(t, a, s.Shape(a, PacingConcise, ""))
	assert.Equal(t, Action{Kind: Silent}, s.Shape(Action{Kind: Silent}, PacingDetailed, ""))
}

func TestAutoPacing(t *testing.T) {
	s := newShaper(t)
	assert.Equal(t, PacingConcise, s.Resolve(PacingAuto, "sim"))
	assert.Equal(t, PacingNormal, s.Resolve(PacingAuto, "queria um frango e uma dose de arroz por favor"))
	assert.Equal(t, PacingDetailed, s.Resolve(PacingAuto, strings.Repeat("palavra ", 20)))
	assert.Equal(t, PacingConcise, s.Resolve(PacingConcise, strings.Repeat("palavra ", 20)))
}
