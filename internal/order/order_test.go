package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/ordertaker/internal/lexicon"
	"github.com/nadzzz/ordertaker/internal/menu"
)

var labels = lexicon.SummaryLabels{
	Header:     "Resumo do pedido:",
	Empty:      "Nenhum item foi pedido ainda.",
	PickupTime: "Horário de levantamento:",
	Name:       "Nome:",
}

func TestFirstWriteWins(t *testing.T) {
	s := New()

	assert.True(t, s.SetName("Maria Silva"))
	assert.False(t, s.SetName("João Costa"))
	assert.Equal(t, "Maria Silva", s.CustomerName)

	assert.True(t, s.SetPickupTime("15:30"))
	assert.False(t, s.SetPickupTime("18:00"))
	assert.Equal(t, "15:30", s.PickupTime)

	assert.False(t, New().SetName(""))
}

func TestUpsert(t *testing.T) {
	s := New()

	it, added := s.Upsert("Frango do Churrasco", "Frango do Churrasco", 2, true)
	require.True(t, added)
	assert.Equal(t, 2, it.Quantity)

	_, added = s.Upsert("Frango do Churrasco", "Frango do Churrasco", 1, false)
	assert.False(t, added)
	assert.Equal(t, 2, it.Quantity, "implicit mention keeps quantity")

	_, added = s.Upsert("Frango do Churrasco", "Frango do Churrasco", 3, true)
	assert.False(t, added)
	assert.Equal(t, 3, it.Quantity)
	assert.Len(t, s.Items, 1)

	it, _ = s.Upsert("Dose de Arroz", "Dose de Arroz", 0, false)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, "Dose de Arroz", s.Items[1].Name)
}

func TestRevisionTracksChanges(t *testing.T) {
	s := New()
	r0 := s.Revision()

	it, _ := s.Upsert("Picanha", "Picanha", 1, false)
	r1 := s.Revision()
	assert.Greater(t, r1, r0)

	s.Upsert("Picanha", "Picanha", 1, true)
	assert.Equal(t, r1, s.Revision(), "same quantity is not a change")

	assert.True(t, s.SetModifier(it, menu.Sauce, "molho de alho"))
	assert.False(t, s.SetModifier(it, menu.Sauce, "molho da casa"))
	assert.Equal(t, "molho de alho", it.Modifier(menu.Sauce))
	assert.Greater(t, s.Revision(), r1)
}

func TestCloneIsDeep(t *testing.T) {
	s := New()
	it, _ := s.Upsert("Picanha", "Picanha", 1, false)
	s.SetModifier(it, menu.Sauce, "sem molho")

	c := s.Clone()
	c.Items[0].Quantity = 5
	c.Items[0].Modifiers[menu.SpiceLevel] = "picante"
	c.SetName("Ana Lopes")

	assert.Equal(t, 1, it.Quantity)
	assert.False(t, it.HasModifier(menu.SpiceLevel))
	assert.Empty(t, s.CustomerName)
	assert.Equal(t, s.Revision(), s.Clone().Revision())
}

func TestSummary(t *testing.T) {
	s := New()
	assert.Equal(t, "Nenhum item foi pedido ainda.", s.Summary(labels))

	it, _ := s.Upsert("Frango do Churrasco", "Frango do Churrasco", 1, false)
	s.SetModifier(it, menu.SpiceLevel, "picante")
	s.SetModifier(it, menu.Sauce, "molho da casa")
	s.Upsert("Dose de Arroz", "Dose de Arroz", 2, true)
	s.SetPickupTime("15:30")
	s.SetName("Maria Silva")

	want := "Resumo do pedido:\n" +
		"- 1x Frango do Churrasco (molho da casa, picante)\n" +
		"- 2x Dose de Arroz\n" +
		"\nHorário de levantamento: 15:30\n" +
		"Nome: Maria Silva"
	assert.Equal(t, want, s.Summary(labels))
}

func TestSummaryItemsOnly(t *testing.T) {
	s := New()
	s.Upsert("Coelho", "Coelho", 1, false)
	assert.Equal(t, "Resumo do pedido:\n- 1x Coelho", s.Summary(labels))
}
