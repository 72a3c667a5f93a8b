package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Feijão Preto", "feijao preto"},
		{"  Févera   de Porco ", "fevera de porco"},
		{"às 15h30", "as 15h30"},
		{"Trança (Caceté)", "tranca (cacete)"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.in), "fold(%q)", tt.in)
	}
}

func TestAllDropsEmpty(t *testing.T) {
	assert.Equal(t, []string{"picante", "sem molho"}, All([]string{"Picante", "  ", "Sem Molho"}))
}
