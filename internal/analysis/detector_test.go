package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"celular samsung barato", "celular"},
		{"Quiero un SMARTPHONE", "celular"},
		{"heladera no frost", "heladera"},
		{"refrigerador dos puertas", "heladera"},
		{"notebook para programar", "notebook"},
		{"smart tv 55 pulgadas", "televisor"},
		{"lavarropas carga frontal", "lavarropas"},
		{"zapatillas running", "default"},
		{"", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCategory(tt.query))
		})
	}
}

func TestDetectCategory_FirstMatchWins(t *testing.T) {
	// "celular" is checked before "televisor": a query mentioning both maps
	// to the earlier category.
	assert.Equal(t, "celular", DetectCategory("celular con pantalla grande"))
}
