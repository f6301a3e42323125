package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBRL(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"R$ 1.234,56", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"R$ 400,00", 400, true},
		{"R$400", 400, true},
		{"12.500", 12500, true},
		{"valor: 35,9 reais", 35.9, true},
		{"sem valor", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseBRL(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(1234.56))
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 400,00", FormatBRL(400))
}

func TestUnitPriceOf(t *testing.T) {
	assert.Equal(t, 400.0, UnitPriceOf(800, 2))
	assert.Equal(t, 800.0, UnitPriceOf(800, 0))
	assert.Equal(t, 800.0, UnitPriceOf(800, -3))
}

func TestLineItemAcceptable(t *testing.T) {
	assert.True(t, NewLineItem("Mesa", 1, "", "", 10).Acceptable())
	assert.False(t, NewLineItem("", 1, "", "", 10).Acceptable())
	assert.False(t, NewLineItem("Mesa", 1, "", "", 0).Acceptable())
}
