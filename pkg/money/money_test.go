package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/acopio-api/pkg/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Redondeo de presentación: dos decimales, mitad alejándose de cero.
func TestDisplay_RedondeoMitadAlejandoseDeCero(t *testing.T) {
	cases := map[string]string{
		"2":       "2.00",
		"2.005":   "2.01",
		"-2.005":  "-2.01",
		"31.2549": "31.25",
		"0":       "0.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, money.Display(dec(in)), "Display(%s)", in)
	}
}

// Formato tr-TR: punto de millar, coma decimal.
func TestFormatTRY_SeparadoresTurcos(t *testing.T) {
	assert.Equal(t, "₺1.234,50", money.FormatTRY(dec("1234.5")))
	assert.Equal(t, "₺0,00", money.FormatTRY(dec("0")))
	assert.Equal(t, "₺2,01", money.FormatTRY(dec("2.005")))
}

func TestFormatLiters(t *testing.T) {
	assert.Equal(t, "15,50 L", money.FormatLiters(dec("15.5")))
	assert.Equal(t, "1.250,00 L", money.FormatLiters(dec("1250")))
}
