// Package money formatea importes en lira turca para presentación, con los
// separadores de tr-TR. El redondeo a dos decimales (mitad alejándose de
// cero) ocurre aquí, nunca en el cálculo.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Turkish)

// FormatTRY formatea un importe como lira turca, ej: "₺1.234,50".
func FormatTRY(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("₺%v", number.Decimal(f,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatLiters formatea un volumen en litros con dos decimales, ej:
// "15,50 L".
func FormatLiters(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%v L", number.Decimal(f,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Display redondeo de presentación: dos decimales, mitad alejándose de cero,
// como string plano para JSON.
func Display(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
