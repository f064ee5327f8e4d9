package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSettingID identificador del único registro global de precio.
const PriceSettingID = "milk_price"

// PriceSetting ajuste global del precio por litro. Lo fija el admin y lo leen
// los recolectores únicamente al crear una recogida.
type PriceSetting struct {
	ID         string
	PricePerLt decimal.Decimal
	UpdatedAt  time.Time
	UpdatedBy  string // ID del usuario que fijó el precio
}

// Usable indica si el precio sirve para registrar recogidas (estrictamente
// positivo). Con precio no usable las recogidas se rechazan.
func (p PriceSetting) Usable() bool {
	return p.PricePerLt.IsPositive()
}
