package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectionEvent registro de una recogida de leche. El precio unitario se
// captura del ajuste global vigente en el momento de creación y es inmutable
// después: cambios posteriores del precio no alteran recogidas históricas.
// Solo Paid y PaymentDate son mutables tras la creación (liquidación).
type CollectionEvent struct {
	ID          string
	ProducerID  string
	WorkerID    string
	Date        time.Time // UTC, momento de la recogida
	QuantityLt  decimal.Decimal
	PricePerLt  decimal.Decimal
	Paid        bool
	PaymentDate *time.Time // nil mientras no esté pagada
}

// Amount importe de la recogida: cantidad × precio unitario capturado.
func (e CollectionEvent) Amount() decimal.Decimal {
	return e.QuantityLt.Mul(e.PricePerLt)
}
