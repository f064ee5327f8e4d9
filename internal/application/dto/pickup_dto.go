package dto

import "time"

// CreatePickupRequest registro de una recogida de leche por un recolector.
// La cantidad llega como string decimal para no perder precisión en JSON.
type CreatePickupRequest struct {
	ProducerID string `json:"producer_id"`
	QuantityLt string `json:"quantity_lt"`
}

// SetPaidRequest corrección manual del estado de pago de una recogida.
type SetPaidRequest struct {
	Paid bool `json:"paid"`
}

// PickupResponse salida de una recogida. Importes como string con dos
// decimales (redondeo solo en presentación).
type PickupResponse struct {
	ID          string     `json:"id"`
	ProducerID  string     `json:"producer_id"`
	WorkerID    string     `json:"worker_id"`
	Date        time.Time  `json:"date"`
	QuantityLt  string     `json:"quantity_lt"`
	PricePerLt  string     `json:"price_per_lt"`
	Amount      string     `json:"amount"`
	Paid        bool       `json:"paid"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
}

// PriceRequest fija el precio global por litro (string decimal).
type PriceRequest struct {
	PricePerLt string `json:"price_per_lt"`
}

// PriceResponse precio global vigente.
type PriceResponse struct {
	PricePerLt string    `json:"price_per_lt"`
	Display    string    `json:"display"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedBy  string    `json:"updated_by,omitempty"`
}
