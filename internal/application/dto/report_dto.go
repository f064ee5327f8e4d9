package dto

import "time"

// RollupResponse resumen derivado de un productor. Los importes van
// redondeados a dos decimales y formateados para mostrar.
type RollupResponse struct {
	ProducerID   string `json:"producer_id"`
	Name         string `json:"name"`
	TotalLiters  string `json:"total_liters"`
	TotalPaid    string `json:"total_paid"`
	TotalPending string `json:"total_pending"`
	AveragePrice string `json:"average_price"`
	PaidDisplay  string `json:"paid_display"`
	PendDisplay  string `json:"pending_display"`
}

// GlobalRollupResponse totales del sistema.
type GlobalRollupResponse struct {
	TotalProducers int    `json:"total_producers"`
	TotalLiters    string `json:"total_liters"`
	TotalPaid      string `json:"total_paid"`
	TotalPending   string `json:"total_pending"`
}

// RollupsResponse respuesta del endpoint de resúmenes.
type RollupsResponse struct {
	PerProducer []RollupResponse     `json:"per_producer"`
	Global      GlobalRollupResponse `json:"global"`
}

// ReportRowResponse fila del reporte detallado.
type ReportRowResponse struct {
	EventID      string     `json:"event_id"`
	WorkerName   string     `json:"worker_name"`
	ProducerName string     `json:"producer_name"`
	Date         time.Time  `json:"date"`
	QuantityLt   string     `json:"quantity_lt"`
	PricePerLt   string     `json:"price_per_lt"`
	Amount       string     `json:"amount"`
	Paid         bool       `json:"paid"`
	PaymentDate  *time.Time `json:"payment_date,omitempty"`
}

// ReportTotalsResponse totales del conjunto filtrado.
type ReportTotalsResponse struct {
	TotalLiters  string `json:"total_liters"`
	TotalAmount  string `json:"total_amount"`
	AveragePrice string `json:"average_price"`
	Display      string `json:"display"`
}

// ReportResponse reporte detallado completo.
type ReportResponse struct {
	Rows   []ReportRowResponse  `json:"rows"`
	Totals ReportTotalsResponse `json:"totals"`
}
