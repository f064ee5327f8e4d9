package report

import (
	"time"

	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// UnknownName etiqueta para referencias colgantes: una recogida cuyo
// recolector o productor ya no existe se muestra así, nunca aborta el
// reporte.
const UnknownName = "desconocido"

// Row fila del reporte detallado de recogidas, con los nombres ya resueltos.
type Row struct {
	EventID      string
	WorkerID     string
	WorkerName   string
	ProducerID   string
	ProducerName string
	Date         time.Time
	QuantityLt   decimal.Decimal
	PricePerLt   decimal.Decimal
	Amount       decimal.Decimal
	Paid         bool
	PaymentDate  *time.Time
}

// Totals acumulados del conjunto filtrado.
type Totals struct {
	TotalLiters  decimal.Decimal
	TotalAmount  decimal.Decimal
	AveragePrice decimal.Decimal // ponderado; 0 sin litros
}

// RowFilter criterios opcionales del reporte; los campos vacíos no filtran.
type RowFilter struct {
	WorkerID   string
	ProducerID string
	From       time.Time // inclusive
	To         time.Time // inclusive
}

func (f RowFilter) matches(ev entity.CollectionEvent) bool {
	if f.WorkerID != "" && ev.WorkerID != f.WorkerID {
		return false
	}
	if f.ProducerID != "" && ev.ProducerID != f.ProducerID {
		return false
	}
	if !f.From.IsZero() && ev.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ev.Date.After(f.To) {
		return false
	}
	return true
}

// BuildRows resuelve nombres y aplica el filtro sobre las recogidas,
// devolviendo las filas más los totales del conjunto. Referencias a
// recolectores o productores inexistentes degradan a UnknownName.
func BuildRows(
	events []entity.CollectionEvent,
	producers []entity.Producer,
	workers []entity.User,
	filter RowFilter,
) ([]Row, Totals) {
	producerNames := make(map[string]string, len(producers))
	for _, p := range producers {
		producerNames[p.ID] = p.Name
	}
	workerNames := make(map[string]string, len(workers))
	for _, w := range workers {
		workerNames[w.ID] = w.DisplayName()
	}

	rows := make([]Row, 0, len(events))
	totals := Totals{
		TotalLiters:  decimal.Zero,
		TotalAmount:  decimal.Zero,
		AveragePrice: decimal.Zero,
	}
	for _, ev := range events {
		if !filter.matches(ev) {
			continue
		}
		amount := ev.Amount()
		rows = append(rows, Row{
			EventID:      ev.ID,
			WorkerID:     ev.WorkerID,
			WorkerName:   nameOr(workerNames, ev.WorkerID),
			ProducerID:   ev.ProducerID,
			ProducerName: nameOr(producerNames, ev.ProducerID),
			Date:         ev.Date,
			QuantityLt:   ev.QuantityLt,
			PricePerLt:   ev.PricePerLt,
			Amount:       amount,
			Paid:         ev.Paid,
			PaymentDate:  ev.PaymentDate,
		})
		totals.TotalLiters = totals.TotalLiters.Add(ev.QuantityLt)
		totals.TotalAmount = totals.TotalAmount.Add(amount)
	}
	if !totals.TotalLiters.IsZero() {
		totals.AveragePrice = totals.TotalAmount.Div(totals.TotalLiters)
	}
	return rows, totals
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return UnknownName
}
