// Package report agrega productores y recogidas en resúmenes de volumen y
// dinero por productor y globales, y construye las filas del reporte
// detallado. Todo el cálculo es puro: misma entrada, misma salida, sin tocar
// el almacén.
package report

import (
	"sort"

	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProducerRollup resumen derivado de un productor. Nunca se persiste: se
// recalcula completo en cada cambio de cualquiera de los streams de entrada.
type ProducerRollup struct {
	ProducerID   string
	Name         string
	TotalLiters  decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalPending decimal.Decimal
}

// AveragePrice precio medio ponderado del productor; 0 sin litros, nunca una
// división por cero.
func (r ProducerRollup) AveragePrice() decimal.Decimal {
	if r.TotalLiters.IsZero() {
		return decimal.Zero
	}
	return r.TotalPaid.Add(r.TotalPending).Div(r.TotalLiters)
}

// GlobalRollup totales del sistema completo. Incluye las recogidas huérfanas
// (productor borrado): el dinero sigue existiendo en el libro aunque su
// productor ya no.
type GlobalRollup struct {
	TotalProducers int
	TotalLiters    decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalPending   decimal.Decimal
}

// Rollups resultado completo de la agregación.
type Rollups struct {
	// PerProducer ordenado por litros descendente; empates en orden de
	// entrada (orden estable).
	PerProducer []ProducerRollup
	// ByID índice por id de productor sobre PerProducer.
	ByID map[string]ProducerRollup
	// Orphaned contribución de recogidas cuyo productor no existe; cuenta en
	// Global pero no aparece en PerProducer.
	Orphaned ProducerRollup
	Global   GlobalRollup
}

// ComputeRollups agrega los dos streams de entrada. Los productores sin
// recogidas aparecen con acumulados a cero; una recogida que referencia un
// productor inexistente no rompe nada: suma solo en los totales globales.
func ComputeRollups(producers []entity.Producer, events []entity.CollectionEvent) Rollups {
	buckets := make(map[string]*ProducerRollup, len(producers))
	order := make([]string, 0, len(producers))
	for _, p := range producers {
		if _, dup := buckets[p.ID]; dup {
			continue
		}
		buckets[p.ID] = &ProducerRollup{
			ProducerID:   p.ID,
			Name:         p.Name,
			TotalLiters:  decimal.Zero,
			TotalPaid:    decimal.Zero,
			TotalPending: decimal.Zero,
		}
		order = append(order, p.ID)
	}

	orphaned := ProducerRollup{
		TotalLiters:  decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}
	global := GlobalRollup{
		TotalProducers: len(order),
		TotalLiters:    decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalPending:   decimal.Zero,
	}

	for _, ev := range events {
		amount := ev.Amount()
		global.TotalLiters = global.TotalLiters.Add(ev.QuantityLt)
		if ev.Paid {
			global.TotalPaid = global.TotalPaid.Add(amount)
		} else {
			global.TotalPending = global.TotalPending.Add(amount)
		}

		bucket, ok := buckets[ev.ProducerID]
		if !ok {
			bucket = &orphaned
		}
		bucket.TotalLiters = bucket.TotalLiters.Add(ev.QuantityLt)
		if ev.Paid {
			bucket.TotalPaid = bucket.TotalPaid.Add(amount)
		} else {
			bucket.TotalPending = bucket.TotalPending.Add(amount)
		}
	}

	perProducer := make([]ProducerRollup, 0, len(order))
	for _, id := range order {
		perProducer = append(perProducer, *buckets[id])
	}
	sort.SliceStable(perProducer, func(i, j int) bool {
		return perProducer[i].TotalLiters.GreaterThan(perProducer[j].TotalLiters)
	})

	byID := make(map[string]ProducerRollup, len(perProducer))
	for _, r := range perProducer {
		byID[r.ProducerID] = r
	}

	return Rollups{
		PerProducer: perProducer,
		ByID:        byID,
		Orphaned:    orphaned,
		Global:      global,
	}
}
