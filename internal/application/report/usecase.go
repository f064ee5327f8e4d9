package report

import (
	"context"
	"fmt"

	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
)

// UseCase consultas de reporte en modo petición-respuesta: lee los
// recordsets del almacén y delega el cálculo en las funciones puras del
// paquete.
type UseCase struct {
	store record.Store
}

// NewUseCase construye el caso de uso.
func NewUseCase(store record.Store) *UseCase {
	return &UseCase{store: store}
}

// Rollups calcula los resúmenes por productor y globales sobre el estado
// actual del almacén.
func (uc *UseCase) Rollups(ctx context.Context) (Rollups, error) {
	producers, events, err := uc.inputs(ctx)
	if err != nil {
		return Rollups{}, err
	}
	return ComputeRollups(producers, events), nil
}

// Rows construye el reporte detallado con el filtro dado.
func (uc *UseCase) Rows(ctx context.Context, filter RowFilter) ([]Row, Totals, error) {
	producers, events, err := uc.inputs(ctx)
	if err != nil {
		return nil, Totals{}, err
	}
	workerDocs, err := uc.store.GetAll(ctx, record.KindUsers,
		record.Filter{}.Where("role", record.OpEq, string(entity.RoleRecolector)))
	if err != nil {
		return nil, Totals{}, fmt.Errorf("leer recolectores: %w", err)
	}
	workers := make([]entity.User, 0, len(workerDocs))
	for _, d := range workerDocs {
		workers = append(workers, record.UserFromDoc(d))
	}
	rows, totals := BuildRows(events, producers, workers, filter)
	return rows, totals, nil
}

// OwnSummary resumen de devengo del productor dueño del principal: su
// rollup y sus recogidas. Devuelve ErrProducerNotFound si el principal no
// tiene registro de productor.
func (uc *UseCase) OwnSummary(ctx context.Context, principalID string) (ProducerRollup, []entity.CollectionEvent, error) {
	producerDocs, err := uc.store.GetAll(ctx, record.KindProducers,
		record.Filter{}.Where("user_id", record.OpEq, principalID))
	if err != nil {
		return ProducerRollup{}, nil, fmt.Errorf("buscar productor del principal: %w", err)
	}
	if len(producerDocs) == 0 {
		return ProducerRollup{}, nil, domain.ErrProducerNotFound
	}
	producer := record.ProducerFromDoc(producerDocs[0])

	eventDocs, err := uc.store.GetAll(ctx, record.KindEvents,
		record.Filter{}.Where("producer_id", record.OpEq, producer.ID))
	if err != nil {
		return ProducerRollup{}, nil, fmt.Errorf("leer recogidas del productor: %w", err)
	}
	events := make([]entity.CollectionEvent, 0, len(eventDocs))
	for _, d := range eventDocs {
		events = append(events, record.EventFromDoc(d))
	}

	rollups := ComputeRollups([]entity.Producer{producer}, events)
	return rollups.ByID[producer.ID], events, nil
}

func (uc *UseCase) inputs(ctx context.Context) ([]entity.Producer, []entity.CollectionEvent, error) {
	producerDocs, err := uc.store.GetAll(ctx, record.KindProducers, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("leer productores: %w", err)
	}
	eventDocs, err := uc.store.GetAll(ctx, record.KindEvents, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("leer recogidas: %w", err)
	}
	producers := make([]entity.Producer, 0, len(producerDocs))
	for _, d := range producerDocs {
		producers = append(producers, record.ProducerFromDoc(d))
	}
	events := make([]entity.CollectionEvent, 0, len(eventDocs))
	for _, d := range eventDocs {
		events = append(events, record.EventFromDoc(d))
	}
	return producers, events, nil
}
