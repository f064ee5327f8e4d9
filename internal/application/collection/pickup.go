// Package collection contiene el caso de uso de registro de recogidas de
// leche y la gestión del precio global por litro.
package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// UseCase registro de recogidas. Solo un recolector puede registrar, y solo
// para productores que tiene asignados.
type UseCase struct {
	store record.Store
	log   *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(store record.Store, log *logger.Logger) *UseCase {
	return &UseCase{store: store, log: log}
}

// RecordPickup valida y persiste una recogida. El precio unitario se captura
// del ajuste global vigente en este instante y queda inmutable en el
// registro: cambios de precio posteriores no afectan a recogidas ya creadas.
//
// Validaciones, todas antes de emitir ninguna mutación:
//   - cantidad decimal estrictamente positiva
//   - el productor existe y tiene a este recolector asignado
//   - el precio global está fijado y es positivo
func (uc *UseCase) RecordPickup(ctx context.Context, workerID string, in dto.CreatePickupRequest) (entity.CollectionEvent, error) {
	if workerID == "" {
		return entity.CollectionEvent{}, domain.ErrUnauthorized
	}
	if in.ProducerID == "" {
		return entity.CollectionEvent{}, fmt.Errorf("%w: falta el productor", domain.ErrInvalidInput)
	}
	qty, err := decimal.NewFromString(in.QuantityLt)
	if err != nil {
		return entity.CollectionEvent{}, fmt.Errorf("%w: cantidad no numérica", domain.ErrInvalidInput)
	}
	if !qty.IsPositive() {
		return entity.CollectionEvent{}, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}

	producerDocs, err := uc.store.GetAll(ctx, record.KindProducers,
		record.Filter{}.Where("id", record.OpEq, in.ProducerID))
	if err != nil {
		return entity.CollectionEvent{}, fmt.Errorf("buscar productor: %w", err)
	}
	if len(producerDocs) == 0 {
		return entity.CollectionEvent{}, domain.ErrProducerNotFound
	}
	producer := record.ProducerFromDoc(producerDocs[0])
	if producer.AssignedWorkerID != workerID {
		return entity.CollectionEvent{}, fmt.Errorf("%w: el productor no está asignado a este recolector", domain.ErrForbidden)
	}

	price, err := uc.CurrentPrice(ctx)
	if err != nil {
		return entity.CollectionEvent{}, err
	}
	if !price.Usable() {
		return entity.CollectionEvent{}, domain.ErrPriceUnavailable
	}

	ev := entity.CollectionEvent{
		ID:         uuid.New().String(),
		ProducerID: producer.ID,
		WorkerID:   workerID,
		Date:       time.Now().UTC(),
		QuantityLt: qty,
		PricePerLt: price.PricePerLt,
		Paid:       false,
	}
	if err := uc.store.Create(ctx, record.KindEvents, record.EventToDoc(ev)); err != nil {
		return entity.CollectionEvent{}, fmt.Errorf("crear recogida: %w", err)
	}

	uc.log.Info().
		Str("worker_id", workerID).
		Str("producer_id", producer.ID).
		Str("litros", qty.String()).
		Str("precio", price.PricePerLt.String()).
		Msg("recogida registrada")
	return ev, nil
}

// AssignedProducers productores asignados al recolector (los únicos sobre
// los que puede registrar recogidas).
func (uc *UseCase) AssignedProducers(ctx context.Context, workerID string) ([]entity.Producer, error) {
	docs, err := uc.store.GetAll(ctx, record.KindProducers,
		record.Filter{}.Where("assigned_worker_id", record.OpEq, workerID))
	if err != nil {
		return nil, fmt.Errorf("listar productores asignados: %w", err)
	}
	producers := make([]entity.Producer, 0, len(docs))
	for _, d := range docs {
		producers = append(producers, record.ProducerFromDoc(d))
	}
	return producers, nil
}
