// Package usecase casos de uso de administración: productores y roles.
package usecase

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
)

// ProducerUseCase administración de productores (solo admin).
type ProducerUseCase struct {
	store record.Store
	log   *logger.Logger
}

// NewProducerUseCase construye el caso de uso.
func NewProducerUseCase(store record.Store, log *logger.Logger) *ProducerUseCase {
	return &ProducerUseCase{store: store, log: log}
}

// Create da de alta un productor. Requiere que exista un usuario registrado
// con el email indicado; como efecto del alta, el rol de ese usuario pasa a
// productor. El productor arranca sin recolector asignado.
func (uc *ProducerUseCase) Create(ctx context.Context, in dto.CreateProducerRequest) (entity.Producer, error) {
	if in.Name == "" || in.Phone == "" || in.UserEmail == "" {
		return entity.Producer{}, fmt.Errorf("%w: nombre, teléfono y email de usuario son obligatorios", domain.ErrInvalidInput)
	}

	userDocs, err := uc.store.GetAll(ctx, record.KindUsers,
		record.Filter{}.Where("email", record.OpEq, in.UserEmail))
	if err != nil {
		return entity.Producer{}, fmt.Errorf("buscar usuario por email: %w", err)
	}
	if len(userDocs) == 0 {
		return entity.Producer{}, fmt.Errorf("%w: no hay usuario registrado con ese email", domain.ErrUserNotFound)
	}
	user := record.UserFromDoc(userDocs[0])

	producer := entity.Producer{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Phone:     in.Phone,
		Address:   in.Address,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.store.Create(ctx, record.KindProducers, record.ProducerToDoc(producer)); err != nil {
		return entity.Producer{}, fmt.Errorf("crear productor: %w", err)
	}

	// Efecto del alta: el usuario dueño pasa a rol productor.
	patch := record.Patch{
		"role":       string(entity.RoleProductor),
		"updated_at": time.Now().UTC(),
	}
	if err := uc.store.MutateOne(ctx, record.KindUsers, user.ID, patch); err != nil {
		return entity.Producer{}, fmt.Errorf("asignar rol productor al usuario: %w", err)
	}

	uc.log.Info().
		Str("producer_id", producer.ID).
		Str("user_id", user.ID).
		Msg("productor dado de alta")
	return producer, nil
}

// AssignWorker asigna (o retira, con workerID vacío) el recolector de un
// productor. Semántica de sobreescritura: la asignación anterior se pierde.
// Con workerID no vacío se exige que el usuario exista y tenga rol
// recolector.
func (uc *ProducerUseCase) AssignWorker(ctx context.Context, producerID, workerID string) error {
	if producerID == "" {
		return fmt.Errorf("%w: falta el productor", domain.ErrInvalidInput)
	}
	if workerID != "" {
		userDocs, err := uc.store.GetAll(ctx, record.KindUsers,
			record.Filter{}.Where("id", record.OpEq, workerID))
		if err != nil {
			return fmt.Errorf("buscar recolector: %w", err)
		}
		if len(userDocs) == 0 {
			return fmt.Errorf("%w: recolector inexistente", domain.ErrUserNotFound)
		}
		if record.UserFromDoc(userDocs[0]).Role != entity.RoleRecolector {
			return fmt.Errorf("%w: el usuario no tiene rol recolector", domain.ErrInvalidInput)
		}
	}
	patch := record.Patch{"assigned_worker_id": workerID}
	if err := uc.store.MutateOne(ctx, record.KindProducers, producerID, patch); err != nil {
		return fmt.Errorf("asignar recolector: %w", err)
	}
	uc.log.Info().
		Str("producer_id", producerID).
		Str("worker_id", workerID).
		Msg("asignación de recolector actualizada")
	return nil
}

// List todos los productores, en orden de alta.
func (uc *ProducerUseCase) List(ctx context.Context) ([]entity.Producer, error) {
	docs, err := uc.store.GetAll(ctx, record.KindProducers, nil)
	if err != nil {
		return nil, fmt.Errorf("listar productores: %w", err)
	}
	producers := make([]entity.Producer, 0, len(docs))
	for _, d := range docs {
		producers = append(producers, record.ProducerFromDoc(d))
	}
	return producers, nil
}
