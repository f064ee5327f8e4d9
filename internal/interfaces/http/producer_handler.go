package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/application/usecase"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
)

// ProducerHandler administración de productores.
type ProducerHandler struct {
	uc *usecase.ProducerUseCase
}

// NewProducerHandler construye el handler de productores.
func NewProducerHandler(uc *usecase.ProducerUseCase) *ProducerHandler {
	return &ProducerHandler{uc: uc}
}

// Create alta de productor vinculada a un usuario existente por email; el
// rol del usuario pasa a productor.
func (h *ProducerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProducerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	p, err := h.uc.Create(c.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: "no hay usuario registrado con ese email"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(producerToResponse(p))
}

// List devuelve todos los productores.
func (h *ProducerHandler) List(c *fiber.Ctx) error {
	producers, err := h.uc.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.ProducerResponse, 0, len(producers))
	for _, p := range producers {
		out = append(out, producerToResponse(p))
	}
	return c.JSON(out)
}

// AssignWorker fija (o retira, con worker_id vacío) el recolector asignado.
func (h *ProducerHandler) AssignWorker(c *fiber.Ctx) error {
	producerID := c.Params("id")
	var in dto.AssignWorkerRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.AssignWorker(c.Context(), producerID, in.WorkerID); err != nil {
		if errors.Is(err, domain.ErrProducerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PRODUCER_NOT_FOUND", Message: "el productor no existe"})
		}
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func producerToResponse(p entity.Producer) dto.ProducerResponse {
	return dto.ProducerResponse{
		ID:               p.ID,
		Name:             p.Name,
		Phone:            p.Phone,
		Address:          p.Address,
		UserID:           p.UserID,
		AssignedWorkerID: p.AssignedWorkerID,
		CreatedAt:        p.CreatedAt,
	}
}
