package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/acopio-api/internal/application/collection"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/application/settlement"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/pkg/money"
	"github.com/shopspring/decimal"
)

// PickupHandler recogidas de leche y precio global por litro.
type PickupHandler struct {
	uc     *collection.UseCase
	engine *settlement.Engine
}

// NewPickupHandler construye el handler de recogidas.
func NewPickupHandler(uc *collection.UseCase, engine *settlement.Engine) *PickupHandler {
	return &PickupHandler{uc: uc, engine: engine}
}

// Create registra una recogida del recolector autenticado. El precio por
// litro vigente queda copiado en el registro: subidas posteriores del precio
// no tocan recogidas ya hechas.
func (h *PickupHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePickupRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ev, err := h.uc.RecordPickup(c.Context(), GetUserID(c), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProducerNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PRODUCER_NOT_FOUND", Message: "el productor no existe"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el productor no está asignado a este recolector"})
		case errors.Is(err, domain.ErrPriceUnavailable):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "PRICE_UNAVAILABLE", Message: "no hay precio por litro configurado"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(eventToResponse(ev))
}

// AssignedProducers lista los productores asignados al recolector autenticado.
func (h *PickupHandler) AssignedProducers(c *fiber.Ctx) error {
	producers, err := h.uc.AssignedProducers(c.Context(), GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.ProducerResponse, 0, len(producers))
	for _, p := range producers {
		out = append(out, producerToResponse(p))
	}
	return c.JSON(out)
}

// SetPaid corrige a mano el estado de pago de una recogida individual.
func (h *PickupHandler) SetPaid(c *fiber.Ctx) error {
	eventID := c.Params("id")
	var in dto.SetPaidRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.engine.SetPaid(c.Context(), eventID, in.Paid); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PICKUP_NOT_FOUND", Message: "la recogida no existe"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPrice devuelve el precio global vigente por litro.
func (h *PickupHandler) GetPrice(c *fiber.Ctx) error {
	setting, err := h.uc.CurrentPrice(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if !setting.Usable() {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PRICE_UNAVAILABLE", Message: "no hay precio por litro configurado"})
	}
	return c.JSON(priceToResponse(setting))
}

// SetPrice fija el precio global por litro. Afecta solo a recogidas futuras.
func (h *PickupHandler) SetPrice(c *fiber.Ctx) error {
	var in dto.PriceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	price, err := decimal.NewFromString(in.PricePerLt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "price_per_lt debe ser un decimal válido"})
	}
	setting, err := h.uc.SetPrice(c.Context(), GetUserID(c), price)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(priceToResponse(setting))
}

func eventToResponse(ev entity.CollectionEvent) dto.PickupResponse {
	return dto.PickupResponse{
		ID:          ev.ID,
		ProducerID:  ev.ProducerID,
		WorkerID:    ev.WorkerID,
		Date:        ev.Date,
		QuantityLt:  money.Display(ev.QuantityLt),
		PricePerLt:  money.Display(ev.PricePerLt),
		Amount:      money.Display(ev.Amount()),
		Paid:        ev.Paid,
		PaymentDate: ev.PaymentDate,
	}
}

func priceToResponse(s entity.PriceSetting) dto.PriceResponse {
	return dto.PriceResponse{
		PricePerLt: money.Display(s.PricePerLt),
		Display:    money.FormatTRY(s.PricePerLt),
		UpdatedAt:  s.UpdatedAt,
		UpdatedBy:  s.UpdatedBy,
	}
}
