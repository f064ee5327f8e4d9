package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/application/settlement"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/pkg/money"
)

// SettlementHandler flujo de liquidación de recogidas impagadas por
// productor: select congela la foto, confirm la valida y commit paga todo o
// nada.
type SettlementHandler struct {
	engine *settlement.Engine
}

// NewSettlementHandler construye el handler de liquidaciones.
func NewSettlementHandler(engine *settlement.Engine) *SettlementHandler {
	return &SettlementHandler{engine: engine}
}

// Select congela las recogidas impagadas del productor. Recogidas que
// lleguen después de esta foto no entran en el commit.
func (h *SettlementHandler) Select(c *fiber.Ctx) error {
	var in dto.SelectSettlementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	snap, err := h.engine.Select(c.Context(), in.ProducerID)
	if err != nil {
		return settlementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snapshotToResponse(snap))
}

// Confirm pasa la liquidación seleccionada a confirmada.
func (h *SettlementHandler) Confirm(c *fiber.Ctx) error {
	if err := h.engine.Confirm(c.Params("producerID")); err != nil {
		return settlementError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Commit paga en bloque la foto congelada. Todo o nada: si el lote quedó a
// medias, la liquidación queda marcada inconsistente y deja de aceptar
// operaciones.
func (h *SettlementHandler) Commit(c *fiber.Ctx) error {
	if err := h.engine.Commit(c.Context(), c.Params("producerID")); err != nil {
		return settlementError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Abort descarta una liquidación aún no comprometida.
func (h *SettlementHandler) Abort(c *fiber.Ctx) error {
	if err := h.engine.Abort(c.Params("producerID")); err != nil {
		return settlementError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Status fase y foto vigentes de la liquidación del productor.
func (h *SettlementHandler) Status(c *fiber.Ctx) error {
	producerID := c.Params("producerID")
	out := dto.SettlementStatusResponse{
		ProducerID: producerID,
		Phase:      h.engine.PhaseOf(producerID).String(),
	}
	if snap, ok := h.engine.SnapshotOf(producerID); ok {
		resp := snapshotToResponse(snap)
		out.Snapshot = &resp
	}
	return c.JSON(out)
}

func settlementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrSettlementEmpty):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SETTLEMENT_EMPTY", Message: "el productor no tiene recogidas impagadas"})
	case errors.Is(err, domain.ErrSettlementInFlight):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SETTLEMENT_IN_FLIGHT", Message: "ya hay una liquidación en curso para este productor"})
	case errors.Is(err, domain.ErrSettlementInconsistent):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SETTLEMENT_INCONSISTENT", Message: "la liquidación quedó inconsistente; revisar pagos a mano"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SETTLEMENT_PHASE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func snapshotToResponse(s settlement.Snapshot) dto.SettlementSnapshotResponse {
	return dto.SettlementSnapshotResponse{
		ProducerID: s.ProducerID,
		EventIDs:   s.EventIDs,
		Count:      len(s.EventIDs),
		Total:      money.Display(s.Total),
		Display:    money.FormatTRY(s.Total),
		FrozenAt:   s.FrozenAt,
	}
}
