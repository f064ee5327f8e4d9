package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/application/report"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/pkg/money"
)

// ReportHandler reportes y resúmenes derivados de las recogidas.
type ReportHandler struct {
	uc      *report.UseCase
	watcher *report.Watcher
}

// NewReportHandler construye el handler de reportes. El watcher puede ser
// nil: entonces los resúmenes se calculan por consulta en vez de servirse
// del snapshot mantenido en vivo.
func NewReportHandler(uc *report.UseCase, watcher *report.Watcher) *ReportHandler {
	return &ReportHandler{uc: uc, watcher: watcher}
}

// Rollups resúmenes por productor más totales globales, ordenados por
// litros descendente.
func (h *ReportHandler) Rollups(c *fiber.Ctx) error {
	var (
		rollups report.Rollups
		err     error
	)
	if h.watcher != nil {
		rollups = h.watcher.Rollups()
	} else {
		rollups, err = h.uc.Rollups(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(rollupsToResponse(rollups))
}

// Rows reporte detallado con filtros opcionales: worker_id, producer_id,
// from y to (fecha YYYY-MM-DD o RFC 3339, ambos inclusive).
func (h *ReportHandler) Rows(c *fiber.Ctx) error {
	filter := report.RowFilter{
		WorkerID:   c.Query("worker_id"),
		ProducerID: c.Query("producer_id"),
	}
	var err error
	if filter.From, err = parseDateQuery(c.Query("from"), false); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from: fecha inválida"})
	}
	if filter.To, err = parseDateQuery(c.Query("to"), true); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to: fecha inválida"})
	}

	rows, totals, err := h.uc.Rows(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := dto.ReportResponse{
		Rows: make([]dto.ReportRowResponse, 0, len(rows)),
		Totals: dto.ReportTotalsResponse{
			TotalLiters:  money.Display(totals.TotalLiters),
			TotalAmount:  money.Display(totals.TotalAmount),
			AveragePrice: money.Display(totals.AveragePrice),
			Display:      money.FormatTRY(totals.TotalAmount),
		},
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, dto.ReportRowResponse{
			EventID:      r.EventID,
			WorkerName:   r.WorkerName,
			ProducerName: r.ProducerName,
			Date:         r.Date,
			QuantityLt:   money.Display(r.QuantityLt),
			PricePerLt:   money.Display(r.PricePerLt),
			Amount:       money.Display(r.Amount),
			Paid:         r.Paid,
			PaymentDate:  r.PaymentDate,
		})
	}
	return c.JSON(out)
}

// OwnSummary resumen y recogidas del productor autenticado.
func (h *ReportHandler) OwnSummary(c *fiber.Ctx) error {
	rollup, events, err := h.uc.OwnSummary(c.Context(), GetUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrProducerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PRODUCER_NOT_FOUND", Message: "este usuario no tiene ficha de productor"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	pickups := make([]dto.PickupResponse, 0, len(events))
	for _, ev := range events {
		pickups = append(pickups, eventToResponse(ev))
	}
	return c.JSON(fiber.Map{
		"summary": rollupToResponse(rollup),
		"pickups": pickups,
	})
}

func rollupsToResponse(r report.Rollups) dto.RollupsResponse {
	out := dto.RollupsResponse{
		PerProducer: make([]dto.RollupResponse, 0, len(r.PerProducer)),
		Global: dto.GlobalRollupResponse{
			TotalProducers: r.Global.TotalProducers,
			TotalLiters:    money.Display(r.Global.TotalLiters),
			TotalPaid:      money.Display(r.Global.TotalPaid),
			TotalPending:   money.Display(r.Global.TotalPending),
		},
	}
	for _, p := range r.PerProducer {
		out.PerProducer = append(out.PerProducer, rollupToResponse(p))
	}
	return out
}

func rollupToResponse(p report.ProducerRollup) dto.RollupResponse {
	return dto.RollupResponse{
		ProducerID:   p.ProducerID,
		Name:         p.Name,
		TotalLiters:  money.Display(p.TotalLiters),
		TotalPaid:    money.Display(p.TotalPaid),
		TotalPending: money.Display(p.TotalPending),
		AveragePrice: money.Display(p.AveragePrice()),
		PaidDisplay:  money.FormatTRY(p.TotalPaid),
		PendDisplay:  money.FormatTRY(p.TotalPending),
	}
}

// parseDateQuery acepta YYYY-MM-DD o RFC 3339. Las fechas "to" en formato
// corto se extienden al final del día para que el rango sea inclusivo.
func parseDateQuery(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
