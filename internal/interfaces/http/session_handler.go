package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/application/guard"
	"github.com/jhoicas/acopio-api/internal/application/session"
	"github.com/jhoicas/acopio-api/internal/domain/record"
)

// SessionHandler resuelve el rol vigente del principal contra el almacén y
// aplica el guard de vistas. El cliente pregunta antes de renderizar una
// vista protegida; el rol del token JWT no cuenta aquí.
type SessionHandler struct {
	store record.Store
}

// NewSessionHandler construye el handler de sesión.
func NewSessionHandler(store record.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// Route decide si el principal puede entrar a la vista del query param
// "view". Sin principal redirige al login; con rol sin vista propia, a la
// pantalla de pendiente.
func (h *SessionHandler) Route(c *fiber.Ctx) error {
	view := guard.View(c.Query("view"))
	if view == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "view es requerido"})
	}
	principalID := GetUserID(c)
	st := session.ResolveOnce(c.Context(), h.store, principalID)
	decision := guard.Admit(view, principalID, st)

	out := dto.RouteDecisionResponse{
		View:      string(view),
		Decision:  decisionName(decision.Kind),
		Role:      string(st.EffectiveRole()),
		Readiness: readinessName(st.Readiness),
	}
	if decision.Kind == guard.Redirect {
		out.Target = string(decision.Target)
	}
	return c.JSON(out)
}

// Home devuelve la vista propia del rol vigente del principal.
func (h *SessionHandler) Home(c *fiber.Ctx) error {
	st := session.ResolveOnce(c.Context(), h.store, GetUserID(c))
	return c.JSON(dto.RouteDecisionResponse{
		View:      string(guard.DefaultView(st.EffectiveRole())),
		Decision:  decisionName(guard.Redirect),
		Target:    string(guard.DefaultView(st.EffectiveRole())),
		Role:      string(st.EffectiveRole()),
		Readiness: readinessName(st.Readiness),
	})
}

func decisionName(k guard.DecisionKind) string {
	switch k {
	case guard.Loading:
		return "loading"
	case guard.Allow:
		return "allow"
	case guard.Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

func readinessName(r session.Readiness) string {
	switch r {
	case session.ReadinessResolved:
		return "resolved"
	case session.ReadinessFailed:
		return "failed"
	default:
		return "unresolved"
	}
}
