// Package guard decide la admisión a las vistas de la aplicación según el rol
// del principal. Es una función pura de (vista, principal, estado de rol):
// sin estado oculto, de forma que cada combinación rol×vista es testeable
// directamente.
//
// Regla dura: mientras el rol no esté resuelto no se admite NINGUNA vista
// protegida, ni siquiera un instante; se responde Loading para evitar el
// destello de contenido restringido antes de confirmar el rol.
package guard

import (
	"github.com/jhoicas/acopio-api/internal/application/session"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
)

// View vista navegable de la aplicación.
type View string

// Vistas del sistema.
const (
	ViewLogin          View = "/"
	ViewAdmin          View = "/admin"
	ViewAdminProducers View = "/admin/productores"
	ViewAdminRoles     View = "/admin/roles"
	ViewEmployer       View = "/empleador"
	ViewReports        View = "/reportes"
	ViewWorker         View = "/recolector"
	ViewProducerPanel  View = "/productor"
	// ViewPending destino neutro para usuarios autenticados sin rol: solo
	// exige autenticación, nunca lleva a la vista de otro rol.
	ViewPending View = "/pendiente"
)

// AllViews todas las vistas conocidas, para tests exhaustivos y el router.
func AllViews() []View {
	return []View{
		ViewLogin, ViewAdmin, ViewAdminProducers, ViewAdminRoles,
		ViewEmployer, ViewReports, ViewWorker, ViewProducerPanel, ViewPending,
	}
}

// DecisionKind resultado de la admisión.
type DecisionKind int

// Resultados posibles.
const (
	// Loading el rol aún no está resuelto: no renderizar contenido protegido.
	Loading DecisionKind = iota
	// Allow la vista se admite.
	Allow
	// Redirect la vista se deniega; Target indica a dónde ir.
	Redirect
)

// Decision decisión de admisión; Target solo es significativo con Redirect.
type Decision struct {
	Kind   DecisionKind
	Target View
}

// RequiredRoles roles admitidos en una vista; nil significa vista pública.
// Una vista con lista vacía (no nil) exige autenticación pero admite
// cualquier rol.
func RequiredRoles(v View) []entity.Role {
	switch v {
	case ViewLogin:
		return nil
	case ViewAdmin, ViewAdminProducers, ViewAdminRoles:
		return []entity.Role{entity.RoleAdmin}
	case ViewEmployer, ViewReports:
		return []entity.Role{entity.RoleAdmin, entity.RoleEmpleador}
	case ViewWorker:
		return []entity.Role{entity.RoleRecolector}
	case ViewProducerPanel:
		return []entity.Role{entity.RoleProductor}
	case ViewPending:
		return []entity.Role{}
	default:
		// Vista desconocida: exigir admin es el cierre más seguro.
		return []entity.Role{entity.RoleAdmin}
	}
}

// DefaultView vista propia de cada rol, destino de las redirecciones cuando
// el rol no tiene acceso a la vista pedida. Para sin_asignar es la vista
// neutra de espera, jamás la vista de otro rol.
func DefaultView(role entity.Role) View {
	switch role {
	case entity.RoleAdmin:
		return ViewAdmin
	case entity.RoleEmpleador:
		return ViewEmployer
	case entity.RoleRecolector:
		return ViewWorker
	case entity.RoleProductor:
		return ViewProducerPanel
	case entity.RoleSinAsignar:
		return ViewPending
	default:
		return ViewPending
	}
}

// Admit decide la admisión del principal a la vista.
//
// Orden de evaluación:
//  1. Vista pública → Allow incondicional.
//  2. Sin principal → Redirect a la entrada pública.
//  3. Rol sin resolver → Loading (nunca contenido protegido antes de
//     confirmar el rol).
//  4. Rol resuelto o fallido → Allow si el rol está admitido; si no,
//     Redirect a la vista propia del rol.
func Admit(view View, principalID string, st session.State) Decision {
	required := RequiredRoles(view)
	if required == nil {
		return Decision{Kind: Allow}
	}
	if principalID == "" {
		return Decision{Kind: Redirect, Target: ViewLogin}
	}
	if st.Readiness == session.ReadinessUnresolved {
		return Decision{Kind: Loading}
	}
	role := st.EffectiveRole()
	if len(required) == 0 {
		return Decision{Kind: Allow}
	}
	for _, r := range required {
		if role == r {
			return Decision{Kind: Allow}
		}
	}
	return Decision{Kind: Redirect, Target: DefaultView(role)}
}
