package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/acopio-api/internal/application/guard"
	"github.com/jhoicas/acopio-api/internal/application/session"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
)

const testPrincipal = "00000000-0000-0000-0000-000000000001"

func resolved(role entity.Role) session.State {
	return session.State{Readiness: session.ReadinessResolved, Role: role}
}

// ──────────────────────────────────────────────────────────────────────────────
// Vistas públicas y principal ausente
// ──────────────────────────────────────────────────────────────────────────────

// El login es público: se admite con o sin principal, resuelto o no.
func TestAdmit_LoginSiemprePermitido(t *testing.T) {
	states := []session.State{
		{},
		resolved(entity.RoleAdmin),
		{Readiness: session.ReadinessFailed},
	}
	for _, st := range states {
		d := guard.Admit(guard.ViewLogin, "", st)
		assert.Equal(t, guard.Allow, d.Kind, "login debe ser público")
		d = guard.Admit(guard.ViewLogin, testPrincipal, st)
		assert.Equal(t, guard.Allow, d.Kind)
	}
}

// Sin principal autenticado, toda vista protegida redirige al login.
func TestAdmit_SinPrincipalRedirigeALogin(t *testing.T) {
	for _, v := range guard.AllViews() {
		if v == guard.ViewLogin {
			continue
		}
		d := guard.Admit(v, "", session.State{})
		assert.Equal(t, guard.Redirect, d.Kind, "vista %s sin principal", v)
		assert.Equal(t, guard.ViewLogin, d.Target, "vista %s debe redirigir a login", v)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Readiness: sin rol resuelto no se decide nada
// ──────────────────────────────────────────────────────────────────────────────

// Con principal pero rol sin resolver, toda vista protegida queda en Loading:
// nunca se redirige en base a un rol que todavía no se conoce.
func TestAdmit_NoResueltoEsLoadingNuncaRedirect(t *testing.T) {
	for _, v := range guard.AllViews() {
		if v == guard.ViewLogin {
			continue
		}
		d := guard.Admit(v, testPrincipal, session.State{Readiness: session.ReadinessUnresolved})
		assert.Equal(t, guard.Loading, d.Kind, "vista %s con rol sin resolver", v)
	}
}

// Resolución fallida equivale a sin_asignar: no bloquea el render, degrada.
func TestAdmit_ResolucionFallidaDegradaASinAsignar(t *testing.T) {
	st := session.State{Readiness: session.ReadinessFailed, Role: entity.RoleAdmin}

	d := guard.Admit(guard.ViewAdmin, testPrincipal, st)
	assert.Equal(t, guard.Redirect, d.Kind, "readiness fallida nunca concede rol")
	assert.Equal(t, guard.ViewPending, d.Target)

	d = guard.Admit(guard.ViewPending, testPrincipal, st)
	assert.Equal(t, guard.Allow, d.Kind, "la vista de pendiente admite sin_asignar")
}

// ──────────────────────────────────────────────────────────────────────────────
// Matriz rol × vista
// ──────────────────────────────────────────────────────────────────────────────

// Cada rol entra a su vista propia y a ninguna vista gated de otro rol.
func TestAdmit_MatrizRolVista(t *testing.T) {
	cases := []struct {
		role    entity.Role
		allowed map[guard.View]bool
	}{
		// La vista de pendiente solo exige autenticación: admite a todos.
		{entity.RoleAdmin, map[guard.View]bool{
			guard.ViewAdmin: true, guard.ViewAdminProducers: true,
			guard.ViewAdminRoles: true, guard.ViewEmployer: true,
			guard.ViewReports: true, guard.ViewPending: true,
		}},
		{entity.RoleEmpleador, map[guard.View]bool{
			guard.ViewEmployer: true, guard.ViewReports: true, guard.ViewPending: true,
		}},
		{entity.RoleRecolector, map[guard.View]bool{
			guard.ViewWorker: true, guard.ViewPending: true,
		}},
		{entity.RoleProductor, map[guard.View]bool{
			guard.ViewProducerPanel: true, guard.ViewPending: true,
		}},
		{entity.RoleSinAsignar, map[guard.View]bool{
			guard.ViewPending: true,
		}},
	}
	for _, tc := range cases {
		st := resolved(tc.role)
		for _, v := range guard.AllViews() {
			if v == guard.ViewLogin {
				continue
			}
			d := guard.Admit(v, testPrincipal, st)
			if tc.allowed[v] {
				assert.Equal(t, guard.Allow, d.Kind, "rol %s debe entrar a %s", tc.role, v)
			} else {
				assert.Equal(t, guard.Redirect, d.Kind, "rol %s no debe entrar a %s", tc.role, v)
				assert.Equal(t, guard.DefaultView(tc.role), d.Target,
					"rol %s debe redirigir a su vista propia, no a la de otro rol", tc.role)
			}
		}
	}
}

// La redirección de un rol sin vista propia aterriza en la pantalla de
// pendiente, que sí lo admite: nunca un destino que vuelva a rebotar.
func TestAdmit_RedireccionNuncaRebota(t *testing.T) {
	roles := []entity.Role{
		entity.RoleAdmin, entity.RoleEmpleador, entity.RoleRecolector,
		entity.RoleProductor, entity.RoleSinAsignar,
	}
	for _, role := range roles {
		home := guard.DefaultView(role)
		d := guard.Admit(home, testPrincipal, resolved(role))
		assert.Equal(t, guard.Allow, d.Kind,
			"la vista propia de %s debe admitir a %s", role, role)
	}
}

// Una vista desconocida se trata como solo-admin: cerrada por defecto.
func TestAdmit_VistaDesconocidaCerradaPorDefecto(t *testing.T) {
	d := guard.Admit(guard.View("/interna/no-registrada"), testPrincipal, resolved(entity.RoleRecolector))
	assert.Equal(t, guard.Redirect, d.Kind)

	d = guard.Admit(guard.View("/interna/no-registrada"), testPrincipal, resolved(entity.RoleAdmin))
	assert.Equal(t, guard.Allow, d.Kind, "admin conserva acceso a vistas no registradas")
}
