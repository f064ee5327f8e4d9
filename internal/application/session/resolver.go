// Package session mantiene resuelto el rol del principal autenticado a partir
// de su registro de usuario, con una señal de readiness de tres estados que
// consume el guard de rutas: mientras el rol no esté confirmado no se toma
// ninguna decisión de acceso.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

// Readiness estado de resolución del rol.
type Readiness int

// Estados posibles.
const (
	// ReadinessUnresolved aún no hay respuesta del almacén: no se puede
	// decidir nada sobre el rol.
	ReadinessUnresolved Readiness = iota
	// ReadinessResolved el rol está confirmado (puede ser sin_asignar).
	ReadinessResolved
	// ReadinessFailed la consulta terminó pero sin rol utilizable: registro
	// inexistente o fallo de transporte. Aguas abajo equivale a sin_asignar,
	// nunca bloquea el render.
	ReadinessFailed
)

// State rol del principal más su readiness.
type State struct {
	Readiness Readiness
	Role      entity.Role
}

// EffectiveRole rol a efectos de autorización: con resolución fallida se
// degrada a sin_asignar en vez de tratarse como error.
func (s State) EffectiveRole() entity.Role {
	if s.Readiness == ReadinessResolved {
		return s.Role
	}
	return entity.RoleSinAsignar
}

// Resolver mantiene viva la resolución del rol del principal vinculado,
// suscrito a su propio registro de usuario. Un rebind o Close cancela la
// suscripción anterior: nunca quedan listeners colgando.
type Resolver struct {
	store record.Store
	log   *logger.Logger

	mu          sync.RWMutex
	principalID string
	state       State
	sub         *record.Subscription
	gen         int // invalida goroutines de binds anteriores

	onChange func(State)
}

// NewResolver construye el resolver sin principal vinculado.
func NewResolver(store record.Store, log *logger.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// OnChange registra un callback que se invoca en cada transición de estado.
// Debe llamarse antes de Bind.
func (r *Resolver) OnChange(fn func(State)) {
	r.onChange = fn
}

// Bind vincula el resolver a un principal (o lo desvincula con id vacío),
// cerrando la suscripción del principal anterior. El estado arranca en
// unresolved hasta que llega el primer snapshot.
func (r *Resolver) Bind(ctx context.Context, principalID string) error {
	r.mu.Lock()
	if r.sub != nil {
		r.sub.Close()
		r.sub = nil
	}
	r.gen++
	gen := r.gen
	r.principalID = principalID
	r.state = State{Readiness: ReadinessUnresolved}
	r.mu.Unlock()
	r.notify()

	if principalID == "" {
		return nil
	}

	filter := record.Filter{}.Where("id", record.OpEq, principalID)
	sub, err := r.store.Subscribe(ctx, record.KindUsers, filter)
	if err != nil {
		// Fallo de transporte: se marca failed, el reintento es política
		// del adaptador del almacén, no de este componente.
		r.setState(gen, State{Readiness: ReadinessFailed, Role: entity.RoleSinAsignar})
		return fmt.Errorf("suscribir rol del principal: %w", err)
	}

	r.mu.Lock()
	if gen != r.gen {
		// Hubo otro Bind mientras nos suscribíamos.
		r.mu.Unlock()
		sub.Close()
		return nil
	}
	r.sub = sub
	r.mu.Unlock()

	go r.consume(gen, principalID, sub)
	return nil
}

// consume procesa los snapshots del registro de usuario del principal.
func (r *Resolver) consume(gen int, principalID string, sub *record.Subscription) {
	for docs := range sub.Updates() {
		if len(docs) == 0 {
			// El principal existe en auth pero no tiene registro de rol:
			// estado válido, se trata como sin_asignar.
			r.log.Warn().Str("principal_id", principalID).Msg("principal sin registro de rol")
			r.setState(gen, State{Readiness: ReadinessFailed, Role: entity.RoleSinAsignar})
			continue
		}
		role := entity.ParseRole(asRoleString(docs[0]))
		r.setState(gen, State{Readiness: ReadinessResolved, Role: role})
	}
	if err := sub.Err(); err != nil {
		r.log.Error().Err(err).Str("principal_id", principalID).Msg("suscripción de rol terminó con fallo")
		r.setState(gen, State{Readiness: ReadinessFailed, Role: entity.RoleSinAsignar})
	}
}

// State estado actual de la resolución.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// PrincipalID principal actualmente vinculado; vacío si no hay sesión.
func (r *Resolver) PrincipalID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.principalID
}

// Close desvincula y libera la suscripción activa.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.gen++
	r.principalID = ""
	r.state = State{Readiness: ReadinessUnresolved}
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (r *Resolver) setState(gen int, st State) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	changed := r.state != st
	r.state = st
	r.mu.Unlock()
	if changed {
		r.notify()
	}
}

func (r *Resolver) notify() {
	if r.onChange != nil {
		r.onChange(r.State())
	}
}

// ResolveOnce resolución puntual sin suscripción, para contextos
// petición-respuesta donde no hay sesión viva que mantener.
func ResolveOnce(ctx context.Context, store record.Store, principalID string) State {
	if principalID == "" {
		return State{Readiness: ReadinessUnresolved}
	}
	filter := record.Filter{}.Where("id", record.OpEq, principalID)
	docs, err := store.GetAll(ctx, record.KindUsers, filter)
	if err != nil || len(docs) == 0 {
		return State{Readiness: ReadinessFailed, Role: entity.RoleSinAsignar}
	}
	return State{
		Readiness: ReadinessResolved,
		Role:      entity.ParseRole(asRoleString(docs[0])),
	}
}

func asRoleString(d record.Document) string {
	s, _ := d.Data["role"].(string)
	return s
}
