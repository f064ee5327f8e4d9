// Package settlement implementa la liquidación de pagos a productores: una
// máquina de estados por productor que congela el conjunto exacto de
// recogidas impagadas en el momento de la selección y lo marca como pagado
// en una única mutación batch todo-o-nada.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// Phase fase de una liquidación en curso.
type Phase int

// Fases de la máquina de estados. El camino feliz es
// Idle → Selected → Confirming → Committing → Idle; cualquier fase previa al
// commit puede abortarse de vuelta a Idle. Inconsistent es terminal.
const (
	PhaseIdle Phase = iota
	PhaseSelected
	PhaseConfirming
	PhaseCommitting
	// PhaseInconsistent el batch falló con aplicación parcial. Requiere
	// conciliación manual; el motor no lo reintenta jamás por su cuenta.
	PhaseInconsistent
)

// String nombre legible de la fase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelected:
		return "selected"
	case PhaseConfirming:
		return "confirming"
	case PhaseCommitting:
		return "committing"
	case PhaseInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// Snapshot conjunto congelado de una liquidación: ids y total exactos en el
// momento de la selección. Recogidas que lleguen después de Select y antes
// del commit NO entran: se liquida sobre la foto, no sobre una consulta viva.
type Snapshot struct {
	ProducerID string
	EventIDs   []string
	Total      decimal.Decimal
	Count      int
	FrozenAt   time.Time
}

type session struct {
	phase    Phase
	snapshot Snapshot
}

// Engine motor de liquidación. Mantiene como máximo una liquidación en vuelo
// por productor: un segundo intento sobre el mismo productor antes del commit
// se rechaza con ErrSettlementInFlight, nunca se intercala.
type Engine struct {
	store         record.Store
	log           *logger.Logger
	commitTimeout time.Duration
	onSettled     func(producerID string) // señal de refresco hacia la agregación

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEngine construye el motor. commitTimeout acota la espera del batch de
// commit; onSettled (opcional) se invoca con el productor afectado tras cada
// commit exitoso y tras cada corrección individual con SetPaid.
func NewEngine(store record.Store, log *logger.Logger, commitTimeout time.Duration, onSettled func(producerID string)) *Engine {
	if commitTimeout <= 0 {
		commitTimeout = 15 * time.Second
	}
	return &Engine{
		store:         store,
		log:           log,
		commitTimeout: commitTimeout,
		onSettled:     onSettled,
		sessions:      make(map[string]*session),
	}
}

// Select congela el conjunto de recogidas impagadas del productor y pasa la
// liquidación a Selected. Falla con ErrSettlementEmpty si no hay nada que
// pagar y con ErrSettlementInFlight si ya hay una liquidación en curso.
func (e *Engine) Select(ctx context.Context, producerID string) (Snapshot, error) {
	if producerID == "" {
		return Snapshot{}, fmt.Errorf("%w: productor vacío", domain.ErrInvalidInput)
	}

	e.mu.Lock()
	if s, ok := e.sessions[producerID]; ok {
		phase := s.phase
		e.mu.Unlock()
		if phase == PhaseInconsistent {
			return Snapshot{}, domain.ErrSettlementInconsistent
		}
		return Snapshot{}, domain.ErrSettlementInFlight
	}
	// Reserva el hueco antes de consultar para que dos Select concurrentes
	// sobre el mismo productor no congelen dos fotos.
	e.sessions[producerID] = &session{phase: PhaseSelected}
	e.mu.Unlock()

	filter := record.Filter{}.
		Where("producer_id", record.OpEq, producerID).
		Where("is_paid", record.OpEq, false)
	docs, err := e.store.GetAll(ctx, record.KindEvents, filter)
	if err != nil {
		e.drop(producerID)
		return Snapshot{}, fmt.Errorf("consultar recogidas impagadas: %w", err)
	}
	if len(docs) == 0 {
		e.drop(producerID)
		return Snapshot{}, domain.ErrSettlementEmpty
	}

	snap := Snapshot{
		ProducerID: producerID,
		EventIDs:   make([]string, 0, len(docs)),
		Total:      decimal.Zero,
		Count:      len(docs),
		FrozenAt:   time.Now().UTC(),
	}
	for _, d := range docs {
		ev := record.EventFromDoc(d)
		snap.EventIDs = append(snap.EventIDs, ev.ID)
		snap.Total = snap.Total.Add(ev.Amount())
	}

	// Un Abort concurrente pudo liberar el hueco mientras corría la
	// consulta; en ese caso la selección ya no existe y se descarta.
	e.mu.Lock()
	s, ok := e.sessions[producerID]
	if !ok {
		e.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: la liquidación fue abortada durante la selección", domain.ErrConflict)
	}
	s.snapshot = snap
	e.mu.Unlock()

	e.log.Info().
		Str("producer_id", producerID).
		Int("recogidas", snap.Count).
		Str("total", snap.Total.Round(2).String()).
		Msg("liquidación seleccionada")
	return snap, nil
}

// Confirm marca la liquidación como confirmada por el operador. La
// confirmación explícita es obligatoria antes de mutar nada.
func (e *Engine) Confirm(producerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[producerID]
	if !ok {
		return fmt.Errorf("%w: no hay liquidación seleccionada", domain.ErrConflict)
	}
	if s.phase != PhaseSelected {
		return fmt.Errorf("%w: la liquidación está en fase %s", domain.ErrConflict, s.phase)
	}
	s.phase = PhaseConfirming
	return nil
}

// Commit emite el batch atómico que marca pagadas todas las recogidas del
// conjunto congelado. O transicionan todas o ninguna; una aplicación parcial
// deja la liquidación en PhaseInconsistent y se reporta, no se reintenta.
// Un commit ya emitido no se cancela: corre hasta terminar o fallar.
func (e *Engine) Commit(ctx context.Context, producerID string) error {
	e.mu.Lock()
	s, ok := e.sessions[producerID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: no hay liquidación confirmada", domain.ErrConflict)
	}
	if s.phase != PhaseConfirming {
		phase := s.phase
		e.mu.Unlock()
		if phase == PhaseInconsistent {
			return domain.ErrSettlementInconsistent
		}
		return fmt.Errorf("%w: la liquidación está en fase %s", domain.ErrConflict, phase)
	}
	s.phase = PhaseCommitting
	snap := s.snapshot
	e.mu.Unlock()

	now := time.Now().UTC()
	muts := make([]record.Mutation, 0, len(snap.EventIDs))
	for _, id := range snap.EventIDs {
		muts = append(muts, record.Mutation{
			ID: id,
			Patch: record.Patch{
				"is_paid":      true,
				"payment_date": now,
			},
		})
	}

	commitCtx, cancel := context.WithTimeout(ctx, e.commitTimeout)
	defer cancel()
	err := e.store.MutateBatch(commitCtx, record.KindEvents, muts)
	if err != nil {
		if errors.Is(err, record.ErrPartialApply) {
			// Inconsistencia fatal: parte del batch pudo aplicarse. Estado
			// terminal hasta conciliación manual.
			e.mu.Lock()
			s.phase = PhaseInconsistent
			e.mu.Unlock()
			e.log.Error().Err(err).
				Str("producer_id", producerID).
				Int("recogidas", snap.Count).
				Msg("batch de liquidación aplicado parcialmente")
			return fmt.Errorf("%w: %v", domain.ErrSettlementInconsistent, err)
		}
		// Fallo limpio (nada aplicado): vuelve a Confirming; el operador
		// decide si reintenta. Nunca se reintenta en silencio.
		e.mu.Lock()
		s.phase = PhaseConfirming
		e.mu.Unlock()
		return fmt.Errorf("commit de liquidación: %w", err)
	}

	e.mu.Lock()
	delete(e.sessions, producerID)
	e.mu.Unlock()

	e.log.Info().
		Str("producer_id", producerID).
		Int("recogidas", snap.Count).
		Str("total", snap.Total.Round(2).String()).
		Msg("liquidación pagada")

	if e.onSettled != nil {
		e.onSettled(producerID)
	}
	return nil
}

// Abort cancela una liquidación que aún no entró en commit.
func (e *Engine) Abort(producerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[producerID]
	if !ok {
		return nil
	}
	switch s.phase {
	case PhaseSelected, PhaseConfirming:
		delete(e.sessions, producerID)
		return nil
	case PhaseCommitting:
		return fmt.Errorf("%w: el commit ya está en vuelo", domain.ErrConflict)
	case PhaseInconsistent:
		return domain.ErrSettlementInconsistent
	default:
		return nil
	}
}

// PhaseOf fase actual de la liquidación del productor.
func (e *Engine) PhaseOf(producerID string) Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[producerID]; ok {
		return s.phase
	}
	return PhaseIdle
}

// SnapshotOf foto congelada de la liquidación en curso, si existe.
func (e *Engine) SnapshotOf(producerID string) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[producerID]
	if !ok || s.phase == PhaseInconsistent {
		return Snapshot{}, false
	}
	return s.snapshot, true
}

// SetPaid corrección manual de una recogida individual, independiente del
// camino batch. Sin garantía de orden frente a un commit concurrente sobre
// otra recogida: resuelve el almacén con last-write-wins. Notifica onSettled
// con el productor de la recogida corregida.
func (e *Engine) SetPaid(ctx context.Context, eventID string, paid bool) error {
	if eventID == "" {
		return fmt.Errorf("%w: recogida vacía", domain.ErrInvalidInput)
	}

	docs, err := e.store.GetAll(ctx, record.KindEvents, record.Filter{}.Where("id", record.OpEq, eventID))
	if err != nil {
		return fmt.Errorf("consultar recogida: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: recogida %s", domain.ErrNotFound, eventID)
	}
	producerID := record.EventFromDoc(docs[0]).ProducerID

	patch := record.Patch{"is_paid": paid}
	if paid {
		patch["payment_date"] = time.Now().UTC()
	} else {
		patch["payment_date"] = nil
	}
	if err := e.store.MutateOne(ctx, record.KindEvents, eventID, patch); err != nil {
		return fmt.Errorf("cambiar estado de pago: %w", err)
	}
	e.log.Info().Str("event_id", eventID).Bool("paid", paid).Msg("pago individual modificado")
	if e.onSettled != nil {
		e.onSettled(producerID)
	}
	return nil
}

func (e *Engine) drop(producerID string) {
	e.mu.Lock()
	delete(e.sessions, producerID)
	e.mu.Unlock()
}
