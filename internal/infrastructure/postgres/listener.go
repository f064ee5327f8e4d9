package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/acopio-api/internal/domain/record"
)

// Canal de NOTIFY que disparan los triggers del esquema. El payload es el
// nombre de la tabla modificada.
const notifyChannel = "record_changes"

var tableToKind = map[string]record.Kind{
	"users":             record.KindUsers,
	"producers":         record.KindProducers,
	"collection_events": record.KindEvents,
	"settings":          record.KindSettings,
}

// Start arranca el listener de cambios en una goroutine. Cada NOTIFY
// re-evalúa las suscripciones del tipo afectado y les empuja un snapshot
// fresco. Se detiene con Close o al cancelar ctx.
func (s *Store) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelListener = cancel
	go s.listen(ctx)
}

// Close detiene el listener. Las suscripciones vivas quedan en manos de sus
// dueños; cerrar el pool después de esto es responsabilidad del llamante.
func (s *Store) Close() {
	if s.cancelListener != nil {
		s.cancelListener()
	}
}

func (s *Store) listen(ctx context.Context) {
	for {
		if err := s.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn().Err(err).Msg("Listener de cambios caído, reintentando")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	s.log.Info().Str("channel", notifyChannel).Msg("Escuchando cambios de registros")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		kind, ok := tableToKind[n.Payload]
		if !ok {
			s.log.Warn().Str("payload", n.Payload).Msg("NOTIFY de tabla desconocida")
			continue
		}
		s.refresh(ctx, kind)
	}
}

// refresh empuja un snapshot nuevo a cada suscripción del tipo. Un error de
// consulta no mata la suscripción: el listener sigue vivo y el próximo
// cambio vuelve a intentarlo.
func (s *Store) refresh(ctx context.Context, kind record.Kind) {
	s.mu.Lock()
	targets := make(map[*record.Subscription]record.Filter, len(s.subs[kind]))
	for sub, f := range s.subs[kind] {
		targets[sub] = f
	}
	s.mu.Unlock()

	for sub, filter := range targets {
		docs, err := s.GetAll(ctx, kind, filter)
		if err != nil {
			s.log.Warn().Err(err).Str("kind", string(kind)).Msg("No se pudo refrescar suscripción")
			continue
		}
		sub.Push(docs)
	}
}
