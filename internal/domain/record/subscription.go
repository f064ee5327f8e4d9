package record

import "sync"

// Subscription suscripción en tiempo real a un recordset. El canal de Updates
// tiene capacidad 1 y los push coalescen: si el consumidor va retrasado, el
// snapshot pendiente se sustituye por el más reciente en vez de encolarse.
//
// El dueño de la suscripción debe llamar a Close cuando deja de consumirla;
// Close es idempotente y libera el recurso en la implementación del Store.
type Subscription struct {
	updates chan []Document

	mu     sync.Mutex
	closed bool
	err    error

	once sync.Once
	stop func()
}

// NewSubscription construye una suscripción; stop se invoca una sola vez al
// cerrarla (lo usan las implementaciones para darse de baja).
func NewSubscription(stop func()) *Subscription {
	return &Subscription{
		updates: make(chan []Document, 1),
		stop:    stop,
	}
}

// Updates canal por el que llegan los snapshots. Se cierra al cerrar la
// suscripción o al fallar; tras el cierre, Err explica el motivo si lo hubo.
func (s *Subscription) Updates() <-chan []Document {
	return s.updates
}

// Push entrega un snapshot, sustituyendo el pendiente si el consumidor aún no
// lo leyó. Ignorado si la suscripción ya está cerrada.
func (s *Subscription) Push(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.updates <- docs:
			return
		default:
			// Descarta el snapshot obsoleto y reintenta.
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// Fail cierra la suscripción registrando el error terminal.
func (s *Subscription) Fail(err error) {
	s.mu.Lock()
	if !s.closed {
		s.err = err
	}
	s.mu.Unlock()
	s.Close()
}

// Close cierra la suscripción y notifica a la implementación. Idempotente.
func (s *Subscription) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.updates)
	}
	s.mu.Unlock()
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

// Err motivo de cierre si la suscripción terminó con fallo; nil si se cerró
// de forma ordenada.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
