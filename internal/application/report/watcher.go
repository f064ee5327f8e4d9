package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

// Watcher mantiene los rollups al día consumiendo los streams de productores
// y recogidas. Cada cambio en cualquiera de los dos provoca un recálculo
// completo y el resultado sustituye al anterior en bloque; nunca se mutan
// campos sueltos de un rollup publicado.
//
// Los dos streams no tienen orden relativo garantizado entre sí: el watcher
// tolera que llegue primero cualquiera de los dos.
type Watcher struct {
	store record.Store
	log   *logger.Logger

	producersSub *record.Subscription
	eventsSub    *record.Subscription
	done         chan struct{}

	mu        sync.RWMutex
	producers []entity.Producer
	events    []entity.CollectionEvent
	rollups   Rollups
}

// NewWatcher construye el watcher sin arrancar.
func NewWatcher(store record.Store, log *logger.Logger) *Watcher {
	return &Watcher{
		store: store,
		log:   log,
		done:  make(chan struct{}),
	}
}

// Start abre las dos suscripciones y lanza el bucle de recálculo.
func (w *Watcher) Start(ctx context.Context) error {
	pSub, err := w.store.Subscribe(ctx, record.KindProducers, nil)
	if err != nil {
		return fmt.Errorf("suscribir productores: %w", err)
	}
	eSub, err := w.store.Subscribe(ctx, record.KindEvents, nil)
	if err != nil {
		pSub.Close()
		return fmt.Errorf("suscribir recogidas: %w", err)
	}
	w.producersSub = pSub
	w.eventsSub = eSub
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	producerCh := w.producersSub.Updates()
	eventCh := w.eventsSub.Updates()
	for producerCh != nil || eventCh != nil {
		select {
		case docs, ok := <-producerCh:
			if !ok {
				producerCh = nil
				continue
			}
			producers := make([]entity.Producer, 0, len(docs))
			for _, d := range docs {
				producers = append(producers, record.ProducerFromDoc(d))
			}
			w.replaceInputs(producers, nil, true, false)
		case docs, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			events := make([]entity.CollectionEvent, 0, len(docs))
			for _, d := range docs {
				events = append(events, record.EventFromDoc(d))
			}
			w.replaceInputs(nil, events, false, true)
		case <-w.done:
			return
		}
	}
}

// Rollups snapshot actual; es un valor completo, el llamante puede leerlo
// sin más sincronización.
func (w *Watcher) Rollups() Rollups {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rollups
}

// Refresh fuerza una relectura puntual de ambos recordsets y el recálculo.
// Lo invoca el motor de liquidación tras un commit, sin esperar al push.
func (w *Watcher) Refresh(ctx context.Context) error {
	pDocs, err := w.store.GetAll(ctx, record.KindProducers, nil)
	if err != nil {
		return fmt.Errorf("releer productores: %w", err)
	}
	eDocs, err := w.store.GetAll(ctx, record.KindEvents, nil)
	if err != nil {
		return fmt.Errorf("releer recogidas: %w", err)
	}
	producers := make([]entity.Producer, 0, len(pDocs))
	for _, d := range pDocs {
		producers = append(producers, record.ProducerFromDoc(d))
	}
	events := make([]entity.CollectionEvent, 0, len(eDocs))
	for _, d := range eDocs {
		events = append(events, record.EventFromDoc(d))
	}
	w.replaceInputs(producers, events, true, true)
	return nil
}

// Close cierra las suscripciones y para el bucle.
func (w *Watcher) Close() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	if w.producersSub != nil {
		w.producersSub.Close()
	}
	if w.eventsSub != nil {
		w.eventsSub.Close()
	}
}

func (w *Watcher) replaceInputs(producers []entity.Producer, events []entity.CollectionEvent, setProducers, setEvents bool) {
	w.mu.Lock()
	if setProducers {
		w.producers = producers
	}
	if setEvents {
		w.events = events
	}
	w.rollups = ComputeRollups(w.producers, w.events)
	w.mu.Unlock()
}
