// Package memstore implementa el puerto record.Store en memoria con push de
// cambios a las suscripciones. Se usa en desarrollo local y en tests; el
// despliegue real usa la implementación PostgreSQL.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/record"
)

var _ record.Store = (*Store)(nil)

type storedDoc struct {
	doc record.Document
	seq int64 // orden de inserción, para snapshots deterministas
}

// Store almacén en memoria, seguro para uso concurrente.
type Store struct {
	mu   sync.RWMutex
	seq  int64
	data map[record.Kind]map[string]storedDoc
	subs map[record.Kind]map[*record.Subscription]record.Filter
}

// New crea un almacén vacío con los cuatro tipos de registro.
func New() *Store {
	s := &Store{
		data: make(map[record.Kind]map[string]storedDoc),
		subs: make(map[record.Kind]map[*record.Subscription]record.Filter),
	}
	for _, k := range []record.Kind{record.KindUsers, record.KindProducers, record.KindEvents, record.KindSettings} {
		s.data[k] = make(map[string]storedDoc)
		s.subs[k] = make(map[*record.Subscription]record.Filter)
	}
	return s
}

// GetAll devuelve el snapshot de los documentos que cumplen el filtro, en
// orden de inserción.
func (s *Store) GetAll(_ context.Context, kind record.Kind, filter record.Filter) ([]record.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.data[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	return snapshot(docs, filter), nil
}

// Subscribe registra la suscripción y entrega el snapshot inicial.
func (s *Store) Subscribe(_ context.Context, kind record.Kind, filter record.Filter) (*record.Subscription, error) {
	s.mu.Lock()
	docs, ok := s.data[kind]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	var sub *record.Subscription
	sub = record.NewSubscription(func() {
		s.mu.Lock()
		delete(s.subs[kind], sub)
		s.mu.Unlock()
	})
	s.subs[kind][sub] = filter
	initial := snapshot(docs, filter)
	s.mu.Unlock()

	sub.Push(initial)
	return sub, nil
}

// Create inserta un documento nuevo; falla si el id ya existe.
func (s *Store) Create(_ context.Context, kind record.Kind, doc record.Document) error {
	s.mu.Lock()
	docs, ok := s.data[kind]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	if _, exists := docs[doc.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", domain.ErrConflict, kind, doc.ID)
	}
	s.seq++
	docs[doc.ID] = storedDoc{doc: copyDoc(doc), seq: s.seq}
	s.mu.Unlock()

	s.notify(kind)
	return nil
}

// MutateOne aplica un patch a un documento existente.
func (s *Store) MutateOne(_ context.Context, kind record.Kind, id string, patch record.Patch) error {
	s.mu.Lock()
	docs, ok := s.data[kind]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	cur, exists := docs[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", domain.ErrNotFound, kind, id)
	}
	docs[id] = storedDoc{doc: applyPatch(cur.doc, patch), seq: cur.seq}
	s.mu.Unlock()

	s.notify(kind)
	return nil
}

// MutateBatch aplica todas las mutaciones o ninguna: primero valida que cada
// id exista y solo entonces escribe, todo bajo el mismo lock.
func (s *Store) MutateBatch(_ context.Context, kind record.Kind, muts []record.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	s.mu.Lock()
	docs, ok := s.data[kind]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	for _, m := range muts {
		if _, exists := docs[m.ID]; !exists {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s/%s", domain.ErrNotFound, kind, m.ID)
		}
	}
	for _, m := range muts {
		cur := docs[m.ID]
		docs[m.ID] = storedDoc{doc: applyPatch(cur.doc, m.Patch), seq: cur.seq}
	}
	s.mu.Unlock()

	s.notify(kind)
	return nil
}

// notify reevalúa los filtros de las suscripciones del tipo y les empuja el
// snapshot actual.
func (s *Store) notify(kind record.Kind) {
	s.mu.RLock()
	docs := s.data[kind]
	type delivery struct {
		sub  *record.Subscription
		docs []record.Document
	}
	deliveries := make([]delivery, 0, len(s.subs[kind]))
	for sub, filter := range s.subs[kind] {
		deliveries = append(deliveries, delivery{sub: sub, docs: snapshot(docs, filter)})
	}
	s.mu.RUnlock()

	for _, d := range deliveries {
		d.sub.Push(d.docs)
	}
}

func snapshot(docs map[string]storedDoc, filter record.Filter) []record.Document {
	stored := make([]storedDoc, 0, len(docs))
	for _, sd := range docs {
		if filter.Matches(sd.doc) {
			stored = append(stored, sd)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })
	out := make([]record.Document, 0, len(stored))
	for _, sd := range stored {
		out = append(out, copyDoc(sd.doc))
	}
	return out
}

func copyDoc(d record.Document) record.Document {
	data := make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		data[k] = v
	}
	return record.Document{ID: d.ID, Data: data}
}

func applyPatch(d record.Document, patch record.Patch) record.Document {
	out := copyDoc(d)
	for k, v := range patch {
		if v == nil {
			delete(out.Data, k)
			continue
		}
		out.Data[k] = v
	}
	return out
}
