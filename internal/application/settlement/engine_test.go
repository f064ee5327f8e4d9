package settlement_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acopio-api/internal/application/settlement"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/internal/infrastructure/memstore"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func seedEvent(t *testing.T, store record.Store, id, producerID, qty string, paid bool) {
	t.Helper()
	ev := entity.CollectionEvent{
		ID:         id,
		ProducerID: producerID,
		WorkerID:   "w1",
		Date:       time.Now().UTC(),
		QuantityLt: decimal.RequireFromString(qty),
		PricePerLt: decimal.RequireFromString("2.00"),
		Paid:       paid,
	}
	require.NoError(t, store.Create(context.Background(), record.KindEvents, record.EventToDoc(ev)))
}

func eventByID(t *testing.T, store record.Store, id string) entity.CollectionEvent {
	t.Helper()
	docs, err := store.GetAll(context.Background(), record.KindEvents,
		record.Filter{}.Where("id", record.OpEq, id))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return record.EventFromDoc(docs[0])
}

func newEngine(store record.Store, onSettled func(string)) *settlement.Engine {
	return settlement.NewEngine(store, logger.Nop(), time.Second, onSettled)
}

// blockingQueryStore detiene el primer GetAll hasta que el test lo libere,
// para intercalar operaciones dentro de la ventana de consulta de Select.
type blockingQueryStore struct {
	record.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingQueryStore) GetAll(ctx context.Context, kind record.Kind, f record.Filter) ([]record.Document, error) {
	s.once.Do(func() {
		s.entered <- struct{}{}
		<-s.release
	})
	return s.Store.GetAll(ctx, kind, f)
}

// failingBatchStore envuelve el almacén real y fuerza el resultado del batch.
type failingBatchStore struct {
	record.Store
	batchErr error
}

func (s *failingBatchStore) MutateBatch(ctx context.Context, kind record.Kind, muts []record.Mutation) error {
	if s.batchErr != nil {
		return s.batchErr
	}
	return s.Store.MutateBatch(ctx, kind, muts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo select → confirm → commit
// ──────────────────────────────────────────────────────────────────────────────

// El commit paga exactamente la foto congelada en Select: una recogida que
// llega entre Select y Commit queda fuera.
func TestEngine_CommitPagaSoloLaFotoCongelada(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)
	seedEvent(t, store, "e2", "p1", "5", false)

	var settled []string
	engine := newEngine(store, func(producerID string) { settled = append(settled, producerID) })

	snap, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	assert.True(t, snap.Total.Equal(decimal.RequireFromString("30.00")), "total: %s", snap.Total)

	// Recogida tardía: posterior a la foto, no debe entrar en el pago.
	seedEvent(t, store, "e3", "p1", "99", false)

	require.NoError(t, engine.Confirm("p1"))
	require.NoError(t, engine.Commit(context.Background(), "p1"))

	assert.True(t, eventByID(t, store, "e1").Paid)
	assert.True(t, eventByID(t, store, "e2").Paid)
	assert.False(t, eventByID(t, store, "e3").Paid, "la recogida tardía no entra en la liquidación")
	assert.NotNil(t, eventByID(t, store, "e1").PaymentDate)
	assert.Equal(t, []string{"p1"}, settled, "el commit debe notificar onSettled")

	assert.Equal(t, settlement.PhaseIdle, engine.PhaseOf("p1"), "tras el commit la sesión se libera")
}

// Sin recogidas impagadas no hay nada que liquidar.
func TestEngine_SelectSinImpagadasFalla(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", true)

	engine := newEngine(store, nil)
	_, err := engine.Select(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrSettlementEmpty)
	assert.Equal(t, settlement.PhaseIdle, engine.PhaseOf("p1"), "un select fallido no deja sesión")
}

// Como máximo una liquidación en vuelo por productor.
func TestEngine_SegundoSelectRechazado(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)

	engine := newEngine(store, nil)
	_, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)

	_, err = engine.Select(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrSettlementInFlight)
}

// Liquidaciones de productores distintos no se estorban.
func TestEngine_ProductoresDistintosEnParalelo(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)
	seedEvent(t, store, "e2", "p2", "5", false)

	engine := newEngine(store, nil)
	_, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)
	_, err = engine.Select(context.Background(), "p2")
	require.NoError(t, err)
}

// El orden de fases es estricto: ni confirm sin select ni commit sin confirm.
func TestEngine_FasesEnOrdenEstricto(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)

	engine := newEngine(store, nil)
	assert.ErrorIs(t, engine.Confirm("p1"), domain.ErrConflict)

	_, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)
	assert.ErrorIs(t, engine.Commit(context.Background(), "p1"), domain.ErrConflict,
		"commit sin confirmación previa debe rechazarse")
}

// Abort descarta la sesión antes del commit y deja todo como estaba.
func TestEngine_AbortLiberaLaSesion(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)

	engine := newEngine(store, nil)
	_, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, engine.Confirm("p1"))
	require.NoError(t, engine.Abort("p1"))

	assert.False(t, eventByID(t, store, "e1").Paid, "abortar no muta nada")
	_, err = engine.Select(context.Background(), "p1")
	assert.NoError(t, err, "tras abortar se puede volver a seleccionar")
}

// Un Abort que llega mientras Select consulta las recogidas no tumba el
// motor: ese Select pierde con conflicto y el productor queda libre para una
// selección nueva.
func TestEngine_AbortDuranteSelectNoBloqueaElMotor(t *testing.T) {
	inner := memstore.New()
	seedEvent(t, inner, "e1", "p1", "10", false)

	store := &blockingQueryStore{
		Store:   inner,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	engine := newEngine(store, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := engine.Select(context.Background(), "p1")
		errCh <- err
	}()

	<-store.entered
	require.NoError(t, engine.Abort("p1"))
	close(store.release)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, domain.ErrConflict)
	case <-time.After(2 * time.Second):
		t.Fatal("Select no terminó tras el abort concurrente")
	}

	assert.Equal(t, settlement.PhaseIdle, engine.PhaseOf("p1"))
	snap, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err, "el motor sigue operativo tras la carrera")
	assert.Equal(t, 1, snap.Count)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fallos del commit
// ──────────────────────────────────────────────────────────────────────────────

// Un fallo limpio del batch (nada aplicado) devuelve la sesión a confirmada
// y permite reintentar.
func TestEngine_FalloLimpioPermiteReintento(t *testing.T) {
	inner := memstore.New()
	seedEvent(t, inner, "e1", "p1", "10", false)
	store := &failingBatchStore{Store: inner, batchErr: fmt.Errorf("%w: caída", record.ErrTransport)}

	engine := newEngine(store, nil)
	_, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, engine.Confirm("p1"))

	require.Error(t, engine.Commit(context.Background(), "p1"))
	assert.Equal(t, settlement.PhaseConfirming, engine.PhaseOf("p1"), "fallo limpio vuelve a confirmada")

	store.batchErr = nil
	require.NoError(t, engine.Commit(context.Background(), "p1"))
	assert.True(t, eventByID(t, inner, "e1").Paid)
}

// Una aplicación parcial deja la liquidación inconsistente de forma terminal:
// ninguna operación posterior la saca de ahí.
func TestEngine_AplicacionParcialEsTerminal(t *testing.T) {
	inner := memstore.New()
	seedEvent(t, inner, "e1", "p1", "10", false)
	store := &failingBatchStore{Store: inner, batchErr: fmt.Errorf("%w: lote a medias", record.ErrPartialApply)}

	engine := newEngine(store, nil)
	_, err := engine.Select(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, engine.Confirm("p1"))

	err = engine.Commit(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrSettlementInconsistent)
	assert.Equal(t, settlement.PhaseInconsistent, engine.PhaseOf("p1"))

	store.batchErr = nil
	assert.ErrorIs(t, engine.Confirm("p1"), domain.ErrConflict)
	_, err = engine.Select(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrSettlementInconsistent, "inconsistente bloquea nuevas selecciones")
}

// El batch del memstore es todo o nada: un id inexistente en el lote no deja
// pagos a medias.
func TestEngine_BatchConIDInexistenteNoMutaNada(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)

	err := store.MutateBatch(context.Background(), record.KindEvents, []record.Mutation{
		{ID: "e1", Patch: record.Patch{"is_paid": true}},
		{ID: "no-existe", Patch: record.Patch{"is_paid": true}},
	})
	require.Error(t, err)
	assert.False(t, eventByID(t, store, "e1").Paid, "el lote fallido no debe aplicar ninguna mutación")
}

// ──────────────────────────────────────────────────────────────────────────────
// Corrección manual de pago
// ──────────────────────────────────────────────────────────────────────────────

func TestEngine_SetPaidIndividual(t *testing.T) {
	store := memstore.New()
	seedEvent(t, store, "e1", "p1", "10", false)

	var refreshed []string
	engine := newEngine(store, func(producerID string) { refreshed = append(refreshed, producerID) })

	require.NoError(t, engine.SetPaid(context.Background(), "e1", true))
	ev := eventByID(t, store, "e1")
	assert.True(t, ev.Paid)
	assert.NotNil(t, ev.PaymentDate, "pagar fija la fecha de pago")

	require.NoError(t, engine.SetPaid(context.Background(), "e1", false))
	ev = eventByID(t, store, "e1")
	assert.False(t, ev.Paid)
	assert.Nil(t, ev.PaymentDate, "despagar limpia la fecha de pago")
	assert.Equal(t, []string{"p1", "p1"}, refreshed,
		"cada corrección notifica onSettled con el productor de la recogida")

	assert.ErrorIs(t, engine.SetPaid(context.Background(), "no-existe", true), domain.ErrNotFound)
}
