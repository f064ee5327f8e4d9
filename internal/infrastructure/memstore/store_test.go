package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/internal/infrastructure/memstore"
)

func doc(id string, data map[string]any) record.Document {
	return record.Document{ID: id, Data: data}
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD y filtros
// ──────────────────────────────────────────────────────────────────────────────

func TestStore_CreateYGetAllConservanOrdenDeInsercion(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Create(ctx, record.KindProducers, doc(id, map[string]any{"name": id})))
	}

	docs, err := s.GetAll(ctx, record.KindProducers, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
	assert.Equal(t, "b", docs[2].ID)
}

func TestStore_CreateDuplicadoFalla(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindUsers, doc("u1", map[string]any{"role": "admin"})))

	err := s.Create(ctx, record.KindUsers, doc("u1", map[string]any{"role": "admin"}))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_TipoDesconocidoFalla(t *testing.T) {
	s := memstore.New()
	_, err := s.GetAll(context.Background(), record.Kind("facturas"), nil)
	assert.ErrorIs(t, err, record.ErrUnknownKind)
}

// El filtro es conjuntivo y compara números con independencia del tipo Go
// concreto del valor.
func TestStore_FiltroConjuntivo(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e1", map[string]any{
		"producer_id": "p1", "is_paid": false, "quantity_lt": decimal.RequireFromString("10"),
	})))
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e2", map[string]any{
		"producer_id": "p1", "is_paid": true, "quantity_lt": decimal.RequireFromString("5"),
	})))
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e3", map[string]any{
		"producer_id": "p2", "is_paid": false, "quantity_lt": decimal.RequireFromString("7"),
	})))

	docs, err := s.GetAll(ctx, record.KindEvents, record.Filter{}.
		Where("producer_id", record.OpEq, "p1").
		Where("is_paid", record.OpEq, false))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "e1", docs[0].ID)

	docs, err = s.GetAll(ctx, record.KindEvents, record.Filter{}.
		Where("quantity_lt", record.OpGte, 7))
	require.NoError(t, err)
	assert.Len(t, docs, 2, "10 y 7 cumplen >= 7")
}

func TestStore_FiltroPorID(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindUsers, doc("u1", map[string]any{"role": "admin"})))
	require.NoError(t, s.Create(ctx, record.KindUsers, doc("u2", map[string]any{"role": "productor"})))

	docs, err := s.GetAll(ctx, record.KindUsers, record.Filter{}.Where("id", record.OpEq, "u2"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "u2", docs[0].ID)
}

// Los snapshots devueltos son copias: mutarlos no toca el almacén.
func TestStore_SnapshotsSonCopias(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindUsers, doc("u1", map[string]any{"role": "admin"})))

	docs, err := s.GetAll(ctx, record.KindUsers, nil)
	require.NoError(t, err)
	docs[0].Data["role"] = "mutado"

	docs, err = s.GetAll(ctx, record.KindUsers, nil)
	require.NoError(t, err)
	assert.Equal(t, "admin", docs[0].Data["role"])
}

// Un valor nil en el patch borra la clave del documento.
func TestStore_PatchNilBorraLaClave(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e1", map[string]any{
		"is_paid": true, "payment_date": time.Now().UTC(),
	})))

	require.NoError(t, s.MutateOne(ctx, record.KindEvents, "e1",
		record.Patch{"is_paid": false, "payment_date": nil}))

	docs, err := s.GetAll(ctx, record.KindEvents, nil)
	require.NoError(t, err)
	_, has := docs[0].Data["payment_date"]
	assert.False(t, has, "payment_date debe desaparecer del documento")
	assert.Equal(t, false, docs[0].Data["is_paid"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Batch todo o nada
// ──────────────────────────────────────────────────────────────────────────────

func TestStore_MutateBatchTodoONada(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e1", map[string]any{"is_paid": false})))
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e2", map[string]any{"is_paid": false})))

	err := s.MutateBatch(ctx, record.KindEvents, []record.Mutation{
		{ID: "e1", Patch: record.Patch{"is_paid": true}},
		{ID: "no-existe", Patch: record.Patch{"is_paid": true}},
		{ID: "e2", Patch: record.Patch{"is_paid": true}},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	docs, err := s.GetAll(ctx, record.KindEvents, nil)
	require.NoError(t, err)
	for _, d := range docs {
		assert.Equal(t, false, d.Data["is_paid"], "%s: el lote fallido no debe aplicar nada", d.ID)
	}

	require.NoError(t, s.MutateBatch(ctx, record.KindEvents, []record.Mutation{
		{ID: "e1", Patch: record.Patch{"is_paid": true}},
		{ID: "e2", Patch: record.Patch{"is_paid": true}},
	}))
	docs, err = s.GetAll(ctx, record.KindEvents, nil)
	require.NoError(t, err)
	for _, d := range docs {
		assert.Equal(t, true, d.Data["is_paid"], "%s: el lote completo aplica todo", d.ID)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Suscripciones
// ──────────────────────────────────────────────────────────────────────────────

func TestStore_SubscribeEntregaInicialYCambios(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, record.KindProducers, doc("p1", map[string]any{"name": "A"})))

	sub, err := s.Subscribe(ctx, record.KindProducers, nil)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case docs := <-sub.Updates():
		require.Len(t, docs, 1, "snapshot inicial")
	case <-time.After(time.Second):
		t.Fatal("no llegó el snapshot inicial")
	}

	require.NoError(t, s.Create(ctx, record.KindProducers, doc("p2", map[string]any{"name": "B"})))
	select {
	case docs := <-sub.Updates():
		require.Len(t, docs, 2, "snapshot tras el alta")
	case <-time.After(time.Second):
		t.Fatal("no llegó el snapshot del cambio")
	}
}

// El push coalesce: un consumidor retrasado ve solo el snapshot más reciente.
func TestStore_PushCoalesceParaConsumidorLento(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	sub, err := s.Subscribe(ctx, record.KindProducers, nil)
	require.NoError(t, err)
	defer sub.Close()

	// Tres altas sin consumir nada entre medias.
	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, s.Create(ctx, record.KindProducers, doc(id, map[string]any{"name": id})))
	}

	select {
	case docs := <-sub.Updates():
		assert.Len(t, docs, 3, "solo debe quedar el snapshot final, no la cola intermedia")
	case <-time.After(time.Second):
		t.Fatal("no llegó ningún snapshot")
	}
}

// Las suscripciones solo reciben documentos que cumplen su filtro.
func TestStore_SubscribeRespetaElFiltro(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	sub, err := s.Subscribe(ctx, record.KindEvents,
		record.Filter{}.Where("producer_id", record.OpEq, "p1"))
	require.NoError(t, err)
	defer sub.Close()
	<-sub.Updates() // inicial vacío

	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e1", map[string]any{"producer_id": "p2"})))
	require.NoError(t, s.Create(ctx, record.KindEvents, doc("e2", map[string]any{"producer_id": "p1"})))

	select {
	case docs := <-sub.Updates():
		require.Len(t, docs, 1)
		assert.Equal(t, "e2", docs[0].ID)
	case <-time.After(time.Second):
		t.Fatal("no llegó el snapshot filtrado")
	}
}

// Tras Close ya no llegan snapshots y el canal queda cerrado.
func TestStore_CloseDaDeBajaLaSuscripcion(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	sub, err := s.Subscribe(ctx, record.KindUsers, nil)
	require.NoError(t, err)
	<-sub.Updates()
	sub.Close()

	require.NoError(t, s.Create(ctx, record.KindUsers, doc("u1", map[string]any{"role": "admin"})))

	_, open := <-sub.Updates()
	assert.False(t, open, "el canal debe estar cerrado tras Close")
	assert.NoError(t, sub.Err(), "cierre ordenado, sin error terminal")
}
