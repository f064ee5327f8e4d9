package collection_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acopio-api/internal/application/collection"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/internal/infrastructure/memstore"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store *memstore.Store
	uc    *collection.UseCase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memstore.New()
	return fixture{store: store, uc: collection.NewUseCase(store, logger.Nop())}
}

func (f fixture) seedProducer(t *testing.T, id, workerID string) {
	t.Helper()
	p := entity.Producer{
		ID: id, Name: "Finca " + id, Phone: "555",
		AssignedWorkerID: workerID, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Create(context.Background(), record.KindProducers, record.ProducerToDoc(p)))
}

func (f fixture) seedPrice(t *testing.T, price string) {
	t.Helper()
	_, err := f.uc.SetPrice(context.Background(), "admin-1", decimal.RequireFromString(price))
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de recogidas
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordPickup_CapturaElPrecioVigente(t *testing.T) {
	f := newFixture(t)
	f.seedProducer(t, "p1", "w1")
	f.seedPrice(t, "2.50")

	ev, err := f.uc.RecordPickup(context.Background(), "w1", dto.CreatePickupRequest{
		ProducerID: "p1", QuantityLt: "12.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", ev.ProducerID)
	assert.Equal(t, "w1", ev.WorkerID)
	assert.False(t, ev.Paid, "toda recogida nace impagada")
	assert.True(t, ev.PricePerLt.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, ev.Amount().Equal(decimal.RequireFromString("31.25")))
}

// El precio capturado en la recogida es inmutable: subirlo después no toca
// lo ya registrado.
func TestRecordPickup_PrecioInmutableTrasCambioGlobal(t *testing.T) {
	f := newFixture(t)
	f.seedProducer(t, "p1", "w1")
	f.seedPrice(t, "2.00")

	ev, err := f.uc.RecordPickup(context.Background(), "w1", dto.CreatePickupRequest{
		ProducerID: "p1", QuantityLt: "10",
	})
	require.NoError(t, err)

	f.seedPrice(t, "9.99")

	docs, err := f.store.GetAll(context.Background(), record.KindEvents,
		record.Filter{}.Where("id", record.OpEq, ev.ID))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	stored := record.EventFromDoc(docs[0])
	assert.True(t, stored.PricePerLt.Equal(decimal.RequireFromString("2.00")),
		"la recogida conserva el precio del momento de su creación")

	ev2, err := f.uc.RecordPickup(context.Background(), "w1", dto.CreatePickupRequest{
		ProducerID: "p1", QuantityLt: "10",
	})
	require.NoError(t, err)
	assert.True(t, ev2.PricePerLt.Equal(decimal.RequireFromString("9.99")),
		"las recogidas nuevas sí toman el precio nuevo")
}

func TestRecordPickup_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.seedProducer(t, "p1", "w1")
	f.seedPrice(t, "2.00")
	ctx := context.Background()

	cases := []struct {
		name     string
		workerID string
		in       dto.CreatePickupRequest
		wantErr  error
	}{
		{"sin recolector", "", dto.CreatePickupRequest{ProducerID: "p1", QuantityLt: "1"}, domain.ErrUnauthorized},
		{"sin productor", "w1", dto.CreatePickupRequest{QuantityLt: "1"}, domain.ErrInvalidInput},
		{"cantidad no numérica", "w1", dto.CreatePickupRequest{ProducerID: "p1", QuantityLt: "diez"}, domain.ErrInvalidInput},
		{"cantidad cero", "w1", dto.CreatePickupRequest{ProducerID: "p1", QuantityLt: "0"}, domain.ErrInvalidInput},
		{"cantidad negativa", "w1", dto.CreatePickupRequest{ProducerID: "p1", QuantityLt: "-3"}, domain.ErrInvalidInput},
		{"productor inexistente", "w1", dto.CreatePickupRequest{ProducerID: "nadie", QuantityLt: "1"}, domain.ErrProducerNotFound},
		{"productor de otro recolector", "w2", dto.CreatePickupRequest{ProducerID: "p1", QuantityLt: "1"}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.RecordPickup(ctx, tc.workerID, tc.in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// Ninguna validación fallida debe haber persistido nada.
	docs, err := f.store.GetAll(ctx, record.KindEvents, nil)
	require.NoError(t, err)
	assert.Empty(t, docs, "las validaciones van todas antes de cualquier mutación")
}

// Sin precio global configurado no se puede registrar.
func TestRecordPickup_SinPrecioGlobalFalla(t *testing.T) {
	f := newFixture(t)
	f.seedProducer(t, "p1", "w1")

	_, err := f.uc.RecordPickup(context.Background(), "w1", dto.CreatePickupRequest{
		ProducerID: "p1", QuantityLt: "10",
	})
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
}

func TestAssignedProducers_SoloLosAsignados(t *testing.T) {
	f := newFixture(t)
	f.seedProducer(t, "p1", "w1")
	f.seedProducer(t, "p2", "w2")
	f.seedProducer(t, "p3", "w1")

	producers, err := f.uc.AssignedProducers(context.Background(), "w1")
	require.NoError(t, err)
	require.Len(t, producers, 2)
	assert.Equal(t, "p1", producers[0].ID)
	assert.Equal(t, "p3", producers[1].ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Precio global
// ──────────────────────────────────────────────────────────────────────────────

func TestPrecioGlobal_AltaYActualizacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	setting, err := f.uc.CurrentPrice(ctx)
	require.NoError(t, err)
	assert.False(t, setting.Usable(), "sin configurar el precio no es usable")

	f.seedPrice(t, "2.10")
	setting, err = f.uc.CurrentPrice(ctx)
	require.NoError(t, err)
	assert.True(t, setting.Usable())
	assert.True(t, setting.PricePerLt.Equal(decimal.RequireFromString("2.10")))
	assert.Equal(t, "admin-1", setting.UpdatedBy)

	f.seedPrice(t, "2.35")
	setting, err = f.uc.CurrentPrice(ctx)
	require.NoError(t, err)
	assert.True(t, setting.PricePerLt.Equal(decimal.RequireFromString("2.35")),
		"la segunda escritura actualiza el registro único")
}

func TestPrecioGlobal_RechazaNoPositivos(t *testing.T) {
	f := newFixture(t)
	for _, raw := range []string{"0", "-1.5"} {
		_, err := f.uc.SetPrice(context.Background(), "admin-1", decimal.RequireFromString(raw))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "precio %s", raw)
	}
}
