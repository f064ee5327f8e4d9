package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/application/usecase"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/internal/infrastructure/memstore"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

func seedUser(t *testing.T, store record.Store, id, email string, role entity.Role) {
	t.Helper()
	now := time.Now().UTC()
	u := entity.User{
		ID: id, Email: email, PasswordHash: "x", Name: id,
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Create(context.Background(), record.KindUsers, record.UserToDoc(u)))
}

func userByID(t *testing.T, store record.Store, id string) entity.User {
	t.Helper()
	docs, err := store.GetAll(context.Background(), record.KindUsers,
		record.Filter{}.Where("id", record.OpEq, id))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return record.UserFromDoc(docs[0])
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta de productores
// ──────────────────────────────────────────────────────────────────────────────

// El alta vincula al usuario por email y le cambia el rol a productor.
func TestProducerCreate_VinculaUsuarioYCambiaSuRol(t *testing.T) {
	store := memstore.New()
	seedUser(t, store, "u1", "maria@acopio.test", entity.RoleSinAsignar)
	uc := usecase.NewProducerUseCase(store, logger.Nop())

	p, err := uc.Create(context.Background(), dto.CreateProducerRequest{
		Name: "Finca Norte", Phone: "555-1234", UserEmail: "maria@acopio.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Empty(t, p.AssignedWorkerID, "el productor arranca sin recolector")

	assert.Equal(t, entity.RoleProductor, userByID(t, store, "u1").Role,
		"el alta promueve al usuario a productor")
}

func TestProducerCreate_SinUsuarioRegistradoFalla(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProducerUseCase(store, logger.Nop())

	_, err := uc.Create(context.Background(), dto.CreateProducerRequest{
		Name: "Finca Sur", Phone: "555", UserEmail: "nadie@acopio.test",
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	docs, err := store.GetAll(context.Background(), record.KindProducers, nil)
	require.NoError(t, err)
	assert.Empty(t, docs, "el alta fallida no persiste nada")
}

func TestProducerCreate_CamposObligatorios(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProducerUseCase(store, logger.Nop())

	_, err := uc.Create(context.Background(), dto.CreateProducerRequest{Name: "solo nombre"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación de recolector
// ──────────────────────────────────────────────────────────────────────────────

// La asignación sobreescribe y el vacío retira; un productor tiene como
// máximo un recolector.
func TestAssignWorker_SobreescribeYRetira(t *testing.T) {
	store := memstore.New()
	seedUser(t, store, "u1", "p@acopio.test", entity.RoleSinAsignar)
	seedUser(t, store, "w1", "w1@acopio.test", entity.RoleRecolector)
	seedUser(t, store, "w2", "w2@acopio.test", entity.RoleRecolector)
	uc := usecase.NewProducerUseCase(store, logger.Nop())

	p, err := uc.Create(context.Background(), dto.CreateProducerRequest{
		Name: "Finca Norte", Phone: "555", UserEmail: "p@acopio.test",
	})
	require.NoError(t, err)

	require.NoError(t, uc.AssignWorker(context.Background(), p.ID, "w1"))
	require.NoError(t, uc.AssignWorker(context.Background(), p.ID, "w2"))

	producers, err := uc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, producers, 1)
	assert.Equal(t, "w2", producers[0].AssignedWorkerID, "la segunda asignación sobreescribe")

	require.NoError(t, uc.AssignWorker(context.Background(), p.ID, ""))
	producers, err = uc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, producers[0].AssignedWorkerID, "el vacío retira la asignación")
}

// Solo usuarios con rol recolector pueden asignarse.
func TestAssignWorker_ExigeRolRecolector(t *testing.T) {
	store := memstore.New()
	seedUser(t, store, "u1", "p@acopio.test", entity.RoleSinAsignar)
	seedUser(t, store, "x1", "x1@acopio.test", entity.RoleProductor)
	uc := usecase.NewProducerUseCase(store, logger.Nop())

	p, err := uc.Create(context.Background(), dto.CreateProducerRequest{
		Name: "Finca Norte", Phone: "555", UserEmail: "p@acopio.test",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.AssignWorker(context.Background(), p.ID, "x1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.AssignWorker(context.Background(), p.ID, "fantasma"), domain.ErrUserNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────────────────────────────────

func TestChangeRole_SoloRolesDeLaEnumeracion(t *testing.T) {
	store := memstore.New()
	seedUser(t, store, "u1", "u1@acopio.test", entity.RoleSinAsignar)
	uc := usecase.NewRoleUseCase(store, logger.Nop())

	user, err := uc.ChangeRole(context.Background(), "u1", "empleador")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmpleador, user.Role)
	assert.Equal(t, entity.RoleEmpleador, userByID(t, store, "u1").Role)

	_, err = uc.ChangeRole(context.Background(), "u1", "superusuario")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "un rol arbitrario no se guarda jamás")
	assert.Equal(t, entity.RoleEmpleador, userByID(t, store, "u1").Role, "el rol no cambió")

	_, err = uc.ChangeRole(context.Background(), "fantasma", "admin")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestListUsers(t *testing.T) {
	store := memstore.New()
	seedUser(t, store, "u1", "u1@acopio.test", entity.RoleAdmin)
	seedUser(t, store, "u2", "u2@acopio.test", entity.RoleRecolector)
	uc := usecase.NewRoleUseCase(store, logger.Nop())

	users, err := uc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, entity.RoleRecolector, users[1].Role)
}
