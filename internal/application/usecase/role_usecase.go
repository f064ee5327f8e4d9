package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

// RoleUseCase administración de usuarios y roles (solo admin).
type RoleUseCase struct {
	store record.Store
	log   *logger.Logger
}

// NewRoleUseCase construye el caso de uso.
func NewRoleUseCase(store record.Store, log *logger.Logger) *RoleUseCase {
	return &RoleUseCase{store: store, log: log}
}

// ListUsers todos los usuarios registrados.
func (uc *RoleUseCase) ListUsers(ctx context.Context) ([]entity.User, error) {
	docs, err := uc.store.GetAll(ctx, record.KindUsers, nil)
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w", err)
	}
	users := make([]entity.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, record.UserFromDoc(d))
	}
	return users, nil
}

// ChangeRole reasigna el rol de un usuario dentro de la enumeración cerrada.
// Un rol fuera de la lista se rechaza, no se guarda un string arbitrario.
func (uc *RoleUseCase) ChangeRole(ctx context.Context, userID, newRole string) (entity.User, error) {
	if userID == "" {
		return entity.User{}, fmt.Errorf("%w: falta el usuario", domain.ErrInvalidInput)
	}
	role := entity.Role(newRole)
	if !role.Valid() {
		return entity.User{}, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, newRole)
	}

	docs, err := uc.store.GetAll(ctx, record.KindUsers,
		record.Filter{}.Where("id", record.OpEq, userID))
	if err != nil {
		return entity.User{}, fmt.Errorf("buscar usuario: %w", err)
	}
	if len(docs) == 0 {
		return entity.User{}, domain.ErrUserNotFound
	}

	now := time.Now().UTC()
	patch := record.Patch{"role": string(role), "updated_at": now}
	if err := uc.store.MutateOne(ctx, record.KindUsers, userID, patch); err != nil {
		return entity.User{}, fmt.Errorf("cambiar rol: %w", err)
	}

	user := record.UserFromDoc(docs[0])
	user.Role = role
	user.UpdatedAt = now
	uc.log.Info().
		Str("user_id", userID).
		Str("role", string(role)).
		Msg("rol reasignado")
	return user, nil
}
