// Package auth casos de uso de autenticación: login y alta de usuarios.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/acopio-api/internal/application/dto"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login y alta de usuarios sobre el almacén de registros.
type AuthUseCase struct {
	store  record.Store
	jwtCfg JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(store record.Store, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{store: store, jwtCfg: jwtCfg}
}

// CreateUser alta de usuario (la hace el admin): hashea el password con
// bcrypt y persiste. El rol, si no viene, queda sin asignar hasta que el
// admin lo fije; un rol fuera de la enumeración se rechaza.
func (uc *AuthUseCase) CreateUser(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if in.Email == "" || len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: email obligatorio y password de 8+ caracteres", domain.ErrInvalidInput)
	}
	existing, err := uc.store.GetAll(ctx, record.KindUsers,
		record.Filter{}.Where("email", record.OpEq, in.Email))
	if err != nil {
		return nil, fmt.Errorf("comprobar email: %w", err)
	}
	if len(existing) > 0 {
		return nil, domain.ErrEmailAlreadyExists
	}

	role := entity.RoleSinAsignar
	if in.Role != "" {
		role = entity.Role(in.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, in.Role)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	name := in.Name
	if name == "" {
		name = in.Email
	}
	user := entity.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.store.Create(ctx, record.KindUsers, record.UserToDoc(user)); err != nil {
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	return toUserResponse(user), nil
}

// Login verifica email/password, genera JWT con el rol vigente y retorna
// token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	docs, err := uc.store.GetAll(ctx, record.KindUsers,
		record.Filter{}.Where("email", record.OpEq, in.Email))
	if err != nil {
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrUserNotFound
	}
	user := record.UserFromDoc(docs[0])
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, string(user.Role), uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  *toUserResponse(user),
	}, nil
}

func toUserResponse(u entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
