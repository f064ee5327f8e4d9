package entity

import "time"

// Role rol de negocio de un usuario. Enumeración cerrada: cualquier valor
// fuera de la lista se normaliza a RoleSinAsignar, nunca se propaga un rol
// desconocido.
type Role string

// Roles válidos para User.
const (
	RoleAdmin      Role = "admin"
	RoleEmpleador  Role = "empleador"
	RoleRecolector Role = "recolector"
	RoleProductor  Role = "productor"
	RoleSinAsignar Role = "sin_asignar"
)

// ParseRole normaliza un string de rol. Valores desconocidos o vacíos (incluido
// el caso de un usuario sin rol registrado) devuelven RoleSinAsignar.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleEmpleador, RoleRecolector, RoleProductor:
		return Role(s)
	default:
		return RoleSinAsignar
	}
}

// Valid indica si el rol pertenece a la enumeración (incluye sin_asignar).
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmpleador, RoleRecolector, RoleProductor, RoleSinAsignar:
		return true
	}
	return false
}

// User representa una identidad autenticada del sistema con su rol asignado.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName devuelve el nombre visible del usuario; si no tiene nombre,
// la parte local del email (comportamiento heredado de los listados).
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
