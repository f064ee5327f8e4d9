package entity

import "time"

// Producer representa un productor de leche (proveedor). Puede estar ligado a
// un usuario con login (UserID) y tiene como máximo un recolector asignado a
// la vez: la asignación se sobreescribe, nunca se acumula.
type Producer struct {
	ID               string
	Name             string
	Phone            string
	Address          string
	UserID           string // usuario dueño (rol productor); vacío si no tiene login
	AssignedWorkerID string // recolector asignado; vacío = sin asignar
	CreatedAt        time.Time
}

// HasAssignedWorker indica si el productor tiene recolector asignado.
func (p Producer) HasAssignedWorker() bool {
	return p.AssignedWorkerID != ""
}
