package dto

import "time"

// CreateProducerRequest alta de productor. El email debe pertenecer a un
// usuario ya registrado: su rol pasa a productor como efecto del alta.
type CreateProducerRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	UserEmail string `json:"user_email"`
}

// AssignWorkerRequest asignación de recolector a un productor; worker_id
// vacío retira la asignación. Siempre sobreescribe: un productor tiene como
// máximo un recolector.
type AssignWorkerRequest struct {
	WorkerID string `json:"worker_id"`
}

// ProducerResponse salida de un productor.
type ProducerResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	UserID           string    `json:"user_id,omitempty"`
	AssignedWorkerID string    `json:"assigned_worker_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
