// Package record define el puerto de acceso al almacén de registros: cuatro
// tipos de registro direccionados por tipo + id opaco, lectura puntual,
// suscripción con push en cada cambio y mutaciones unitarias o en batch
// atómico. Las implementaciones viven en internal/infrastructure.
package record

import (
	"context"
	"errors"
)

// Kind tipo de registro persistido.
type Kind string

// Tipos de registro del sistema.
const (
	KindUsers     Kind = "users"
	KindProducers Kind = "producers"
	KindEvents    Kind = "collection_events"
	KindSettings  Kind = "settings"
)

// Op operador de comparación en un filtro.
type Op string

// Operadores soportados.
const (
	OpEq  Op = "=="
	OpNeq Op = "!="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Cond condición individual (campo, operador, valor).
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter conjunción de condiciones; vacío significa "todos los registros
// del tipo".
type Filter []Cond

// Where añade una condición de igualdad; devuelve el filtro para encadenar.
func (f Filter) Where(field string, op Op, value any) Filter {
	return append(f, Cond{Field: field, Op: op, Value: value})
}

// Document registro genérico: id opaco + campos planos. Los valores numéricos
// de dinero/volumen viajan como decimal.Decimal.
type Document struct {
	ID   string
	Data map[string]any
}

// Patch conjunto de campos a modificar en una mutación.
type Patch map[string]any

// Mutation mutación de un registro dentro de un batch.
type Mutation struct {
	ID    string
	Patch Patch
}

// Store puerto del almacén de registros.
//
// Garantías que el resto del sistema asume:
//   - GetAll devuelve un snapshot consistente en orden determinista.
//   - Subscribe entrega el recordset completo que cumple el filtro tras cada
//     cambio relevante, empezando por un snapshot inicial. Los snapshots se
//     coalescen: el consumidor siempre ve el más reciente.
//   - MutateBatch es todo-o-nada; si no puede garantizarlo devuelve
//     ErrPartialApply.
//   - Dentro de una suscripción las notificaciones llegan en el orden en que
//     el almacén aplica los cambios; entre tipos distintos no hay orden
//     relativo garantizado.
type Store interface {
	GetAll(ctx context.Context, kind Kind, filter Filter) ([]Document, error)
	Subscribe(ctx context.Context, kind Kind, filter Filter) (*Subscription, error)
	Create(ctx context.Context, kind Kind, doc Document) error
	MutateOne(ctx context.Context, kind Kind, id string, patch Patch) error
	MutateBatch(ctx context.Context, kind Kind, muts []Mutation) error
}

// Errores del puerto.
var (
	// ErrTransport fallo de red/permisos hablando con el almacén. No se
	// reintenta automáticamente desde los consumidores.
	ErrTransport = errors.New("fallo de transporte con el almacén de registros")

	// ErrPartialApply un batch falló después de aplicar parte de las
	// mutaciones. Quien lo reciba debe tratarlo como inconsistencia fatal.
	ErrPartialApply = errors.New("batch aplicado parcialmente")

	// ErrUnknownKind tipo de registro no reconocido por la implementación.
	ErrUnknownKind = errors.New("tipo de registro desconocido")
)
