package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrProducerNotFound   = errors.New("productor no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// ErrPriceUnavailable el precio global no está fijado o no es positivo:
	// se rechaza el registro de recogidas hasta que el admin lo corrija.
	ErrPriceUnavailable = errors.New("precio por litro no disponible")

	// ErrSettlementInFlight ya existe una liquidación en curso para ese
	// productor; la segunda se rechaza, nunca se intercalan.
	ErrSettlementInFlight = errors.New("liquidación en curso para el productor")

	// ErrSettlementEmpty el productor no tiene recogidas pendientes de pago.
	ErrSettlementEmpty = errors.New("no hay recogidas pendientes que liquidar")

	// ErrSettlementInconsistent el batch de liquidación falló con aplicación
	// parcial: estado terminal que requiere conciliación manual, no se
	// reintenta en silencio.
	ErrSettlementInconsistent = errors.New("liquidación en estado inconsistente")
)
