// Package errs define la taxonomía de errores compartida por el core de fabric.
//
// Cada paquete declara sus propios errores sentinela envolviendo uno de estos tipos
// con %w, de modo que los llamadores puedan ramificar con errors.Is sin conocer el
// paquete de origen.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition indica un error de programación del llamador. Nunca se reintenta.
	ErrPrecondition = errors.New("precondition violation")

	// ErrStorage indica que el backend de persistencia falló (incluye el reintento).
	ErrStorage = errors.New("storage failure")

	// ErrNotSupported indica una operación o esquema no soportado.
	ErrNotSupported = errors.New("not supported")

	// ErrConflict indica que la operación viola un invariante del dominio
	// (duplicados, solapamientos).
	ErrConflict = errors.New("conflict")
)

// Precondition crea un error de precondición con mensaje formateado.
func Precondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// Storage envuelve err como fallo de almacenamiento.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// IsPrecondition helper para verificar errores de precondición.
func IsPrecondition(err error) bool { return errors.Is(err, ErrPrecondition) }

// IsStorage helper para verificar fallos de almacenamiento.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }

// IsConflict helper para verificar violaciones de invariantes.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
