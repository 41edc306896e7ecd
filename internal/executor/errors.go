package executor

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/fabric/internal/errs"
)

var (
	// ErrStopped se devuelve al despachar en un executor detenido o no iniciado.
	ErrStopped = fmt.Errorf("%w: executor is not running", errs.ErrPrecondition)

	// ErrDispatchTimeout indica que se agotó la espera del resultado. El procedimiento
	// sigue ejecutándose.
	ErrDispatchTimeout = errors.New("dispatch timeout")

	// ErrNoProcedure se devuelve al llamar Schedule fuera de una acción en ejecución.
	ErrNoProcedure = fmt.Errorf("%w: schedule called outside a running job", errs.ErrPrecondition)

	// ErrEmptyChain se devuelve al despachar sin acciones.
	ErrEmptyChain = fmt.Errorf("%w: empty action chain", errs.ErrPrecondition)

	// ErrActionPanic envuelve el valor de un panic recuperado dentro de una acción.
	ErrActionPanic = errors.New("action panicked")
)
