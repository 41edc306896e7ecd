package persistence

import (
	"fmt"

	"github.com/dropDatabas3/fabric/internal/errs"
)

var (
	// ErrNoPersister indica que el contexto no tiene un Persister asignado: el worker
	// nunca llamó InitThread o ya llamó DeinitThread.
	ErrNoPersister = fmt.Errorf("%w: no persister assigned to this scope", errs.ErrPrecondition)

	// ErrNotInitialized indica que System.Init no fue llamado.
	ErrNotInitialized = fmt.Errorf("%w: persistence system not initialized", errs.ErrPrecondition)

	// ErrAlreadyExists lo devuelven los Creator cuando sus objetos ya existen.
	ErrAlreadyExists = fmt.Errorf("%w: schema objects already exist", errs.ErrConflict)
)
