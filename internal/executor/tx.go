package executor

import (
	"context"
	"sync"
	"sync/atomic"
)

// clock ordena inicios de transacción y cambios publicados por los stores.
var clock atomic.Uint64

// Stamp retorna un valor del reloj del proceso, mayor que todos los anteriores.
func Stamp() uint64 { return clock.Add(1) }

type txKey struct{}

// txState acompaña a la transacción de un job transaccional.
type txState struct {
	start uint64

	mu    sync.Mutex
	hooks []func(committed bool)
}

func withTx(ctx context.Context) (context.Context, *txState) {
	tx := &txState{start: Stamp()}
	return context.WithValue(ctx, txKey{}, tx), tx
}

func (tx *txState) finish(committed bool) {
	tx.mu.Lock()
	hooks := tx.hooks
	tx.hooks = nil
	tx.mu.Unlock()
	for _, fn := range hooks {
		fn(committed)
	}
}

// AfterTx registra fn para cuando termine la transacción del job en curso: después
// del COMMIT (committed=true) o del ROLLBACK. Fuera de una transacción fn corre en el
// momento con committed=true.
func AfterTx(ctx context.Context, fn func(committed bool)) {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx == nil {
		fn(true)
		return
	}
	tx.mu.Lock()
	tx.hooks = append(tx.hooks, fn)
	tx.mu.Unlock()
}

// TxStart retorna el Stamp tomado antes del BEGIN de la transacción en curso. Una
// lectura hecha en ella ve todo cambio publicado con un Stamp menor. Fuera de una
// transacción retorna un Stamp nuevo.
func TxStart(ctx context.Context) uint64 {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx != nil {
		return tx.start
	}
	return Stamp()
}
