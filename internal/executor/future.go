package executor

import (
	"context"
	"fmt"
	"time"
)

// Future es el handle de un procedimiento despachado.
type Future struct {
	proc    *Procedure
	timeout time.Duration
	done    chan struct{}
	result  Completion
}

func newFuture(p *Procedure, timeout time.Duration) *Future {
	return &Future{proc: p, timeout: timeout, done: make(chan struct{})}
}

func (f *Future) resolve() {
	f.result = f.proc.completion()
	close(f.done)
}

// Procedure retorna el procedimiento asociado.
func (f *Future) Procedure() *Procedure { return f.proc }

// Done se cierra cuando el procedimiento terminó.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait bloquea hasta que el procedimiento termine, ctx expire o venza el timeout
// del executor. Al expirar retorna ErrDispatchTimeout; el procedimiento no se cancela.
func (f *Future) Wait(ctx context.Context) (Completion, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return Completion{}, fmt.Errorf("%w: procedure %s: %v", ErrDispatchTimeout, f.proc.id, ctx.Err())
	}
}
