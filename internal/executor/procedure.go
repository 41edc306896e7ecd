package executor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Procedure es una cadena ordenada de jobs que corre en un único worker.
type Procedure struct {
	id uuid.UUID

	mu      sync.Mutex
	done    []*Job
	pending []*Job

	// scheduled acumula lo que agenda el job en curso; se descarta si falla.
	scheduled []*Job
}

func newProcedure(actions []Action) *Procedure {
	p := &Procedure{id: uuid.New()}
	for _, a := range actions {
		p.pending = append(p.pending, newJob(a))
	}
	return p
}

// ID retorna el identificador del procedimiento.
func (p *Procedure) ID() uuid.UUID { return p.id }

// next saca el siguiente job pendiente.
func (p *Procedure) next() *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil
	}
	j := p.pending[0]
	p.pending = p.pending[1:]
	return j
}

// finish registra el job terminado. Si falló, descarta todo lo pendiente y lo
// agendado por él; si no, pasa lo agendado al final de la cadena.
func (p *Procedure) finish(j *Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, j)
	if j.outcome == Fail {
		p.pending = nil
		p.scheduled = nil
		return
	}
	p.pending = append(p.pending, p.scheduled...)
	p.scheduled = nil
}

func (p *Procedure) schedule(a Action) *Job {
	j := newJob(a)
	p.mu.Lock()
	p.scheduled = append(p.scheduled, j)
	p.mu.Unlock()
	return j
}

func (p *Procedure) completion() Completion {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := Completion{Procedure: p.id, Jobs: make([]JobRecord, 0, len(p.done))}
	for _, j := range p.done {
		c.Jobs = append(c.Jobs, j.Record())
	}
	if n := len(p.done); n > 0 {
		c.Result = p.done[n-1].result
	}
	return c
}

// Completion es el resultado inmutable de un procedimiento.
type Completion struct {
	Procedure uuid.UUID
	Jobs      []JobRecord
	// Result es el resultado del último job ejecutado (nil si falló).
	Result any
}

// Succeeded reporta si todos los jobs terminaron con éxito.
func (c Completion) Succeeded() bool {
	if len(c.Jobs) == 0 {
		return false
	}
	for _, j := range c.Jobs {
		if !j.Succeeded() {
			return false
		}
	}
	return true
}

// Last retorna el último job ejecutado.
func (c Completion) Last() (JobRecord, bool) {
	if len(c.Jobs) == 0 {
		return JobRecord{}, false
	}
	return c.Jobs[len(c.Jobs)-1], true
}

// =================================================================================
// CONTEXT
// =================================================================================

type procedureKey struct{}
type jobKey struct{}

func withJob(ctx context.Context, p *Procedure, j *Job) context.Context {
	ctx = context.WithValue(ctx, procedureKey{}, p)
	return context.WithValue(ctx, jobKey{}, j)
}

// Schedule agrega una acción al final del procedimiento del job en curso. La acción
// se crea sólo si el job actual termina con éxito.
func Schedule(ctx context.Context, a Action) (uuid.UUID, error) {
	p, ok := ctx.Value(procedureKey{}).(*Procedure)
	if !ok || p == nil {
		return uuid.Nil, ErrNoProcedure
	}
	return p.schedule(a).id, nil
}

// CurrentJob retorna el ID del job que se está ejecutando en ctx.
func CurrentJob(ctx context.Context) (uuid.UUID, bool) {
	j, ok := ctx.Value(jobKey{}).(*Job)
	if !ok || j == nil {
		return uuid.Nil, false
	}
	return j.id, true
}
