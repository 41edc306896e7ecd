// Package executor ejecuta acciones como jobs dentro de procedimientos. Cada worker
// tiene su propio persistence.Scope, de modo que las acciones usan el Persister del
// worker sin recibirlo como argumento.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/fabric/internal/metrics"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
	"github.com/dropDatabas3/fabric/internal/persistence"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 128
)

// Config configura el pool de workers.
type Config struct {
	Workers         int
	QueueSize       int
	DispatchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}

// Executor es un pool de workers que consume procedimientos de una cola compartida.
type Executor struct {
	sys *persistence.System
	cfg Config

	mu      sync.RWMutex
	running bool
	queue   chan queued
	group   *errgroup.Group
}

type queued struct {
	proc   *Procedure
	future *Future
}

// New crea un executor sin iniciar.
func New(sys *persistence.System, cfg Config) *Executor {
	return &Executor{sys: sys, cfg: cfg.withDefaults()}
}

// Workers retorna la cantidad de workers configurados.
func (e *Executor) Workers() int { return e.cfg.Workers }

// Start inicia los workers. Cada uno abre su Persister antes de consumir la cola;
// si alguno falla, los ya abiertos se cierran y Start retorna el error.
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	scopes := make([]*persistence.Scope, 0, e.cfg.Workers)
	for i := 0; i < e.cfg.Workers; i++ {
		sc := e.sys.NewScope()
		if err := sc.InitThread(ctx); err != nil {
			for _, s := range scopes {
				_ = s.DeinitThread()
			}
			return fmt.Errorf("executor: init worker %d: %w", i, err)
		}
		scopes = append(scopes, sc)
	}

	e.queue = make(chan queued, e.cfg.QueueSize)
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for i, sc := range scopes {
		g.Go(func() error { return e.work(gctx, i, sc, e.queue) })
	}
	e.group = g
	e.running = true

	logger.From(ctx).Info("executor started",
		logger.Component("executor"), logger.Count(e.cfg.Workers))
	return nil
}

// Stop deja de aceptar procedimientos, espera a que los workers vacíen la cola y
// cierra sus Persisters.
func (e *Executor) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.queue)
	g := e.group
	e.mu.Unlock()

	err := g.Wait()
	logger.L().Info("executor stopped", logger.Component("executor"))
	return err
}

// Dispatch encola una cadena de acciones como un único procedimiento.
func (e *Executor) Dispatch(ctx context.Context, actions ...Action) (*Future, error) {
	if len(actions) == 0 {
		return nil, ErrEmptyChain
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.running {
		return nil, ErrStopped
	}

	proc := newProcedure(actions)
	fut := newFuture(proc, e.cfg.DispatchTimeout)
	select {
	case e.queue <- queued{proc: proc, future: fut}:
		metrics.QueueDepth.Inc()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: enqueue: %v", ErrDispatchTimeout, ctx.Err())
	}

	logger.From(ctx).Debug("procedure dispatched",
		logger.Component("executor"),
		logger.ProcedureID(proc.id.String()),
		logger.Action(chainName(actions)),
	)
	return fut, nil
}

// Run despacha y espera la finalización.
func (e *Executor) Run(ctx context.Context, actions ...Action) (Completion, error) {
	fut, err := e.Dispatch(ctx, actions...)
	if err != nil {
		return Completion{}, err
	}
	return fut.Wait(ctx)
}

func (e *Executor) work(ctx context.Context, n int, sc *persistence.Scope, queue <-chan queued) error {
	defer func() {
		if err := sc.DeinitThread(); err != nil {
			logger.L().Warn("worker persister close failed", logger.Worker(n), logger.Err(err))
		}
	}()

	log := logger.L().With(logger.Component("executor"), logger.Worker(n))
	ctx = logger.ToContext(persistence.WithScope(ctx, sc), log)

	for q := range queue {
		metrics.QueueDepth.Dec()
		e.runProcedure(ctx, q.proc)
		q.future.resolve()
	}
	return nil
}

func (e *Executor) runProcedure(ctx context.Context, proc *Procedure) {
	for j := proc.next(); j != nil; j = proc.next() {
		runJob(ctx, proc, j)
		proc.finish(j)
	}
}

func runJob(ctx context.Context, proc *Procedure, j *Job) {
	jctx, log := logger.With(withJob(ctx, proc, j),
		logger.ProcedureID(proc.id.String()),
		logger.JobID(j.id.String()),
		logger.Action(j.action.Name),
	)

	j.start()
	res, err := invoke(jctx, j.action)
	j.complete(res, err)

	rec := j.Record()
	metrics.JobsTotal.WithLabelValues(j.action.Name, strings.ToLower(rec.Outcome.String())).Inc()
	metrics.JobDuration.WithLabelValues(j.action.Name).Observe(rec.Duration.Seconds())

	if err != nil {
		log.Warn("job failed", logger.Err(err), logger.Duration(rec.Duration))
		return
	}
	log.Debug("job complete", logger.Duration(rec.Duration))
}

// invoke ejecuta la acción, dentro de una transacción si corresponde.
func invoke(ctx context.Context, a Action) (any, error) {
	if !a.Transactional {
		return safeCall(ctx, a.Fn)
	}

	p, err := persistence.From(ctx)
	if err != nil {
		return nil, err
	}
	ctx, tx := withTx(ctx)
	if err := p.Begin(ctx); err != nil {
		return nil, err
	}
	res, err := safeCall(ctx, a.Fn)
	if err != nil {
		if rerr := p.Rollback(ctx); rerr != nil {
			logger.From(ctx).Error("rollback failed", logger.Err(rerr))
		}
		tx.finish(false)
		return nil, err
	}
	if err := p.Commit(ctx); err != nil {
		tx.finish(false)
		return nil, err
	}
	tx.finish(true)
	return res, nil
}

func safeCall(ctx context.Context, fn func(context.Context) (any, error)) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrActionPanic, r)
		}
	}()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func chainName(actions []Action) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
	}
	return strings.Join(names, ",")
}
