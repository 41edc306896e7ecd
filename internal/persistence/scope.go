package persistence

import (
	"context"
	"sync"
)

// Scope es el contenedor del Persister "actual" de un worker. Cada worker crea el
// suyo y nunca lo comparte, así que un Persister instalado en un Scope no es
// visible desde contextos que llevan otro.
type Scope struct {
	sys *System

	mu      sync.Mutex
	current *Persister
}

// NewScope crea un Scope vacío asociado al System.
func (s *System) NewScope() *Scope {
	return &Scope{sys: s}
}

// InitThread instala un Persister nuevo construido con los parámetros globales.
// Si ya había uno, se cierra.
func (sc *Scope) InitThread(ctx context.Context) error {
	p, err := sc.sys.NewPersister(ctx)
	if err != nil {
		return err
	}
	sc.mu.Lock()
	old := sc.current
	sc.current = p
	sc.mu.Unlock()
	return old.Close()
}

// DeinitThread cierra y limpia el Persister actual.
func (sc *Scope) DeinitThread() error {
	sc.mu.Lock()
	p := sc.current
	sc.current = nil
	sc.mu.Unlock()
	return p.Close()
}

// Current retorna el Persister instalado o nil.
func (sc *Scope) Current() *Persister {
	if sc == nil {
		return nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

// =================================================================================
// CONTEXT
// =================================================================================

type scopeKey struct{}
type persisterKey struct{}

// WithScope asocia el Scope del worker al contexto.
func WithScope(ctx context.Context, sc *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

// WithPersister fija un Persister explícito que tiene prioridad sobre el del Scope.
func WithPersister(ctx context.Context, p *Persister) context.Context {
	return context.WithValue(ctx, persisterKey{}, p)
}

// From retorna el Persister del contexto. Ver Resolve.
func From(ctx context.Context) (*Persister, error) {
	return Resolve(ctx, nil)
}

// Resolve elige el Persister a usar: el argumento explícito si no es nil, luego el
// fijado con WithPersister, luego el actual del Scope. Sin ninguno devuelve
// ErrNoPersister.
func Resolve(ctx context.Context, explicit *Persister) (*Persister, error) {
	if explicit != nil {
		return explicit, nil
	}
	if ctx == nil {
		return nil, ErrNoPersister
	}
	if p, ok := ctx.Value(persisterKey{}).(*Persister); ok && p != nil {
		return p, nil
	}
	if sc, ok := ctx.Value(scopeKey{}).(*Scope); ok {
		if p := sc.Current(); p != nil {
			return p, nil
		}
	}
	return nil, ErrNoPersister
}
