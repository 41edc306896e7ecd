package persistence

import (
	"context"
	"fmt"
	"sync"
)

// Persistable es un tipo que guarda estado en el backend.
// Las capacidades de esquema son interfaces opcionales.
type Persistable interface {
	PersistableName() string
}

// Creator crea los objetos (tablas) del persistable.
type Creator interface {
	Create(ctx context.Context, p *Persister) error
}

// Dropper elimina los objetos del persistable.
type Dropper interface {
	Drop(ctx context.Context, p *Persister) error
}

// ConstraintAdder agrega constraints una vez que todos los objetos existen.
type ConstraintAdder interface {
	AddConstraints(ctx context.Context, p *Persister) error
}

// ConstraintDropper quita constraints antes de eliminar objetos.
type ConstraintDropper interface {
	DropConstraints(ctx context.Context, p *Persister) error
}

// Registry es la lista ordenada de persistables del proceso. Se llena de forma
// explícita durante el wiring, nunca como efecto de declarar un tipo.
type Registry struct {
	mu    sync.RWMutex
	items []Persistable
	names map[string]struct{}
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register agrega persistables respetando el orden. Un nombre duplicado es un
// error de programación y hace panic.
func (r *Registry) Register(items ...Persistable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		name := it.PersistableName()
		if _, dup := r.names[name]; dup {
			panic(fmt.Sprintf("persistence: persistable %q already registered", name))
		}
		r.names[name] = struct{}{}
		r.items = append(r.items, it)
	}
}

// Items retorna una copia en orden de registro.
func (r *Registry) Items() []Persistable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Persistable, len(r.items))
	copy(out, r.items)
	return out
}
