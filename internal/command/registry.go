package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/fabric/internal/errs"
)

// ErrDuplicate se devuelve al registrar dos veces el mismo grupo.comando.
var ErrDuplicate = fmt.Errorf("%w: command already registered", errs.ErrConflict)

// Registry indexa comandos por "grupo.comando".
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{cmds: map[string]Command{}}
}

// Register agrega comandos.
func (r *Registry) Register(cmds ...Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cmds {
		m := Method(c.Group(), c.Name())
		if _, ok := r.cmds[m]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, m)
		}
		r.cmds[m] = c
	}
	return nil
}

// Lookup busca un comando por grupo y nombre.
func (r *Registry) Lookup(group, name string) (Command, bool) {
	return r.LookupMethod(Method(group, name))
}

// LookupMethod busca un comando por "grupo.comando".
func (r *Registry) LookupMethod(method string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cmds[method]
	return c, ok
}

// Methods retorna los nombres registrados, ordenados.
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.cmds))
	for m := range r.cmds {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Commands retorna los comandos registrados ordenados por método.
func (r *Registry) Commands() []Command {
	methods := r.Methods()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(methods))
	for _, m := range methods {
		out = append(out, r.cmds[m])
	}
	return out
}
