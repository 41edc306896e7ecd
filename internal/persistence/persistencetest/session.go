// Package persistencetest provee una sesión en memoria que registra sentencias, para
// probar stores SQL sin un servidor MySQL.
package persistencetest

import (
	"context"
	"strings"
	"sync"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

// Stmt es una sentencia recibida por la sesión.
type Stmt struct {
	SQL    string
	Params []any
}

// Responder decide las filas (o el error) de cada sentencia.
type Responder func(sql string, params []any) ([]persistence.Row, error)

// Session registra cada sentencia y responde con Responder (nil = sin filas).
type Session struct {
	mu      sync.Mutex
	stmts   []Stmt
	respond Responder
	closed  bool
}

// NewSession crea una sesión con el responder dado.
func NewSession(r Responder) *Session {
	return &Session{respond: r}
}

func (s *Session) Exec(ctx context.Context, stmt string, opts persistence.ExecOptions) ([]persistence.Row, error) {
	s.mu.Lock()
	s.stmts = append(s.stmts, Stmt{SQL: normalize(stmt), Params: opts.Params})
	r := s.respond
	s.mu.Unlock()
	if r == nil {
		return nil, nil
	}
	return r(normalize(stmt), opts.Params)
}

func (s *Session) Valid(ctx context.Context) bool { return true }

func (s *Session) Reconnect(ctx context.Context) error { return nil }

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Statements retorna las sentencias recibidas, con espacios colapsados.
func (s *Session) Statements() []Stmt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Stmt(nil), s.stmts...)
}

// SQL retorna sólo el texto de las sentencias recibidas.
func (s *Session) SQL() []string {
	stmts := s.Statements()
	out := make([]string, len(stmts))
	for i, st := range stmts {
		out[i] = st.SQL
	}
	return out
}

// Context retorna un contexto con un Persister sobre esta sesión.
func (s *Session) Context(ctx context.Context) context.Context {
	p := persistence.NewPersisterFromSession(s, persistence.ConnectionInfo{Host: "test"})
	return persistence.WithPersister(ctx, p)
}

// Persister retorna un Persister sobre esta sesión.
func (s *Session) Persister() *persistence.Persister {
	return persistence.NewPersisterFromSession(s, persistence.ConnectionInfo{Host: "test"})
}

func normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
