// Package noop implementa un driver de persistence que acepta cualquier sentencia y
// no devuelve filas. Se usa con el backend "memory", donde el estado vive en los
// stores en memoria y las sentencias de control (BEGIN/COMMIT) no tienen efecto.
package noop

import (
	"context"
	"errors"
	"sync"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

// Name es el nombre con el que se registra el driver.
const Name = "noop"

func init() {
	persistence.RegisterDriver(&noopDriver{})
}

var errClosed = errors.New("noop: session closed")

type noopDriver struct{}

func (d *noopDriver) Name() string { return Name }

func (d *noopDriver) Open(ctx context.Context, info persistence.ConnectionInfo, selectDB bool) (persistence.Session, error) {
	return &Session{}, nil
}

// Session registra las sentencias recibidas.
type Session struct {
	mu     sync.Mutex
	stmts  []string
	closed bool
}

func (s *Session) Exec(ctx context.Context, stmt string, opts persistence.ExecOptions) ([]persistence.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errClosed
	}
	s.stmts = append(s.stmts, stmt)
	return nil, nil
}

func (s *Session) Valid(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Statements retorna una copia de las sentencias ejecutadas.
func (s *Session) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.stmts))
	copy(out, s.stmts)
	return out
}
