package executor_test

import (
	"context"
	"sync"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

// txDriver guarda las sesiones abiertas para inspeccionar BEGIN/COMMIT/ROLLBACK.
type txDriver struct {
	mu       sync.Mutex
	sessions []*txSession
}

func (d *txDriver) Name() string { return "executor-test" }

func (d *txDriver) Open(ctx context.Context, info persistence.ConnectionInfo, selectDB bool) (persistence.Session, error) {
	s := &txSession{}
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
	return s, nil
}

type txSession struct {
	mu    sync.Mutex
	stmts []string
}

func (s *txSession) Exec(ctx context.Context, stmt string, opts persistence.ExecOptions) ([]persistence.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stmt != "SELECT @@GLOBAL.SERVER_UUID" {
		s.stmts = append(s.stmts, stmt)
	}
	return nil, nil
}

func (s *txSession) Valid(ctx context.Context) bool      { return true }
func (s *txSession) Reconnect(ctx context.Context) error { return nil }
func (s *txSession) Close() error                        { return nil }

func (s *txSession) statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.stmts...)
}

var txd = &txDriver{}

func init() {
	persistence.RegisterDriver(txd)
}

// allStatements concatena las sentencias de todas las sesiones abiertas.
func allStatements() []string {
	txd.mu.Lock()
	defer txd.mu.Unlock()
	var out []string
	for _, s := range txd.sessions {
		out = append(out, s.statements()...)
	}
	return out
}

func resetSessions() {
	txd.mu.Lock()
	txd.sessions = nil
	txd.mu.Unlock()
}
