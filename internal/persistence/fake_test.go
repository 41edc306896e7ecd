package persistence_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

var errTransient = errors.New("invalid connection")

// fakeSession ejecuta un guion de fallos por llamada.
type fakeSession struct {
	mu           sync.Mutex
	selectDB     bool
	info         persistence.ConnectionInfo
	execErrs     []error
	valid        []bool
	reconnectErr error
	reconnects   int
	stmts        []string
	rows         map[string][]persistence.Row
	closed       bool
}

func (s *fakeSession) Exec(ctx context.Context, stmt string, opts persistence.ExecOptions) ([]persistence.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stmts = append(s.stmts, stmt)
	if len(s.execErrs) > 0 {
		err := s.execErrs[0]
		s.execErrs = s.execErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.rows[stmt], nil
}

func (s *fakeSession) Valid(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.valid) == 0 {
		return true
	}
	v := s.valid[0]
	s.valid = s.valid[1:]
	return v
}

func (s *fakeSession) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return s.reconnectErr
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.stmts...)
}

// fakeDriver entrega sesiones nuevas y guarda todas las abiertas.
type fakeDriver struct {
	mu       sync.Mutex
	opened   []*fakeSession
	openErr  error
	prepared func(s *fakeSession)
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Open(ctx context.Context, info persistence.ConnectionInfo, selectDB bool) (persistence.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	s := &fakeSession{info: info, selectDB: selectDB, rows: map[string][]persistence.Row{}}
	if d.prepared != nil {
		d.prepared(s)
	}
	d.opened = append(d.opened, s)
	return s, nil
}

func (d *fakeDriver) reset() {
	d.mu.Lock()
	d.opened = nil
	d.openErr = nil
	d.prepared = nil
	d.mu.Unlock()
}

func (d *fakeDriver) sessions() []*fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeSession(nil), d.opened...)
}

var fake = &fakeDriver{}

func init() {
	persistence.RegisterDriver(fake)
}

// recorder es un persistable que anota cada fase en un log compartido.
type recorder struct {
	name string
	log  *[]string
	fail string
}

func (r *recorder) PersistableName() string { return r.name }

func (r *recorder) step(phase string) error {
	*r.log = append(*r.log, phase+":"+r.name)
	if r.fail == phase {
		return errors.New(phase + " failed")
	}
	return nil
}

func (r *recorder) Create(ctx context.Context, p *persistence.Persister) error {
	return r.step("create")
}

func (r *recorder) Drop(ctx context.Context, p *persistence.Persister) error {
	return r.step("drop")
}

func (r *recorder) AddConstraints(ctx context.Context, p *persistence.Persister) error {
	return r.step("add_constraints")
}

func (r *recorder) DropConstraints(ctx context.Context, p *persistence.Persister) error {
	return r.step("drop_constraints")
}

// tablesOnly no tiene constraints.
type tablesOnly struct {
	name string
	log  *[]string
}

func (t *tablesOnly) PersistableName() string { return t.name }

func (t *tablesOnly) Create(ctx context.Context, p *persistence.Persister) error {
	*t.log = append(*t.log, "create:"+t.name)
	return nil
}
