package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/metrics"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// Persister es dueño de una única conexión física con el backend de estado.
// No es seguro para uso concurrente: cada worker tiene el suyo.
type Persister struct {
	sess Session
	info ConnectionInfo
}

// newPersister abre la conexión del persister.
func newPersister(ctx context.Context, d Driver, info ConnectionInfo) (*Persister, error) {
	sess, err := d.Open(ctx, info, true)
	if err != nil {
		return nil, errs.Storage("connect "+info.String(), err)
	}
	p := &Persister{sess: sess, info: info}
	if _, ok := p.UUID(ctx); !ok {
		logger.From(ctx).Warn("persister does not support uuid or it is not configured",
			logger.Component("persistence"), logger.Database(info.Database))
	}
	return p, nil
}

// NewPersisterFromSession envuelve una sesión ya abierta. Útil para drivers externos y tests.
func NewPersisterFromSession(sess Session, info ConnectionInfo) *Persister {
	return &Persister{sess: sess, info: info.withDefaults()}
}

// Info retorna los parámetros con los que se abrió la conexión.
func (p *Persister) Info() ConnectionInfo { return p.info }

// ExecStmt ejecuta una sentencia. Si falla y la conexión quedó inválida se reconecta
// exactamente una vez y reintenta; cualquier otro fallo se propaga como errs.ErrStorage.
func (p *Persister) ExecStmt(ctx context.Context, stmt string, opts ExecOptions) ([]Row, error) {
	if p == nil || p.sess == nil {
		return nil, ErrNoPersister
	}

	rows, err := p.sess.Exec(ctx, stmt, opts)
	if err == nil {
		return rows, nil
	}
	if p.sess.Valid(ctx) {
		return nil, errs.Storage("exec", err)
	}

	log := logger.From(ctx).With(logger.Component("persistence"), logger.Database(p.info.Database))
	log.Warn("connection lost, reconnecting once", logger.Err(err))

	if rerr := p.sess.Reconnect(ctx); rerr != nil {
		metrics.PersisterReconnects.WithLabelValues("failed").Inc()
		return nil, errs.Storage("reconnect", fmt.Errorf("%w (after %v)", rerr, err))
	}
	if !p.sess.Valid(ctx) {
		metrics.PersisterReconnects.WithLabelValues("failed").Inc()
		return nil, errs.Storage("reconnect", fmt.Errorf("connection still invalid (after %v)", err))
	}
	metrics.PersisterReconnects.WithLabelValues("ok").Inc()

	rows, err = p.sess.Exec(ctx, stmt, opts)
	if err != nil {
		return nil, errs.Storage("exec after reconnect", err)
	}
	return rows, nil
}

// Exec ejecuta una sentencia que no devuelve filas.
func (p *Persister) Exec(ctx context.Context, stmt string, params ...any) error {
	_, err := p.ExecStmt(ctx, stmt, ExecOptions{Params: params})
	return err
}

// Query ejecuta una sentencia y devuelve sus filas.
func (p *Persister) Query(ctx context.Context, stmt string, params ...any) ([]Row, error) {
	return p.ExecStmt(ctx, stmt, ExecOptions{Params: params, Fetch: true})
}

// Begin inicia una transacción.
func (p *Persister) Begin(ctx context.Context) error { return p.Exec(ctx, "BEGIN") }

// Commit confirma la transacción en curso.
func (p *Persister) Commit(ctx context.Context) error { return p.Exec(ctx, "COMMIT") }

// Rollback descarta la transacción en curso.
func (p *Persister) Rollback(ctx context.Context) error { return p.Exec(ctx, "ROLLBACK") }

// UUID retorna el server_uuid del backend. Si no lo soporta o no está configurado
// retorna (uuid.Nil, false); nunca es un error.
func (p *Persister) UUID(ctx context.Context) (uuid.UUID, bool) {
	rows, err := p.Query(ctx, "SELECT @@GLOBAL.SERVER_UUID")
	if err != nil || len(rows) == 0 || len(rows[0]) == 0 {
		return uuid.Nil, false
	}
	s, ok := rows[0][0].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Close cierra la conexión. Es nil-safe y no falla si la conexión nunca se abrió.
func (p *Persister) Close() error {
	if p == nil || p.sess == nil {
		return nil
	}
	sess := p.sess
	p.sess = nil
	return sess.Close()
}
