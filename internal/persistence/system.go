// Package persistence gestiona la conexión con el almacén de estado de fabric.
//
// Un System guarda los parámetros de conexión globales y el registry de persistables;
// cada worker obtiene su propio Persister a través de un Scope (ver scope.go).
package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
)

// System es el punto de entrada global: init, setup, teardown.
type System struct {
	mu       sync.RWMutex
	info     *ConnectionInfo
	driver   Driver
	registry *Registry
}

// NewSystem crea un System con el driver indicado (debe estar registrado).
func NewSystem(driverName string, reg *Registry) (*System, error) {
	d, ok := GetDriver(driverName)
	if !ok {
		return nil, errs.Precondition("persistence driver %q not registered (have %v)", driverName, ListDrivers())
	}
	if reg == nil {
		reg = NewRegistry()
	}
	return &System{driver: d, registry: reg}, nil
}

// Registry retorna el registry de persistables.
func (s *System) Registry() *Registry { return s.registry }

// DriverName retorna el nombre del driver en uso.
func (s *System) DriverName() string { return s.driver.Name() }

// Init guarda los parámetros de conexión. Es idempotente: cada llamada reemplaza
// por completo los parámetros anteriores.
func (s *System) Init(info ConnectionInfo) {
	info = info.withDefaults()
	logger.L().Info("initializing persister",
		logger.Component("persistence"),
		logger.String("user", info.User),
		logger.String("addr", info.Addr()),
		logger.Database(info.Database),
	)
	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()
}

// Info retorna una copia de los parámetros actuales.
func (s *System) Info() (ConnectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return ConnectionInfo{}, ErrNotInitialized
	}
	return *s.info, nil
}

// NewPersister abre un Persister con los parámetros actuales.
func (s *System) NewPersister(ctx context.Context) (*Persister, error) {
	info, err := s.Info()
	if err != nil {
		return nil, err
	}
	return newPersister(ctx, s.driver, info)
}

// Setup crea la base si no existe y luego, en orden de registro, los objetos de
// cada persistable y después sus constraints. No es idempotente.
func (s *System) Setup(ctx context.Context) error {
	info, err := s.Info()
	if err != nil {
		return err
	}
	log := logger.From(ctx).With(logger.Component("persistence"), logger.Op("setup"))

	if err := s.execServer(ctx, info, "CREATE DATABASE IF NOT EXISTS "+QuoteIdent(info.Database)); err != nil {
		return err
	}

	p, err := s.NewPersister(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	items := s.registry.Items()
	for _, it := range items {
		if c, ok := it.(Creator); ok {
			log.Debug("create database objects", logger.String("persistable", it.PersistableName()))
			if err := c.Create(ctx, p); err != nil {
				return fmt.Errorf("setup %s: %w", it.PersistableName(), err)
			}
		}
	}
	for _, it := range items {
		if c, ok := it.(ConstraintAdder); ok {
			log.Debug("create constraints", logger.String("persistable", it.PersistableName()))
			if err := c.AddConstraints(ctx, p); err != nil {
				return fmt.Errorf("setup constraints %s: %w", it.PersistableName(), err)
			}
		}
	}
	return nil
}

// Teardown quita constraints, luego objetos, y finalmente la base. Destructivo.
func (s *System) Teardown(ctx context.Context) error {
	info, err := s.Info()
	if err != nil {
		return err
	}
	log := logger.From(ctx).With(logger.Component("persistence"), logger.Op("teardown"))
	log.Info("teardown persister", logger.Database(info.Database))

	p, err := s.NewPersister(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	items := s.registry.Items()
	for _, it := range items {
		if c, ok := it.(ConstraintDropper); ok {
			log.Debug("drop constraints", logger.String("persistable", it.PersistableName()))
			if err := c.DropConstraints(ctx, p); err != nil {
				return fmt.Errorf("teardown constraints %s: %w", it.PersistableName(), err)
			}
		}
	}
	for _, it := range items {
		if c, ok := it.(Dropper); ok {
			log.Debug("drop database objects", logger.String("persistable", it.PersistableName()))
			if err := c.Drop(ctx, p); err != nil {
				return fmt.Errorf("teardown %s: %w", it.PersistableName(), err)
			}
		}
	}

	return s.execServer(ctx, info, "DROP DATABASE IF EXISTS "+QuoteIdent(info.Database))
}

// execServer ejecuta una sentencia con una sesión sin base seleccionada.
func (s *System) execServer(ctx context.Context, info ConnectionInfo, stmt string) error {
	sess, err := s.driver.Open(ctx, info, false)
	if err != nil {
		return errs.Storage("connect "+info.Addr(), err)
	}
	defer sess.Close()
	if _, err := sess.Exec(ctx, stmt, ExecOptions{}); err != nil {
		return errs.Storage(stmt, err)
	}
	return nil
}
