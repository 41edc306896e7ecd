// Package app arma el proceso servidor de fabric: System de persistencia, stores,
// cache, executor y transporte RPC con los comandos registrados.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dropDatabas3/fabric/internal/cache"
	"github.com/dropDatabas3/fabric/internal/command"
	"github.com/dropDatabas3/fabric/internal/config"
	"github.com/dropDatabas3/fabric/internal/executor"
	"github.com/dropDatabas3/fabric/internal/group"
	"github.com/dropDatabas3/fabric/internal/metrics"
	"github.com/dropDatabas3/fabric/internal/observability/logger"
	"github.com/dropDatabas3/fabric/internal/persistence"
	"github.com/dropDatabas3/fabric/internal/persistence/mysql"
	"github.com/dropDatabas3/fabric/internal/persistence/noop"
	"github.com/dropDatabas3/fabric/internal/rpc"
	"github.com/dropDatabas3/fabric/internal/services"
	"github.com/dropDatabas3/fabric/internal/sharding"
)

// App es el proceso servidor armado.
type App struct {
	Config    *config.Config
	System    *persistence.System
	Executor  *executor.Executor
	Server    *rpc.Server
	Cache     cache.Client
	Groups    *group.Service
	Directory *sharding.Directory
	Metrics   *prometheus.Registry
}

// backend agrupa el driver de persistence y los stores de un tipo de storage.
type backend struct {
	driver string
	groups interface {
		group.Store
		persistence.Persistable
	}
	shards interface {
		sharding.Store
		persistence.Persistable
	}
}

func newBackend(kind string) (backend, error) {
	switch kind {
	case "mysql":
		return backend{driver: mysql.Name, groups: group.NewMySQLStore(), shards: sharding.NewMySQLStore()}, nil
	case "memory":
		return backend{driver: noop.Name, groups: group.NewMemoryStore(), shards: sharding.NewMemoryStore()}, nil
	default:
		return backend{}, fmt.Errorf("app: unknown storage driver %q", kind)
	}
}

// New arma la aplicación. No abre conexiones al backend: eso ocurre en Setup o al
// arrancar los workers.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	be, err := newBackend(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}

	reg := persistence.NewRegistry()
	reg.Register(be.groups, be.shards)

	sys, err := persistence.NewSystem(be.driver, reg)
	if err != nil {
		return nil, err
	}
	sys.Init(persistence.ConnectionInfo{
		Host:     cfg.Storage.Host,
		Port:     cfg.Storage.Port,
		User:     cfg.Storage.User,
		Password: cfg.Storage.Password,
		Database: cfg.Storage.Database,
		Timeout:  cfg.ConnectTimeout(),
	})

	c, err := cache.New(ctx, cache.Config{
		Kind:       cfg.Cache.Kind,
		DefaultTTL: cfg.CacheTTL(),
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	if err := metrics.Register(promReg); err != nil {
		return nil, err
	}
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	groups := group.NewService(be.groups)
	dir := sharding.NewDirectory(be.shards, groups, c, cfg.CacheTTL())

	ex := executor.New(sys, executor.Config{
		Workers:         cfg.Executor.Workers,
		QueueSize:       cfg.Executor.QueueSize,
		DispatchTimeout: cfg.DispatchTimeout(),
	})

	a := &App{
		Config:    cfg,
		System:    sys,
		Executor:  ex,
		Cache:     c,
		Groups:    groups,
		Directory: dir,
		Metrics:   promReg,
	}
	a.Server = rpc.NewServer(command.NewRegistry(), ex, rpc.Options{Gatherer: promReg, Ready: a.ready, Cache: c})
	if err := a.Server.RegisterAll(services.Commands(services.Deps{Directory: dir, Groups: groups})...); err != nil {
		_ = c.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) ready(ctx context.Context) error {
	if _, err := a.System.Info(); err != nil {
		return err
	}
	return a.Cache.Ping(ctx)
}

// Setup crea la base y las tablas de fabric.
func (a *App) Setup(ctx context.Context) error {
	return a.System.Setup(ctx)
}

// Teardown elimina las tablas y la base de fabric.
func (a *App) Teardown(ctx context.Context) error {
	return a.System.Teardown(ctx)
}

// Run arranca los workers y sirve RPC hasta que ctx se cancele.
func (a *App) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("app"))
	if err := a.Executor.Start(ctx); err != nil {
		return err
	}
	log.Info("fabric started",
		logger.String("addr", a.Config.Server.Addr),
		logger.String("storage", a.Config.Storage.Driver),
		logger.Worker(a.Executor.Workers()),
	)

	serveErr := a.Server.Serve(ctx, a.Config.Server.Addr)
	stopErr := a.Executor.Stop()
	return errors.Join(serveErr, stopErr)
}

// Close libera el cache.
func (a *App) Close() error {
	return a.Cache.Close()
}
