// Package command define los comandos de fabric. El mismo tipo de comando sirve en
// el proceso servidor (registrado y ejecutado como job) y en el cliente (despachado
// por RPC al servidor).
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fabric/internal/config"
	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/executor"
)

// Command es un comando remoto identificado por (grupo, nombre).
type Command interface {
	Group() string
	Name() string
	// Execute corre en un worker del executor con el Persister del worker en ctx.
	Execute(ctx context.Context, args []string) (any, error)
}

// Chained lo implementan los comandos que se ejecutan como más de una acción.
type Chained interface {
	Actions(args []string) []executor.Action
}

// ActionNamer permite a un comando elegir el nombre de su acción.
type ActionNamer interface {
	ActionName() string
}

// Caller es el transporte en modo cliente.
type Caller interface {
	Call(ctx context.Context, group, command string, args []string) (*Status, error)
}

// Server es el transporte en modo servidor.
type Server interface {
	Register(cmd Command) error
}

// Fault es un error de transporte (método inexistente, request inválido), distinto
// de un job que falló.
type Fault interface {
	error
	FaultCode() int
}

var (
	// ErrModeConflict se devuelve al configurar modo cliente y servidor a la vez.
	ErrModeConflict = fmt.Errorf("%w: command already configured in the other mode", errs.ErrPrecondition)
	// ErrNoClient se devuelve al despachar sin modo cliente.
	ErrNoClient = fmt.Errorf("%w: command has no client configured", errs.ErrPrecondition)
	// ErrMalformedOption se devuelve cuando una opción no declara flags.
	ErrMalformedOption = fmt.Errorf("%w: option declares no flags", errs.ErrPrecondition)
)

// Option declara una opción de línea de comandos.
type Option struct {
	Flags   []string // ej: "--daemonize", "-d"
	Dest    string
	Default any // bool, string o int
	Help    string
}

// Base implementa el estado cliente/servidor común a todos los comandos.
type Base struct {
	group   string
	name    string
	options []Option

	mu     sync.Mutex
	client Caller
	values map[string]any
	cfg    *config.Config
	server Server
	bound  map[string]any

	// Stderr recibe los faults de transporte. Por defecto os.Stderr.
	Stderr io.Writer
}

// NewBase crea la base de un comando.
func NewBase(group, name string, options ...Option) *Base {
	return &Base{group: group, name: name, options: options}
}

func (b *Base) Group() string { return b.group }
func (b *Base) Name() string  { return b.name }

// Method retorna "grupo.nombre".
func (b *Base) Method() string { return Method(b.group, b.name) }

// Method arma el nombre remoto de un comando.
func Method(group, name string) string { return group + "." + name }

// ActionName retorna el nombre de acción por defecto: "_" + nombre.
func (b *Base) ActionName() string { return "_" + b.name }

// SetupClient configura el modo cliente. Un client nil limpia el modo cliente, pero
// no se puede llamar una vez configurado el modo servidor.
func (b *Base) SetupClient(client Caller, values map[string]any, cfg *config.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server != nil {
		return ErrModeConflict
	}
	b.client, b.values, b.cfg = client, values, cfg
	return nil
}

// SetupServer configura el modo servidor.
func (b *Base) SetupServer(srv Server) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return ErrModeConflict
	}
	b.server = srv
	return nil
}

// Client retorna el transporte cliente o nil.
func (b *Base) Client() Caller {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

// Server retorna el transporte servidor o nil.
func (b *Base) Server() Server {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.server
}

// Config retorna la configuración del modo cliente.
func (b *Base) Config() *config.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// Options retorna las opciones declaradas.
func (b *Base) Options() []Option { return b.options }

// AddOptions registra las opciones como flags de cmd. Si alguna opción no declara
// flags no se registra ninguna.
func (b *Base) AddOptions(cmd *cobra.Command) error {
	for _, o := range b.options {
		if len(o.Flags) == 0 {
			return fmt.Errorf("%w: dest %q", ErrMalformedOption, o.Dest)
		}
	}

	bound := make(map[string]any, len(b.options))
	fs := cmd.Flags()
	for _, o := range b.options {
		long, short := splitFlags(o.Flags)
		if long == "" {
			long = o.Dest
		}
		switch d := o.Default.(type) {
		case bool:
			bound[o.Dest] = fs.BoolP(long, short, d, o.Help)
		case int:
			bound[o.Dest] = fs.IntP(long, short, d, o.Help)
		case string:
			bound[o.Dest] = fs.StringP(long, short, d, o.Help)
		case nil:
			bound[o.Dest] = fs.StringP(long, short, "", o.Help)
		default:
			return fmt.Errorf("%w: option %q has unsupported default %T", errs.ErrPrecondition, o.Dest, o.Default)
		}
	}

	b.mu.Lock()
	b.bound = bound
	b.mu.Unlock()
	return nil
}

// Values retorna los valores de las opciones registradas con AddOptions, ya parseadas.
func (b *Base) Values() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]any, len(b.bound)+len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	for k, p := range b.bound {
		switch v := p.(type) {
		case *bool:
			out[k] = *v
		case *int:
			out[k] = *v
		case *string:
			out[k] = *v
		}
	}
	return out
}

func splitFlags(flags []string) (long, short string) {
	for _, f := range flags {
		switch {
		case strings.HasPrefix(f, "--"):
			if long == "" {
				long = strings.TrimPrefix(f, "--")
			}
		case strings.HasPrefix(f, "-") && len(f) == 2:
			if short == "" {
				short = f[1:]
			}
		}
	}
	return long, short
}

// Call despacha el comando al servidor y retorna el status estructurado.
func (b *Base) Call(ctx context.Context, args ...string) (*Status, error) {
	b.mu.Lock()
	client, cfg := b.client, b.cfg
	b.mu.Unlock()
	if client == nil {
		return nil, ErrNoClient
	}
	if cfg != nil {
		if d := cfg.ClientTimeout(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}
	return client.Call(ctx, b.group, b.name, args)
}

// Dispatch despacha el comando y renderiza el resultado. Un fault de transporte se
// escribe en Stderr y se renderiza como resultado vacío.
func (b *Base) Dispatch(ctx context.Context, args ...string) (string, error) {
	st, err := b.Call(ctx, args...)
	if err != nil {
		var f Fault
		if !errors.As(err, &f) {
			return "", err
		}
		fmt.Fprintln(b.stderr(), f.Error())
		return Render(nil), nil
	}
	return Render(st.Return), nil
}

func (b *Base) stderr() io.Writer {
	if b.Stderr != nil {
		return b.Stderr
	}
	return os.Stderr
}

// Actions retorna las acciones con las que el servidor ejecuta cmd.
func Actions(cmd Command, args []string) []executor.Action {
	if c, ok := cmd.(Chained); ok {
		return c.Actions(args)
	}
	name := "_" + cmd.Name()
	if n, ok := cmd.(ActionNamer); ok {
		name = n.ActionName()
	}
	return []executor.Action{{
		Name:          name,
		Transactional: true,
		Fn: func(ctx context.Context) (any, error) {
			return cmd.Execute(ctx, args)
		},
	}}
}

// Run ejecuta cmd en el executor y espera su cadena completa.
func Run(ctx context.Context, ex *executor.Executor, cmd Command, args []string) (*Status, error) {
	c, err := ex.Run(ctx, Actions(cmd, args)...)
	if err != nil {
		return nil, err
	}
	return StatusFromCompletion(c), nil
}
