package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Row es una fila de resultado. Las columnas de texto llegan como string.
type Row []any

// ExecOptions controla ExecStmt.
type ExecOptions struct {
	// Params son los argumentos posicionales (?) de la sentencia.
	Params []any
	// Fetch indica que la sentencia devuelve filas.
	Fetch bool
}

// Session es una conexión física única con el backend.
type Session interface {
	// Exec ejecuta una sentencia. Con opts.Fetch devuelve las filas.
	Exec(ctx context.Context, stmt string, opts ExecOptions) ([]Row, error)

	// Valid reporta si la conexión sigue utilizable.
	Valid(ctx context.Context) bool

	// Reconnect descarta la conexión actual y abre una nueva. Un solo intento.
	Reconnect(ctx context.Context) error

	// Close cierra la conexión. Debe tolerar ser llamado más de una vez.
	Close() error
}

// Driver abre sesiones contra un backend concreto.
type Driver interface {
	// Name retorna el nombre del driver (ej: "mysql", "noop").
	Name() string

	// Open abre una sesión. Con selectDB=false la sesión no selecciona la base
	// (se usa para CREATE/DROP DATABASE).
	Open(ctx context.Context, info ConnectionInfo, selectDB bool) (Session, error)
}

// ─── Registry Global ───

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver registra un driver. Llamar en init() de cada driver.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()

	name := d.Name()
	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("persistence: driver %q already registered", name))
	}
	drivers[name] = d
}

// GetDriver obtiene un driver por nombre.
func GetDriver(name string) (Driver, bool) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	return d, ok
}

// ListDrivers retorna los nombres registrados, ordenados.
func ListDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
