package persistence

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultDatabase es la base donde se guarda el estado de fabric.
	DefaultDatabase = "fabric"
	// DefaultPort es el puerto MySQL por defecto.
	DefaultPort = 3306
)

// ConnectionInfo son los parámetros con los que cada Persister abre su conexión.
type ConnectionInfo struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Timeout limita el establecimiento de la conexión (no la ejecución de sentencias).
	Timeout time.Duration
}

// withDefaults completa puerto y base si no vinieron.
func (c ConnectionInfo) withDefaults() ConnectionInfo {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if strings.TrimSpace(c.Database) == "" {
		c.Database = DefaultDatabase
	}
	return c
}

// Addr retorna host:port.
func (c ConnectionInfo) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String no incluye el password.
func (c ConnectionInfo) String() string {
	return fmt.Sprintf("%s@%s/%s", c.User, c.Addr(), c.Database)
}

// QuoteIdent escapa un identificador MySQL con backticks.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
