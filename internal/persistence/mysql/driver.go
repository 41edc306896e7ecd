// Package mysql implementa el driver MySQL de persistence.
// Usa database/sql con github.com/go-sql-driver/mysql.
//
// Cada sesión fija una única conexión física (*sql.Conn) del pool, que queda con
// tamaño 1: el Persister que la envuelve es dueño exclusivo de esa conexión.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/dropDatabas3/fabric/internal/persistence"
)

// Name es el nombre con el que se registra el driver.
const Name = "mysql"

func init() {
	persistence.RegisterDriver(&mysqlDriver{})
}

// pingTimeout limita el chequeo de validez de la conexión.
const pingTimeout = 2 * time.Second

var errInvalidConn = errors.New("mysql: connection is not established")

// mysqlDriver implementa persistence.Driver para MySQL.
type mysqlDriver struct{}

func (d *mysqlDriver) Name() string { return Name }

// Config construye la configuración del driver a partir de ConnectionInfo.
func Config(info persistence.ConnectionInfo, selectDB bool) *gomysql.Config {
	cfg := gomysql.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Password
	cfg.Net = "tcp"
	cfg.Addr = info.Addr()
	if selectDB {
		cfg.DBName = info.Database
	}
	if info.Timeout > 0 {
		cfg.Timeout = info.Timeout
	}
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	return cfg
}

func (d *mysqlDriver) Open(ctx context.Context, info persistence.ConnectionInfo, selectDB bool) (persistence.Session, error) {
	if info.Host == "" {
		return nil, fmt.Errorf("mysql: host is required")
	}
	connector, err := gomysql.NewConnector(Config(info, selectDB))
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &session{db: db}
	if err := s.connect(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// session implementa persistence.Session sobre una *sql.Conn.
type session struct {
	db   *sql.DB
	conn *sql.Conn
}

func (s *session) connect(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("mysql: conn: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("mysql: ping failed: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *session) Exec(ctx context.Context, stmt string, opts persistence.ExecOptions) ([]persistence.Row, error) {
	if s.conn == nil {
		return nil, errInvalidConn
	}
	if !opts.Fetch {
		_, err := s.conn.ExecContext(ctx, stmt, opts.Params...)
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, stmt, opts.Params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []persistence.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, persistence.Row(vals))
	}
	return out, rows.Err()
}

func (s *session) Valid(ctx context.Context) bool {
	if s.conn == nil {
		return false
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.conn.PingContext(pctx) == nil
}

func (s *session) Reconnect(ctx context.Context) error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	return s.connect(ctx)
}

func (s *session) Close() error {
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
		s.db = nil
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Códigos de error
// ─────────────────────────────────────────────────────────────────────────────

const (
	erTableExists   = 1050
	erDupEntry      = 1062
	erNoSuchTable   = 1146
	erDupKeyName    = 1061
	erCantDropField = 1091
)

func errNumber(err error) uint16 {
	var me *gomysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// IsDuplicateEntry reporta violaciones de clave única/primaria.
func IsDuplicateEntry(err error) bool { return errNumber(err) == erDupEntry }

// IsTableExists reporta CREATE TABLE sobre una tabla existente.
func IsTableExists(err error) bool { return errNumber(err) == erTableExists }

// IsNoSuchTable reporta referencias a tablas inexistentes.
func IsNoSuchTable(err error) bool { return errNumber(err) == erNoSuchTable }

// IsMissingKey reporta DROP de un índice/constraint inexistente.
func IsMissingKey(err error) bool { return errNumber(err) == erCantDropField }

// IsDuplicateKeyName reporta ADD de un índice/constraint ya existente.
func IsDuplicateKeyName(err error) bool { return errNumber(err) == erDupKeyName }
