package mysql_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/persistence"
	fabricmysql "github.com/dropDatabas3/fabric/internal/persistence/mysql"
)

func TestMySQLDriverRegistered(t *testing.T) {
	d, ok := persistence.GetDriver("mysql")
	require.True(t, ok, "mysql driver not registered")
	require.Equal(t, "mysql", d.Name())
}

func TestMySQLDriverOpenRequiresHost(t *testing.T) {
	d, _ := persistence.GetDriver("mysql")
	_, err := d.Open(context.Background(), persistence.ConnectionInfo{}, true)
	require.Error(t, err)
}

func TestConfig(t *testing.T) {
	info := persistence.ConnectionInfo{
		Host: "db.local", Port: 13000, User: "root", Password: "xyzzy",
		Database: "fabric", Timeout: 3 * time.Second,
	}

	cfg := fabricmysql.Config(info, true)
	require.Equal(t, "db.local:13000", cfg.Addr)
	require.Equal(t, "fabric", cfg.DBName)
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.True(t, cfg.InterpolateParams)

	noDB := fabricmysql.Config(info, false)
	require.Empty(t, noDB.DBName)
}

func TestErrorClassification(t *testing.T) {
	dup := errs.Storage("exec", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	require.True(t, fabricmysql.IsDuplicateEntry(dup))
	require.False(t, fabricmysql.IsTableExists(dup))

	exists := fmt.Errorf("create: %w", &gomysql.MySQLError{Number: 1050})
	require.True(t, fabricmysql.IsTableExists(exists))

	require.False(t, fabricmysql.IsDuplicateEntry(fmt.Errorf("plain")))
}
