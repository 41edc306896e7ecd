package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/persistence"
)

func TestNewSystemUnknownDriver(t *testing.T) {
	_, err := persistence.NewSystem("oracle", nil)
	require.True(t, errs.IsPrecondition(err))
}

func TestInitIsIdempotent(t *testing.T) {
	fake.reset()
	t.Cleanup(fake.reset)

	sys, err := persistence.NewSystem("fake", nil)
	require.NoError(t, err)

	_, err = sys.NewPersister(context.Background())
	require.ErrorIs(t, err, persistence.ErrNotInitialized)

	sys.Init(persistence.ConnectionInfo{Host: "first", Port: 13000, User: "root", Password: "a", Database: "old", Timeout: time.Second})
	sys.Init(persistence.ConnectionInfo{Host: "second", User: "fabric"})

	info, err := sys.Info()
	require.NoError(t, err)
	require.Equal(t, persistence.ConnectionInfo{
		Host: "second", Port: persistence.DefaultPort, User: "fabric", Database: persistence.DefaultDatabase,
	}, info)

	p, err := sys.NewPersister(context.Background())
	require.NoError(t, err)
	defer p.Close()
	require.Equal(t, "second", p.Info().Host)

	sessions := fake.sessions()
	require.Len(t, sessions, 1)
	require.Equal(t, "second", sessions[0].info.Host)
	require.True(t, sessions[0].selectDB)
}

func TestSetupTeardownOrder(t *testing.T) {
	fake.reset()
	t.Cleanup(fake.reset)

	var log []string
	reg := persistence.NewRegistry()
	reg.Register(
		&recorder{name: "groups", log: &log},
		&tablesOnly{name: "jobs", log: &log},
		&recorder{name: "shards", log: &log},
	)

	sys, err := persistence.NewSystem("fake", reg)
	require.NoError(t, err)
	sys.Init(persistence.ConnectionInfo{Host: "localhost", User: "root", Database: "fabric`x"})

	ctx := context.Background()
	require.NoError(t, sys.Setup(ctx))
	require.Equal(t, []string{
		"create:groups", "create:jobs", "create:shards",
		"add_constraints:groups", "add_constraints:shards",
	}, log)

	sessions := fake.sessions()
	require.False(t, sessions[0].selectDB)
	require.Equal(t, []string{"CREATE DATABASE IF NOT EXISTS `fabric``x`"}, sessions[0].statements())
	require.True(t, sessions[0].closed)

	log = nil
	require.NoError(t, sys.Teardown(ctx))
	require.Equal(t, []string{
		"drop_constraints:groups", "drop_constraints:shards",
		"drop:groups", "drop:shards",
	}, log)

	sessions = fake.sessions()
	last := sessions[len(sessions)-1]
	require.False(t, last.selectDB)
	require.Equal(t, []string{"DROP DATABASE IF EXISTS `fabric``x`"}, last.statements())
}

func TestSetupStopsOnError(t *testing.T) {
	fake.reset()
	t.Cleanup(fake.reset)

	var log []string
	reg := persistence.NewRegistry()
	reg.Register(
		&recorder{name: "a", log: &log, fail: "create"},
		&recorder{name: "b", log: &log},
	)
	sys, err := persistence.NewSystem("fake", reg)
	require.NoError(t, err)
	sys.Init(persistence.ConnectionInfo{Host: "localhost"})

	err = sys.Setup(context.Background())
	require.ErrorContains(t, err, "setup a")
	require.Equal(t, []string{"create:a"}, log)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	var log []string
	reg := persistence.NewRegistry()
	reg.Register(&recorder{name: "a", log: &log})
	require.Panics(t, func() { reg.Register(&tablesOnly{name: "a", log: &log}) })
	require.Len(t, reg.Items(), 1)
}
