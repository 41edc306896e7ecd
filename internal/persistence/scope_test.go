package persistence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/persistence"
)

func newScopedSystem(t *testing.T) *persistence.System {
	t.Helper()
	fake.reset()
	t.Cleanup(fake.reset)
	sys, err := persistence.NewSystem("fake", nil)
	require.NoError(t, err)
	sys.Init(persistence.ConnectionInfo{Host: "localhost", User: "root"})
	return sys
}

func TestScopeIsolation(t *testing.T) {
	sys := newScopedSystem(t)

	var wg sync.WaitGroup
	got := make([]*persistence.Persister, 2)
	scopes := []*persistence.Scope{sys.NewScope(), sys.NewScope()}
	for i := range scopes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := persistence.WithScope(context.Background(), scopes[i])
			if err := scopes[i].InitThread(ctx); err != nil {
				t.Error(err)
				return
			}
			p, err := persistence.From(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = p
		}(i)
	}
	wg.Wait()

	require.NotNil(t, got[0])
	require.NotNil(t, got[1])
	require.NotSame(t, got[0], got[1])
	require.Same(t, got[0], scopes[0].Current())
	require.Same(t, got[1], scopes[1].Current())

	for _, sc := range scopes {
		require.NoError(t, sc.DeinitThread())
	}
}

func TestResolvePrecedence(t *testing.T) {
	sys := newScopedSystem(t)
	scope := sys.NewScope()
	ctx := persistence.WithScope(context.Background(), scope)

	_, err := persistence.From(ctx)
	require.ErrorIs(t, err, persistence.ErrNoPersister)
	require.True(t, errs.IsPrecondition(err))

	require.NoError(t, scope.InitThread(ctx))
	ambient, err := persistence.From(ctx)
	require.NoError(t, err)

	explicit, err := sys.NewPersister(ctx)
	require.NoError(t, err)
	defer explicit.Close()

	p, err := persistence.Resolve(ctx, explicit)
	require.NoError(t, err)
	require.Same(t, explicit, p)

	override := persistence.WithPersister(ctx, explicit)
	p, err = persistence.From(override)
	require.NoError(t, err)
	require.Same(t, explicit, p)

	p, err = persistence.Resolve(ctx, nil)
	require.NoError(t, err)
	require.Same(t, ambient, p)

	require.NoError(t, scope.DeinitThread())
	_, err = persistence.From(ctx)
	require.ErrorIs(t, err, persistence.ErrNoPersister)

	// deinit dos veces no falla
	require.NoError(t, scope.DeinitThread())
}

func TestInitThreadReplacesPersister(t *testing.T) {
	sys := newScopedSystem(t)
	scope := sys.NewScope()
	ctx := context.Background()

	require.NoError(t, scope.InitThread(ctx))
	first := scope.Current()
	require.NoError(t, scope.InitThread(ctx))
	require.NotSame(t, first, scope.Current())

	sessions := fake.sessions()
	require.Len(t, sessions, 2)
	require.True(t, sessions[0].closed)
	require.NoError(t, scope.DeinitThread())
	require.True(t, sessions[1].closed)
}

func TestFromWithoutScope(t *testing.T) {
	_, err := persistence.From(context.Background())
	require.ErrorIs(t, err, persistence.ErrNoPersister)
}
