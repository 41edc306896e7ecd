package executor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/fabric/internal/errs"
	"github.com/dropDatabas3/fabric/internal/executor"
	"github.com/dropDatabas3/fabric/internal/persistence"
)

func newExecutor(t *testing.T, cfg executor.Config) *executor.Executor {
	t.Helper()
	resetSessions()
	sys, err := persistence.NewSystem("executor-test", nil)
	require.NoError(t, err)
	sys.Init(persistence.ConnectionInfo{Host: "localhost", User: "root"})

	ex := executor.New(sys, cfg)
	require.NoError(t, ex.Start(context.Background()))
	t.Cleanup(func() { _ = ex.Stop() })
	return ex
}

func value(v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return v, nil }
}

func TestDispatchSingleAction(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 2})

	c, err := ex.Run(context.Background(), executor.Action{Name: "_add_shard", Fn: value("ok")})
	require.NoError(t, err)
	require.True(t, c.Succeeded())
	require.Len(t, c.Jobs, 1)

	last, ok := c.Last()
	require.True(t, ok)
	require.Equal(t, "_add_shard", last.Action)
	require.Equal(t, executor.Complete, last.State)
	require.Equal(t, executor.Success, last.Outcome)
	require.Equal(t, "Executed action (_add_shard).", last.Description)
	require.Equal(t, "ok", c.Result)
}

func TestJobFailures(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 1})

	tests := []struct {
		name    string
		fn      func(context.Context) (any, error)
		wantErr string
	}{
		{
			name:    "error",
			fn:      func(context.Context) (any, error) { return "ignored", errors.New("boom") },
			wantErr: "boom",
		},
		{
			name:    "panic",
			fn:      func(context.Context) (any, error) { panic("kaboom") },
			wantErr: "action panicked: kaboom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ex.Run(context.Background(), executor.Action{Name: "_fail", Fn: tt.fn})
			require.NoError(t, err)
			require.False(t, c.Succeeded())
			require.Nil(t, c.Result)

			last, _ := c.Last()
			require.Equal(t, executor.Complete, last.State)
			require.Equal(t, executor.Fail, last.Outcome)
			require.Equal(t, "Executed action (_fail).", last.Description)
			require.Contains(t, last.Error, tt.wantErr)
		})
	}
}

func TestScheduleFollowUps(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 2})

	var order []string
	second := executor.Action{Name: "_destroy_group", Fn: func(context.Context) (any, error) {
		order = append(order, "second")
		return "done", nil
	}}
	first := executor.Action{Name: "_remove_servers", Fn: func(ctx context.Context) (any, error) {
		order = append(order, "first")
		_, err := executor.Schedule(ctx, second)
		return nil, err
	}}

	c, err := ex.Run(context.Background(), first)
	require.NoError(t, err)
	require.True(t, c.Succeeded())
	require.Equal(t, []string{"first", "second"}, order)
	require.Len(t, c.Jobs, 2)
	require.Equal(t, "_remove_servers", c.Jobs[0].Action)
	require.Equal(t, "_destroy_group", c.Jobs[1].Action)
	require.Equal(t, "done", c.Result)
}

func TestFailedJobSkipsRestOfChain(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 1})

	ran := false
	never := executor.Action{Name: "_never", Fn: func(context.Context) (any, error) {
		ran = true
		return nil, nil
	}}

	t.Run("scheduled by the failed job", func(t *testing.T) {
		c, err := ex.Run(context.Background(), executor.Action{Name: "_a", Fn: func(ctx context.Context) (any, error) {
			if _, err := executor.Schedule(ctx, never); err != nil {
				return nil, err
			}
			return nil, errors.New("fail after schedule")
		}})
		require.NoError(t, err)
		require.Len(t, c.Jobs, 1)
		require.False(t, ran)
	})

	t.Run("chained at dispatch", func(t *testing.T) {
		fail := executor.Action{Name: "_a", Fn: func(context.Context) (any, error) { return nil, errors.New("x") }}
		c, err := ex.Run(context.Background(), fail, never)
		require.NoError(t, err)
		require.Len(t, c.Jobs, 1)
		require.False(t, ran)
	})
}

func TestTransactionalActions(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 1})

	c, err := ex.Run(context.Background(), executor.Action{
		Name:          "_ok",
		Transactional: true,
		Fn: func(ctx context.Context) (any, error) {
			p, err := persistence.From(ctx)
			if err != nil {
				return nil, err
			}
			return nil, p.Exec(ctx, "UPDATE t SET x = 1")
		},
	})
	require.NoError(t, err)
	require.True(t, c.Succeeded())
	require.Equal(t, []string{"BEGIN", "UPDATE t SET x = 1", "COMMIT"}, allStatements())

	resetSessions()
	_ = ex.Stop()
	ex = newExecutor(t, executor.Config{Workers: 1})

	c, err = ex.Run(context.Background(), executor.Action{
		Name:          "_bad",
		Transactional: true,
		Fn:            func(context.Context) (any, error) { return nil, errors.New("nope") },
	})
	require.NoError(t, err)
	require.False(t, c.Succeeded())
	require.Equal(t, []string{"BEGIN", "ROLLBACK"}, allStatements())
}

func TestWorkersHaveOwnPersister(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 2})

	var (
		mu   sync.Mutex
		seen []*persistence.Persister
		wg   sync.WaitGroup
	)
	wg.Add(2)
	barrier := func(ctx context.Context) (any, error) {
		p, err := persistence.From(ctx)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
		wg.Done()
		wg.Wait()
		return nil, nil
	}

	f1, err := ex.Dispatch(context.Background(), executor.Action{Name: "_a", Fn: barrier})
	require.NoError(t, err)
	f2, err := ex.Dispatch(context.Background(), executor.Action{Name: "_b", Fn: barrier})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = f1.Wait(ctx)
	require.NoError(t, err)
	_, err = f2.Wait(ctx)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	require.NotSame(t, seen[0], seen[1])
}

func TestDispatchTimeoutKeepsRunning(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 1, DispatchTimeout: 20 * time.Millisecond})

	release := make(chan struct{})
	fut, err := ex.Dispatch(context.Background(), executor.Action{Name: "_slow", Fn: func(context.Context) (any, error) {
		<-release
		return "late", nil
	}})
	require.NoError(t, err)

	_, err = fut.Wait(context.Background())
	require.ErrorIs(t, err, executor.ErrDispatchTimeout)

	close(release)
	select {
	case <-fut.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("procedure never completed")
	}
	c, err := fut.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "late", c.Result)
}

func TestDispatchPreconditions(t *testing.T) {
	sys, err := persistence.NewSystem("executor-test", nil)
	require.NoError(t, err)
	sys.Init(persistence.ConnectionInfo{Host: "localhost"})
	ex := executor.New(sys, executor.Config{})
	require.Equal(t, executor.DefaultWorkers, ex.Workers())

	_, err = ex.Dispatch(context.Background(), executor.Action{Name: "_x"})
	require.ErrorIs(t, err, executor.ErrStopped)

	require.NoError(t, ex.Start(context.Background()))
	_, err = ex.Dispatch(context.Background())
	require.ErrorIs(t, err, executor.ErrEmptyChain)
	require.True(t, errs.IsPrecondition(err))

	require.NoError(t, ex.Stop())
	_, err = ex.Dispatch(context.Background(), executor.Action{Name: "_x"})
	require.ErrorIs(t, err, executor.ErrStopped)
}

func TestStartFailsWithoutInit(t *testing.T) {
	sys, err := persistence.NewSystem("executor-test", nil)
	require.NoError(t, err)
	ex := executor.New(sys, executor.Config{Workers: 1})
	err = ex.Start(context.Background())
	require.ErrorIs(t, err, persistence.ErrNotInitialized)
}

func TestScheduleOutsideJob(t *testing.T) {
	_, err := executor.Schedule(context.Background(), executor.Action{Name: "_x"})
	require.ErrorIs(t, err, executor.ErrNoProcedure)
	_, ok := executor.CurrentJob(context.Background())
	require.False(t, ok)
}
