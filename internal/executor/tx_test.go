package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/fabric/internal/executor"
)

func TestAfterTxRunsOnceTransactionEnds(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 1})

	tests := []struct {
		name          string
		fail          bool
		wantCommitted bool
		wantLast      string
	}{
		{"commit", false, true, "COMMIT"},
		{"rollback", true, false, "ROLLBACK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				ran       bool
				committed bool
				lastStmt  string
			)
			_, err := ex.Run(context.Background(), executor.Action{
				Name:          "_remove_shard_mapping",
				Transactional: true,
				Fn: func(ctx context.Context) (any, error) {
					executor.AfterTx(ctx, func(c bool) {
						ran, committed = true, c
						stmts := allStatements()
						lastStmt = stmts[len(stmts)-1]
					})
					if ran {
						t.Errorf("hook ran before the transaction ended")
					}
					if tt.fail {
						return nil, errors.New("boom")
					}
					return nil, nil
				},
			})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !ran {
				t.Fatalf("hook did not run")
			}
			if committed != tt.wantCommitted {
				t.Errorf("committed = %v, want %v", committed, tt.wantCommitted)
			}
			if lastStmt != tt.wantLast {
				t.Errorf("last statement before hook = %q, want %q", lastStmt, tt.wantLast)
			}
		})
	}
}

func TestAfterTxOutsideTransactionRunsNow(t *testing.T) {
	ran := false
	executor.AfterTx(context.Background(), func(committed bool) {
		ran = committed
	})
	if !ran {
		t.Fatalf("hook outside a transaction should run immediately with committed=true")
	}
}

func TestTxStartPrecedesWorkInTransaction(t *testing.T) {
	ex := newExecutor(t, executor.Config{Workers: 1})

	var first, second, inside uint64
	_, err := ex.Run(context.Background(), executor.Action{
		Name:          "_lookup",
		Transactional: true,
		Fn: func(ctx context.Context) (any, error) {
			first = executor.TxStart(ctx)
			inside = executor.Stamp()
			second = executor.TxStart(ctx)
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if first != second {
		t.Errorf("TxStart changed within one transaction: %d != %d", first, second)
	}
	if first >= inside {
		t.Errorf("TxStart %d should precede stamps taken inside the transaction (%d)", first, inside)
	}
	if outside := executor.TxStart(context.Background()); outside <= inside {
		t.Errorf("TxStart outside a transaction = %d, want a fresh stamp > %d", outside, inside)
	}
}
