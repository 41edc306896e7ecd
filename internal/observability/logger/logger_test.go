package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromFallsBackToProcessLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(nil) })

	From(context.Background()).Info("setup")
	if got := logs.Len(); got != 1 {
		t.Fatalf("got %d entries, want 1", got)
	}
}

func TestWithScopesJobFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(nil) })

	ctx, _ := With(context.Background(), Component("executor"), Worker(3))
	ctx, log := With(ctx, JobID("j-1"), Action("_add_shard"))
	log.Info("job complete")
	From(ctx).Info("again")

	if got := logs.Len(); got != 2 {
		t.Fatalf("got %d entries, want 2", got)
	}
	for _, e := range logs.All() {
		fields := e.ContextMap()
		if fields["component"] != "executor" || fields["job_id"] != "j-1" || fields["action"] != "_add_shard" {
			t.Fatalf("%q: missing scoped fields: %v", e.Message, fields)
		}
		if fields["worker"] != int64(3) {
			t.Fatalf("%q: worker = %v, want 3", e.Message, fields["worker"])
		}
	}
}
