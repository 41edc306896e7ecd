package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTaxonomy(t *testing.T) {
	base := errors.New("bad connection")

	tests := []struct {
		name         string
		err          error
		storage      bool
		precondition bool
		conflict     bool
	}{
		{name: "storage", err: Storage("exec", base), storage: true},
		{name: "precondition", err: Precondition("client already configured (%s)", "x"), precondition: true},
		{name: "wrapped conflict", err: fmt.Errorf("sharding: %w", fmt.Errorf("%w: overlap", ErrConflict)), conflict: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStorage(tt.err); got != tt.storage {
				t.Fatalf("IsStorage(%v) = %v, want %v", tt.err, got, tt.storage)
			}
			if got := IsPrecondition(tt.err); got != tt.precondition {
				t.Fatalf("IsPrecondition(%v) = %v, want %v", tt.err, got, tt.precondition)
			}
			if got := IsConflict(tt.err); got != tt.conflict {
				t.Fatalf("IsConflict(%v) = %v, want %v", tt.err, got, tt.conflict)
			}
		})
	}
}

func TestStorageWrapsCause(t *testing.T) {
	base := errors.New("bad connection")
	if err := Storage("exec", base); !errors.Is(err, base) {
		t.Fatalf("Storage() = %v, want it to wrap %v", err, base)
	}
	if err := Storage("noop", nil); err != nil {
		t.Fatalf("Storage(nil) = %v, want nil", err)
	}
	if got := Precondition("client already configured (%s)", "x").Error(); !strings.Contains(got, "client already configured (x)") {
		t.Fatalf("Precondition().Error() = %q", got)
	}
}
