package cleanup

import (
	"errors"
	"testing"
)

func TestRunAll_LIFOAndErrors(t *testing.T) {
	var order []int
	errFirst := errors.New("first")
	Register(func() error { order = append(order, 1); return errFirst })
	Register(nil)
	Register(func() error { order = append(order, 2); return nil })

	err := RunAll()
	if !errors.Is(err, errFirst) {
		t.Fatalf("expected wrapped hook error, got %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("expected LIFO order, got %v", order)
	}
	if err := RunAll(); err != nil {
		t.Fatalf("hooks must be cleared after RunAll, got %v", err)
	}
}
