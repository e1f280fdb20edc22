package kernel

import (
	"testing"

	"github.com/pkg/errors"
)

func TestCallRecoversPanics(t *testing.T) {
	res := call("explode", func() (int, error) {
		var list []int
		return list[3], nil
	})
	if res.Ok() {
		t.Fatal("expected failure")
	}
	var failure *Failure
	if !errors.As(res.Err, &failure) || failure.Op != "explode" {
		t.Fatalf("unexpected error: %v", res.Err)
	}
}

func TestFailureCause(t *testing.T) {
	res := call("subdivide", func() (int, error) {
		return 0, errors.Wrap(ErrNotTriangleMesh, "input")
	})
	if errors.Cause(res.Err) != ErrNotTriangleMesh {
		t.Errorf("unexpected cause: %v", errors.Cause(res.Err))
	}
	if !errors.Is(res.Err, ErrNotTriangleMesh) {
		t.Error("failure should match its sentinel")
	}
}
