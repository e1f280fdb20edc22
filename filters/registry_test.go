package filters

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

func TestRegistryNames(t *testing.T) {
	names := NewRegistry().Names()
	if len(names) != 11 {
		t.Fatalf("expected 11 filters, got %v", names)
	}
	if !slices.IsSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	for _, name := range names {
		f, err := NewRegistry().New(name, nil)
		if err != nil {
			t.Errorf("%s: default options rejected: %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("filter registered as %s reports name %s", name, f.Name())
		}
	}
}

func TestRegistryOptions(t *testing.T) {
	r := NewRegistry()
	f, err := r.New(RemesherName, json.RawMessage(`{"target_length": 0.5}`))
	if err != nil {
		t.Fatal(err)
	}
	opts := f.(*Remesher).opts
	if opts.TargetLength != 0.5 {
		t.Errorf("unexpected target length %f", opts.TargetLength)
	}
	if opts.ProtectAngle != DefaultRemeshOptions().ProtectAngle {
		t.Error("omitted fields should keep their defaults")
	}

	for _, c := range []struct {
		name    string
		options string
	}{
		{"not_a_filter", ""},
		{RemesherName, `{"target_lenght": 1}`},
		{RemesherName, `{"target_length": -1}`},
		{AlphaWrapperName, `{"alpha": 0}`},
		{SubdividerName, `{"method": "butterfly"}`},
		{BooleanName, `{"operation": "xor"}`},
		{PatchFillerName, `{"fairing_continuity": 3}`},
		{DeformerName, `{"mode": "cage"}`},
		{MeshSmootherName, `[1, 2]`},
	} {
		_, err := r.New(c.name, json.RawMessage(c.options))
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s %s: expected invalid parameter, got %v", c.name, c.options, err)
		}
	}
}
