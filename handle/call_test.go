package handle

import (
	"math"
	"testing"

	"github.com/wippyai/adae-bridge/errors"
)

func TestCall_Number(t *testing.T) {
	tests := []struct {
		name    string
		arg     any
		want    float64
		wantErr bool
	}{
		{name: "float64", arg: 1.5, want: 1.5},
		{name: "int64", arg: int64(3), want: 3},
		{name: "int", arg: 4, want: 4},
		{name: "uint32", arg: uint32(5), want: 5},
		{name: "string", arg: "5", wantErr: true},
		{name: "missing", arg: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Call{Name: "setVolume", Args: []any{tt.arg}}
			got, err := c.Number(0)
			if tt.wantErr {
				if !errors.IsKind(err, errors.KindTypeMismatch) {
					t.Fatalf("err = %v, want type mismatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Number = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCall_Uint32(t *testing.T) {
	tests := []struct {
		name string
		arg  any
		want uint32
		kind errors.Kind
	}{
		{name: "whole", arg: 42.0, want: 42},
		{name: "truncates", arg: 42.9, want: 42},
		{name: "max", arg: float64(math.MaxUint32), want: math.MaxUint32},
		{name: "negative", arg: -1.0, kind: errors.KindOutOfRange},
		{name: "too large", arg: float64(math.MaxUint32) + 1, kind: errors.KindOutOfRange},
		{name: "nan", arg: math.NaN(), kind: errors.KindOutOfRange},
		{name: "wrong type", arg: true, kind: errors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Call{Name: "getAudioTrack", Args: []any{tt.arg}}
			got, err := c.Uint32(0)
			if tt.kind != "" {
				if !errors.IsKind(err, tt.kind) {
					t.Fatalf("err = %v, want %v", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Uint32 = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCall_Present(t *testing.T) {
	c := &Call{Args: []any{1.0, nil}}
	if !c.Present(0) {
		t.Fatal("arg 0 should be present")
	}
	if c.Present(1) {
		t.Fatal("nil arg should not count as present")
	}
	if c.Present(2) || c.Present(-1) {
		t.Fatal("out of range arg should not be present")
	}
}

func TestCall_Handles(t *testing.T) {
	a := Encapsulate(&counter{n: 1}, nil, nil)
	b := Encapsulate(&counter{n: 2}, nil, nil)
	other := Encapsulate("nope", nil, nil)

	c := &Call{Name: "deleteClips", Args: []any{[]any{a, b}}}
	got, err := ArgsData[*counter](c, 0)
	if err != nil {
		t.Fatalf("ArgsData: %v", err)
	}
	if len(got) != 2 || got[0].n != 1 || got[1].n != 2 {
		t.Fatalf("ArgsData = %v", got)
	}

	c = &Call{Name: "deleteClips", Args: []any{[]any{a, other}}}
	if _, err := ArgsData[*counter](c, 0); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Fatalf("err = %v, want type mismatch", err)
	}

	c = &Call{Name: "deleteClips", Args: []any{[]any{a, 3.0}}}
	if _, err := c.Handles(0); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Fatalf("err = %v, want type mismatch", err)
	}

	c = &Call{Name: "addClip", Args: []any{b}}
	d, err := ArgData[*counter](c, 0)
	if err != nil || d.n != 2 {
		t.Fatalf("ArgData = %v, %v", d, err)
	}
}

func TestCall_String(t *testing.T) {
	c := &Call{Name: "importAudioClip", Args: []any{"clip.wav", 1.0}}
	if s, err := c.String(0); err != nil || s != "clip.wav" {
		t.Fatalf("String(0) = %q, %v", s, err)
	}
	if _, err := c.String(1); !errors.IsKind(err, errors.KindTypeMismatch) {
		t.Fatalf("String(1) err = %v", err)
	}
}
