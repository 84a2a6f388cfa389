package handle

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wippyai/adae-bridge/errors"
)

// Call is a single method invocation: the receiver handle and the host
// arguments, already converted to Go values.
type Call struct {
	This *Handle
	Name string
	Args []any
}

// Arg returns argument i, or nil when absent.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Present reports whether argument i was supplied and is not nil.
func (c *Call) Present(i int) bool {
	return c.Arg(i) != nil
}

func (c *Call) path(i int) []string {
	return []string{c.Name, "arg" + strconv.Itoa(i)}
}

func (c *Call) mismatch(i int, want string) *errors.Error {
	v := c.Arg(i)
	found := "undefined"
	if v != nil {
		found = fmt.Sprintf("%T", v)
	}
	return errors.New(errors.PhaseBinding, errors.KindTypeMismatch).
		Path(c.path(i)...).
		GoType(want).
		HostType(found).
		Value(v).
		Detail("argument %d of %s must be a %s", i, c.Name, want).
		Build()
}

// Number returns argument i as a float64.
func (c *Call) Number(i int) (float64, error) {
	switch v := c.Arg(i).(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, c.mismatch(i, "number")
	}
}

// Uint32 returns argument i as a uint32. Fractions are truncated; negative
// and too-large values are range errors.
func (c *Call) Uint32(i int) (uint32, error) {
	n, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || n < 0 || n > math.MaxUint32 {
		return 0, errors.OutOfRange(errors.PhaseBinding, c.path(i), n,
			fmt.Sprintf("argument %d of %s must be between 0 and %d", i, c.Name, uint32(math.MaxUint32)))
	}
	return uint32(n), nil
}

// Float32 returns argument i as a float32.
func (c *Call) Float32(i int) (float32, error) {
	n, err := c.Number(i)
	if err != nil {
		return 0, err
	}
	return float32(n), nil
}

// String returns argument i as a string.
func (c *Call) String(i int) (string, error) {
	s, ok := c.Arg(i).(string)
	if !ok {
		return "", c.mismatch(i, "string")
	}
	return s, nil
}

// Handle returns argument i as a handle.
func (c *Call) Handle(i int) (*Handle, error) {
	h, ok := c.Arg(i).(*Handle)
	if !ok || h == nil {
		return nil, c.mismatch(i, "object")
	}
	return h, nil
}

// Handles returns argument i as a list of handles.
func (c *Call) Handles(i int) ([]*Handle, error) {
	switch v := c.Arg(i).(type) {
	case []*Handle:
		return v, nil
	case []any:
		out := make([]*Handle, 0, len(v))
		for j, item := range v {
			h, ok := item.(*Handle)
			if !ok || h == nil {
				return nil, errors.New(errors.PhaseBinding, errors.KindTypeMismatch).
					Path(c.Name, "arg"+strconv.Itoa(i), strconv.Itoa(j)).
					GoType("object").
					HostType(fmt.Sprintf("%T", item)).
					Detail("element %d of argument %d must be an object", j, i).
					Build()
			}
			out = append(out, h)
		}
		return out, nil
	default:
		return nil, c.mismatch(i, "array")
	}
}

// ArgData unpacks the payload of handle argument i as a D.
func ArgData[D any](c *Call, i int) (D, error) {
	var zero D
	h, err := c.Handle(i)
	if err != nil {
		return zero, err
	}
	d, err := payload[D](h)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Path = c.path(i)
		}
		return zero, err
	}
	return d, nil
}

// ArgsData unpacks every handle in list argument i as a D.
func ArgsData[D any](c *Call, i int) ([]D, error) {
	hs, err := c.Handles(i)
	if err != nil {
		return nil, err
	}
	out := make([]D, 0, len(hs))
	for j, h := range hs {
		d, err := payload[D](h)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = append(c.path(i), strconv.Itoa(j))
			}
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
