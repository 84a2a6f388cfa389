package jsbind

import (
	"github.com/dop251/goja"

	"github.com/wippyai/adae-bridge/facade"
	"github.com/wippyai/adae-bridge/handle"
)

func clipHandle(clip facade.AudioClip) *handle.Handle {
	unpack := func(c *handle.Call, fn func(facade.AudioClip) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return handle.Encapsulate(clip, nil, []handle.Method{
		{Name: "key", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(a facade.AudioClip) (any, error) { return uint32(a.Key()), nil })
		}},
		{Name: "start", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(a facade.AudioClip) (any, error) {
				start, err := a.Start()
				if err != nil {
					return nil, err
				}
				return timestampHandle(start), nil
			})
		}},
		{Name: "length", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(a facade.AudioClip) (any, error) {
				l, err := a.Length()
				if err != nil {
					return nil, err
				}
				if l == nil {
					return goja.Null(), nil
				}
				return timestampHandle(*l), nil
			})
		}},
		{Name: "storedClip", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(a facade.AudioClip) (any, error) {
				sc, err := a.StoredClip()
				if err != nil {
					return nil, err
				}
				return storedClipHandle(sc), nil
			})
		}},
	})
}

func clipHandles(clips []facade.AudioClip) []*handle.Handle {
	hs := make([]*handle.Handle, len(clips))
	for i, c := range clips {
		hs[i] = clipHandle(c)
	}
	return hs
}

func storedClipHandle(sc facade.StoredAudioClip) *handle.Handle {
	unpack := func(c *handle.Call, fn func(facade.StoredAudioClip) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return handle.Encapsulate(sc, nil, []handle.Method{
		{Name: "key", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(s facade.StoredAudioClip) (any, error) { return uint32(s.Key()), nil })
		}},
		{Name: "sampleRate", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(s facade.StoredAudioClip) (any, error) { return result(s.SampleRate()) })
		}},
		{Name: "length", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(s facade.StoredAudioClip) (any, error) { return result(s.Length()) })
		}},
	})
}
