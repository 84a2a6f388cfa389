package jsbind

import (
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/errors"
	"github.com/wippyai/adae-bridge/facade"
	"github.com/wippyai/adae-bridge/handle"
)

// engineClass builds the Engine constructor with its dummy and empty
// statics. Every engine object is root-anchored until close().
func (b *binding) engineClass() *goja.Object {
	ctor := b.vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		cfg := engine.DefaultConfig()
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			h, ok := b.unwrap(arg)
			if !ok {
				b.throw("TypeError", "Engine expects a Config")
			}
			c, err := handle.Data[engine.Config](h)
			if err != nil {
				panic(b.jsError(err))
			}
			cfg = c
		}

		e, failed, err := facade.New(cfg)
		if err != nil {
			panic(b.jsError(err))
		}
		for f := range failed {
			b.logger.Warn("preload failed", zap.String("path", f.Path), zap.Error(f.Err))
		}
		return b.engineObject(e)
	}).ToObject(b.vm)

	_ = ctor.Set("dummy", func(goja.FunctionCall) goja.Value {
		return b.engineObject(facade.Dummy())
	})
	_ = ctor.Set("empty", func(goja.FunctionCall) goja.Value {
		return b.engineObject(facade.Empty())
	})
	return ctor
}

func (b *binding) engineObject(e facade.Engine) *goja.Object {
	h := handle.Encapsulate(e, nil, b.engineMethods())
	obj := b.wrap(h)
	b.anchor(h, obj)
	return obj
}

func (b *binding) engineMethods() []handle.Method {
	unpack := func(c *handle.Call, fn func(facade.Engine) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return []handle.Method{
		{Name: "getMaster", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				m, err := e.Master()
				if err != nil {
					return nil, err
				}
				return masterHandle(m), nil
			})
		}},
		{Name: "getAudioTracks", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				tracks, err := e.AudioTracks()
				if err != nil {
					return nil, err
				}
				return audioTrackHandles(tracks), nil
			})
		}},
		{Name: "getAudioTrack", Fn: func(c *handle.Call) (any, error) {
			key, err := c.Uint32(0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				t, err := e.AudioTrack(engine.AudioTrackKey(key))
				if err != nil {
					return nil, err
				}
				return audioTrackHandle(t), nil
			})
		}},
		{Name: "addAudioTrack", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				t, err := e.AddAudioTrack()
				if err != nil {
					return nil, err
				}
				return audioTrackHandle(t), nil
			})
		}},
		{Name: "addAudioTracks", Fn: func(c *handle.Call) (any, error) {
			n, err := c.Uint32(0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				tracks, err := e.AddAudioTracks(n)
				if err != nil {
					return nil, err
				}
				return audioTrackHandles(tracks), nil
			})
		}},
		{Name: "deleteAudioTrack", Fn: func(c *handle.Call) (any, error) {
			t, err := handle.ArgData[facade.AudioTrack](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				st, err := e.DeleteAudioTrack(t)
				if err != nil {
					return nil, err
				}
				return stateHandle(st), nil
			})
		}},
		{Name: "deleteAudioTracks", Fn: func(c *handle.Call) (any, error) {
			tracks, err := handle.ArgsData[facade.AudioTrack](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				states, err := e.DeleteAudioTracks(tracks)
				if err != nil {
					return nil, err
				}
				return stateHandles(states), nil
			})
		}},
		{Name: "reconstructAudioTrack", Fn: func(c *handle.Call) (any, error) {
			st, err := handle.ArgData[facade.AudioTrackState](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				t, err := e.ReconstructAudioTrack(st)
				if err != nil {
					return nil, err
				}
				return audioTrackHandle(t), nil
			})
		}},
		{Name: "reconstructAudioTracks", Fn: func(c *handle.Call) (any, error) {
			states, err := handle.ArgsData[facade.AudioTrackState](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				tracks, err := e.ReconstructAudioTracks(states)
				if err != nil {
					return nil, err
				}
				return audioTrackHandles(tracks), nil
			})
		}},
		{Name: "importAudioClip", Fn: func(c *handle.Call) (any, error) {
			path, err := c.String(0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				sc, err := e.ImportAudioClip(path)
				if err != nil {
					return nil, err
				}
				return storedClipHandle(sc), nil
			})
		}},
		{Name: "play", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				return nil, e.Play()
			})
		}},
		{Name: "pause", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				return nil, e.Pause()
			})
		}},
		{Name: "jumpTo", Fn: func(c *handle.Call) (any, error) {
			pos, err := handle.ArgData[engine.Timestamp](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(e facade.Engine) (any, error) {
				return nil, e.JumpTo(pos)
			})
		}},
		{Name: "getPlayheadPosition", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				pos, err := e.PlayheadPosition()
				if err != nil {
					return nil, err
				}
				return timestampHandle(pos), nil
			})
		}},
		{Name: "close", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(e facade.Engine) (any, error) {
				// A closed engine rejects close like any other method. A
				// poisoned one still throws, but gives up its root anchor so
				// the engine can be collected and rebuilt.
				if err := e.Shared().WithInner(func(*engine.Engine) error { return nil }); err != nil {
					if errors.IsKind(err, errors.KindPoisoned) {
						b.unanchor(c.This)
					}
					return nil, err
				}
				if err := e.Close(); err != nil {
					return nil, err
				}
				b.unanchor(c.This)
				return nil, nil
			})
		}},
	}
}
