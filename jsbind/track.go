package jsbind

import (
	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/facade"
	"github.com/wippyai/adae-bridge/handle"
)

func trackMethods() []handle.Method {
	unpack := func(c *handle.Call, fn func(facade.Track) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return []handle.Method{
		{Name: "getPanning", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.Track) (any, error) { return result(t.Panning()) })
		}},
		{Name: "setPanning", Fn: func(c *handle.Call) (any, error) {
			v, err := c.Float32(0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t facade.Track) (any, error) { return nil, t.SetPanning(v) })
		}},
		{Name: "getVolume", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.Track) (any, error) { return result(t.Volume()) })
		}},
		{Name: "setVolume", Fn: func(c *handle.Call) (any, error) {
			v, err := c.Float32(0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t facade.Track) (any, error) { return nil, t.SetVolume(v) })
		}},
		{Name: "readMeter", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.Track) (any, error) {
				r, err := t.ReadMeter()
				if err != nil {
					return nil, err
				}
				return meterFields(r), nil
			})
		}},
		{Name: "snapMeter", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.Track) (any, error) { return nil, t.SnapMeter() })
		}},
	}
}

func meterFields(r engine.MeterReading) fields {
	return fields{
		{name: "peak", value: r.Peak[:]},
		{name: "longPeak", value: r.LongPeak[:]},
		{name: "rms", value: r.RMS[:]},
	}
}

func masterHandle(m facade.MasterTrack) *handle.Handle {
	return handle.Encapsulate(m, nil, trackMethods())
}

func audioTrackHandle(t facade.AudioTrack) *handle.Handle {
	return handle.Encapsulate(t, nil, append(trackMethods(), audioTrackMethods()...))
}

func audioTrackHandles(tracks []facade.AudioTrack) []*handle.Handle {
	hs := make([]*handle.Handle, len(tracks))
	for i, t := range tracks {
		hs[i] = audioTrackHandle(t)
	}
	return hs
}

func stateHandle(st facade.AudioTrackState) *handle.Handle {
	return handle.Encapsulate(st, nil, nil)
}

func stateHandles(states []facade.AudioTrackState) []*handle.Handle {
	hs := make([]*handle.Handle, len(states))
	for i, st := range states {
		hs[i] = stateHandle(st)
	}
	return hs
}

func audioTrackMethods() []handle.Method {
	unpack := func(c *handle.Call, fn func(facade.AudioTrack) (any, error)) (any, error) {
		return handle.UnpackThis(c, fn)
	}
	return []handle.Method{
		{Name: "key", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				k, err := t.Key()
				return result(uint32(k), err)
			})
		}},
		{Name: "addClip", Fn: func(c *handle.Call) (any, error) {
			stored, err := handle.ArgData[facade.StoredAudioClip](c, 0)
			if err != nil {
				return nil, err
			}
			start, err := handle.ArgData[engine.Timestamp](c, 1)
			if err != nil {
				return nil, err
			}
			var length *engine.Timestamp
			if c.Present(2) {
				l, err := handle.ArgData[engine.Timestamp](c, 2)
				if err != nil {
					return nil, err
				}
				length = &l
			}
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				clip, err := t.AddClip(stored, start, length)
				if err != nil {
					return nil, err
				}
				return clipHandle(clip), nil
			})
		}},
		{Name: "getClips", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				clips, err := t.Clips()
				if err != nil {
					return nil, err
				}
				return clipHandles(clips), nil
			})
		}},
		{Name: "deleteClip", Fn: func(c *handle.Call) (any, error) {
			clip, err := handle.ArgData[facade.AudioClip](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				st, err := t.DeleteClip(clip)
				if err != nil {
					return nil, err
				}
				return handle.Encapsulate(st, nil, nil), nil
			})
		}},
		{Name: "deleteClips", Fn: func(c *handle.Call) (any, error) {
			clips, err := handle.ArgsData[facade.AudioClip](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				states, err := t.DeleteClips(clips)
				if err != nil {
					return nil, err
				}
				hs := make([]*handle.Handle, len(states))
				for i, st := range states {
					hs[i] = handle.Encapsulate(st, nil, nil)
				}
				return hs, nil
			})
		}},
		{Name: "reconstructClip", Fn: func(c *handle.Call) (any, error) {
			st, err := handle.ArgData[facade.AudioClipState](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				clip, err := t.ReconstructClip(st)
				if err != nil {
					return nil, err
				}
				return clipHandle(clip), nil
			})
		}},
		{Name: "reconstructClips", Fn: func(c *handle.Call) (any, error) {
			states, err := handle.ArgsData[facade.AudioClipState](c, 0)
			if err != nil {
				return nil, err
			}
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				clips, err := t.ReconstructClips(states)
				if err != nil {
					return nil, err
				}
				return clipHandles(clips), nil
			})
		}},
		{Name: "delete", Fn: func(c *handle.Call) (any, error) {
			return unpack(c, func(t facade.AudioTrack) (any, error) {
				st, err := t.Delete()
				if err != nil {
					return nil, err
				}
				return stateHandle(st), nil
			})
		}},
	}
}
