package engine

// Keys identify engine entities. They are stable for the entity's lifetime
// and may be reused by reconstruction after deletion.
type (
	AudioTrackKey      uint32
	MixerTrackKey      uint32
	TimelineTrackKey   uint32
	AudioClipKey       uint32
	StoredAudioClipKey uint32
)

// keyAllocator hands out increasing keys and lets reconstruction reclaim a
// specific one.
type keyAllocator struct {
	used map[uint32]struct{}
	next uint32
}

func newKeyAllocator() keyAllocator {
	return keyAllocator{used: make(map[uint32]struct{})}
}

func (a *keyAllocator) alloc() uint32 {
	for {
		k := a.next
		a.next++
		if _, taken := a.used[k]; !taken {
			a.used[k] = struct{}{}
			return k
		}
	}
}

func (a *keyAllocator) claim(k uint32) bool {
	if _, taken := a.used[k]; taken {
		return false
	}
	a.used[k] = struct{}{}
	return true
}

func (a *keyAllocator) free(k uint32) {
	delete(a.used, k)
}

func (a *keyAllocator) inUse(k uint32) bool {
	_, ok := a.used[k]
	return ok
}
