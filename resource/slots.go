package resource

// slot holds one entry. gen advances every time the slot is vacated.
type slot struct {
	value any
	kind  Kind
	gen   uint8
	live  bool
}

// slots is a generational slot array with a LIFO free list. It is not
// safe for concurrent use; Table serializes access.
type slots struct {
	entries []slot
	free    []uint32
	live    int
}

func (s *slots) put(kind Kind, value any) (Handle, bool) {
	var idx uint32
	switch {
	case len(s.free) > 0:
		idx = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	case len(s.entries) < MaxLive:
		s.entries = append(s.entries, slot{})
		idx = uint32(len(s.entries))
	default:
		return 0, false
	}
	e := &s.entries[idx-1]
	e.value, e.kind, e.live = value, kind, true
	s.live++
	return makeHandle(idx, e.gen), true
}

func (s *slots) lookup(h Handle) *slot {
	idx := h.index()
	if idx == 0 || int(idx) > len(s.entries) {
		return nil
	}
	e := &s.entries[idx-1]
	if !e.live || e.gen != h.generation() {
		return nil
	}
	return e
}

func (s *slots) vacate(h Handle) (any, Kind, bool) {
	e := s.lookup(h)
	if e == nil {
		return nil, 0, false
	}
	value, kind := e.value, e.kind
	*e = slot{gen: e.gen + 1}
	s.free = append(s.free, h.index())
	s.live--
	return value, kind, true
}

func (s *slots) each(fn func(Handle, *slot) bool) {
	for i := range s.entries {
		e := &s.entries[i]
		if e.live && !fn(makeHandle(uint32(i+1), e.gen), e) {
			return
		}
	}
}
