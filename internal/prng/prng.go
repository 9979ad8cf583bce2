package prng

// Source returns a fresh word on every call. Period and statistical quality
// are up to the implementation.
type Source interface {
	Uint32() uint32
}

// Func adapts a plain function to a Source.
type Func func() uint32

func (f Func) Uint32() uint32 { return f() }

// defaultTaps is x^32 + x^22 + x^2 + x + 1 in Galois form (maximal length).
const defaultTaps uint32 = 0x80200003

// LFSR is a 32-bit Galois linear-feedback shift register. Each read clocks
// the register a full word so consecutive reads do not share shifted bits.
type LFSR struct {
	state uint32
	taps  uint32
}

// NewLFSR returns a register seeded with seed. A zero seed would lock the
// register, so it is replaced with all ones.
func NewLFSR(seed uint32) *LFSR {
	if seed == 0 {
		seed = 0xffffffff
	}
	return &LFSR{state: seed, taps: defaultTaps}
}

func (l *LFSR) step() {
	fb := l.state & 1
	l.state >>= 1
	if fb == 1 {
		l.state ^= l.taps
	}
}

func (l *LFSR) Uint32() uint32 {
	for i := 0; i < 32; i++ {
		l.step()
	}
	return l.state
}

// Sequence replays a fixed list of words, wrapping at the end. An empty
// sequence always returns zero.
type Sequence struct {
	values []uint32
	pos    int
}

func NewSequence(values ...uint32) *Sequence {
	cp := make([]uint32, len(values))
	copy(cp, values)
	return &Sequence{values: cp}
}

func (s *Sequence) Uint32() uint32 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos]
	s.pos++
	if s.pos >= len(s.values) {
		s.pos = 0
	}
	return v
}

// Reads returns how many words have been drawn since the last wrap.
func (s *Sequence) Reads() int { return s.pos }

// Counter counts reads from an underlying Source.
type Counter struct {
	Src Source
	N   int
}

func (c *Counter) Uint32() uint32 {
	c.N++
	return c.Src.Uint32()
}
