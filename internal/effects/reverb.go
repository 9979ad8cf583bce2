package effects

// RoomParams configures Reverb.
type RoomParams struct {
	Size    float32 // 0..1, scales delay lengths
	Decay   float32 // comb feedback, 0..0.95
	Wet     float32 // wet/dry mix 0..1
	Spread  int     // extra samples added to the right channel's lines
	Damping float32 // 0..1, lowpass inside the comb feedback
}

func DefaultRoomParams() RoomParams {
	return RoomParams{Size: 0.6, Decay: 0.78, Wet: 0.25, Spread: 23, Damping: 0.3}
}

// Reverb is a Schroeder reverb: four damped combs in parallel feeding two
// allpasses, one network per channel.
type Reverb struct {
	left, right room
	wet         float32
}

type room struct {
	combs   [4]delayLine
	allpass [2]delayLine
	damping float32
	lp      [4]float32 // per-comb feedback lowpass state
}

type delayLine struct {
	buf []float32
	pos int
	fb  float32
}

var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

func NewReverb(sampleRate int, p RoomParams) *Reverb {
	base := int(float32(sampleRate) * clamp(p.Size, 0, 1) * 0.05)
	if base < 10 {
		base = 10
	}
	spread := p.Spread
	if spread < 0 {
		spread = 0
	}
	decay := clamp(p.Decay, 0, 0.95)
	rv := &Reverb{wet: clamp(p.Wet, 0, 1)}
	rv.left = newRoom(base, 0, decay)
	rv.right = newRoom(base, spread, decay)
	rv.left.damping = clamp(p.Damping, 0, 1)
	rv.right.damping = rv.left.damping
	return rv
}

func newRoom(base, spread int, decay float32) room {
	var rm room
	for i, ratio := range combRatios {
		rm.combs[i] = newDelayLine(base*ratio/1000+spread, decay)
	}
	for i, ratio := range allpassRatios {
		rm.allpass[i] = newDelayLine(base*ratio/1000+spread, 0.5)
	}
	return rm
}

func newDelayLine(n int, fb float32) delayLine {
	if n < 1 {
		n = 1
	}
	return delayLine{buf: make([]float32, n), fb: fb}
}

func (rv *Reverb) Process(l, r float32) (float32, float32) {
	in := (l + r) * 0.5
	outL := rv.left.process(in)
	outR := rv.right.process(in)
	return l*(1-rv.wet) + outL*rv.wet, r*(1-rv.wet) + outR*rv.wet
}

func (rv *Reverb) Reset() {
	rv.left.reset()
	rv.right.reset()
}

func (rm *room) process(in float32) float32 {
	var out float32
	for i := range rm.combs {
		c := &rm.combs[i]
		y := c.buf[c.pos]
		rm.lp[i] = y*(1-rm.damping) + rm.lp[i]*rm.damping
		c.write(in + rm.lp[i]*c.fb)
		out += y
	}
	out *= 0.25
	for i := range rm.allpass {
		a := &rm.allpass[i]
		y := a.buf[a.pos]
		a.write(out + y*a.fb)
		out = y - out
	}
	return out
}

func (rm *room) reset() {
	for i := range rm.combs {
		rm.combs[i].clear()
		rm.lp[i] = 0
	}
	for i := range rm.allpass {
		rm.allpass[i].clear()
	}
}

func (d *delayLine) write(v float32) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) clear() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}
