// Package envelope implements the shared piecewise-linear sweep that blends
// every oscillator from its start pitch toward its end pitch.
package envelope

import "github.com/cbegin/polyosc-go/internal/bank"

const (
	// Points is the number of control points; the last one only bounds
	// segment 7 on the right.
	Points = 9
	// Segments is the number of linear pieces between control points.
	Segments = Points - 1
	// SegmentTicks is the number of ticks spent in one segment.
	SegmentTicks = 256
	// Period is the length of one full sweep in ticks.
	Period = Segments * SegmentTicks
	// Unity is the blend weight that selects the end pitch entirely.
	Unity = 1024

	fracMask    = SegmentTicks - 1
	segmentMask = Segments - 1
	// 255, not 256: the right point never reaches full weight.
	fracBase = 255
)

// Table holds the control points, each in [0, Unity].
type Table [Points]int16

// DefaultTable rises slowly through the first half and reaches unity at
// point 7.
var DefaultTable = Table{
	0, 32, 64, 96,
	256, 512, 768, 1024,
	1024,
}

// Position splits a tick counter into a segment index in [0, 7] and a
// fractional step in [0, 255]. Bits above 10 are ignored.
func Position(tick uint32) (segment, frac int) {
	return int((tick >> 8) & segmentMask), int(tick & fracMask)
}

// Depth returns the blend weight m for tick. No clamping is applied.
func (t *Table) Depth(tick uint32) int32 {
	ii, fi := Position(tick)
	left := int32(t[ii]) * int32(fracBase-fi)
	right := int32(t[ii+1]) * int32(fi)
	return (left + right) >> 8
}

// Blend mixes start and end by m/1024 using a 64-bit intermediate. The
// result is floored, so it never leaves the closed interval between start
// and end while m stays in [0, 1024].
func Blend(m, start, end int32) int32 {
	tmp := int64(m)*int64(end) + int64(Unity-m)*int64(start)
	return int32(tmp >> 10)
}

// Apply recomputes every oscillator's output frequency for tick and
// returns the depth it used.
func (t *Table) Apply(tick uint32, b *bank.Bank) int32 {
	m := t.Depth(tick)
	for i := 0; i < bank.NumOscillators; i++ {
		b.Freq[i] = Blend(m, b.Start[i], b.End[i])
	}
	return m
}
