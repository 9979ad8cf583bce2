package effects

import "math"

// Limiter is a linked-stereo peak limiter. Gain drops instantly when a
// frame's peak exceeds the ceiling and recovers over the release time, so
// the output never exceeds the ceiling.
type Limiter struct {
	ceiling float32
	release float32 // per-sample recovery coefficient
	gain    float32
}

// NewLimiter creates a limiter.
// ceilingDB: maximum output level in dBFS (e.g. -1)
// releaseMs: time for gain to recover toward unity
func NewLimiter(sampleRate int, ceilingDB, releaseMs float32) *Limiter {
	if releaseMs <= 0 {
		releaseMs = 1
	}
	sr := float64(sampleRate)
	return &Limiter{
		ceiling: float32(math.Pow(10, float64(ceilingDB)/20)),
		release: float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		gain:    1,
	}
}

func (lm *Limiter) Process(l, r float32) (float32, float32) {
	peak := abs32(l)
	if a := abs32(r); a > peak {
		peak = a
	}
	if peak*lm.gain > lm.ceiling {
		lm.gain = lm.ceiling / peak
	} else {
		lm.gain += float32(lm.release * (1 - lm.gain))
		if peak*lm.gain > lm.ceiling {
			lm.gain = lm.ceiling / peak
		}
	}
	return l * lm.gain, r * lm.gain
}

func (lm *Limiter) Reset() { lm.gain = 1 }

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
