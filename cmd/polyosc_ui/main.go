package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"math/cmplx"
	"sync"
	"time"

	"github.com/cbegin/polyosc-go"
	"github.com/cbegin/polyosc-go/internal/drift"
	"github.com/cbegin/polyosc-go/internal/indicator"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/ktye/fft"
)

const (
	windowW      = 960
	windowH      = 600
	uiSampleRate = 48000

	fftSize    = 2048
	ringBufLen = 1 << 15

	minBarHz = 20.0
	maxBarHz = 4000.0
)

var (
	bgColor       = color.RGBA{24, 24, 32, 255}
	panelColor    = color.RGBA{14, 16, 22, 255}
	borderColor   = color.RGBA{64, 68, 84, 255}
	leftBarColor  = color.RGBA{80, 200, 255, 230}
	rightBarColor = color.RGBA{255, 150, 80, 230}
	ledOffColor   = color.RGBA{40, 40, 40, 255}
)

// analyzer keeps the most recent mono samples for the spectrum view.
type analyzer struct {
	mu       sync.Mutex
	ring     []float32
	writePos int
}

func newAnalyzer() *analyzer {
	return &analyzer{ring: make([]float32, ringBufLen)}
}

// Tap is called from the audio thread. Keep it minimal: just copy into ring.
func (a *analyzer) Tap(samples []float32) {
	a.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		a.ring[a.writePos] = (samples[i] + samples[i+1]) * 0.5
		a.writePos = (a.writePos + 1) % ringBufLen
	}
	a.mu.Unlock()
}

func (a *analyzer) Snapshot(n int) []float32 {
	out := make([]float32, n)
	a.mu.Lock()
	start := (a.writePos - n + ringBufLen) % ringBufLen
	for i := range out {
		out[i] = a.ring[(start+i)%ringBufLen]
	}
	a.mu.Unlock()
	return out
}

type game struct {
	player   *polyosc.Player
	analyzer *analyzer
	fft      fft.FFT
	window   []float64
	specBins []float64
	volume   float64
	status   string
}

func newGame(seed uint32, reverb float64) (*game, error) {
	a := newAnalyzer()
	pl, err := polyosc.NewPlayer(uiSampleRate,
		polyosc.WithSeed(seed),
		polyosc.WithReverb(float32(reverb)),
		polyosc.WithSampleTap(a.Tap),
	)
	if err != nil {
		return nil, err
	}
	f, err := fft.New(fftSize)
	if err != nil {
		return nil, err
	}
	win := make([]float64, fftSize)
	for i := range win {
		win[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	g := &game{
		player:   pl,
		analyzer: a,
		fft:      f,
		window:   win,
		volume:   1,
		status:   "Running",
	}
	if err := pl.Start(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if g.player.Paused() {
			g.player.Resume()
			g.status = "Running"
		} else {
			g.player.Pause()
			g.status = "Paused"
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		seed := uint32(time.Now().UnixNano()) | 1
		if err := g.player.Reseed(seed); err != nil {
			g.status = "ERROR - " + err.Error()
		} else {
			g.status = fmt.Sprintf("Reseeded %d", seed)
			if g.player.Paused() {
				g.status += " (paused)"
			}
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.setVolume(g.volume + 0.1)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.setVolume(g.volume - 0.1)
	}
	return nil
}

func (g *game) setVolume(v float64) {
	g.volume = math.Max(0, math.Min(2, v))
	g.player.SetMasterVolume(g.volume)
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	frame := g.player.Snapshot()

	led := image.Rect(16, 16, 96, 96)
	bars := image.Rect(112, 16, windowW-16, 320)
	spectrum := image.Rect(16, 336, windowW-16, windowH-48)

	g.drawLED(screen, led, frame.Tick)
	g.drawBars(screen, bars, frame.Freq[:], frame.Amp[:])
	g.drawSpectrum(screen, spectrum)

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("seed %d  tick %d  depth %4d  vol %.1f  %s",
		g.player.Seed(), frame.Tick, frame.Depth, g.volume, g.status), 16, windowH-40)
	ebitenutil.DebugPrintAt(screen, "space pause/resume   R reseed   up/down volume", 16, windowH-22)
}

// drawLED shows the mixed indicator colour with one lamp per channel below.
func (g *game) drawLED(screen *ebiten.Image, rect image.Rectangle, tick uint32) {
	drawPanel(screen, rect)
	inner := rect.Inset(8)
	c := indicator.Color(tick)
	if c.R == 0 && c.G == 0 && c.B == 0 {
		c = ledOffColor
	}
	mixH := float64(inner.Dy()) * 0.7
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(inner.Min.Y), float64(inner.Dx()), mixH, c)

	r, gr, b := indicator.Lit(tick)
	lampW := float64(inner.Dx()) / 3
	lampY := float64(inner.Min.Y) + mixH + 4
	lampH := float64(inner.Max.Y) - lampY
	for i, lamp := range []struct {
		on  bool
		col color.RGBA
	}{
		{r, color.RGBA{0xff, 0x30, 0x30, 0xff}},
		{gr, color.RGBA{0x30, 0xff, 0x30, 0xff}},
		{b, color.RGBA{0x30, 0x60, 0xff, 0xff}},
	} {
		col := ledOffColor
		if lamp.on {
			col = lamp.col
		}
		ebitenutil.DrawRect(screen, float64(inner.Min.X)+float64(i)*lampW+1, lampY, lampW-2, lampH, col)
	}
}

// drawBars shows each oscillator's pitch on a log scale, split by its pan:
// the left share in blue, the right share in orange.
func (g *game) drawBars(screen *ebiten.Image, rect image.Rectangle, freq []int32, amp []int16) {
	drawPanel(screen, rect)
	inner := rect.Inset(8)
	n := len(freq)
	if n == 0 {
		return
	}
	barW := float64(inner.Dx()) / float64(n)
	logMin, logMax := math.Log(minBarHz), math.Log(maxBarHz)
	for i := 0; i < n; i++ {
		hz := math.Abs(drift.PitchHz(freq[i]))
		if hz < minBarHz {
			continue
		}
		v := (math.Log(math.Min(hz, maxBarHz)) - logMin) / (logMax - logMin)
		h := v * float64(inner.Dy())
		x := float64(inner.Min.X) + float64(i)*barW
		y := float64(inner.Max.Y) - h
		split := float64(amp[i]) / drift.PanFull
		w := barW - 2
		ebitenutil.DrawRect(screen, x+1, y, w*split, h, leftBarColor)
		ebitenutil.DrawRect(screen, x+1+w*split, y, w*(1-split), h, rightBarColor)
	}
}

func (g *game) drawSpectrum(screen *ebiten.Image, rect image.Rectangle) {
	drawPanel(screen, rect)
	inner := rect.Inset(8)
	snap := g.analyzer.Snapshot(fftSize)
	buf := make([]complex128, fftSize)
	for i, s := range snap {
		buf[i] = complex(float64(s)*g.window[i], 0)
	}
	buf = g.fft.Transform(buf)

	numBars := inner.Dx() / 4
	if len(g.specBins) != numBars {
		g.specBins = make([]float64, numBars)
	}
	half := fftSize / 2
	maxBin := half * int(maxBarHz) / (uiSampleRate / 2)
	logMin, logMax := math.Log(1), math.Log(float64(maxBin))
	for i := 0; i < numBars; i++ {
		b0 := int(math.Exp(logMin + float64(i)/float64(numBars)*(logMax-logMin)))
		b1 := int(math.Exp(logMin + float64(i+1)/float64(numBars)*(logMax-logMin)))
		if b1 <= b0 {
			b1 = b0 + 1
		}
		if b1 > half {
			b1 = half
		}
		sum := 0.0
		for b := b0; b < b1; b++ {
			sum += cmplx.Abs(buf[b])
		}
		db := 20 * math.Log10(sum/float64(b1-b0)/fftSize+1e-10)
		norm := math.Max(0, math.Min(1, (db+80)/80))
		prev := g.specBins[i]
		if norm > prev {
			g.specBins[i] = prev*0.3 + norm*0.7
		} else {
			g.specBins[i] = prev*0.85 + norm*0.15
		}
	}
	barW := float64(inner.Dx()) / float64(numBars)
	for i, v := range g.specBins {
		h := math.Max(1, v*float64(inner.Dy()))
		x := float64(inner.Min.X) + float64(i)*barW
		ebitenutil.DrawRect(screen, x, float64(inner.Max.Y)-h, barW-1, h, color.RGBA{uint8(60 + 180*v), 200, uint8(255 - 150*v), 220})
	}
}

func (g *game) Layout(int, int) (int, int) { return windowW, windowH }

func (g *game) Close() {
	if err := g.player.Stop(); err != nil {
		log.Print(err)
	}
}

func drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)
	w, h := float64(rect.Dx()), float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w, h, borderColor)
	ebitenutil.DrawRect(screen, x+1, y+1, w-2, h-2, panelColor)
}

func main() {
	var (
		seed   = flag.Uint("seed", 0, "LFSR seed (0 = derive from the clock)")
		reverb = flag.Float64("reverb", 0.2, "reverb wet mix 0..1")
	)
	flag.Parse()
	if *seed == 0 {
		*seed = uint(uint32(time.Now().UnixNano()) | 1)
	}

	g, err := newGame(uint32(*seed), *reverb)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("PolyOsc")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
