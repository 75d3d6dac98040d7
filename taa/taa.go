// Package taa blends each frame's cell colours with the previous frame's
// while the camera holds still, and cycles the sub-pixel jitter that makes
// the blend converge toward a supersampled image.
package taa

import (
	"fmt"
	"math"
	"sync"

	"conray/camera"
	"conray/vmath/vec3"
)

const (
	DefaultAlpha = 0.5

	moveEpsilon2 = 1e-6
	turnEpsilon  = 1e-4
)

// Accumulator holds two generations of (top, bottom) colour grids.
//
// The settings methods (SetEnabled, SetAlpha, ResetHistory) may be called
// from any goroutine; they take effect at the next BeginFrame.  Everything
// else belongs to the render goroutine, except Accumulate, which workers may
// call concurrently for distinct cells between BeginFrame and EndFrame.
type Accumulator struct {
	cols, rows   int
	ss           int
	jitterPeriod int

	mu           sync.Mutex
	enabled      bool
	alpha        float64
	resetPending bool

	historyValid bool
	blend        bool
	frameAlpha   float64
	phase        int

	havePose bool
	lastPose camera.Pose

	prevTop, prevBot []vec3.T
	nextTop, nextBot []vec3.T
}

// New panics if any dimension is not positive.
func New(enabled bool, cols, rows, superSample int, alpha float64) *Accumulator {
	if cols <= 0 || rows <= 0 || superSample <= 0 {
		panic(fmt.Sprintf("taa: bad size %dx%d, supersample %d", cols, rows, superSample))
	}
	n := cols * rows
	return &Accumulator{
		cols:         cols,
		rows:         rows,
		ss:           superSample,
		jitterPeriod: max(1, superSample*superSample),
		enabled:      enabled,
		alpha:        vec3.Clamp01(alpha),
		prevTop:      make([]vec3.T, n),
		prevBot:      make([]vec3.T, n),
		nextTop:      make([]vec3.T, n),
		nextBot:      make([]vec3.T, n),
	}
}

func (a *Accumulator) SetEnabled(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = v
}

// SetAlpha ignores NaN and infinities and clamps everything else to [0, 1].
func (a *Accumulator) SetAlpha(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alpha = vec3.Clamp01(v)
}

func (a *Accumulator) Alpha() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alpha
}

func (a *Accumulator) ResetHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetPending = true
}

// NotifyCamera drops the history if the camera moved or turned since the
// last call.  The first call always drops it.
func (a *Accumulator) NotifyCamera(p camera.Pose) {
	d := vec3.SubVV(p.Position, a.lastPose.Position)
	moved := !a.havePose ||
		d.NormSquared() > moveEpsilon2 ||
		math.Abs(p.Yaw-a.lastPose.Yaw) > turnEpsilon ||
		math.Abs(p.Pitch-a.lastPose.Pitch) > turnEpsilon
	if moved {
		a.historyValid = false
	}
	a.havePose = true
	a.lastPose = p
}

// Jitter is the current sub-pixel offset as a (column, row) index into the
// ss x ss grid of sample positions.
func (a *Accumulator) Jitter() (jx, jy int) {
	if a.ss <= 1 {
		return 0, 0
	}
	return a.phase % a.ss, (a.phase / a.ss) % a.ss
}

// BeginFrame latches the settings for the frame about to be accumulated.
func (a *Accumulator) BeginFrame() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resetPending {
		a.historyValid = false
		a.resetPending = false
	}
	a.blend = a.enabled && a.historyValid
	a.frameAlpha = a.alpha
}

// Accumulate records this frame's colours for cell (cx, cy) and returns what
// should be displayed.  Out-of-range cells panic.
func (a *Accumulator) Accumulate(cx, cy int, top, bot vec3.T) (vec3.T, vec3.T) {
	if uint(cx) >= uint(a.cols) || uint(cy) >= uint(a.rows) {
		panic(fmt.Sprintf("taa: cell (%d, %d) outside %dx%d", cx, cy, a.cols, a.rows))
	}
	i := cy*a.cols + cx
	if a.blend {
		top = vec3.Lerp(a.prevTop[i], top, a.frameAlpha)
		bot = vec3.Lerp(a.prevBot[i], bot, a.frameAlpha)
	}
	a.nextTop[i] = top
	a.nextBot[i] = bot
	return top, bot
}

// EndFrame makes this frame the history for the next and advances the
// jitter phase.
func (a *Accumulator) EndFrame() {
	a.prevTop, a.nextTop = a.nextTop, a.prevTop
	a.prevBot, a.nextBot = a.nextBot, a.prevBot
	a.historyValid = true
	if a.ss > 1 {
		a.phase++
		if a.phase >= a.jitterPeriod {
			a.phase = 0
		}
	}
}
