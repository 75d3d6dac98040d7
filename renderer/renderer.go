// Package renderer runs the frame loop: it traces a scene into the back
// buffer of a double-buffered character grid while a presenter shows the
// front buffer, handing buffers over through a two-channel handshake.
package renderer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"conray/camera"
	"conray/framebuffer"
	"conray/integrator"
	"conray/palette"
	"conray/rendermetrics"
	"conray/rng"
	"conray/scene"
	"conray/taa"
	"conray/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	invGamma = 1 / 2.2

	DefaultDebugScale = 0.08

	minFov = 1
	maxFov = 179
)

type Option func(*Renderer)

// WithSuperSample renders n x n samples per sub-pixel.  Values below 1 mean 1.
func WithSuperSample(n int) Option {
	return func(r *Renderer) {
		r.ss = max(1, n)
	}
}

// WithBands sets how many contiguous row bands a frame is split into.  The
// default is one per CPU.
func WithBands(n int) Option {
	return func(r *Renderer) {
		r.bands = max(1, n)
	}
}

// WithWorkers bounds how many bands render at once.
func WithWorkers(n int) Option {
	return func(r *Renderer) {
		r.workers = max(1, n)
	}
}

func WithQuantizer(q palette.Quantizer) Option {
	return func(r *Renderer) {
		r.quantizer = q
	}
}

func WithTAA(enabled bool, alpha float64) Option {
	return func(r *Renderer) {
		r.taaEnabled = enabled
		r.taaAlpha = alpha
	}
}

func WithMetrics(m *rendermetrics.Recorder) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// WithFov overrides the scene's default field of view.
func WithFov(deg float64) Option {
	return func(r *Renderer) {
		r.fov = clampFov(deg)
	}
}

type Renderer struct {
	scene *scene.Scene

	cols, rows int
	ss         int
	hiW, hiH   int
	bands      int
	workers    int

	quantizer  palette.Quantizer
	metrics    *rendermetrics.Recorder
	taaEnabled bool
	taaAlpha   float64
	taa        *taa.Accumulator

	// front is only touched by the presenter.  back is only touched by the
	// render goroutine, except for the swap, which happens while the render
	// goroutine is parked waiting on flipDone.
	buffers     [2]*framebuffer.Framebuffer
	front, back int
	frameReady  chan struct{}
	flipDone    chan struct{}

	mu         sync.Mutex
	pose       camera.Pose
	fov        float64
	debugView  integrator.DebugView
	debugScale float64

	frameCount atomic.Uint64
	lastFrame  atomic.Int64
	lastSnap   *scene.Snapshot

	cancel context.CancelFunc
	done   chan struct{}

	errMu sync.Mutex
	err   error
}

// New builds the scene's BVH and the frame buffers.  The frame loop does not
// run until Start.
func New(s *scene.Scene, cols, rows int, opts ...Option) *Renderer {
	r := &Renderer{
		scene:      s,
		cols:       cols,
		rows:       rows,
		ss:         1,
		bands:      runtime.NumCPU(),
		workers:    runtime.NumCPU(),
		quantizer:  palette.NewConsole16(),
		taaEnabled: true,
		taaAlpha:   taa.DefaultAlpha,
		back:       1,
		frameReady: make(chan struct{}, 1),
		flipDone:   make(chan struct{}, 1),
		pose:       s.DefaultPose,
		fov:        clampFov(s.DefaultFov),
		debugScale: DefaultDebugScale,
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}

	r.hiW = cols * r.ss
	r.hiH = rows * 2 * r.ss
	r.buffers[0] = framebuffer.New(cols, rows)
	r.buffers[1] = framebuffer.New(cols, rows)
	r.taa = taa.New(r.taaEnabled, cols, rows, r.ss, r.taaAlpha)

	snap := s.RebuildBVH()
	glog.Infof("Built BVH over %d objects: %d nodes, area ratio %.2f", len(s.Objects), snap.NodeCount(), snap.AreaRatio())
	r.noteSnapshot(context.Background(), snap)

	return r
}

// Start launches the frame loop.  Cancelling ctx has the same effect as
// Stop, without waiting.
func (r *Renderer) Start(ctx context.Context) {
	if r.cancel != nil {
		panic("renderer: Start called twice")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	glog.Infof("Starting render loop: %dx%d cells, %dx%d pixels, %d bands on %d workers", r.cols, r.rows, r.hiW, r.hiH, r.bands, r.workers)
	go r.loop(ctx)
}

// Stop asks the loop to exit and waits for it.  A frame already being traced
// is finished first.
func (r *Renderer) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	glog.Infof("Render loop stopped after %d frames", r.frameCount.Load())
}

// Done is closed when the loop has exited, whether by Stop or by failure.
func (r *Renderer) Done() <-chan struct{} {
	return r.done
}

// Err is the failure that ended the loop, if any.
func (r *Renderer) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

func (r *Renderer) setErr(err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

func (r *Renderer) SetCamera(pos vec3.T, yaw, pitch float64) {
	r.SetPose(camera.Pose{Position: pos, Yaw: yaw, Pitch: pitch})
}

func (r *Renderer) SetPose(p camera.Pose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pose = p
}

func (r *Renderer) Pose() camera.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose
}

// SetFov takes effect at the next frame.  It is clamped to [1, 179] degrees;
// NaN is ignored.
func (r *Renderer) SetFov(deg float64) {
	if math.IsNaN(deg) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fov = clampFov(deg)
}

func (r *Renderer) Fov() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fov
}

func clampFov(deg float64) float64 {
	return math.Min(maxFov, math.Max(minFov, deg))
}

// SetDebugView clamps mode to a valid view.
func (r *Renderer) SetDebugView(mode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debugView = integrator.ClampDebugView(mode)
}

func (r *Renderer) SetDebugScale(scale float64) {
	if !(scale > 0) {
		scale = integrator.MinDebugScale
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debugScale = scale
}

func (r *Renderer) SetTAAEnabled(v bool) {
	r.taa.SetEnabled(v)
}

func (r *Renderer) SetTAAAlpha(a float64) {
	r.taa.SetAlpha(a)
}

func (r *Renderer) ResetTAAHistory() {
	r.taa.ResetHistory()
}

func (r *Renderer) FrameCount() uint64 {
	return r.frameCount.Load()
}

// LastFrame is when the most recent frame finished, or the zero time.
func (r *Renderer) LastFrame() time.Time {
	ns := r.lastFrame.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// TryPresentLatestFrame never blocks.  If a new frame is waiting it becomes
// the front buffer and the render loop is released to start the next one.
// Either way the front buffer is written to s.  It reports whether a flip
// happened.
//
// Only one goroutine may present.
func (r *Renderer) TryPresentLatestFrame(s framebuffer.Surface) bool {
	flipped := false
	select {
	case <-r.frameReady:
		r.front, r.back = r.back, r.front
		r.flipDone <- struct{}{}
		flipped = true
	default:
	}

	r.buffers[r.front].Blit(s)

	if r.metrics != nil {
		r.metrics.Present(context.Background(), flipped)
	}
	return flipped
}

func (r *Renderer) loop(ctx context.Context) {
	defer close(r.done)
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("render loop panicked: %v", p)
			glog.Errorf("%v", err)
			r.setErr(err)
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		if err := r.renderFrame(ctx); err != nil {
			err = fmt.Errorf("while rendering frame %d: %w", r.frameCount.Load(), err)
			glog.Errorf("%v", err)
			r.setErr(err)
			return
		}

		r.frameReady <- struct{}{}

		select {
		case <-r.flipDone:
		case <-ctx.Done():
			return
		}
	}
}

// frameParams is everything a frame reads from shared state, copied once at
// the start of the frame.
type frameParams struct {
	snap  *scene.Snapshot
	cam   *camera.Camera
	view  integrator.DebugView
	scale float64
	frame uint64
	tick  uint64
	jx    int
	jy    int
	dst   *framebuffer.Framebuffer
}

func (r *Renderer) renderFrame(ctx context.Context) error {
	tracer := otel.Tracer("conray/renderer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Renderer.renderFrame")
	defer span.End()

	// Bands always run to completion, even if the loop is being stopped.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()

	r.mu.Lock()
	pose := r.pose
	fov := r.fov
	view := r.debugView
	scale := r.debugScale
	r.mu.Unlock()

	snap := r.scene.Snapshot()
	if snap != r.lastSnap {
		r.noteSnapshot(ctx, snap)
	}

	r.taa.NotifyCamera(pose)
	r.taa.BeginFrame()
	jx, jy := r.taa.Jitter()

	p := &frameParams{
		snap:  snap,
		cam:   camera.FromPose(pose, fov, float64(r.hiW)/float64(r.hiH)),
		view:  view,
		scale: scale,
		frame: r.frameCount.Add(1),
		tick:  uint64(start.UnixMilli()),
		jx:    jx,
		jy:    jy,
		dst:   r.buffers[r.back],
	}
	span.SetAttributes(attribute.Int64("frame", int64(p.frame)))

	eg, bandCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(r.workers))

	for band := 0; band < r.bands; band++ {
		band := band
		yStart := band * r.rows / r.bands
		yEnd := (band + 1) * r.rows / r.bands
		if yStart == yEnd {
			continue
		}

		if err := sem.Acquire(bandCtx, 1); err != nil {
			// Bands already running still write into the back buffer.
			eg.Wait()
			return fmt.Errorf("while acquiring band semaphore: %w", err)
		}

		eg.Go(func() (err error) {
			defer sem.Release(1)
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("band %d panicked: %v", band, rec)
				}
			}()
			r.renderBand(bandCtx, p, band, yStart, yEnd)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("while waiting for bands: %w", err)
	}

	r.taa.EndFrame()

	elapsed := time.Since(start)
	r.lastFrame.Store(time.Now().UnixNano())
	if r.metrics != nil {
		r.metrics.Frame(ctx, elapsed)
	}
	glog.V(1).Infof("Frame %d rendered in %v", p.frame, elapsed)
	return nil
}

func (r *Renderer) renderBand(ctx context.Context, p *frameParams, band, yStart, yEnd int) {
	tracer := otel.Tracer("conray/renderer")
	var span trace.Span
	_, span = tracer.Start(ctx, "Renderer.renderBand")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("band", int64(band)),
		attribute.Int64("rows", int64(yEnd-yStart)),
	)

	start := time.Now()
	rnd := rng.New(rng.BandSeed(p.tick, band, p.frame))

	ss := r.ss
	offX := (float64(p.jx) + 0.5) / float64(ss)
	offY := (float64(p.jy) + 0.5) / float64(ss)
	inv := 1 / float64(ss*ss)

	sample := func(px, py int) vec3.T {
		ry := p.cam.MakeRay(float64(px)+offX, float64(py)+offY, r.hiW, r.hiH)
		if p.view != integrator.None {
			return integrator.TraceDebug(p.snap, ry, p.view, p.scale)
		}
		return integrator.Trace(p.snap, ry, 0, rnd)
	}

	for cy := yStart; cy < yEnd; cy++ {
		yTop0 := cy * 2 * ss
		yBot0 := (cy*2 + 1) * ss

		for cx := 0; cx < r.cols; cx++ {
			x0 := cx * ss

			var topSum, botSum vec3.T
			for syi := 0; syi < ss; syi++ {
				for sxi := 0; sxi < ss; sxi++ {
					topSum = vec3.AddVV(topSum, sample(x0+sxi, yTop0+syi))
					botSum = vec3.AddVV(botSum, sample(x0+sxi, yBot0+syi))
				}
			}

			top := displayColor(vec3.MulVS(topSum, inv))
			bot := displayColor(vec3.MulVS(botSum, inv))
			top, bot = r.taa.Accumulate(cx, cy, top, bot)

			p.dst.Set(cx, cy, framebuffer.Chexel{
				Glyph: framebuffer.HalfBlock,
				FG:    r.quantizer.Nearest(top),
				BG:    r.quantizer.Nearest(bot),
			})
		}
	}

	glog.V(2).Infof("Frame %d band %d (rows %d-%d) in %v", p.frame, band, yStart, yEnd, time.Since(start))
}

// displayColor tone maps linear radiance into gamma-encoded [0, 1].
func displayColor(c vec3.T) vec3.T {
	return vec3.Saturate(vec3.Gamma(vec3.ToneMapReinhard(c), invGamma))
}

func (r *Renderer) noteSnapshot(ctx context.Context, snap *scene.Snapshot) {
	r.lastSnap = snap
	if snap == nil {
		return
	}
	if r.metrics != nil {
		r.metrics.BVHNodes(ctx, snap.NodeCount())
		r.metrics.BVHAreaRatio(ctx, snap.AreaRatio())
	}
}
