// conray ray traces a scene into the terminal, drawing two pixels per
// character cell with half-block glyphs.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"conray/camera"
	"conray/config"
	"conray/console"
	"conray/framebuffer"
	"conray/healthz"
	"conray/renderer"
	"conray/rendermetrics"
	"conray/scenes"
	"conray/snapstore"

	"cloud.google.com/go/storage"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"
)

var (
	configPath = flag.String("config", "", "Optional YAML config file.  Flags set on the command line override it.")

	sceneName = flag.String("scene", "demo", "Scene to render: "+strings.Join(scenes.Names(), ", "))
	objPath   = flag.String("obj", "", "Wavefront OBJ file for the mesh scene.")
	objScale  = flag.Float64("obj-scale", 1, "Scale applied to the OBJ's vertices.")
	seed      = flag.Uint64("seed", 1337, "Seed for scenes with random placement.")

	cols       = flag.Int("cols", 0, "Columns to render.  Zero fits the terminal.")
	rows       = flag.Int("rows", 0, "Rows to render.  Zero fits the terminal.")
	presentFPS = flag.Float64("present-fps", 30, "How often the presenter looks for a new frame.")
	maxFrames  = flag.Uint64("frames", 0, "Exit after this many rendered frames.  Zero runs until interrupted.")

	superSample = flag.Int("supersample", 1, "Samples per sub-pixel along each axis.")
	workers     = flag.Int("workers", 0, "Bands rendered at once.  Zero means one per CPU.")
	bands       = flag.Int("bands", 0, "Row bands per frame.  Zero means one per CPU.")
	taaEnabled  = flag.Bool("taa", true, "Blend each frame into a history buffer.")
	taaAlpha    = flag.Float64("taa-alpha", 0.5, "Weight of the newest frame in the history blend.")

	fov        = flag.Float64("fov", 0, "Vertical field of view in degrees.  Zero keeps the scene's default.")
	orbitSpeed = flag.Float64("orbit", 0, "Turn the camera by this many radians per second.")

	debugView  = flag.Int("debug-view", 0, "0 shaded, 1 traversal heat, 2 hit depth, 3 leaf id.")
	debugScale = flag.Float64("debug-scale", renderer.DefaultDebugScale, "Scale for the traversal heat view.")

	snapshotEvery  = flag.Int("snapshot-every", 0, "Save a frame dump every this many frames.  Zero disables snapshots.")
	snapshotBadger = flag.String("snapshot-badger-dir", "", "Badger directory for frame dumps.")
	snapshotBucket = flag.String("snapshot-bucket", "", "GCS bucket for frame dumps.")
	snapshotPrefix = flag.String("snapshot-prefix", "conray/snapshots", "Object prefix within -snapshot-bucket.")
	snapshotPNGDir = flag.String("snapshot-png-dir", "", "Directory for PNG renderings of each snapshot.")

	debugListen          = flag.String("debug-listen", "", "Server address:port for the debug endpoint.  Empty disables it.")
	staleAfter           = flag.Duration("stale-after", 10*time.Second, "Report unhealthy when no frame completes for this long.")
	monitoring           = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 0.0001, "What ratio of traces should be exported?")
)

func main() {
	flag.Parse()

	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %q", f.Name, f.Value.String())
	})

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			glog.Fatalf("Failed to load config: %v", err)
		}
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	mergeFlags(cfg, set, *configPath == "")

	if err := run(cfg); err != nil {
		glog.Errorf("conray: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

// mergeFlags copies flag values into cfg.  With no config file every flag
// applies; otherwise only the ones named in set do.
func mergeFlags(cfg *config.Config, set map[string]bool, all bool) {
	use := func(name string) bool {
		return all || set[name]
	}

	if use("scene") {
		cfg.Scene.Name = *sceneName
	}
	if use("obj") {
		cfg.Scene.OBJPath = *objPath
	}
	if use("obj-scale") {
		cfg.Scene.OBJScale = *objScale
	}
	if use("seed") {
		cfg.Scene.Seed = *seed
	}
	if use("cols") {
		cfg.Display.Cols = *cols
	}
	if use("rows") {
		cfg.Display.Rows = *rows
	}
	if use("present-fps") {
		cfg.Display.PresentFPS = *presentFPS
	}
	if use("supersample") {
		cfg.Render.SuperSample = *superSample
	}
	if use("workers") {
		cfg.Render.Workers = *workers
	}
	if use("bands") {
		cfg.Render.Bands = *bands
	}
	if use("taa") {
		cfg.Render.TAA = *taaEnabled
	}
	if use("taa-alpha") {
		cfg.Render.TAAAlpha = *taaAlpha
	}
	if use("fov") {
		cfg.Camera.Fov = *fov
	}
	if use("orbit") {
		cfg.Camera.OrbitSpeed = *orbitSpeed
	}
	if use("debug-view") {
		cfg.Debug.View = *debugView
	}
	if use("debug-scale") {
		cfg.Debug.Scale = *debugScale
	}
	if use("snapshot-every") {
		cfg.Snapshot.Every = *snapshotEvery
	}
	if use("snapshot-badger-dir") {
		cfg.Snapshot.BadgerDir = *snapshotBadger
	}
	if use("snapshot-bucket") {
		cfg.Snapshot.Bucket = *snapshotBucket
	}
	if use("snapshot-prefix") {
		cfg.Snapshot.Prefix = *snapshotPrefix
	}
	if use("snapshot-png-dir") {
		cfg.Snapshot.PNGDir = *snapshotPNGDir
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *monitoring {
		traceOpts := []cloudtrace.Option{}
		if *monitoringProject != "" {
			traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
		}
		_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
		if err != nil {
			return fmt.Errorf("while installing Cloud Trace pipeline: %w", err)
		}
		defer traceShutdown()

		exporter, err := stackdriver.NewExporter(stackdriver.Options{
			ProjectID:         *monitoringProject,
			MetricPrefix:      "conray",
			ReportingInterval: 60 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("while creating Stackdriver exporter: %w", err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			return fmt.Errorf("while starting metrics exporter: %w", err)
		}
		defer exporter.Flush()
		defer exporter.StopMetricsExporter()
	}

	rec := rendermetrics.New(cfg.Scene.Name)
	if err := rec.RegisterMetrics(); err != nil {
		return fmt.Errorf("while registering metrics: %w", err)
	}
	defer rec.UnregisterMetrics()

	sc, err := scenes.ByName(cfg.Scene.Name, scenes.Options{
		OBJPath:  cfg.Scene.OBJPath,
		OBJScale: cfg.Scene.OBJScale,
		Seed:     cfg.Scene.Seed,
	})
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}
	if cfg.Camera.Override {
		sc.DefaultPose = camera.Pose{Position: cfg.Camera.Position, Yaw: cfg.Camera.Yaw, Pitch: cfg.Camera.Pitch}
	}

	c, r := cfg.Display.Cols, cfg.Display.Rows
	if c <= 0 || r <= 0 {
		tc, tr, err := console.Size(os.Stdout)
		if err != nil {
			glog.Infof("Not sizing to the terminal (%v); using 80x24", err)
			tc, tr = 80, 24
		}
		if c <= 0 {
			c = tc
		}
		if r <= 0 {
			// Leave the last line free so the terminal does not scroll.
			r = max(1, tr-1)
		}
	}

	opts := []renderer.Option{
		renderer.WithSuperSample(cfg.Render.SuperSample),
		renderer.WithTAA(cfg.Render.TAA, cfg.Render.TAAAlpha),
		renderer.WithMetrics(rec),
	}
	if cfg.Render.Workers > 0 {
		opts = append(opts, renderer.WithWorkers(cfg.Render.Workers))
	}
	if cfg.Render.Bands > 0 {
		opts = append(opts, renderer.WithBands(cfg.Render.Bands))
	}
	if cfg.Camera.Fov > 0 {
		opts = append(opts, renderer.WithFov(cfg.Camera.Fov))
	}
	rend := renderer.New(sc, c, r, opts...)
	rend.SetDebugView(cfg.Debug.View)
	rend.SetDebugScale(cfg.Debug.Scale)

	snaps, err := newSnapshotter(ctx, cfg)
	if err != nil {
		return err
	}
	defer snaps.Close()

	if *debugListen != "" {
		startDebugServer(*debugListen, rend)
	}

	con := console.New(os.Stdout, c, r)
	if err := con.Begin(); err != nil {
		return fmt.Errorf("while preparing terminal: %w", err)
	}
	defer con.End()

	rend.Start(ctx)
	defer rend.Stop()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	limiter := rate.NewLimiter(rate.Limit(math.Max(1, cfg.Display.PresentFPS)), 1)
	shown := framebuffer.New(c, r)
	last := time.Now()
	for {
		select {
		case <-signalCh:
			glog.Infof("Interrupted after %d frames", rend.FrameCount())
			return nil
		case <-rend.Done():
			return rend.Err()
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		now := time.Now()
		if cfg.Camera.OrbitSpeed != 0 {
			p := rend.Pose()
			p.Yaw += cfg.Camera.OrbitSpeed * now.Sub(last).Seconds()
			rend.SetPose(p)
		}
		last = now

		if !rend.TryPresentLatestFrame(shown) {
			continue
		}
		shown.Blit(con)
		if err := con.Flush(); err != nil {
			return fmt.Errorf("while drawing frame: %w", err)
		}

		// The frame just flipped in is the one before the one now rendering.
		frame := rend.FrameCount()
		snaps.Maybe(ctx, shown, frame)
		if *maxFrames != 0 && frame >= *maxFrames {
			glog.Infof("Rendered %d frames; exiting", frame)
			return nil
		}
	}
}

func startDebugServer(addr string, rend *renderer.Renderer) {
	debugServeMux := http.NewServeMux()
	debugServeMux.Handle("/healthz", healthz.New(rend, *staleAfter))
	debugServeMux.Handle("/readyz", healthz.New(rend, *staleAfter))
	debugServeMux.HandleFunc("/debug/pprof/", pprof.Index)
	debugServeMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	debugServeMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	debugServeMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	debugServeMux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	debugServer := &http.Server{
		Addr:    addr,
		Handler: debugServeMux,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil {
			glog.Fatalf("Debug server died: %v", err)
		}
	}()
}

func newGCSStore(ctx context.Context, bucket, prefix string) (snapstore.Store, error) {
	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("while creating GCS client: %w", err)
	}
	return &closingGCS{GCS: snapstore.NewGCS(gcs, bucket, prefix), client: gcs}, nil
}

// closingGCS closes the client it was built with.
type closingGCS struct {
	*snapstore.GCS
	client *storage.Client
}

func (c *closingGCS) Close() error {
	return c.client.Close()
}
