package rendermetrics

import (
	"context"
	"strconv"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	keyScene   = tag.MustNewKey("scene")
	keyFlipped = tag.MustNewKey("flipped")
)

// Recorder owns the render measures and their views.  Recording is a no-op
// until RegisterMetrics has been called.
type Recorder struct {
	scene string

	frames       *stats.Int64Measure
	frameLatency *stats.Float64Measure
	presents     *stats.Int64Measure
	bvhNodes     *stats.Int64Measure
	bvhArea      *stats.Float64Measure

	views []*view.View
}

func New(scene string) *Recorder {
	r := &Recorder{scene: scene}

	r.frames = stats.Int64("conray/frames", "Frames rendered", stats.UnitDimensionless)
	r.frameLatency = stats.Float64("conray/frame_latency", "Time to render one frame", stats.UnitMilliseconds)
	r.presents = stats.Int64("conray/presents", "Calls to present the latest frame", stats.UnitDimensionless)
	r.bvhNodes = stats.Int64("conray/bvh_nodes", "Nodes in the scene's BVH", stats.UnitDimensionless)
	r.bvhArea = stats.Float64("conray/bvh_area_ratio", "Interior node surface area over root surface area", stats.UnitDimensionless)

	r.views = []*view.View{
		{
			Name:        "frames",
			Description: "Counter of frames that have been rendered",
			TagKeys:     []tag.Key{keyScene},
			Measure:     r.frames,
			Aggregation: view.Count(),
		},
		{
			Name:        "frame_latency_ms",
			Description: "Distribution of frame render times",
			TagKeys:     []tag.Key{keyScene},
			Measure:     r.frameLatency,
			Aggregation: view.Distribution(1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000),
		},
		{
			Name:        "presents",
			Description: "Counter of presents, by whether a new frame was flipped in",
			TagKeys:     []tag.Key{keyScene, keyFlipped},
			Measure:     r.presents,
			Aggregation: view.Count(),
		},
		{
			Name:        "bvh_nodes",
			Description: "Node count of the most recently built BVH",
			TagKeys:     []tag.Key{keyScene},
			Measure:     r.bvhNodes,
			Aggregation: view.LastValue(),
		},
		{
			Name:        "bvh_area_ratio",
			Description: "Surface area ratio of the most recently built BVH",
			TagKeys:     []tag.Key{keyScene},
			Measure:     r.bvhArea,
			Aggregation: view.LastValue(),
		},
	}

	return r
}

func (r *Recorder) RegisterMetrics() error {
	return view.Register(r.views...)
}

func (r *Recorder) UnregisterMetrics() {
	view.Unregister(r.views...)
}

func (r *Recorder) record(ctx context.Context, mutators []tag.Mutator, ms ...stats.Measurement) {
	mutators = append(mutators, tag.Insert(keyScene, r.scene))
	stats.RecordWithOptions(ctx, stats.WithTags(mutators...), stats.WithMeasurements(ms...))
}

func (r *Recorder) Frame(ctx context.Context, elapsed time.Duration) {
	r.record(ctx, nil,
		r.frames.M(1),
		r.frameLatency.M(float64(elapsed)/float64(time.Millisecond)))
}

func (r *Recorder) Present(ctx context.Context, flipped bool) {
	r.record(ctx, []tag.Mutator{tag.Insert(keyFlipped, strconv.FormatBool(flipped))}, r.presents.M(1))
}

func (r *Recorder) BVHNodes(ctx context.Context, n int) {
	r.record(ctx, nil, r.bvhNodes.M(int64(n)))
}

func (r *Recorder) BVHAreaRatio(ctx context.Context, ratio float64) {
	r.record(ctx, nil, r.bvhArea.M(ratio))
}
