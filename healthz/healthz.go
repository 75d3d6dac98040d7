// Package healthz reports whether the render loop is still producing frames.
package healthz

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource is what the handler watches; *renderer.Renderer satisfies it.
type FrameSource interface {
	LastFrame() time.Time
	Err() error
}

type Handler struct {
	src   FrameSource
	stale time.Duration
	start time.Time
	now   func() time.Time
}

// New reports healthy while a frame has completed within the last stale
// duration.  Before the first frame the same window runs from New.
func New(src FrameSource, stale time.Duration) *Handler {
	return &Handler{
		src:   src,
		stale: stale,
		start: time.Now(),
		now:   time.Now,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.src.Err(); err != nil {
		http.Error(w, fmt.Sprintf("503 render loop failed: %v", err), http.StatusServiceUnavailable)
		return
	}

	last := h.src.LastFrame()
	if last.IsZero() {
		last = h.start
	}
	if age := h.now().Sub(last); age > h.stale {
		http.Error(w, fmt.Sprintf("503 no frame for %v", age.Round(time.Millisecond)), http.StatusServiceUnavailable)
		return
	}

	w.Write([]byte("200 OK"))
}
