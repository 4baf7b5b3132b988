// Package progress draws a byte-based progress bar for verify runs.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Status is what the bar's caption reports about the run.
type Status struct {
	Processed   int64
	Total       int64
	OK          int64
	Failed      int64
	BytesHashed int64
}

const (
	pending     = 16384
	refreshRate = time.Second
)

// Bar counts hashed bytes against the total planned for the run.
// Workers hand byte counts to a single drawing goroutine, which also
// refreshes the caption from status once per refreshRate.
type Bar struct {
	pb     *progressbar.ProgressBar
	bytes  chan int64
	closed chan struct{}
	status func() Status
}

// New starts a bar on w. status may be nil, in which case the caption
// stays fixed.
func New(w io.Writer, totalBytes int64, status func() Status) *Bar {
	b := &Bar{
		pb: progressbar.NewOptions64(totalBytes,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("verifying"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionUseANSICodes(true),
			progressbar.OptionThrottle(120*time.Millisecond),
		),
		bytes:  make(chan int64, pending),
		closed: make(chan struct{}),
		status: status,
	}
	_ = b.pb.RenderBlank()

	go b.draw()
	return b
}

func (b *Bar) draw() {
	defer close(b.closed)

	tick := time.NewTicker(refreshRate)
	defer tick.Stop()

	r := rate{at: time.Now()}
	for {
		select {
		case n, ok := <-b.bytes:
			if !ok {
				_ = b.pb.Finish()
				return
			}
			_ = b.pb.Add64(n)
		case now := <-tick.C:
			if b.status == nil {
				continue
			}
			st := b.status()
			b.pb.Describe(fmt.Sprintf("verifying %d/%d files | ok=%d failed=%d | %.1f MB/s",
				st.Processed, st.Total, st.OK, st.Failed, r.mbps(st.BytesHashed, now)))
		}
	}
}

// AddBytes may be called from any goroutine until Close. A nil Bar
// ignores it.
func (b *Bar) AddBytes(n int64) {
	if b == nil || n <= 0 {
		return
	}
	b.bytes <- n
}

// Close draws the final state and waits for the drawing goroutine.
func (b *Bar) Close() {
	if b == nil {
		return
	}
	close(b.bytes)
	<-b.closed
}

// rate turns successive byte totals into throughput.
type rate struct {
	bytes int64
	at    time.Time
}

func (r *rate) mbps(total int64, now time.Time) float64 {
	dt := now.Sub(r.at).Seconds()
	delta := total - r.bytes
	r.bytes, r.at = total, now
	if dt <= 0 {
		return 0
	}
	return float64(delta) / 1e6 / dt
}
