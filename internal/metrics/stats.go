package metrics

import (
	"sync/atomic"
	"time"
)

// Stats is updated from workers with sync/atomic.
type Stats struct {
	TotalBytes int64

	Processed  int64
	Total      int64
	OK         int64
	Mismatches int64
	Missing    int64
	Untracked  int64
	HashErrors int64

	BytesHashed int64
	Started     time.Time
	Finished    time.Time
}

func (s *Stats) Start() { s.Started = time.Now() }
func (s *Stats) Stop()  { s.Finished = time.Now() }
func (s *Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return time.Since(s.Started)
	}
	return s.Finished.Sub(s.Started)
}

// AddBytes is shaped for pool.Options.OnBytes.
func (s *Stats) AddBytes(n int64) {
	atomic.AddInt64(&s.BytesHashed, n)
}

// Failed counts everything that makes a verify run unsuccessful.
func (s *Stats) Failed() int64 {
	return atomic.LoadInt64(&s.Mismatches) + atomic.LoadInt64(&s.Missing) + atomic.LoadInt64(&s.HashErrors)
}
