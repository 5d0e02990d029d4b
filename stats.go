package datetimed

import (
	"log/slog"
	"time"
)

const statsFrequency = 10 * time.Minute

// Drop reasons counted by Stats.
const (
	dropDecode    = "decode"
	dropBlocked   = "blocked"
	dropRateLimit = "rate_limit"
	dropEncode    = "encode"
	dropWrite     = "write"
)

// Stats counts what the server did with the datagrams it read.
// It is owned by the serve loop and is not safe for concurrent use.
type Stats struct {
	Received int
	Answered int
	Dropped  map[string]int

	lastLog time.Time
	log     *slog.Logger
}

// NewStats creates zeroed Stats.
func NewStats(logger *slog.Logger) *Stats {
	return &Stats{
		Dropped: make(map[string]int),
		lastLog: time.Now(),
		log:     logger.With("module", "stats"),
	}
}

func (s *Stats) drop(reason string) {
	s.Dropped[reason]++
}

// TotalDropped returns the number of datagrams dropped for any reason.
func (s *Stats) TotalDropped() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// maybeLog prints the stats if statsFrequency has passed since the last time.
func (s *Stats) maybeLog(now time.Time) {
	if now.Sub(s.lastLog) < statsFrequency {
		return
	}
	s.lastLog = now
	s.Log()
}

// Log prints out the current stats.
func (s *Stats) Log() {
	attrs := []any{"received", s.Received, "answered", s.Answered, "dropped", s.TotalDropped()}
	for reason, n := range s.Dropped {
		attrs = append(attrs, "dropped_"+reason, n)
	}
	s.log.Info("Stats", attrs...)
}
