package updater

import (
	"fmt"
	"time"
)

// transferStats accumulates the byte count of a running download for the
// summary logged once the transfer finished.
type transferStats struct {
	started time.Time
	bytes   int64
}

func newTransferStats() *transferStats {
	return &transferStats{started: time.Now()}
}

func (s *transferStats) Add(n int) {
	s.bytes += int64(n)
}

// Rate returns the average transfer speed in bytes per second
func (s *transferStats) Rate() float64 {
	elapsed := time.Since(s.started).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(s.bytes) / elapsed
}

func (s *transferStats) String() string {
	elapsed := time.Since(s.started).Round(100 * time.Millisecond)
	return fmt.Sprintf("%s in %s (%s/s)", formatBytes(s.bytes), elapsed, formatBytes(int64(s.Rate())))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
