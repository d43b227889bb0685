package transfer

import "time"

// snapshot is one observation of the in-flight file between two polls.
type snapshot struct {
	Bytes       int64
	BytesPerSec float64
	Percent     float64 // -1 when the total size is unknown
}

// progressSnapshot derives throughput and completion from two consecutive
// size polls. Reported byte counts never decrease, and a percentage is only
// produced when an advisory total is known.
func progressSnapshot(prev, cur, total int64, elapsed time.Duration) snapshot {
	if cur < prev {
		cur = prev
	}
	s := snapshot{Bytes: cur, Percent: -1}
	if elapsed > 0 {
		s.BytesPerSec = float64(cur-prev) / elapsed.Seconds()
	}
	if total > 0 {
		pct := float64(cur) / float64(total) * 100
		if pct > 100 {
			pct = 100
		}
		s.Percent = pct
	}
	return s
}
