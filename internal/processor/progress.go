package processor

import (
	"regexp"
	"strconv"
	"time"
)

// progressTimePattern matches the elapsed-time marker FFmpeg embeds in its
// status lines, e.g. "frame= 120 fps= 30 ... time=00:01:05.40 bitrate=...".
var progressTimePattern = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// parseProgressLine extracts elapsed encode seconds from one line of tool
// output. The boolean reports whether the line carried a progress marker.
func parseProgressLine(line string) (float64, bool) {
	matches := progressTimePattern.FindStringSubmatch(line)
	if matches == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

// progressPercent converts elapsed encode time into an in-run percentage.
// With a known duration the clamped fraction maps to at most 99; without one
// the estimate follows 95*t/(t+90), monotonically increasing and asymptotic.
// Either way the in-run value stays below 100: the encoder keeps working past
// the last time= marker (muxer finalization, faststart rewrite) and can still
// fail there, so 100 is only ever emitted on successful completion.
func progressPercent(elapsed float64, duration *float64) int {
	if elapsed < 0 {
		elapsed = 0
	}
	if duration != nil && *duration > 0 {
		fraction := elapsed / *duration
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		pct := int(fraction * 100)
		if pct > 99 {
			pct = 99
		}
		return pct
	}
	return int(95 * elapsed / (elapsed + 90))
}

// progressThrottle limits callback invocations to one per interval of
// wall-clock time, independent of parsing. It also enforces monotonicity so
// reported percentages never decrease within a run.
type progressThrottle struct {
	interval time.Duration
	last     time.Time
	lastPct  int
}

func newProgressThrottle(interval time.Duration) *progressThrottle {
	return &progressThrottle{interval: interval, lastPct: -1}
}

// allow reports whether pct should be delivered at time now, updating the
// throttle state when it is.
func (t *progressThrottle) allow(now time.Time, pct int) bool {
	if pct <= t.lastPct {
		return false
	}
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.lastPct = pct
	return true
}
