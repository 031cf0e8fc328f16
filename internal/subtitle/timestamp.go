package subtitle

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrMalformedTimestamp is returned by [ParseTimestampStrict] when the input
// does not match the SubRip timing pattern.
var ErrMalformedTimestamp = errors.New("subtitle: malformed timestamp")

// timingPattern matches "HH:MM:SS,mmm --> HH:MM:SS,mmm" at the start of a line.
// Trailing content (SubRip position hints such as "X1:40") is ignored.
var timingPattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// ParseTimestamp converts a caption timing line into start and end offsets in
// seconds. Lines that do not match the pattern yield (0, 0); the caller gets a
// zero-duration line rather than an error.
func ParseTimestamp(line string) (start, end float64) {
	start, end, _ = ParseTimestampStrict(line)
	return start, end
}

// ParseTimestampStrict is like [ParseTimestamp] but reports non-matching input
// as [ErrMalformedTimestamp] instead of collapsing it to zero.
func ParseTimestampStrict(line string) (start, end float64, err error) {
	m := timingPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, line)
	}
	return clockSeconds(m[1:5]), clockSeconds(m[5:9]), nil
}

// clockSeconds converts the four captured groups (hours, minutes, seconds,
// milliseconds) into seconds. The regexp guarantees every group is a digit
// run, so Atoi cannot fail.
func clockSeconds(groups []string) float64 {
	var v [4]int
	for i, g := range groups {
		v[i], _ = strconv.Atoi(g)
	}
	return float64(v[0]*3600+v[1]*60+v[2]) + float64(v[3])/1000
}

// maxClockMillis is 99:59:59,999, the largest time two hour digits can carry.
const maxClockMillis = 100*3_600_000 - 1

// FormatTimestamp renders start and end (seconds) as a SubRip timing line.
// Values are clamped to [00:00:00,000, 99:59:59,999], so a formatted line
// never has its end before its start when end >= start.
func FormatTimestamp(start, end float64) string {
	return formatClock(start) + " --> " + formatClock(end)
}

func formatClock(sec float64) string {
	f := math.Round(sec * 1000)
	switch {
	case math.IsNaN(f) || f < 0:
		f = 0
	case f > maxClockMillis:
		f = maxClockMillis
	}
	ms := int64(f)
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
