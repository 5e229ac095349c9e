package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var durationUnits = map[string]time.Duration{
	"hr":      time.Hour,
	"hrs":     time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"sec":     time.Second,
	"secs":    time.Second,
	"second":  time.Second,
	"seconds": time.Second,
}

// ParseDuration reads natural-language durations such as "1 hr 25 mins" or
// "24 min per ep". Tokens are scanned right to left and every unit keyword is
// paired with the integer immediately before it. Units that do not appear
// count as zero and unrelated words are ignored. A unit keyword without a
// preceding integer is an error.
func ParseDuration(raw string) (time.Duration, error) {
	tokens := strings.Fields(strings.ToLower(raw))

	values := make(map[time.Duration]int)
	for i := len(tokens) - 1; i >= 0; i-- {
		unit, ok := durationUnits[strings.TrimSuffix(tokens[i], ".")]
		if !ok {
			continue
		}
		if i == 0 {
			return 0, fmt.Errorf("duration %q: unit %q has no value", raw, tokens[i])
		}
		n, err := strconv.Atoi(tokens[i-1])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("duration %q: unit %q has no value", raw, tokens[i])
		}
		values[unit] = n
		i--
	}

	var total time.Duration
	for unit, n := range values {
		if int64(n) > math.MaxInt64/int64(unit) {
			return 0, fmt.Errorf("duration %q: %d %s is out of range", raw, n, unit)
		}
		part := time.Duration(n) * unit
		if total > math.MaxInt64-part {
			return 0, fmt.Errorf("duration %q is out of range", raw)
		}
		total += part
	}
	return total, nil
}

// Clock formats d as HH:MM:SS.
func Clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, m, d/time.Second)
}
