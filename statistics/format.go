package statistics

import (
	"fmt"
	"math/big"
	"strings"
)

const siPrefixes = " kMGTPEZY"

// FormatHashrate renders n with a 1000-step SI prefix and two decimals.
func FormatHashrate(n int64) string {
	if n <= 0 {
		return "0 Primes/s"
	}

	i := 0
	scale := int64(1)
	for n/scale >= 1000 {
		scale *= 1000
		i++
	}
	v := float64(n) / float64(scale)

	prefix := ""
	if i >= 1 && i < len(siPrefixes) {
		prefix = siPrefixes[i : i+1]
	}
	return fmt.Sprintf("%.2f %sPrimes/s", v, prefix)
}

type timeUnit struct {
	name    string
	seconds uint32
}

// secondsPerYear is the mean gregorian year.
const secondsPerYear = 31556952

var timeUnits = [...]timeUnit{
	{"year", secondsPerYear},
	{"month", secondsPerYear / 12},
	{"day", 24 * 60 * 60},
	{"hour", 60 * 60},
	{"minute", 60},
	{"second", 1},
}

var maxUint32 = big.NewInt(0xFFFFFFFF)

// FormatTimeInterval renders a number of seconds. Past the uint32 range only a
// year count is given; below it the three highest non-zero units are shown.
func FormatTimeInterval(t *big.Int) string {
	if t == nil || t.Sign() <= 0 {
		return "0 seconds"
	}
	if t.Cmp(maxUint32) > 0 {
		years := new(big.Int).Quo(t, big.NewInt(secondsPerYear))
		return years.String() + " years"
	}

	t32 := uint32(t.Uint64())
	var values [len(timeUnits)]uint32
	for i, u := range timeUnits {
		values[i] = t32 / u.seconds
		t32 %= u.seconds
	}

	parts := make([]string, 0, 3)
	for i := 0; i < len(values) && len(parts) < 3; i++ {
		if values[i] == 0 {
			continue
		}
		parts = append(parts, pluralize(values[i], timeUnits[i].name))
	}
	return strings.Join(parts, " ")
}

func pluralize(v uint32, unit string) string {
	if v == 1 {
		return fmt.Sprintf("%d %s", v, unit)
	}
	return fmt.Sprintf("%d %ss", v, unit)
}
