package statistics

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatHashrate(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 Primes/s"},
		{-5, "0 Primes/s"},
		{1, "1.00 Primes/s"},
		{999, "999.00 Primes/s"},
		{1000, "1.00 kPrimes/s"},
		{2500, "2.50 kPrimes/s"},
		{2500000, "2.50 MPrimes/s"},
		{1234567890, "1.23 GPrimes/s"},
		{9223372036854775807, "9.22 EPrimes/s"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatHashrate(c.in), "input %d", c.in)
	}
}

func TestFormatTimeInterval(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 seconds"},
		{1, "1 second"},
		{2, "2 seconds"},
		{60, "1 minute"},
		{61, "1 minute 1 second"},
		{130, "2 minutes 10 seconds"},
		{3600, "1 hour"},
		{3601, "1 hour 1 second"},
		{90061, "1 day 1 hour 1 minute"},
		{2 * 86400, "2 days"},
		{secondsPerYear + 2629746 + 86400 + 5, "1 year 1 month 1 day"},
		{0xFFFFFFFF, "136 years 1 month 6 days"},
		{86403, "1 day 3 seconds"},
		{86459, "1 day 59 seconds"},
		{31560552, "1 year 1 hour"},
		{secondsPerYear + 60 + 1, "1 year 1 minute 1 second"},
		{secondsPerYear + 86400 + 3600 + 60, "1 year 1 day 1 hour"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatTimeInterval(big.NewInt(c.in)), "input %d", c.in)
	}
}

func TestFormatTimeIntervalAtMostThreeUnits(t *testing.T) {
	for _, s := range []int64{59, 3599, 86399, 31556951, 123456789, 4000000000} {
		out := FormatTimeInterval(big.NewInt(s))
		fields := strings.Fields(out)
		require.Equal(t, 0, len(fields)%2, out)
		assert.LessOrEqual(t, len(fields)/2, 3, out)
		assert.NotContains(t, out, " 0 ", out)
	}
}

func TestFormatTimeIntervalYearsOnly(t *testing.T) {
	t32 := new(big.Int).Lsh(big.NewInt(1), 32)
	assert.Equal(t, "136 years", FormatTimeInterval(t32))

	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	out := FormatTimeInterval(huge)
	assert.True(t, strings.HasSuffix(out, " years"), out)
	assert.Equal(t, 2, len(strings.Fields(out)), out)

	want := new(big.Int).Quo(huge, big.NewInt(secondsPerYear)).String() + " years"
	assert.Equal(t, want, out)
}
