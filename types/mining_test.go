package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSieveParamsValidate(t *testing.T) {
	ok := SieveParams{HeaderShift: 25, SieveSize: 33554432, SievePrimes: 900000}
	require.NoError(t, ok.Validate())

	bad := []SieveParams{
		{HeaderShift: 13, SieveSize: 1000, SievePrimes: 1000},
		{HeaderShift: 513, SieveSize: 1000, SievePrimes: 1000},
		{HeaderShift: 14, SieveSize: 999, SievePrimes: 1000},
		{HeaderShift: 14, SieveSize: 33554433, SievePrimes: 1000},
		{HeaderShift: 14, SieveSize: 1000, SievePrimes: 999},
		{HeaderShift: 14, SieveSize: 1000, SievePrimes: 900001},
	}
	for _, p := range bad {
		err := p.Validate()
		assert.True(t, errors.Is(err, ErrInvalidSieveParams), "%+v: %v", p, err)
	}
}

func TestChartsCloneIsDeep(t *testing.T) {
	c := &Charts{
		Difficulty: ChartSeries{Label: "Difficulty", Points: []ChartPoint{{1, 2}, {2, 3}}, YMax: 3.3},
		Hashrate:   ChartSeries{Label: "Hashrate", Points: []ChartPoint{{1, 10}}},
		TipHeight:  2,
	}
	out, err := c.Clone()
	require.NoError(t, err)
	require.Equal(t, c.Difficulty.Points, out.Difficulty.Points)
	assert.Equal(t, c.TipHeight, out.TipHeight)
	assert.Equal(t, 3.3, out.Difficulty.YMax)

	out.Difficulty.Points[0].Value = 99
	assert.Equal(t, 2.0, c.Difficulty.Points[0].Value)
}

func TestChartsCloneEmpty(t *testing.T) {
	var none *Charts
	out, err := none.Clone()
	require.NoError(t, err)
	assert.Equal(t, Charts{}, out)

	out, err = (&Charts{TipHeight: 7}).Clone()
	require.NoError(t, err)
	assert.Nil(t, out.Difficulty.Points)
	assert.Nil(t, out.Hashrate.Points)
	assert.Equal(t, int32(7), out.TipHeight)
}

func TestSnapshotCloneCopiesETA(t *testing.T) {
	s := StatsSnapshot{ETA: ETA{Seconds: big.NewInt(130)}}
	out := s.Clone()
	out.ETA.Seconds.SetInt64(1)
	assert.Equal(t, int64(130), s.ETA.Seconds.Int64())
}

func TestSieveSizeForShift(t *testing.T) {
	assert.Equal(t, 1048576, SieveSizeForShift(20))
	assert.Equal(t, 16384, SieveSizeForShift(14))
	assert.Equal(t, MaxSieveSize, SieveSizeForShift(25))
	assert.Equal(t, MaxSieveSize, SieveSizeForShift(512))
	assert.Equal(t, MinSieveSize, SieveSizeForShift(3))

	p := SieveParams{HeaderShift: 22, SievePrimes: 30000}.WithDerivedSize()
	assert.Equal(t, 4194304, p.SieveSize)
	require.NoError(t, p.Validate())

	kept := SieveParams{HeaderShift: 22, SieveSize: 5000, SievePrimes: 30000}.WithDerivedSize()
	assert.Equal(t, 5000, kept.SieveSize)
}
