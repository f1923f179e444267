package miner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AGPFMiner/gapminer/chain"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestFeeder(t *testing.T, f *fixture, clock *fakeClock, window int) *ChartFeeder {
	args := f.args(defaultMiningConfig())
	args.Logger = zaptest.NewLogger(t)
	return NewChartFeeder(args, ChartOptions{
		Enabled:  true,
		Window:   window,
		Interval: time.Minute,
		Workers:  3,
		Now:      clock.Now,
	})
}

func TestChartShortChainYieldsChainLength(t *testing.T) {
	f := newFixture(10)
	feeder := newTestFeeder(t, f, &fakeClock{now: genesisTime}, 4032)

	charts, walked, err := feeder.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, walked)
	require.Len(t, charts.Difficulty.Points, 10, spew.Sdump(charts))
	require.Len(t, charts.Hashrate.Points, 10)
	for i, p := range charts.Difficulty.Points {
		assert.Equal(t, int32(i), p.Height)
		assert.Equal(t, 1.0, p.Value)
		assert.Equal(t, int32(i), charts.Hashrate.Points[i].Height)
	}
	assert.Equal(t, int32(9), charts.TipHeight)
	assert.Equal(t, 0.0, charts.Difficulty.XMin)
	assert.Equal(t, 9.0, charts.Difficulty.XMax)
	assert.Equal(t, 0.0, charts.Hashrate.XMin)
}

func TestChartAxes(t *testing.T) {
	f := newFixture(300)
	feeder := newTestFeeder(t, f, &fakeClock{now: genesisTime}, 100)

	charts, walked, err := feeder.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, walked)
	require.Len(t, charts.Difficulty.Points, 100)
	assert.Equal(t, int32(200), charts.Difficulty.Points[0].Height)
	assert.Equal(t, int32(299), charts.Difficulty.Points[99].Height)

	assert.Equal(t, 200.0, charts.Difficulty.XMin)
	assert.Equal(t, 299.0, charts.Difficulty.XMax)
	assert.Equal(t, 0.0, charts.Difficulty.YMin)
	assert.InDelta(t, 1.1, charts.Difficulty.YMax, 1e-9)

	hps := float64(7158388)
	for _, p := range charts.Hashrate.Points {
		assert.Equal(t, hps, p.Value, "height %d", p.Height)
	}
	assert.InDelta(t, hps+hps/10, charts.Hashrate.YMax, 1e-6)
	assert.Equal(t, "Difficulty", charts.Difficulty.Label)
	assert.Equal(t, "Hashrate Primes/s", charts.Hashrate.Label)
}

func TestChartThrottle(t *testing.T) {
	f := newFixture(20)
	clock := &fakeClock{now: genesisTime}
	feeder := newTestFeeder(t, f, clock, 4032)
	ctx := context.Background()

	_, walked, err := feeder.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, walked)
	assert.Equal(t, 1, f.chain.Tips())

	for i := 0; i < 5; i++ {
		clock.Advance(8 * time.Second)
		_, walked, err = feeder.Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, walked)
	}
	assert.Equal(t, 1, f.chain.Tips())

	clock.Advance(20 * time.Second)
	charts, walked, err := feeder.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, walked)
	assert.Equal(t, 2, f.chain.Tips())
	assert.Equal(t, clock.Now(), charts.UpdatedAt)
}

func TestChartFailedWalkDoesNotConsumeInterval(t *testing.T) {
	f := newFixture(20)
	f.chain.fail = errors.New("node unreachable")
	clock := &fakeClock{now: genesisTime}
	feeder := newTestFeeder(t, f, clock, 4032)
	ctx := context.Background()

	_, walked, err := feeder.Refresh(ctx)
	require.Error(t, err)
	assert.False(t, walked)

	f.chain.mu.Lock()
	f.chain.fail = nil
	f.chain.mu.Unlock()
	clock.Advance(time.Second)
	_, walked, err = feeder.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, walked)
}

func TestChartDisabled(t *testing.T) {
	f := newFixture(20)
	feeder := newTestFeeder(t, f, &fakeClock{now: genesisTime}, 4032)
	feeder.SetEnabled(false)

	_, walked, err := feeder.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, walked)
	assert.Zero(t, f.chain.Tips())
	assert.False(t, feeder.Enabled())
}

func TestChartEmptyChain(t *testing.T) {
	f := newFixture(0)
	feeder := newTestFeeder(t, f, &fakeClock{now: genesisTime}, 4032)

	_, walked, err := feeder.Refresh(context.Background())
	assert.True(t, errors.Is(err, chain.ErrNoTip))
	assert.False(t, walked)
}

func TestChartCanceledContext(t *testing.T) {
	f := newFixture(50)
	feeder := newTestFeeder(t, f, &fakeClock{now: genesisTime}, 4032)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, walked, err := feeder.Refresh(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, walked)
}
