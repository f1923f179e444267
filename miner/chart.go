package miner

import (
	"context"
	"fmt"
	"time"

	"github.com/AGPFMiner/gapminer/chain"
	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"

	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"
)

const (
	DefaultChartLookback = 4032
	DefaultChartInterval = 60 * time.Second
	DefaultChartWorkers  = 4
)

type ChartOptions struct {
	Enabled          bool
	Window           int
	HashrateLookback int
	Interval         time.Duration
	Workers          int
	PowLimitBits     uint32
	// Now defaults to time.Now.
	Now func() time.Time
}

// ChartFeeder rebuilds the difficulty and network hashrate series from the
// chain, at most once per Interval.
type ChartFeeder struct {
	chain     chain.View
	estimator chain.HashrateEstimator
	opts      ChartOptions
	logger    *zap.Logger

	lastUpdate time.Time
}

func NewChartFeeder(args mining.MinerArgs, opts ChartOptions) *ChartFeeder {
	if opts.Window <= 0 {
		opts.Window = DefaultChartLookback
	}
	if opts.HashrateLookback <= 0 {
		opts.HashrateLookback = DefaultHashrateLookback
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultChartInterval
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultChartWorkers
	}
	if opts.PowLimitBits == 0 {
		opts.PowLimitBits = chain.DefaultPowLimitBits
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartFeeder{
		chain:     args.Chain,
		estimator: args.Estimator,
		opts:      opts,
		logger:    logger.Named("charts"),
	}
}

func (f *ChartFeeder) Enabled() bool {
	return f.opts.Enabled
}

func (f *ChartFeeder) SetEnabled(enabled bool) {
	f.opts.Enabled = enabled
}

// Refresh walks the chain unless charts are disabled or the last walk is
// younger than the interval. walked reports whether charts holds new data.
func (f *ChartFeeder) Refresh(ctx context.Context) (charts types.Charts, walked bool, err error) {
	if !f.opts.Enabled {
		return charts, false, nil
	}
	if !f.lastUpdate.IsZero() && f.opts.Now().Sub(f.lastUpdate) < f.opts.Interval {
		return charts, false, nil
	}

	start := f.opts.Now()
	charts, err = f.build(ctx)
	if err != nil {
		return types.Charts{}, false, err
	}
	f.lastUpdate = f.opts.Now()
	charts.UpdatedAt = f.lastUpdate
	f.logger.Debug("charts rebuilt",
		zap.Int32("tip", charts.TipHeight),
		zap.Int("points", len(charts.Difficulty.Points)),
		zap.Duration("took", f.lastUpdate.Sub(start)))
	return charts, true, nil
}

func (f *ChartFeeder) build(ctx context.Context) (types.Charts, error) {
	var charts types.Charts

	blocks, err := chain.Walk(f.chain, f.opts.Window)
	if err != nil {
		return charts, fmt.Errorf("walk chain: %w", err)
	}
	if len(blocks) == 0 {
		return charts, chain.ErrNoTip
	}

	difficulty := make([]types.ChartPoint, len(blocks))
	for i, b := range blocks {
		difficulty[i] = types.ChartPoint{Height: b.Height, Value: chain.Difficulty(b.Bits, f.opts.PowLimitBits)}
	}

	hashrate := make([]types.ChartPoint, len(blocks))
	errs := make([]error, len(blocks))
	swg := sizedwaitgroup.New(f.opts.Workers)
	for i, b := range blocks {
		if err := swg.AddWithContext(ctx); err != nil {
			break
		}
		go func(i int, b *chain.Block) {
			defer swg.Done()
			hps, err := f.estimator.NetworkHashrate(f.opts.HashrateLookback, b.Height)
			hashrate[i] = types.ChartPoint{Height: b.Height, Value: float64(hps)}
			errs[i] = err
		}(i, b)
	}
	swg.Wait()
	if err := ctx.Err(); err != nil {
		return charts, err
	}
	for i, err := range errs {
		if err != nil {
			return charts, fmt.Errorf("network hashrate at %d: %w", blocks[i].Height, err)
		}
	}

	tip := blocks[len(blocks)-1].Height
	first := tip - int32(f.opts.Window)
	if first < 0 {
		first = 0
	}
	xMin, xMax := float64(min(first+1, blocks[0].Height)), float64(tip)
	charts.Difficulty = newSeries("Difficulty", difficulty, xMin, xMax)
	charts.Hashrate = newSeries("Hashrate Primes/s", hashrate, xMin, xMax)
	charts.TipHeight = tip
	return charts, nil
}

// newSeries sets the vertical range to the series maximum plus 10% headroom.
func newSeries(label string, points []types.ChartPoint, xMin, xMax float64) types.ChartSeries {
	yMax := 0.0
	for _, p := range points {
		if p.Value > yMax {
			yMax = p.Value
		}
	}
	return types.ChartSeries{
		Label:  label,
		Points: points,
		XMin:   xMin,
		XMax:   xMax,
		YMin:   0,
		YMax:   yMax + yMax/10,
	}
}
