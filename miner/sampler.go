package miner

import (
	"fmt"
	"strconv"

	"github.com/AGPFMiner/gapminer/chain"
	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/statistics"
	"github.com/AGPFMiner/gapminer/types"
)

// DefaultHashrateLookback is the block window of the network hashrate estimate.
const DefaultHashrateLookback = 120

const notMiningStatus = "Not Mining Gapcoin"

// Sampler turns the node counters and the tip target into a StatsSnapshot.
type Sampler struct {
	meter     mining.HashMeter
	estimator chain.HashrateEstimator
	chain     chain.View
	lookback  int
}

func NewSampler(args mining.MinerArgs, lookback int) *Sampler {
	if lookback <= 0 {
		lookback = DefaultHashrateLookback
	}
	return &Sampler{
		meter:     args.Meter,
		estimator: args.Estimator,
		chain:     args.Chain,
		lookback:  lookback,
	}
}

// Sample reads the counters once. It has no side effects, so equal inputs
// give equal snapshots. SampledAt is left for the caller to stamp.
func (s *Sampler) Sample(st types.MiningState, params types.SieveParams) (types.StatsSnapshot, error) {
	var snap types.StatsSnapshot

	hps, err := s.meter.HashesPerSec()
	if err != nil {
		return snap, fmt.Errorf("local hashrate: %w", err)
	}
	tps, err := s.meter.TestsPerSec()
	if err != nil {
		return snap, fmt.Errorf("test rate: %w", err)
	}
	network, err := s.estimator.NetworkHashrate(s.lookback, -1)
	if err != nil {
		return snap, fmt.Errorf("network hashrate: %w", err)
	}
	tip, err := s.chain.Tip()
	if err != nil {
		return snap, fmt.Errorf("chain tip: %w", err)
	}
	if tip == nil {
		return snap, chain.ErrNoTip
	}

	hashrate := int64(hps)
	secs, ok := statistics.ExpectedBlockTime(chain.Target(tip.Bits), hashrate)

	snap.YourHashrate = hashrate
	snap.NetworkHashrate = network
	snap.TestsPerSec = tps
	snap.ETA = types.ETA{Infinite: !ok, Seconds: secs}
	snap.YourHashrateText = statistics.FormatHashrate(hashrate)
	snap.NetworkHashrateText = statistics.FormatHashrate(network)
	snap.NextBlockText = statistics.FormatETA(secs, ok)
	snap.StatusText = statusLine(st, params, hashrate, tps)
	snap.Mining = st.Mining
	snap.Threads = st.Threads
	snap.TipHeight = tip.Height
	return snap, nil
}

func statusLine(st types.MiningState, params types.SieveParams, hashrate int64, tps float64) string {
	if !st.Mining {
		return notMiningStatus
	}
	return fmt.Sprintf("Mining with %d threads, shift: %d, sieve size: %d, number of primes in sieve: %d - hashrate: %s (%s tests per sec.)",
		st.Threads, params.HeaderShift, params.SieveSize, params.SievePrimes,
		statistics.FormatHashrate(hashrate), strconv.FormatFloat(tps, 'g', 6, 64))
}
