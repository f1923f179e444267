package miner

import (
	"context"
	"sync"
	"time"

	"github.com/AGPFMiner/gapminer/chain"
	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"
)

type genCall struct {
	Enable  bool
	Threads int
}

type fakeGenerator struct {
	mu       sync.Mutex
	calls    []genCall
	startErr error
	stopErr  error
}

func (g *fakeGenerator) Generate(enable bool, threads int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, genCall{enable, threads})
	if enable {
		return g.startErr
	}
	return g.stopErr
}

func (g *fakeGenerator) Calls() []genCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]genCall(nil), g.calls...)
}

type fakeUnlock struct {
	mu       sync.Mutex
	released int
	expired  bool
}

func (u *fakeUnlock) Active() (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return !u.expired, nil
}

func (u *fakeUnlock) Expire() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.expired = true
}

func (u *fakeUnlock) Release() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.released++
	return nil
}

func (u *fakeUnlock) Released() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.released
}

type fakeWallet struct {
	mu       sync.Mutex
	err      error
	requests int
	unlocks  []*fakeUnlock
}

func (w *fakeWallet) RequestUnlock(ctx context.Context) (mining.Unlock, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests++
	if w.err != nil {
		return nil, w.err
	}
	u := &fakeUnlock{}
	w.unlocks = append(w.unlocks, u)
	return u, nil
}

func (w *fakeWallet) Requests() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests
}

type fakeMeter struct {
	hps, tps float64
	err      error
}

func (m *fakeMeter) HashesPerSec() (float64, error) { return m.hps, m.err }
func (m *fakeMeter) TestsPerSec() (float64, error)  { return m.tps, m.err }

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingChain counts how often the chain was walked from its tip.
type countingChain struct {
	*chain.MemChain
	mu   sync.Mutex
	tips int
	fail error
}

func (c *countingChain) Tip() (*chain.Block, error) {
	c.mu.Lock()
	c.tips++
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return c.MemChain.Tip()
}

func (c *countingChain) Tips() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tips
}

var genesisTime = time.Unix(1400000000, 0)

func buildChain(n int, bits uint32, spacing time.Duration) *chain.MemChain {
	c := chain.NewMemChain()
	for i := 0; i < n; i++ {
		c.Append(bits, genesisTime.Add(time.Duration(i)*spacing))
	}
	return c
}

type fixture struct {
	gen    *fakeGenerator
	wallet *fakeWallet
	meter  *fakeMeter
	chain  *countingChain
}

func newFixture(blocks int) *fixture {
	return &fixture{
		gen:    &fakeGenerator{},
		wallet: &fakeWallet{},
		meter:  &fakeMeter{},
		chain:  &countingChain{MemChain: buildChain(blocks, chain.DefaultPowLimitBits, 10*time.Minute)},
	}
}

func (f *fixture) args(cfg types.MiningConfig) mining.MinerArgs {
	return mining.MinerArgs{
		Generator: f.gen,
		Meter:     f.meter,
		Wallet:    f.wallet,
		Chain:     f.chain,
		Estimator: f.chain,
		Mining:    cfg,
	}
}

func defaultMiningConfig() types.MiningConfig {
	return types.MiningConfig{
		Threads:    2,
		MaxThreads: 4,
		SieveParams: types.SieveParams{
			HeaderShift: 20,
			SieveSize:   1048576,
			SievePrimes: 30000,
		},
	}
}

// recordingView keeps everything the miner published.
type recordingView struct {
	mu     sync.Mutex
	states []types.MiningState
	stats  []types.StatsSnapshot
	charts []types.Charts
}

func (v *recordingView) ShowState(st types.MiningState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states = append(v.states, st)
}

func (v *recordingView) ShowStats(s types.StatsSnapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = append(v.stats, s)
}

func (v *recordingView) ShowCharts(c types.Charts) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.charts = append(v.charts, c)
}

func (v *recordingView) lastState() types.MiningState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.states) == 0 {
		return types.MiningState{}
	}
	return v.states[len(v.states)-1]
}

func (v *recordingView) counts() (states, stats, charts int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.states), len(v.stats), len(v.charts)
}
