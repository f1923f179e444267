package miner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/statistics"
	"github.com/AGPFMiner/gapminer/types"

	"github.com/hako/durafmt"
	"go.uber.org/zap"
)

const (
	DefaultStatsInterval = 8 * time.Second

	// recentHashrateLen is ten minutes of samples at the default tick.
	recentHashrateLen = 75
)

var ErrStopped = errors.New("miner loop stopped")

// View receives everything the miner publishes. Calls arrive on the event
// loop goroutine and must return quickly.
type View interface {
	ShowState(types.MiningState)
	ShowStats(types.StatsSnapshot)
	ShowCharts(types.Charts)
}

type Options struct {
	StatsInterval    time.Duration
	HashrateLookback int
	// Generate starts mining as soon as the loop runs.
	Generate bool
	Chart    ChartOptions
}

// ReloadArgs are the settings that can change while the loop runs.
type ReloadArgs struct {
	LogLevel      string
	Chart         bool
	MaxThreads    int
	Sieve         types.SieveParams
	StatsInterval time.Duration
}

type intent struct {
	name  string
	ctx   context.Context
	fn    func(ctx context.Context) error
	reply chan error
}

// Miner do everything: it owns the controller, the sampler and the chart
// feeder and drives them from a single goroutine.
type Miner struct {
	controller *Controller
	sampler    *Sampler
	feeder     *ChartFeeder
	logger     *zap.Logger

	statsInterval time.Duration
	resetTicker   bool
	generate      bool
	started       time.Time

	intents chan intent
	done    chan struct{}

	mu      sync.RWMutex
	state   types.MiningState
	stats   *types.StatsSnapshot
	charts  *types.Charts
	history statistics.HashRate
	views   []View
}

func New(args mining.MinerArgs, opts Options) *Miner {
	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
		args.Logger = logger
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = DefaultStatsInterval
	}
	m := &Miner{
		controller:    NewController(args),
		sampler:       NewSampler(args, opts.HashrateLookback),
		feeder:        NewChartFeeder(args, opts.Chart),
		logger:        logger.Named("miner"),
		statsInterval: opts.StatsInterval,
		generate:      opts.Generate,
		started:       time.Now(),
		intents:       make(chan intent),
		done:          make(chan struct{}),
	}
	m.state = m.controller.State()
	m.controller.OnStateChange(m.publishState)
	return m
}

// AddView registers v. It immediately receives the current state and
// whatever stats and charts are cached.
func (m *Miner) AddView(v View) {
	m.mu.Lock()
	m.views = append(m.views, v)
	st := m.state
	var stats *types.StatsSnapshot
	if m.stats != nil {
		s := m.stats.Clone()
		stats = &s
	}
	var charts *types.Charts
	if m.charts != nil {
		c, err := m.charts.Clone()
		if err != nil {
			m.logger.Warn("chart copy failed", zap.Error(err))
		} else {
			charts = &c
		}
	}
	m.mu.Unlock()

	v.ShowState(st)
	if stats != nil {
		v.ShowStats(*stats)
	}
	if charts != nil {
		v.ShowCharts(*charts)
	}
}

// Run is the event loop. It returns when ctx is done, stopping the miner if
// it is still running.
func (m *Miner) Run(ctx context.Context) error {
	defer close(m.done)

	if m.generate {
		cfg := m.controller.Config()
		if err := m.controller.Start(ctx, cfg.Threads); err != nil {
			m.logger.Warn("start at launch failed", zap.Error(err))
		}
	}
	m.tick(ctx)

	ticker := time.NewTicker(m.statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case <-ticker.C:
			m.tick(ctx)
		case in := <-m.intents:
			err := m.apply(ctx, in)
			if err != nil {
				m.logger.Debug("intent failed", zap.String("intent", in.name), zap.Error(err))
			} else {
				m.sample()
			}
			if m.resetTicker {
				ticker.Reset(m.statsInterval)
				m.resetTicker = false
			}
			in.reply <- err
		}
	}
}

// apply runs one intent under the caller's context, cancelled early when
// the loop itself is stopping so a pending prompt cannot hold it open.
func (m *Miner) apply(loop context.Context, in intent) error {
	ictx, cancel := context.WithCancel(in.ctx)
	defer cancel()
	stop := context.AfterFunc(loop, cancel)
	defer stop()
	return in.fn(ictx)
}

func (m *Miner) shutdown() {
	if m.controller.State().Mining {
		if err := m.controller.Stop(context.Background()); err != nil {
			m.logger.Warn("stop on exit failed", zap.Error(err))
		}
	}
	m.logger.Info("miner loop exited",
		zap.String("uptime", humanDuration(time.Since(m.started))))
}

func (m *Miner) tick(ctx context.Context) {
	m.sample()
	m.refreshCharts(ctx)
}

func (m *Miner) sample() {
	m.controller.CheckUnlock()
	cfg := m.controller.Config()
	snap, err := m.sampler.Sample(m.controller.State(), cfg.SieveParams)
	if err != nil {
		m.logger.Warn("stats sample failed, keeping previous values", zap.Error(err))
		return
	}
	snap.SampledAt = time.Now()

	m.mu.Lock()
	m.stats = &snap
	m.history.Add(float64(snap.YourHashrate))
	views := m.views
	m.mu.Unlock()

	for _, v := range views {
		v.ShowStats(snap.Clone())
	}
}

func (m *Miner) refreshCharts(ctx context.Context) {
	charts, walked, err := m.feeder.Refresh(ctx)
	if err != nil {
		m.logger.Warn("chart refresh failed", zap.Error(err))
		return
	}
	if !walked {
		return
	}

	m.mu.Lock()
	m.charts = &charts
	views := m.views
	m.mu.Unlock()

	for _, v := range views {
		c, err := charts.Clone()
		if err != nil {
			m.logger.Warn("chart copy failed", zap.Error(err))
			return
		}
		v.ShowCharts(c)
	}
}

func (m *Miner) publishState(st types.MiningState) {
	m.mu.Lock()
	m.state = st
	views := m.views
	m.mu.Unlock()

	for _, v := range views {
		v.ShowState(st)
	}
}

// submit runs fn on the loop goroutine and waits for its result.
func (m *Miner) submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	in := intent{name: name, ctx: ctx, fn: fn, reply: make(chan error, 1)}
	select {
	case m.intents <- in:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
	select {
	case err := <-in.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrStopped
	}
}

// Start begins mining with the current thread count.
func (m *Miner) Start(ctx context.Context) error {
	return m.submit(ctx, "start", func(ctx context.Context) error {
		return m.controller.Start(ctx, m.controller.Config().Threads)
	})
}

func (m *Miner) Stop(ctx context.Context) error {
	return m.submit(ctx, "stop", m.controller.Stop)
}

func (m *Miner) Toggle(ctx context.Context) error {
	return m.submit(ctx, "toggle", m.controller.Toggle)
}

func (m *Miner) SetThreads(ctx context.Context, n int) error {
	return m.submit(ctx, "threads", func(ctx context.Context) error {
		return m.controller.SetThreadCount(ctx, n)
	})
}

func (m *Miner) SetSieve(ctx context.Context, p types.SieveParams) error {
	return m.submit(ctx, "sieve", func(ctx context.Context) error {
		return m.controller.SetSieveParams(p)
	})
}

// Refresh samples the stats now instead of waiting for the next tick.
func (m *Miner) Refresh(ctx context.Context) error {
	return m.submit(ctx, "refresh", func(ctx context.Context) error {
		return nil
	})
}

// Reload applies changed settings, typically after the config file changed.
func (m *Miner) Reload(ctx context.Context, args ReloadArgs) error {
	return m.submit(ctx, "reload", func(ctx context.Context) error {
		m.logger.Info("reloading miner")
		SetLogLevel(args.LogLevel)
		m.feeder.SetEnabled(args.Chart)
		if args.StatsInterval > 0 && args.StatsInterval != m.statsInterval {
			m.statsInterval = args.StatsInterval
			m.resetTicker = true
		}
		if args.Sieve != (types.SieveParams{}) {
			if err := m.controller.SetSieveParams(args.Sieve); err != nil {
				return err
			}
		}
		return m.controller.SetMaxThreads(ctx, args.MaxThreads)
	})
}

func (m *Miner) State() types.MiningState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Stats returns the last good snapshot, if any.
func (m *Miner) Stats() (types.StatsSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stats == nil {
		return types.StatsSnapshot{}, false
	}
	return m.stats.Clone(), true
}

func (m *Miner) Charts() (types.Charts, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.charts == nil {
		return types.Charts{}, false
	}
	c, err := m.charts.Clone()
	if err != nil {
		m.logger.Warn("chart copy failed", zap.Error(err))
		return types.Charts{}, false
	}
	return c, true
}

func (m *Miner) Status() types.PanelStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	status := types.PanelStatus{
		State:          m.state,
		RecentHashrate: m.history.Recent(recentHashrateLen),
		Uptime:         humanDuration(now.Sub(m.started)),
		Time:           now.Unix(),
	}
	if m.stats != nil {
		s := m.stats.Clone()
		status.Stats = &s
	}
	if m.charts != nil {
		status.ChartTip = m.charts.TipHeight
		status.ChartAge = humanDuration(now.Sub(m.charts.UpdatedAt))
	}
	return status
}

func humanDuration(d time.Duration) string {
	return durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).String()
}
