package miner

import (
	"context"
	"errors"
	"fmt"

	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"

	"go.uber.org/zap"
)

// Controller owns the mining on/off state, the desired thread count and the
// wallet unlock held while mining. It is not safe for concurrent use; the
// Miner event loop serializes all calls.
type Controller struct {
	cfg    types.MiningConfig
	mining bool
	unlock mining.Unlock

	gen    mining.Generator
	wallet mining.Wallet
	logger *zap.Logger

	listeners []func(types.MiningState)
}

func NewController(args mining.MinerArgs) *Controller {
	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		cfg:    args.Mining,
		gen:    args.Generator,
		wallet: args.Wallet,
		logger: logger.Named("controller"),
	}
	if c.cfg.MaxThreads < 0 {
		c.cfg.MaxThreads = 0
	}
	c.cfg.Threads = c.clamp(c.cfg.Threads)
	return c
}

// OnStateChange registers fn to receive every published state.
func (c *Controller) OnStateChange(fn func(types.MiningState)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) State() types.MiningState {
	return types.MiningState{
		Mining:      c.mining,
		Threads:     c.cfg.Threads,
		MaxThreads:  c.cfg.MaxThreads,
		HoldsUnlock: c.unlock != nil,
	}
}

func (c *Controller) Config() types.MiningConfig {
	return c.cfg
}

func (c *Controller) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > c.cfg.MaxThreads {
		return c.cfg.MaxThreads
	}
	return n
}

func (c *Controller) publish() {
	st := c.State()
	for _, fn := range c.listeners {
		fn(st)
	}
}

// SetThreadCount changes the desired thread count. While mining, a changed
// count restarts the miner once with the new value.
func (c *Controller) SetThreadCount(ctx context.Context, n int) error {
	n = c.clamp(n)
	if n == c.cfg.Threads {
		return nil
	}
	if !c.mining {
		c.cfg.Threads = n
		c.publish()
		return nil
	}
	return c.restart(n)
}

// SetMaxThreads applies a new thread limit, shrinking the desired count if
// needed.
func (c *Controller) SetMaxThreads(ctx context.Context, limit int) error {
	if limit < 0 {
		limit = 0
	}
	c.cfg.MaxThreads = limit
	if c.cfg.Threads <= limit {
		c.publish()
		return nil
	}
	if !c.mining {
		c.cfg.Threads = limit
		c.publish()
		return nil
	}
	return c.restart(limit)
}

// SetSieveParams stores new search parameters; a running miner picks them up
// on its next restart. A zero sieve size is derived from the header shift.
func (c *Controller) SetSieveParams(p types.SieveParams) error {
	p = p.WithDerivedSize()
	if err := p.Validate(); err != nil {
		return err
	}
	c.cfg.SieveParams = p
	return nil
}

// Toggle stops a running miner or starts an idle one with the current count.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.mining {
		return c.Stop(ctx)
	}
	return c.Start(ctx, c.cfg.Threads)
}

// Start unlocks the wallet if required and enables mining with threads.
// Starting a running miner restarts it.
func (c *Controller) Start(ctx context.Context, threads int) error {
	threads = c.clamp(threads)
	if c.mining {
		if threads == c.cfg.Threads {
			return nil
		}
		return c.restart(threads)
	}

	acquired := false
	if !c.cfg.HasMiningKey && c.unlock == nil {
		u, err := c.wallet.RequestUnlock(ctx)
		if err != nil {
			if errors.Is(err, mining.ErrUnlockDeclined) {
				c.logger.Info("start aborted, wallet stays locked")
			} else {
				c.logger.Warn("wallet unlock failed", zap.Error(err))
			}
			c.publish()
			return err
		}
		c.unlock = u
		acquired = true
	}

	c.cfg.Threads = threads
	if err := c.gen.Generate(true, threads); err != nil {
		if acquired {
			c.releaseUnlock()
		}
		c.publish()
		return fmt.Errorf("start mining: %w", err)
	}
	c.mining = true
	c.logger.Info("mining started",
		zap.Int("threads", threads),
		zap.Int("shift", c.cfg.HeaderShift),
		zap.Int("sievesize", c.cfg.SieveSize),
		zap.Int("sieveprimes", c.cfg.SievePrimes))
	c.publish()
	return nil
}

// Stop disables mining and, without a dedicated mining key, relocks the
// wallet whether or not the node acknowledged the stop.
func (c *Controller) Stop(ctx context.Context) error {
	err := c.gen.Generate(false, c.cfg.Threads)
	c.mining = false
	if !c.cfg.HasMiningKey {
		c.releaseUnlock()
	}
	c.publish()
	if err != nil {
		return fmt.Errorf("stop mining: %w", err)
	}
	c.logger.Info("mining stopped")
	return nil
}

// restart performs one stop-then-start cycle so the node never sees two
// thread counts at once. The held unlock survives the cycle.
func (c *Controller) restart(threads int) error {
	if err := c.gen.Generate(false, c.cfg.Threads); err != nil {
		c.logger.Warn("stop before restart failed", zap.Error(err))
	}
	c.cfg.Threads = threads
	if err := c.gen.Generate(true, threads); err != nil {
		c.mining = false
		if !c.cfg.HasMiningKey {
			c.releaseUnlock()
		}
		c.publish()
		return fmt.Errorf("restart mining: %w", err)
	}
	c.logger.Info("mining restarted", zap.Int("threads", threads))
	c.publish()
	return nil
}

// CheckUnlock forgets a held unlock the node has already ended, so the next
// start asks for the passphrase again.
func (c *Controller) CheckUnlock() {
	u, ok := c.unlock.(mining.ExpiringUnlock)
	if !ok {
		return
	}
	active, err := u.Active()
	if err != nil {
		c.logger.Debug("wallet unlock check failed", zap.Error(err))
		return
	}
	if active {
		return
	}
	c.logger.Warn("wallet was relocked by the node")
	c.unlock = nil
	c.publish()
}

func (c *Controller) releaseUnlock() {
	if c.unlock == nil {
		return
	}
	if err := c.unlock.Release(); err != nil {
		c.logger.Warn("wallet relock failed", zap.Error(err))
	}
	c.unlock = nil
}
