// Package node talks to a running node over its JSON-RPC interface.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AGPFMiner/gapminer/chain"
	"github.com/AGPFMiner/gapminer/clients"
	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/types"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"go.uber.org/zap"
)

// DefaultUnlockTimeout is how long the wallet stays unlocked for mining when
// the configuration does not say otherwise.
const DefaultUnlockTimeout = 24 * time.Hour

// Client implements clients.Client on top of rpcclient in HTTP POST mode.
type Client struct {
	rpc           *rpcclient.Client
	prompt        mining.PassphrasePrompt
	unlockTimeout time.Duration
	logger        *zap.Logger
}

var _ clients.Client = (*Client)(nil)

// New connects to the node described by cfg. prompt is asked for the wallet
// passphrase when mining needs an unlock; it may be nil when cfg carries a
// static passphrase.
func New(cfg types.NodeConfig, prompt mining.PassphrasePrompt, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   cfg.DisableTLS,
	}
	if !cfg.DisableTLS && cfg.Cert != "" {
		certs, err := os.ReadFile(cfg.Cert)
		if err != nil {
			return nil, fmt.Errorf("read rpc cert: %w", err)
		}
		connCfg.Certificates = certs
	}

	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Host, err)
	}

	if prompt == nil && cfg.WalletPassphrase != "" {
		pass := cfg.WalletPassphrase
		prompt = mining.PromptFunc(func(context.Context) (string, error) {
			return pass, nil
		})
	}
	timeout := cfg.UnlockTimeout
	if timeout <= 0 {
		timeout = DefaultUnlockTimeout
	}

	return &Client{
		rpc:           rpc,
		prompt:        prompt,
		unlockTimeout: timeout,
		logger:        logger,
	}, nil
}

func (c *Client) Generate(enable bool, threads int) error {
	c.logger.Debug("setgenerate", zap.Bool("enable", enable), zap.Int("threads", threads))
	if err := c.rpc.SetGenerate(enable, threads); err != nil {
		return fmt.Errorf("setgenerate: %w", err)
	}
	return nil
}

func (c *Client) HashesPerSec() (float64, error) {
	hps, err := c.rpc.GetHashesPerSec()
	if err != nil {
		return 0, fmt.Errorf("gethashespersec: %w", err)
	}
	return float64(hps), nil
}

// TestsPerSec reads the prime test rate from getmininginfo. Nodes that do not
// report it yield zero.
func (c *Client) TestsPerSec() (float64, error) {
	info, err := c.MiningInfo(context.Background())
	if err != nil {
		return 0, err
	}
	return info.TestsPerSec, nil
}

func (c *Client) MiningInfo(ctx context.Context) (clients.MiningInfo, error) {
	var info clients.MiningInfo
	raw, err := c.rpc.RawRequest("getmininginfo", nil)
	if err != nil {
		return info, fmt.Errorf("getmininginfo: %w", err)
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, fmt.Errorf("decode getmininginfo: %w", err)
	}
	return info, nil
}

func (c *Client) NetworkHashrate(lookback int, height int32) (int64, error) {
	hps, err := c.rpc.GetNetworkHashPS3(lookback, int(height))
	if err != nil {
		return 0, fmt.Errorf("getnetworkhashps %d %d: %w", lookback, height, err)
	}
	return hps, nil
}

func (c *Client) Tip() (*chain.Block, error) {
	hash, err := c.rpc.GetBestBlockHash()
	if err != nil {
		return nil, fmt.Errorf("getbestblockhash: %w", err)
	}
	if hash == nil {
		return nil, chain.ErrNoTip
	}
	return c.header(hash)
}

func (c *Client) Predecessor(b *chain.Block) (*chain.Block, error) {
	if b == nil || b.PrevHash == nil {
		return nil, nil
	}
	return c.header(b.PrevHash)
}

func (c *Client) header(hash *chainhash.Hash) (*chain.Block, error) {
	res, err := c.rpc.GetBlockHeaderVerbose(hash)
	if err != nil {
		return nil, fmt.Errorf("getblockheader %s: %w", hash, err)
	}
	return blockFromHeader(res)
}

func blockFromHeader(res *btcjson.GetBlockHeaderVerboseResult) (*chain.Block, error) {
	hash, err := chainhash.NewHashFromStr(res.Hash)
	if err != nil {
		return nil, fmt.Errorf("block hash %q: %w", res.Hash, err)
	}
	bits, err := strconv.ParseUint(res.Bits, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("block %s bits %q: %w", res.Hash, res.Bits, err)
	}
	b := &chain.Block{
		Hash:      *hash,
		Height:    res.Height,
		Bits:      uint32(bits),
		Timestamp: time.Unix(res.Time, 0),
	}
	if res.PreviousHash != "" {
		prev, err := chainhash.NewHashFromStr(res.PreviousHash)
		if err != nil {
			return nil, fmt.Errorf("block %s prev %q: %w", res.Hash, res.PreviousHash, err)
		}
		b.PrevHash = prev
	}
	return b, nil
}

type walletInfo struct {
	UnlockedUntil *int64 `json:"unlocked_until"`
}

func (c *Client) walletInfo() (info walletInfo, err error) {
	raw, err := c.rpc.RawRequest("getwalletinfo", nil)
	if err != nil {
		return info, fmt.Errorf("getwalletinfo: %w", err)
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return info, fmt.Errorf("decode getwalletinfo: %w", err)
	}
	return info, nil
}

// RequestUnlock unlocks an encrypted, locked wallet with the passphrase from
// the prompt. Unencrypted or already unlocked wallets get a no-op handle so
// that releasing it never locks a wallet this client did not unlock.
func (c *Client) RequestUnlock(ctx context.Context) (mining.Unlock, error) {
	info, err := c.walletInfo()
	if err != nil {
		return nil, err
	}
	if info.UnlockedUntil == nil {
		return clients.NoopUnlock(), nil
	}
	if *info.UnlockedUntil > time.Now().Unix() {
		return clients.NoopUnlock(), nil
	}

	if c.prompt == nil {
		return nil, fmt.Errorf("no passphrase source: %w", mining.ErrUnlockDeclined)
	}
	pass, err := c.prompt.Passphrase(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.rpc.WalletPassphrase(pass, int64(c.unlockTimeout/time.Second)); err != nil {
		return nil, fmt.Errorf("walletpassphrase: %w", err)
	}
	c.logger.Info("wallet unlocked for mining", zap.Duration("timeout", c.unlockTimeout))
	return &walletUnlock{c: c}, nil
}

type walletUnlock struct {
	c    *Client
	once sync.Once
	err  error
}

// Active reports whether the wallet is still unlocked. It turns false once
// the unlock timeout passes and the node relocks on its own.
func (u *walletUnlock) Active() (bool, error) {
	info, err := u.c.walletInfo()
	if err != nil {
		return false, err
	}
	if info.UnlockedUntil == nil {
		return true, nil
	}
	return *info.UnlockedUntil > time.Now().Unix(), nil
}

func (u *walletUnlock) Release() error {
	u.once.Do(func() {
		if err := u.c.rpc.WalletLock(); err != nil {
			u.err = fmt.Errorf("walletlock: %w", err)
			return
		}
		u.c.logger.Info("wallet locked")
	})
	return u.err
}

func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}
