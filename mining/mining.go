package mining

import (
	"context"
	"errors"

	"github.com/AGPFMiner/gapminer/chain"
	"github.com/AGPFMiner/gapminer/types"

	"go.uber.org/zap"
)

// ErrUnlockDeclined is returned when the operator refuses to unlock the wallet.
var ErrUnlockDeclined = errors.New("wallet unlock declined")

// Generator is the mining entry point of the node. It is expected to be
// idempotent and safe to call from any goroutine.
type Generator interface {
	Generate(enable bool, threads int) error
}

// HashMeter reports the aggregate counters of the running miner threads.
type HashMeter interface {
	HashesPerSec() (float64, error)
	TestsPerSec() (float64, error)
}

// Unlock is a held wallet unlock. Release relocks the wallet.
type Unlock interface {
	Release() error
}

// ExpiringUnlock is an Unlock the node can end by itself, e.g. when the
// walletpassphrase timeout runs out.
type ExpiringUnlock interface {
	Unlock
	Active() (bool, error)
}

// Wallet hands out unlocks. A wallet that needs no unlock returns a handle
// whose Release does nothing.
type Wallet interface {
	RequestUnlock(ctx context.Context) (Unlock, error)
}

// PassphrasePrompt asks the operator for the wallet passphrase. It returns
// ErrUnlockDeclined when the operator cancels.
type PassphrasePrompt interface {
	Passphrase(ctx context.Context) (string, error)
}

// PromptFunc adapts a function to PassphrasePrompt.
type PromptFunc func(ctx context.Context) (string, error)

func (f PromptFunc) Passphrase(ctx context.Context) (string, error) {
	return f(ctx)
}

// Backend bundles everything the panel needs from the node.
type Backend interface {
	Generator
	HashMeter
	Wallet
	chain.View
	chain.HashrateEstimator
}

type MinerArgs struct {
	Generator Generator
	Meter     HashMeter
	Wallet    Wallet
	Chain     chain.View
	Estimator chain.HashrateEstimator

	Mining types.MiningConfig

	Logger *zap.Logger
}

// ArgsFromBackend fills the collaborator fields of MinerArgs from one backend.
func ArgsFromBackend(b Backend, cfg types.MiningConfig, logger *zap.Logger) MinerArgs {
	return MinerArgs{
		Generator: b,
		Meter:     b,
		Wallet:    b,
		Chain:     b,
		Estimator: b,
		Mining:    cfg,
		Logger:    logger,
	}
}
