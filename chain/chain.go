// Package chain exposes the slice of block index state the mining panel reads:
// the tip, the predecessor relation and the compact targets, plus the
// arithmetic derived from them.
package chain

import (
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// DefaultPowLimitBits is the compact form of the highest allowed target.
const DefaultPowLimitBits uint32 = 0x1d00ffff

var ErrNoTip = errors.New("chain has no tip")

// Block is the part of a block index entry the panel needs.
type Block struct {
	Hash      chainhash.Hash
	PrevHash  *chainhash.Hash
	Height    int32
	Bits      uint32
	Timestamp time.Time
}

// View walks the active chain from its tip towards genesis.
type View interface {
	// Tip returns the best block or ErrNoTip.
	Tip() (*Block, error)
	// Predecessor returns the parent of b, or nil when b is the genesis block.
	Predecessor(b *Block) (*Block, error)
}

// HashrateEstimator estimates the network hashrate from the lookback blocks
// ending at height. A negative height means the tip.
type HashrateEstimator interface {
	NetworkHashrate(lookback int, height int32) (int64, error)
}

// Target expands a compact target.
func Target(bits uint32) *big.Int {
	return blockchain.CompactToBig(bits)
}

// Difficulty returns how many times harder bits is than the pow limit.
func Difficulty(bits, powLimitBits uint32) float64 {
	max := blockchain.CompactToBig(powLimitBits)
	target := blockchain.CompactToBig(bits)
	if target.Sign() <= 0 {
		return 0
	}

	difficulty := new(big.Rat).SetFrac(max, target)
	diff, err := strconv.ParseFloat(difficulty.FloatString(8), 64)
	if err != nil {
		return 0
	}
	return diff
}

// Walk follows predecessors from the tip for at most window blocks and returns
// them in ascending height order. A chain shorter than window yields exactly
// its own length.
func Walk(v View, window int) ([]*Block, error) {
	if window <= 0 {
		return nil, nil
	}
	tip, err := v.Tip()
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return nil, ErrNoTip
	}

	buf := make([]*Block, window)
	i := window
	for itr := tip; itr != nil && i > 0; {
		i--
		buf[i] = itr
		if i == 0 {
			break
		}
		if itr, err = v.Predecessor(itr); err != nil {
			return nil, err
		}
	}
	return buf[i:], nil
}

// EstimateHashrate computes hashes per second over blocks, which must be
// consecutive and in ascending height order. The first block only contributes
// its timestamp.
func EstimateHashrate(blocks []*Block) int64 {
	if len(blocks) < 2 {
		return 0
	}
	minTimestamp := blocks[0].Timestamp
	maxTimestamp := minTimestamp
	totalWork := new(big.Int)
	for _, b := range blocks[1:] {
		totalWork.Add(totalWork, blockchain.CalcWork(b.Bits))
		if b.Timestamp.Before(minTimestamp) {
			minTimestamp = b.Timestamp
		}
		if b.Timestamp.After(maxTimestamp) {
			maxTimestamp = b.Timestamp
		}
	}

	timeDiff := int64(maxTimestamp.Sub(minTimestamp) / time.Second)
	if timeDiff <= 0 {
		return 0
	}
	return new(big.Int).Quo(totalWork, big.NewInt(timeDiff)).Int64()
}
