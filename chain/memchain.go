package chain

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MemChain is an in-memory active chain. Heights index directly into the
// node slice, as in a flat chain view.
type MemChain struct {
	mtx   sync.RWMutex
	nodes []*Block
}

func NewMemChain() *MemChain {
	return &MemChain{}
}

// Append extends the chain by one block and returns it.
func (c *MemChain) Append(bits uint32, timestamp time.Time) *Block {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	b := &Block{
		Height:    int32(len(c.nodes)),
		Bits:      bits,
		Timestamp: timestamp,
	}
	var seed [48]byte
	if n := len(c.nodes); n > 0 {
		prev := c.nodes[n-1].Hash
		b.PrevHash = &prev
		copy(seed[:32], prev[:])
	}
	binary.LittleEndian.PutUint32(seed[32:], uint32(b.Height))
	binary.LittleEndian.PutUint32(seed[36:], bits)
	binary.LittleEndian.PutUint64(seed[40:], uint64(timestamp.Unix()))
	b.Hash = chainhash.DoubleHashH(seed[:])

	c.nodes = append(c.nodes, b)
	return b
}

func (c *MemChain) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return len(c.nodes)
}

func (c *MemChain) Tip() (*Block, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if len(c.nodes) == 0 {
		return nil, ErrNoTip
	}
	return c.nodes[len(c.nodes)-1], nil
}

func (c *MemChain) Predecessor(b *Block) (*Block, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.nodeByHeight(b.Height - 1), nil
}

// NodeByHeight returns the block at height, or nil if there is none.
func (c *MemChain) NodeByHeight(height int32) *Block {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.nodeByHeight(height)
}

// This function MUST be called with the chain mutex held (for reads).
func (c *MemChain) nodeByHeight(height int32) *Block {
	if height < 0 || height >= int32(len(c.nodes)) {
		return nil
	}
	return c.nodes[height]
}

// NetworkHashrate implements HashrateEstimator over the stored blocks.
func (c *MemChain) NetworkHashrate(lookback int, height int32) (int64, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	if len(c.nodes) == 0 {
		return 0, ErrNoTip
	}
	endHeight := int32(len(c.nodes) - 1)
	if height >= 0 && height < endHeight {
		endHeight = height
	}
	startHeight := int32(0)
	if lookback > 0 {
		startHeight = endHeight - int32(lookback)
		if startHeight < 0 {
			startHeight = 0
		}
	}
	return EstimateHashrate(c.nodes[startHeight : endHeight+1]), nil
}
