// Package clients provides the connections towards the node that runs the
// miner threads and holds the wallet.
package clients

import (
	"context"

	"github.com/AGPFMiner/gapminer/mining"
)

// Client defines the interface for a connection to a node.
type Client interface {
	mining.Backend
	// MiningInfo reports what the node itself believes about its miner.
	MiningInfo(ctx context.Context) (MiningInfo, error)
	Shutdown()
}

type MiningInfo struct {
	Generate        bool    `json:"generate"`
	GenProcLimit    int32   `json:"genproclimit"`
	HashesPerSec    float64 `json:"hashespersec"`
	TestsPerSec     float64 `json:"testspersec"`
	NetworkHashPS   float64 `json:"networkhashps"`
	Difficulty      float64 `json:"difficulty"`
	Blocks          int64   `json:"blocks"`
	PooledTx        uint64  `json:"pooledtx"`
	CurrentBlockTx  uint64  `json:"currentblocktx"`
	CurrentBlockWgt uint64  `json:"currentblockweight"`
}

// noopUnlock is handed out when the wallet needs no unlocking.
type noopUnlock struct{}

func (noopUnlock) Release() error { return nil }

// NoopUnlock returns an unlock whose Release does nothing.
func NoopUnlock() mining.Unlock { return noopUnlock{} }
