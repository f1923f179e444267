package types

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Input ranges accepted for the sieve parameters.
const (
	MinHeaderShift = 14
	MaxHeaderShift = 512
	MinSieveSize   = 1000
	MaxSieveSize   = 33554432
	MinSievePrimes = 1000
	MaxSievePrimes = 900000
)

var ErrInvalidSieveParams = errors.New("invalid sieve parameters")

// SieveParams are the tunables of the prime gap search. They are opaque to the
// panel and only travel to the status line and the mining backend.
type SieveParams struct {
	HeaderShift int `json:"shift" mapstructure:"shift"`
	SieveSize   int `json:"sievesize" mapstructure:"sievesize"`
	SievePrimes int `json:"sieveprimes" mapstructure:"sieveprimes"`
}

func (p SieveParams) Validate() error {
	switch {
	case p.HeaderShift < MinHeaderShift || p.HeaderShift > MaxHeaderShift:
		return fmt.Errorf("%w: shift %d not in [%d,%d]", ErrInvalidSieveParams,
			p.HeaderShift, MinHeaderShift, MaxHeaderShift)
	case p.SieveSize < MinSieveSize || p.SieveSize > MaxSieveSize:
		return fmt.Errorf("%w: sieve size %d not in [%d,%d]", ErrInvalidSieveParams,
			p.SieveSize, MinSieveSize, MaxSieveSize)
	case p.SievePrimes < MinSievePrimes || p.SievePrimes > MaxSievePrimes:
		return fmt.Errorf("%w: sieve primes %d not in [%d,%d]", ErrInvalidSieveParams,
			p.SievePrimes, MinSievePrimes, MaxSievePrimes)
	}
	return nil
}

// SieveSizeForShift is the sieve size that goes with a header shift: 2^shift,
// capped at MaxSieveSize.
func SieveSizeForShift(shift int) int {
	if shift < 0 {
		return MinSieveSize
	}
	if shift >= 25 {
		return MaxSieveSize
	}
	size := 1 << uint(shift)
	if size < MinSieveSize {
		return MinSieveSize
	}
	return size
}

// WithDerivedSize fills a missing sieve size from the header shift.
func (p SieveParams) WithDerivedSize() SieveParams {
	if p.SieveSize == 0 {
		p.SieveSize = SieveSizeForShift(p.HeaderShift)
	}
	return p
}

type MiningConfig struct {
	Threads      int  `json:"threads"`
	MaxThreads   int  `json:"maxthreads"`
	HasMiningKey bool `json:"miningkey"`
	SieveParams
}

// MiningState is what the controller publishes after every transition.
type MiningState struct {
	Mining      bool `json:"mining"`
	Threads     int  `json:"threads"`
	MaxThreads  int  `json:"maxthreads"`
	HoldsUnlock bool `json:"holdsunlock"`
}

// ETA is the expected time to the next block. Seconds is nil when Infinite.
type ETA struct {
	Infinite bool     `json:"infinite"`
	Seconds  *big.Int `json:"seconds,omitempty"`
}

type StatsSnapshot struct {
	YourHashrate        int64     `json:"yourhashrate"`
	NetworkHashrate     int64     `json:"networkhashrate"`
	TestsPerSec         float64   `json:"testspersec"`
	ETA                 ETA       `json:"eta"`
	YourHashrateText    string    `json:"yourhashratetext"`
	NetworkHashrateText string    `json:"networkhashratetext"`
	NextBlockText       string    `json:"nextblock"`
	StatusText          string    `json:"status"`
	Mining              bool      `json:"mining"`
	Threads             int       `json:"threads"`
	TipHeight           int32     `json:"tipheight"`
	SampledAt           time.Time `json:"sampledat"`
}

type ChartPoint struct {
	Height int32   `json:"height"`
	Value  float64 `json:"value"`
}

type ChartSeries struct {
	Label  string       `json:"label"`
	Points []ChartPoint `json:"points"`
	XMin   float64      `json:"xmin"`
	XMax   float64      `json:"xmax"`
	YMin   float64      `json:"ymin"`
	YMax   float64      `json:"ymax"`
}

type Charts struct {
	Difficulty ChartSeries `json:"difficulty"`
	Hashrate   ChartSeries `json:"hashrate"`
	TipHeight  int32       `json:"tipheight"`
	UpdatedAt  time.Time   `json:"updatedat"`
}

type PanelStatus struct {
	State          MiningState    `json:"state"`
	Stats          *StatsSnapshot `json:"stats,omitempty"`
	ChartTip       int32          `json:"charttip"`
	ChartAge       string         `json:"chartage,omitempty"`
	RecentHashrate []float64      `json:"recenthashrate"`
	Uptime         string         `json:"uptime"`
	Time           int64          `json:"time"`
}
