package types

import (
	"fmt"
	"math/big"

	"github.com/jinzhu/copier"
)

// Clone returns a deep copy so views never share point slices with the feeder.
func (c *Charts) Clone() (out Charts, err error) {
	if c == nil {
		return
	}
	out = *c
	if out.Difficulty.Points, err = clonePoints(c.Difficulty.Points); err != nil {
		return Charts{}, fmt.Errorf("clone difficulty series: %w", err)
	}
	if out.Hashrate.Points, err = clonePoints(c.Hashrate.Points); err != nil {
		return Charts{}, fmt.Errorf("clone hashrate series: %w", err)
	}
	return
}

func clonePoints(src []ChartPoint) (dst []ChartPoint, err error) {
	if src == nil {
		return nil, nil
	}
	err = copier.CopyWithOption(&dst, &src, copier.Option{DeepCopy: true})
	return
}

// Clone copies the snapshot including the ETA big integer.
func (s StatsSnapshot) Clone() StatsSnapshot {
	if s.ETA.Seconds != nil {
		s.ETA.Seconds = new(big.Int).Set(s.ETA.Seconds)
	}
	return s
}
