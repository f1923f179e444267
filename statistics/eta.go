package statistics

import "math/big"

var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

// ExpectedBlockTime returns 2^256 / (target * hashrate) in seconds. ok is false
// when either factor is zero, i.e. the wait is unbounded.
func ExpectedBlockTime(target *big.Int, hashrate int64) (seconds *big.Int, ok bool) {
	if hashrate <= 0 || target == nil || target.Sign() <= 0 {
		return nil, false
	}
	denom := new(big.Int).Mul(target, big.NewInt(hashrate))
	return new(big.Int).Quo(twoTo256, denom), true
}

// FormatETA renders an expected block time, using the infinity sign when
// there is no bound.
func FormatETA(seconds *big.Int, ok bool) string {
	if !ok {
		return "∞"
	}
	return FormatTimeInterval(seconds)
}
