package statistics

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedBlockTimeZeroHashrate(t *testing.T) {
	secs, ok := ExpectedBlockTime(big.NewInt(1), 0)
	assert.False(t, ok)
	assert.Nil(t, secs)
	assert.Equal(t, "∞", FormatETA(secs, ok))
}

func TestExpectedBlockTimeZeroTarget(t *testing.T) {
	_, ok := ExpectedBlockTime(new(big.Int), 1000)
	assert.False(t, ok)
	_, ok = ExpectedBlockTime(nil, 1000)
	assert.False(t, ok)
}

func TestExpectedBlockTime130Seconds(t *testing.T) {
	target := new(big.Int).Quo(twoTo256, big.NewInt(130))
	secs, ok := ExpectedBlockTime(target, 1)
	require.True(t, ok)
	assert.Equal(t, int64(130), secs.Int64())
	assert.Equal(t, "2 minutes 10 seconds", FormatETA(secs, ok))
}

func TestExpectedBlockTimeFromCompact(t *testing.T) {
	target := blockchain.CompactToBig(0x1d00ffff)
	secs, ok := ExpectedBlockTime(target, 7158388)
	require.True(t, ok)

	want := new(big.Int).Quo(twoTo256, new(big.Int).Mul(target, big.NewInt(7158388)))
	assert.Equal(t, 0, want.Cmp(secs))
	assert.Equal(t, int64(600), secs.Int64())
}

func TestExpectedBlockTimeDoesNotOverflow(t *testing.T) {
	secs, ok := ExpectedBlockTime(big.NewInt(1), 1)
	require.True(t, ok)
	assert.Equal(t, 0, secs.Cmp(twoTo256))
	assert.Contains(t, FormatETA(secs, ok), "years")
}
