package aptos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildOptions(t *testing.T) {
	opts, err := parseBuildOptions(nil)
	require.NoError(t, err)
	assert.Nil(t, opts.sequenceNumber)
	assert.Nil(t, opts.chainId)
	assert.Equal(t, DefaultMaxGasAmount, opts.maxGasAmount)
	assert.Equal(t, DefaultGasUnitPrice, opts.gasUnitPrice)
	now := time.Unix(1_000, 0)
	assert.Equal(t, uint64(1_600), opts.expirationFrom(now))

	opts, err = parseBuildOptions([]any{
		SequenceNumber(3),
		ChainIdOption(2),
		MaxGasAmount(50),
		GasUnitPrice(150),
		TimeToLive(time.Minute),
		EstimateGasUnitPrice(true),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), *opts.sequenceNumber)
	assert.Equal(t, uint8(2), *opts.chainId)
	assert.Equal(t, uint64(50), opts.maxGasAmount)
	assert.Equal(t, uint64(150), opts.gasUnitPrice)
	assert.True(t, opts.estimateGasUnitPrice)
	assert.Equal(t, uint64(1_060), opts.expirationFrom(now))

	// absolute expiration wins over time to live
	opts, err = parseBuildOptions([]any{TimeToLive(time.Minute), ExpirationSeconds(5_000)})
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), opts.expirationFrom(now))
}

func TestParseBuildOptions_Invalid(t *testing.T) {
	_, err := parseBuildOptions([]any{uint64(3)})
	assert.ErrorContains(t, err, "bad type")
	_, err = parseBuildOptions([]any{ExpirationSeconds(-1)})
	assert.Error(t, err)
	_, err = parseBuildOptions([]any{TimeToLive(0)})
	assert.Error(t, err)
}

func TestParsePollOptions(t *testing.T) {
	opts, err := parsePollOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPollPeriod, opts.period)
	assert.Equal(t, DefaultPollTimeout, opts.timeout)

	opts, err = parsePollOptions([]any{PollPeriod(time.Millisecond), PollTimeout(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, opts.period)
	assert.Equal(t, time.Second, opts.timeout)

	// non-positive values take the defaults
	opts, err = parsePollOptions([]any{PollPeriod(0), PollTimeout(-time.Second)})
	require.NoError(t, err)
	assert.Equal(t, DefaultPollPeriod, opts.period)
	assert.Equal(t, DefaultPollTimeout, opts.timeout)

	_, err = parsePollOptions([]any{MaxGasAmount(1)})
	assert.Error(t, err)
}
