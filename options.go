package aptos

import (
	"fmt"
	"time"
)

// Defaults used when an option is not given
const (
	DefaultMaxGasAmount = uint64(2_000)
	DefaultGasUnitPrice = uint64(100)
	DefaultTimeToLive   = 600 * time.Second
	DefaultPollPeriod   = time.Second
	DefaultPollTimeout  = 30 * time.Second
)

// SequenceNumber overrides the sequence number fetched from the ledger
type SequenceNumber uint64

// MaxGasAmount sets the gas ceiling of a transaction, in gas units
type MaxGasAmount uint64

// GasUnitPrice sets the price per gas unit, in base units
type GasUnitPrice uint64

// ExpirationSeconds sets an absolute expiration, unix seconds
type ExpirationSeconds int64

// TimeToLive sets the expiration relative to now
type TimeToLive time.Duration

// ChainIdOption overrides the chain id fetched from the ledger
type ChainIdOption uint8

// PollPeriod is the interval between two status checks, DefaultPollPeriod when not positive
type PollPeriod time.Duration

// PollTimeout is the total time allowed for a transaction to finalize, DefaultPollTimeout when not positive
type PollTimeout time.Duration

// EstimateGasUnitPrice asks the node for a gas unit price instead of using the default
type EstimateGasUnitPrice bool

// buildOptions collects the options accepted by BuildTransaction and friends
type buildOptions struct {
	sequenceNumber       *uint64
	chainId              *uint8
	maxGasAmount         uint64
	gasUnitPrice         uint64
	estimateGasUnitPrice bool
	expiration           *uint64
	ttl                  time.Duration
}

func parseBuildOptions(options []any) (*buildOptions, error) {
	out := &buildOptions{
		maxGasAmount: DefaultMaxGasAmount,
		gasUnitPrice: DefaultGasUnitPrice,
		ttl:          DefaultTimeToLive,
	}
	for i, arg := range options {
		switch value := arg.(type) {
		case SequenceNumber:
			seq := uint64(value)
			out.sequenceNumber = &seq
		case ChainIdOption:
			chainId := uint8(value)
			out.chainId = &chainId
		case MaxGasAmount:
			out.maxGasAmount = uint64(value)
		case GasUnitPrice:
			out.gasUnitPrice = uint64(value)
		case EstimateGasUnitPrice:
			out.estimateGasUnitPrice = bool(value)
		case ExpirationSeconds:
			if value < 0 {
				return nil, fmt.Errorf("option %d: negative expiration %d", i+1, value)
			}
			expiration := uint64(value)
			out.expiration = &expiration
		case TimeToLive:
			if value <= 0 {
				return nil, fmt.Errorf("option %d: time to live must be positive", i+1)
			}
			out.ttl = time.Duration(value)
		default:
			return nil, fmt.Errorf("option %d bad type %T", i+1, arg)
		}
	}
	return out, nil
}

// expirationFrom resolves the absolute expiration against now
func (opts *buildOptions) expirationFrom(now time.Time) uint64 {
	if opts.expiration != nil {
		return *opts.expiration
	}
	return uint64(now.Add(opts.ttl).Unix())
}

// pollOptions collects PollPeriod and PollTimeout
type pollOptions struct {
	period  time.Duration
	timeout time.Duration
}

func parsePollOptions(options []any) (*pollOptions, error) {
	out := &pollOptions{
		period:  DefaultPollPeriod,
		timeout: DefaultPollTimeout,
	}
	for i, arg := range options {
		switch value := arg.(type) {
		case PollPeriod:
			out.period = time.Duration(value)
		case PollTimeout:
			out.timeout = time.Duration(value)
		default:
			return nil, fmt.Errorf("option %d bad type %T", i+1, arg)
		}
	}
	// non-positive values fall back to the defaults
	if out.period <= 0 {
		out.period = DefaultPollPeriod
	}
	if out.timeout <= 0 {
		out.timeout = DefaultPollTimeout
	}
	return out, nil
}
