// Package config loads the transfer settings with viper from defaults, an optional config file, the environment
// (APTOS_TRANSFER_ prefix, dots become underscores) and bound command line flags, in increasing priority.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sidkris/aptos-transfer/internal/logging"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. APTOS_TRANSFER_NETWORK.NODE_URL is read as
// APTOS_TRANSFER_NETWORK_NODE_URL
const EnvPrefix = "APTOS_TRANSFER"

// Keys
const (
	KeyNetworkName      = "network.name"
	KeyNodeUrl          = "network.node_url"
	KeyFaucetUrl        = "network.faucet_url"
	KeyChainId          = "network.chain_id"
	KeyFundAmount       = "transfer.fund_amount"
	KeyTransferAmount   = "transfer.amount"
	KeyMaxGasAmount     = "transfer.max_gas_amount"
	KeyGasUnitPrice     = "transfer.gas_unit_price"
	KeyTimeToLive       = "transfer.ttl"
	KeySimulate         = "transfer.simulate"
	KeyAbortOnPredicted = "transfer.abort_on_predicted_failure"
	KeyPollInterval     = "confirm.poll_interval"
	KeyPollTimeout      = "confirm.timeout"
	KeyJournalDir       = "journal.dir"
	KeyMetricsTextfile  = "metrics.textfile"
	KeyLogLevel         = "log.level"
	KeyLogFormatter     = "log.formatter"
	KeyLogCaller        = "log.caller"
	KeyLogOut           = "log.out"
)

// Network names where to send transactions
type Network struct {
	Name      string `mapstructure:"name"`
	NodeUrl   string `mapstructure:"node_url"`
	FaucetUrl string `mapstructure:"faucet_url"`
	ChainId   uint8  `mapstructure:"chain_id"`
}

// Transfer holds the amounts and gas limits of a transfer
type Transfer struct {
	FundAmount              uint64        `mapstructure:"fund_amount"`
	Amount                  uint64        `mapstructure:"amount"`
	MaxGasAmount            uint64        `mapstructure:"max_gas_amount"`
	GasUnitPrice            uint64        `mapstructure:"gas_unit_price"`
	TTL                     time.Duration `mapstructure:"ttl"`
	Simulate                bool          `mapstructure:"simulate"`
	AbortOnPredictedFailure bool          `mapstructure:"abort_on_predicted_failure"`
}

// Confirm holds the finalization polling settings
type Confirm struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Journal is where submitted transactions are recorded, disabled when Dir is empty
type Journal struct {
	Dir string `mapstructure:"dir"`
}

// Metrics names a file the stage counters are written to after each command, in the prometheus text format.  Empty
// disables it.
type Metrics struct {
	Textfile string `mapstructure:"textfile"`
}

// Config is the complete configuration of the transfer command
type Config struct {
	Network  Network        `mapstructure:"network"`
	Transfer Transfer       `mapstructure:"transfer"`
	Confirm  Confirm        `mapstructure:"confirm"`
	Journal  Journal        `mapstructure:"journal"`
	Metrics  Metrics        `mapstructure:"metrics"`
	Log      logging.Config `mapstructure:"log"`
}

// New returns a viper instance with the defaults and environment binding in place
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the defaults: devnet, 1 APT of funding, a 1000 unit transfer with 2000 gas at 100
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyNetworkName, "devnet")
	v.SetDefault(KeyNodeUrl, "")
	v.SetDefault(KeyFaucetUrl, "")
	v.SetDefault(KeyChainId, 0)
	v.SetDefault(KeyFundAmount, uint64(100_000_000))
	v.SetDefault(KeyTransferAmount, uint64(1_000))
	v.SetDefault(KeyMaxGasAmount, uint64(2_000))
	v.SetDefault(KeyGasUnitPrice, uint64(100))
	v.SetDefault(KeyTimeToLive, 600*time.Second)
	v.SetDefault(KeySimulate, true)
	v.SetDefault(KeyAbortOnPredicted, false)
	v.SetDefault(KeyPollInterval, time.Second)
	v.SetDefault(KeyPollTimeout, 30*time.Second)
	v.SetDefault(KeyJournalDir, "")
	v.SetDefault(KeyMetricsTextfile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormatter, "console")
	v.SetDefault(KeyLogCaller, false)
	v.SetDefault(KeyLogOut, "stderr")
}

// Load reads configFile, if given, and decodes everything v knows into a Config
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %q", configFile)
		}
	}
	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate rejects settings no transfer can run with
func (c *Config) Validate() error {
	switch {
	case c.Transfer.MaxGasAmount == 0:
		return errors.New("transfer.max_gas_amount must be positive")
	case c.Transfer.TTL <= 0:
		return errors.New("transfer.ttl must be positive")
	case c.Confirm.PollInterval <= 0:
		return errors.New("confirm.poll_interval must be positive")
	case c.Confirm.Timeout < 0:
		return errors.New("confirm.timeout must not be negative")
	}
	return nil
}
