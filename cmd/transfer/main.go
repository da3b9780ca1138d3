// transfer runs AptosCoin transfers against a node, recording them in a local journal.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	aptos "github.com/sidkris/aptos-transfer"
	"github.com/sidkris/aptos-transfer/internal/config"
	"github.com/sidkris/aptos-transfer/internal/journal"
	"github.com/sidkris/aptos-transfer/internal/logging"
	"github.com/sidkris/aptos-transfer/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagConfig          = "config"
	flagNetwork         = "network"
	flagNodeUrl         = "node-url"
	flagFaucetUrl       = "faucet-url"
	flagChainId         = "chain-id"
	flagJournal         = "journal"
	flagLogLevel        = "log-level"
	flagLogFormatter    = "log-formatter"
	flagMetricsTextfile = "metrics-textfile"
)

// app is the state shared by the subcommands, filled in before any of them runs
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	closers  []io.Closer

	// bindings maps a subcommand's flags to config keys, bound only when that subcommand runs since run and send
	// share keys
	bindings map[*cobra.Command]map[string]string
}

func newApp() *app {
	return &app{
		v:        config.New(),
		logger:   zerolog.Nop(),
		registry: prometheus.NewRegistry(),
		bindings: make(map[*cobra.Command]map[string]string),
	}
}

func (a *app) setup(configFile string) error {
	cfg, err := config.Load(a.v, configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

func (a *app) close() {
	if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
			a.logger.Warn().Err(err).Str("file", a.cfg.Metrics.Textfile).Msg("Failed to write metrics")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// network turns the configured network into a client config.  A known name supplies the defaults the other
// settings override; any other name needs a node url.
func (a *app) network() (aptos.NetworkConfig, error) {
	return resolveNetwork(a.cfg.Network)
}

func resolveNetwork(settings config.Network) (aptos.NetworkConfig, error) {
	network, ok := aptos.NamedNetworks[settings.Name]
	if !ok {
		if settings.NodeUrl == "" {
			return aptos.NetworkConfig{}, errors.Errorf("unknown network %q and no node url", settings.Name)
		}
		network = aptos.NetworkConfig{Name: settings.Name}
	}
	if settings.NodeUrl != "" {
		network.NodeUrl = settings.NodeUrl
	}
	if settings.FaucetUrl != "" {
		network.FaucetUrl = settings.FaucetUrl
	}
	if settings.ChainId != 0 {
		network.ChainId = settings.ChainId
	}
	return network, nil
}

func (a *app) client() (*aptos.Client, error) {
	network, err := a.network()
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("network", network.Name).Str("node", network.NodeUrl).Msg("Connecting")
	return aptos.NewClient(network)
}

// journal opens the configured journal, nil when none is configured
func (a *app) journal() (*journal.Journal, error) {
	if a.cfg.Journal.Dir == "" {
		return nil, nil
	}
	j, err := journal.Open(a.cfg.Journal.Dir, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, j)
	return j, nil
}

func (a *app) flow(client *aptos.Client) (*aptos.TransferFlow, error) {
	flow := aptos.NewTransferFlow(client, client)
	flow.Logger = a.logger
	flowMetrics, err := metrics.NewFlow(a.registry)
	if err != nil {
		return nil, err
	}
	flow.Metrics = flowMetrics
	j, err := a.journal()
	if err != nil {
		return nil, err
	}
	if j != nil {
		flow.Journal = j
	}
	flow.Provisioner.PollOptions = []any{aptos.PollPeriod(a.cfg.Confirm.PollInterval)}
	if a.cfg.Confirm.Timeout > 0 {
		flow.Provisioner.PollOptions = append(flow.Provisioner.PollOptions, aptos.PollTimeout(a.cfg.Confirm.Timeout))
	}
	return flow, nil
}

func (a *app) transferRequest() aptos.TransferRequest {
	return aptos.TransferRequest{
		MaxGasAmount:            a.cfg.Transfer.MaxGasAmount,
		GasUnitPrice:            a.cfg.Transfer.GasUnitPrice,
		TimeToLive:              a.cfg.Transfer.TTL,
		Simulate:                a.cfg.Transfer.Simulate,
		AbortOnPredictedFailure: a.cfg.Transfer.AbortOnPredictedFailure,
		PollInterval:            a.cfg.Confirm.PollInterval,
		Timeout:                 a.cfg.Confirm.Timeout,
	}
}

func (a *app) bindFlag(cmd *cobra.Command, key string, flag string) {
	if a.bindings[cmd] == nil {
		a.bindings[cmd] = make(map[string]string)
	}
	a.bindings[cmd][key] = flag
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "transfer",
		Short:         "Move AptosCoin between accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range a.bindings[cmd] {
				if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			configFile, err := cmd.Flags().GetString(flagConfig)
			if err != nil {
				return err
			}
			return a.setup(configFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "config file path")
	flags.String(flagNetwork, "", "devnet, testnet, localnet or a custom name")
	flags.String(flagNodeUrl, "", "node REST url, e.g. http://127.0.0.1:8080/v1")
	flags.String(flagFaucetUrl, "", "faucet url")
	flags.Uint8(flagChainId, 0, "chain id, fetched from the node when 0")
	flags.String(flagJournal, "", "journal directory, no journal when empty")
	flags.String(flagLogLevel, "", "debug, info, warn or error")
	flags.String(flagLogFormatter, "", "console, console_no_color or json")
	flags.String(flagMetricsTextfile, "", "write stage metrics to this file")
	for key, flag := range map[string]string{
		config.KeyNetworkName:     flagNetwork,
		config.KeyNodeUrl:         flagNodeUrl,
		config.KeyFaucetUrl:       flagFaucetUrl,
		config.KeyChainId:         flagChainId,
		config.KeyJournalDir:      flagJournal,
		config.KeyLogLevel:        flagLogLevel,
		config.KeyLogFormatter:    flagLogFormatter,
		config.KeyMetricsTextfile: flagMetricsTextfile,
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		runCommand(a),
		sendCommand(a),
		balanceCommand(a),
		statusCommand(a),
		historyCommand(a),
	)
	return rootCmd
}

func main() {
	cobra.EnableCommandSorting = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
