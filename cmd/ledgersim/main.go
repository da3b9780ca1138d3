// ledgersim serves an in-memory ledger over the node REST API and the faucet's mint endpoint, for running transfers
// without a real network.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sidkris/aptos-transfer/internal/ledgersim"
	"github.com/sidkris/aptos-transfer/internal/logging"
	"github.com/sidkris/aptos-transfer/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagListen       = "listen"
	flagFaucetListen = "faucet-listen"
	flagChainId      = "chain-id"
	flagGasUnitPrice = "gas-unit-price"
	flagCommitDelay  = "commit-delay"
	flagLogLevel     = "log-level"
	flagLogFormatter = "log-formatter"

	shutdownTimeout = 5 * time.Second
)

// newHandler serves the ledger and its metrics
func newHandler(ledger *ledgersim.Ledger, registry *prometheus.Registry) http.Handler {
	router := ledgersim.NewServer(ledger).Router()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return router
}

func serve(ctx context.Context, v *viper.Viper) error {
	logger, closer, err := logging.New(logging.Config{
		Level:     v.GetString(flagLogLevel),
		Formatter: v.GetString(flagLogFormatter),
		Out:       "stderr",
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	registry := prometheus.NewRegistry()
	ledgerMetrics, err := metrics.NewLedger(registry)
	if err != nil {
		return err
	}
	ledger := ledgersim.New(ledgersim.Config{
		ChainId:      uint8(v.GetUint(flagChainId)),
		GasUnitPrice: v.GetUint64(flagGasUnitPrice),
		CommitDelay:  v.GetDuration(flagCommitDelay),
		Logger:       logger,
		Metrics:      ledgerMetrics,
	})
	handler := newHandler(ledger, registry)

	servers := []*http.Server{{Addr: v.GetString(flagListen), Handler: handler}}
	if faucetAddr := v.GetString(flagFaucetListen); faucetAddr != "" && faucetAddr != v.GetString(flagListen) {
		servers = append(servers, &http.Server{Addr: faucetAddr, Handler: handler})
	}

	errs := make(chan error, len(servers))
	for _, server := range servers {
		go func(server *http.Server) {
			logger.Info().Str("addr", server.Addr).Uint8("chainId", ledger.ChainId()).Msg("Starting ledger simulator")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- errors.Wrapf(err, "serve %s", server.Addr)
			}
		}(server)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	case err = <-errs:
		logger.Error().Err(err).Msg("Server failed")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, server := range servers {
		_ = server.Shutdown(shutdownCtx)
	}
	return err
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LEDGERSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:          "ledgersim",
		Short:        "Serve an in-memory Aptos-like ledger with a faucet",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), v)
		},
	}
	cmd.Flags().String(flagListen, ":8080", "node API address")
	cmd.Flags().String(flagFaucetListen, ":8081", "faucet address, the node API address serves the faucet too")
	cmd.Flags().Uint8(flagChainId, 4, "chain id")
	cmd.Flags().Uint64(flagGasUnitPrice, 100, "gas unit price charged, in octas")
	cmd.Flags().Duration(flagCommitDelay, 0, "time between submission and commit")
	cmd.Flags().String(flagLogLevel, zerolog.LevelInfoValue, "debug, info, warn or error")
	cmd.Flags().String(flagLogFormatter, logging.FormatterConsole, "console, console_no_color or json")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Send()
	}
}
