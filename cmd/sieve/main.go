package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	sievecore "github.com/rawblock/sieve"
	"github.com/rawblock/sieve/internal/api"
	"github.com/rawblock/sieve/internal/config"
	"github.com/rawblock/sieve/internal/filter"
	"github.com/rawblock/sieve/internal/metrics"
	"github.com/rawblock/sieve/pkg/chain"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to sieve's YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := config.SetupLogger(cfg.Logging)
	logger.Info().Msg("starting sieve")

	// promhttp.Handler() (wired in internal/api/routes.go) serves the
	// default gatherer, so collectors register against DefaultRegisterer.
	metricsHandle := metrics.New(prometheus.DefaultRegisterer)

	engine := sievecore.New(logger,
		sievecore.WithDecodeCacheSize(decodeCacheSize(cfg)),
		sievecore.WithMetrics(metricsHandle),
	)

	chains, err := cfg.BuildChains()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid chain config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Connect(ctx, chains); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect chains")
	}
	logger.Info().Interface("active_chains", engine.ActiveChains()).Msg("chains connected")

	hub := api.NewHub(logger)
	go hub.Run()

	// A couple of representative filters: a whale-transfer watch and a
	// USDC-shaped Transfer-event watch, correlated within a bound via
	// WatchWithin so a whale transaction and a Transfer event surfacing
	// close together get reported as one joined match.
	whaleFilter := buildWhaleFilter()
	transferFilter := buildTransferEventFilter()

	matches, err := engine.Subscribe(ctx, whaleFilter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to subscribe whale filter")
	} else {
		go func() {
			for m := range matches {
				logger.Info().Uint64("filter_id", m.FilterID).Str("identity", m.Event.Identity()).Msg("whale transaction matched")
				hub.BroadcastMatch(m)
			}
		}()
	}

	windows, err := engine.WatchWithin(ctx, []filter.Filter{whaleFilter, transferFilter}, 5*time.Minute)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start correlation window")
	} else {
		go func() {
			for w := range windows {
				if w.Matched {
					logger.Info().Str("window_id", w.ID).Int("events", len(w.Events)).Msg("correlation window matched")
				} else {
					logger.Info().Str("window_id", w.ID).Msg("correlation window timed out")
				}
			}
		}()
	}

	router := api.SetupRouter(cfg.Admin, engine, hub, logger)
	server := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Admin.ReadTimeout,
		WriteTimeout: cfg.Admin.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", cfg.Admin.Addr).Msg("admin HTTP surface listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("admin server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Admin.ShutdownTimeout)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
	if err := engine.Close(); err != nil {
		logger.Error().Err(err).Msg("error stopping chains")
	}
	logger.Info().Msg("stopped")
}

func decodeCacheSize(cfg *config.Config) int {
	if cfg.Decode.CacheSize > 0 {
		return cfg.Decode.CacheSize
	}
	return 10_000
}

// buildWhaleFilter matches any Ethereum transaction moving at least 1000 ETH.
func buildWhaleFilter() filter.Filter {
	oneThousandEth, _ := uint256.FromDecimal("1000000000000000000000")
	return filter.New().Chain(chain.Ethereum).Transaction(func(t *filter.TxBuilder) {
		t.Value().Gte(oneThousandEth)
	}).Build()
}

// buildTransferEventFilter matches ERC-20 Transfer events moving more than
// 1,000,000 base units of the token.
func buildTransferEventFilter() filter.Filter {
	return filter.New().Chain(chain.Ethereum).Event(func(e *filter.EventBuilder) {
		e.EventData("Transfer(address indexed from, address indexed to, uint256 value)", func(p *filter.EventParamBuilder) {
			p.Param("value").U256().Gt(uint256.NewInt(1_000_000))
		})
	}).Build()
}
