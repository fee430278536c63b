// Command tradeengine is the process entrypoint: it loads configuration,
// wires every collaborator into an engine.Engine, starts the scheduler,
// and serves the control-plane HTTP API until interrupted.
package main

import (
	"context"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/synapsestrike/tradeengine/api"
	"github.com/synapsestrike/tradeengine/audit"
	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/config"
	"github.com/synapsestrike/tradeengine/engine"
	"github.com/synapsestrike/tradeengine/market"
	"github.com/synapsestrike/tradeengine/metrics"
	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
	"github.com/synapsestrike/tradeengine/signal"
	"github.com/synapsestrike/tradeengine/store"
	"github.com/synapsestrike/tradeengine/trailingstop"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("tradeengine exited with error")
	}
}

func newLogger(env string) zerolog.Logger {
	if env != "production" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func run(cfg *config.Config, log zerolog.Logger) error {
	metrics.Init()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	trades := store.NewTradeRepo(db)
	positions := store.NewPositionRepo(db)
	signalRepo := store.NewSignalRepo(db)
	riskStateRepo := store.NewRiskStateRepo(db)
	metricsRepo := store.NewMetricsRepo(db)
	auditRepo := store.NewAuditRepo(db)

	auditLogger := audit.New(auditRepo, 1024, func(err error) {
		log.Error().Err(err).Msg("audit write failed")
	})

	futuresBroker, err := buildFuturesBroker(cfg)
	if err != nil {
		return err
	}
	equityBroker := broker.NewEquityAlpacaAdapter(cfg.EquityCredentials.APIKey, cfg.EquityCredentials.APISecret, cfg.EquityPaperTrading)
	if cfg.CredentialMasterKeyHex != "" {
		masterKey, err := hex.DecodeString(cfg.CredentialMasterKeyHex)
		if err != nil {
			return err
		}
		credentials, err := store.NewCredentialRepo(db, masterKey)
		if err != nil {
			return err
		}
		equityBroker.SetTokenStore(credentials)
	}
	router := broker.NewRouter(futuresBroker, equityBroker)

	futuresSource := market.NewBinanceFuturesSource(cfg.FuturesCredentials.APIKey, cfg.FuturesCredentials.APISecret)
	equitySource := market.NewAlpacaSource(cfg.EquityCredentials.APIKey, cfg.EquityCredentials.APISecret)
	provider := market.NewProvider(market.NewRoutedSource(futuresSource, equitySource))

	signalMgr := signal.NewManager(cfg.Signal)
	signalMgr.Filter = signal.NewTimeFilter(cfg.TimeFilter)

	riskMgr := risk.NewManager(cfg.Risk)
	trailingStopEngine := trailingstop.NewEngine(cfg.TrailingStop)

	eng := engine.New(cfg, engine.Dependencies{
		Market:       provider,
		Signals:      signalMgr,
		Risk:         riskMgr,
		TrailingStop: trailingStopEngine,
		Broker:       router,
		Trades:       trades,
		Positions:    positions,
		SignalRepo:   signalRepo,
		RiskState:    riskStateRepo,
		Metrics:      metricsRepo,
		Audit:        auditLogger,
		NewOrderID:   newOrderID,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	auditLogger.Info(model.CategorySystem, "tradeengine started", map[string]any{
		"env": cfg.Env, "symbols": cfg.Symbols, "futuresVenue": string(cfg.FuturesVenue),
	})

	srv := api.New(cfg, eng, trades, positions, signalRepo, riskStateRepo, auditRepo, riskMgr)
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Router()}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("control-plane listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("control-plane server stopped")
		}
	}()

	waitForShutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}

func buildFuturesBroker(cfg *config.Config) (broker.Broker, error) {
	switch cfg.FuturesVenue {
	case config.VenueBybit:
		venue := broker.NewBybitFuturesVenue(cfg.FuturesCredentials.APIKey, cfg.FuturesCredentials.APISecret)
		return broker.NewFuturesAdapter(venue), nil
	case config.VenueHyperliquid:
		venue, err := broker.NewHyperliquidFuturesVenue(cfg.FuturesCredentials.APIKey, cfg.HyperliquidMainnet)
		if err != nil {
			return nil, err
		}
		return broker.NewFuturesAdapter(venue), nil
	default:
		venue := broker.NewBinanceFuturesVenue(cfg.FuturesCredentials.APIKey, cfg.FuturesCredentials.APISecret)
		return broker.NewFuturesAdapter(venue), nil
	}
}

func newOrderID() string { return uuid.NewString() }
