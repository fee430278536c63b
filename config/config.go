// Package config loads process-level configuration from environment
// variables, with a .env file loaded in development via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
	"github.com/synapsestrike/tradeengine/signal"
	"github.com/synapsestrike/tradeengine/trailingstop"
)

// BrokerCredentials carries one broker's API key/secret pair read from
// the environment.
type BrokerCredentials struct {
	APIKey    string
	APISecret string
}

// FuturesVenue names which concrete futures exchange client to build.
type FuturesVenue string

const (
	VenueBinance     FuturesVenue = "binance"
	VenueBybit       FuturesVenue = "bybit"
	VenueHyperliquid FuturesVenue = "hyperliquid"
)

// Config is every recognized process-level option, grouped by the
// component that consumes it.
type Config struct {
	Env                    string
	ListenAddr             string
	DBPath                 string
	CredentialMasterKeyHex string
	TOTPSecret             string
	Symbols                []string
	Timeframe              string
	MaxConcurrentSymbols   int
	TickCron               string
	EquitySnapshotCron     string
	DailyResetCron         string
	WeeklyResetCron        string
	BrokerTimeout          time.Duration
	StartingEquity         float64

	FuturesVenue       FuturesVenue
	FuturesCredentials BrokerCredentials
	EquityCredentials  BrokerCredentials
	EquityPaperTrading bool
	HyperliquidMainnet bool

	Risk         risk.Config
	Signal       signal.ManagerConfig
	TimeFilter   signal.TimeFilterConfig
	TrailingStop trailingstop.Config
}

// Load reads a .env file (if present; its absence is not an error) and
// builds Config from the environment, applying defaults
// and failing fast with an InvalidConfig-kind error on a bad value.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                    getString("APP_ENV", "development"),
		ListenAddr:             getString("LISTEN_ADDR", ":8080"),
		DBPath:                 getString("DB_PATH", "tradeengine.db"),
		CredentialMasterKeyHex: os.Getenv("CREDENTIAL_MASTER_KEY"),
		TOTPSecret:             os.Getenv("TOTP_SECRET"),
		Timeframe:              getString("TIMEFRAME", "1m"),
		MaxConcurrentSymbols:   getInt("MAX_CONCURRENT_SYMBOLS", 8),
		TickCron:               getString("TICK_CRON", "* * * * *"),
		EquitySnapshotCron:     getString("EQUITY_SNAPSHOT_CRON", "0 * * * *"),
		DailyResetCron:         getString("DAILY_RESET_CRON", "0 0 * * *"),
		WeeklyResetCron:        getString("WEEKLY_RESET_CRON", "0 0 * * 1"),
		BrokerTimeout:          getDuration("BROKER_TIMEOUT", 10*time.Second),
		StartingEquity:         getFloat("STARTING_EQUITY", 100000),

		FuturesVenue:       FuturesVenue(getString("FUTURES_VENUE", string(VenueBinance))),
		EquityPaperTrading: getBool("ALPACA_PAPER", true),
		HyperliquidMainnet: getBool("HYPERLIQUID_MAINNET", false),
	}
	cfg.Symbols = getStringSlice("SYMBOLS", []string{"MNQ", "MES", "SPY", "TQQQ"})

	cfg.FuturesCredentials = credentialsFor(cfg.FuturesVenue)
	cfg.EquityCredentials = BrokerCredentials{
		APIKey:    os.Getenv("ALPACA_API_KEY"),
		APISecret: os.Getenv("ALPACA_API_SECRET"),
	}

	cfg.Risk = loadRiskConfig()
	cfg.TimeFilter = loadTimeFilterConfig()
	cfg.Signal = loadSignalConfig(cfg.TimeFilter)
	cfg.TrailingStop = loadTrailingStopConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate surfaces InvalidConfig before the engine ever starts a tick.
func (c *Config) Validate() error {
	if err := c.Risk.Validate(); err != nil {
		return model.NewKindError(model.KindInvalidConfig, err)
	}
	if c.MaxConcurrentSymbols <= 0 {
		return model.NewKindError(model.KindInvalidConfig, fmt.Errorf("config: MAX_CONCURRENT_SYMBOLS must be positive"))
	}
	if len(c.Symbols) == 0 {
		return model.NewKindError(model.KindInvalidConfig, fmt.Errorf("config: SYMBOLS must not be empty"))
	}
	if c.StartingEquity <= 0 {
		return model.NewKindError(model.KindInvalidConfig, fmt.Errorf("config: STARTING_EQUITY must be positive"))
	}
	return nil
}

func credentialsFor(venue FuturesVenue) BrokerCredentials {
	switch venue {
	case VenueBybit:
		return BrokerCredentials{APIKey: os.Getenv("BYBIT_API_KEY"), APISecret: os.Getenv("BYBIT_API_SECRET")}
	case VenueHyperliquid:
		return BrokerCredentials{APIKey: os.Getenv("HYPERLIQUID_PRIVATE_KEY")}
	default:
		return BrokerCredentials{APIKey: os.Getenv("BINANCE_API_KEY"), APISecret: os.Getenv("BINANCE_API_SECRET")}
	}
}

func loadRiskConfig() risk.Config {
	cfg := risk.DefaultConfig()
	cfg.MaxRiskPerTradePercent = getFloat("MAX_RISK_PER_TRADE_PERCENT", cfg.MaxRiskPerTradePercent)
	cfg.MaxDailyLossPercent = getFloat("MAX_DAILY_LOSS_PERCENT", cfg.MaxDailyLossPercent)
	cfg.MaxWeeklyLossPercent = getFloat("MAX_WEEKLY_LOSS_PERCENT", cfg.MaxWeeklyLossPercent)
	cfg.MaxDrawdownPercent = getFloat("MAX_DRAWDOWN_PERCENT", cfg.MaxDrawdownPercent)
	cfg.MaxPositionPercent = getFloat("MAX_POSITION_PERCENT", cfg.MaxPositionPercent)
	cfg.MaxConcurrentPositions = getInt("MAX_CONCURRENT_POSITIONS", cfg.MaxConcurrentPositions)
	cfg.MaxTotalExposurePercent = getFloat("MAX_TOTAL_EXPOSURE_PERCENT", cfg.MaxTotalExposurePercent)
	cfg.MaxFuturesExposurePercent = getFloat("MAX_FUTURES_EXPOSURE_PERCENT", cfg.MaxFuturesExposurePercent)
	cfg.MaxEquitiesExposurePercent = getFloat("MAX_EQUITIES_EXPOSURE_PERCENT", cfg.MaxEquitiesExposurePercent)
	cfg.MinOrderValue = getFloat("MIN_ORDER_VALUE", cfg.MinOrderValue)
	cfg.MaxOrderValue = getFloat("MAX_ORDER_VALUE", cfg.MaxOrderValue)
	cfg.ConsecutiveLossLimit = getInt("CONSECUTIVE_LOSS_LIMIT", cfg.ConsecutiveLossLimit)
	cfg.CooldownMinutes = getInt("COOLDOWN_MINUTES", cfg.CooldownMinutes)
	cfg.PDTReserveDayTrades = getInt("PDT_RESERVE_DAY_TRADES", cfg.PDTReserveDayTrades)
	cfg.PDTDayTradesLimit = getInt("PDT_DAY_TRADES_LIMIT", cfg.PDTDayTradesLimit)
	cfg.CorrelationGroups = loadCorrelationGroups()
	return cfg
}

// loadCorrelationGroups reads CORRELATION_GROUPS as
// "name:SYM1,SYM2=pct;name2:SYM3=pct" pairs. Absent or malformed
// entries are skipped rather than failing startup, since correlation
// groups are a risk refinement, not a required control.
func loadCorrelationGroups() []risk.CorrelationGroup {
	raw := os.Getenv("CORRELATION_GROUPS")
	if raw == "" {
		return nil
	}
	var groups []risk.CorrelationGroup
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nameAndRest := strings.SplitN(part, ":", 2)
		if len(nameAndRest) != 2 {
			continue
		}
		symsAndPct := strings.SplitN(nameAndRest[1], "=", 2)
		if len(symsAndPct) != 2 {
			continue
		}
		pct, err := strconv.ParseFloat(symsAndPct[1], 64)
		if err != nil {
			continue
		}
		symbols := map[string]struct{}{}
		for _, s := range strings.Split(symsAndPct[0], ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				symbols[s] = struct{}{}
			}
		}
		groups = append(groups, risk.CorrelationGroup{
			Name: nameAndRest[0], Symbols: symbols, MaxConcentrationPercent: pct,
		})
	}
	return groups
}

func loadTimeFilterConfig() signal.TimeFilterConfig {
	cfg := signal.DefaultTimeFilterConfig()
	cfg.HolidayMode = getBool("HOLIDAY_MODE", cfg.HolidayMode)
	cfg.FridayLateGuard = getDuration("FRIDAY_LATE_GUARD", cfg.FridayLateGuard)
	cfg.MondayEarlyGuard = getDuration("MONDAY_EARLY_GUARD", cfg.MondayEarlyGuard)
	return cfg
}

func loadSignalConfig(_ signal.TimeFilterConfig) signal.ManagerConfig {
	cfg := signal.DefaultManagerConfig()
	cfg.MinStrength = getFloat("MIN_STRENGTH", cfg.MinStrength)
	cfg.MaxSignalsPerSymbol = getInt("MAX_SIGNALS_PER_SYMBOL", cfg.MaxSignalsPerSymbol)
	cfg.EnableRegimeFilter = getBool("ENABLE_REGIME_FILTER", cfg.EnableRegimeFilter)
	for i := range cfg.Strategies {
		switch cfg.Strategies[i].Strategy.Name() {
		case "momentum":
			cfg.Strategies[i].Enabled = getBool("MOMENTUM_ENABLED", cfg.Strategies[i].Enabled)
			cfg.Strategies[i].Weight = getFloat("MOMENTUM_WEIGHT", cfg.Strategies[i].Weight)
		case "meanReversion":
			cfg.Strategies[i].Enabled = getBool("MEAN_REVERSION_ENABLED", cfg.Strategies[i].Enabled)
			cfg.Strategies[i].Weight = getFloat("MEAN_REVERSION_WEIGHT", cfg.Strategies[i].Weight)
		case "breakout":
			cfg.Strategies[i].Enabled = getBool("BREAKOUT_ENABLED", cfg.Strategies[i].Enabled)
			cfg.Strategies[i].Weight = getFloat("BREAKOUT_WEIGHT", cfg.Strategies[i].Weight)
		}
	}
	return cfg
}

func loadTrailingStopConfig() trailingstop.Config {
	cfg := trailingstop.DefaultConfig()
	cfg.Enabled = getBool("TRAILING_STOP_ENABLED", cfg.Enabled)
	cfg.TrailPercent = getFloat("TRAILING_STOP_TRAIL_PERCENT", cfg.TrailPercent)
	cfg.ActivationPercent = getFloat("TRAILING_STOP_ACTIVATION_PERCENT", cfg.ActivationPercent)
	cfg.MinTrailPercent = getFloat("TRAILING_STOP_MIN_TRAIL_PERCENT", cfg.MinTrailPercent)
	cfg.UpdateIntervalSecs = getInt("TRAILING_STOP_UPDATE_INTERVAL_SECONDS", cfg.UpdateIntervalSecs)
	return cfg
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getStringSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
