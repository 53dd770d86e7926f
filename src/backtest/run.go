package backtest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/spread-trading/src/chainstore"
	"github.com/jiaming2012/spread-trading/src/dataservices"
	"github.com/jiaming2012/spread-trading/src/dbutils"
	"github.com/jiaming2012/spread-trading/src/models"
	"github.com/jiaming2012/spread-trading/src/pricing"
	"github.com/jiaming2012/spread-trading/src/strategies"
)

const (
	StrategyIronCondor     = "iron_condor"
	StrategyBullCallSpread = "bull_call_spread"
)

type RunArgs struct {
	Symbol     string
	Start      time.Time
	End        time.Time
	Strategy   string
	ConfigPath string
	CacheDir   string
}

// Config is the yaml file shape: either strategy section may be omitted, in
// which case its documented defaults apply.
type Config struct {
	IronCondor     models.IronCondorConfig     `yaml:"iron_condor"`
	BullCallSpread models.BullCallSpreadConfig `yaml:"bull_call_spread"`
}

func loadConfig(path string) (Config, error) {
	config := Config{
		IronCondor:     models.NewDefaultIronCondorConfig(),
		BullCallSpread: models.NewDefaultBullCallSpreadConfig(),
	}

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("loadConfig: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("loadConfig: failed to parse %s: %w", path, err)
	}

	return config, nil
}

// runner adapts either strategy to the date loop.
type runner struct {
	updateMarketData func(models.Candle)
	generateSignal   func(time.Time, []*models.OptionContract, float64) models.Signal
	openPosition     func(time.Time, []*models.OptionContract, float64) bool
	closePosition    func(string, time.Time, string)
	performance      func() strategies.Performance
}

func newIronCondorRunner(config models.IronCondorConfig, engine *pricing.GreeksEngine) runner {
	strategy := strategies.NewIronCondorStrategy(config, engine)

	return runner{
		updateMarketData: func(models.Candle) {},
		generateSignal:   strategy.GenerateSignal,
		openPosition: func(date time.Time, chain []*models.OptionContract, spot float64) bool {
			return strategy.CreatePosition(date, chain, spot) != nil
		},
		closePosition: func(id string, date time.Time, reason string) {
			if _, err := strategy.ClosePosition(id, date, reason); err != nil {
				log.Errorf("backtest: %v", err)
			}
		},
		performance: strategy.GetStrategyPerformance,
	}
}

func newBullCallSpreadRunner(config models.BullCallSpreadConfig, engine *pricing.GreeksEngine) runner {
	strategy := strategies.NewBullCallSpreadStrategy(config, engine)

	return runner{
		updateMarketData: strategy.UpdateMarketData,
		generateSignal:   strategy.GenerateSignal,
		openPosition: func(date time.Time, chain []*models.OptionContract, spot float64) bool {
			return strategy.CreatePosition(date, chain, spot) != nil
		},
		closePosition: func(id string, date time.Time, reason string) {
			if _, err := strategy.ClosePosition(id, date, reason); err != nil {
				log.Errorf("backtest: %v", err)
			}
		},
		performance: strategy.GetStrategyPerformance,
	}
}

func spotFromChain(chain []*models.OptionContract) float64 {
	for _, c := range chain {
		if c.UnderlyingPrice > 0 {
			return c.UnderlyingPrice
		}
	}

	return 0
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// fetchCandles pulls enough daily history before the backtest start to warm
// the 200-day regime filter. Without a Polygon key the bull call spread
// strategy simply never sees a regime and holds.
func fetchCandles(ctx context.Context, symbol string, start, end time.Time) map[string]models.Candle {
	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey == "" {
		log.Warn("backtest: POLYGON_API_KEY not set, skipping underlying candles")
		return nil
	}

	client := dataservices.NewPolygonBarsClient(apiKey)

	candles, err := client.FetchDailyCandles(ctx, symbol, start.AddDate(0, 0, -450), end)
	if err != nil {
		log.Warnf("backtest: failed to fetch underlying candles: %v", err)
		return nil
	}

	byDate := make(map[string]models.Candle, len(candles))
	for _, candle := range candles {
		byDate[dateKey(candle.Timestamp)] = candle
	}

	return byDate
}

// Run drives one backtest: per weekday, fetch the chain, evaluate the
// strategy, and execute its signal. The loop owns cancellation at date
// granularity.
func Run(ctx context.Context, args RunArgs, out io.Writer) error {
	config, err := loadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	db, err := dbutils.InitSqlite(filepath.Join(args.CacheDir, "chain_cache.db"))
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	thetaBaseURL := os.Getenv("THETA_DATA_BASE_URL")
	if thetaBaseURL == "" {
		thetaBaseURL = "http://localhost:25510"
	}

	tradierBaseURL := os.Getenv("TRADIER_BASE_URL")
	if tradierBaseURL == "" {
		tradierBaseURL = "https://api.tradier.com/v1"
	}

	historical := dataservices.NewThetaDataClient(thetaBaseURL)
	live := dataservices.NewTradierClient(tradierBaseURL, os.Getenv("TRADIER_BEARER_TOKEN"))

	manager, err := chainstore.NewManager(db, args.CacheDir, historical, live)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	var strategyRunner runner
	var riskFreeRate float64

	switch args.Strategy {
	case StrategyIronCondor:
		riskFreeRate = config.IronCondor.RiskFreeRate
		strategyRunner = newIronCondorRunner(config.IronCondor, pricing.NewGreeksEngine(riskFreeRate))
	case StrategyBullCallSpread:
		riskFreeRate = config.BullCallSpread.RiskFreeRate
		strategyRunner = newBullCallSpreadRunner(config.BullCallSpread, pricing.NewGreeksEngine(riskFreeRate))
	default:
		return fmt.Errorf("Run: unknown strategy %q", args.Strategy)
	}

	candles := fetchCandles(ctx, args.Symbol, args.Start, args.End)

	// Warm the indicators with history preceding the start date.
	if len(candles) > 0 {
		for d := args.Start.AddDate(0, 0, -450); d.Before(args.Start); d = d.AddDate(0, 0, 1) {
			if candle, ok := candles[dateKey(d)]; ok {
				strategyRunner.updateMarketData(candle)
			}
		}
	}

	for d := args.Start; !d.After(args.End); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("Run: cancelled: %w", err)
		}

		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}

		candle, haveCandle := candles[dateKey(d)]
		if haveCandle {
			strategyRunner.updateMarketData(candle)
		}

		chain := manager.GetOptionsChain(ctx, args.Symbol, d, true)
		if len(chain) == 0 {
			log.Debugf("backtest: no chain for %s, skipping", dateKey(d))
			continue
		}

		spot := spotFromChain(chain)
		if spot == 0 && haveCandle {
			spot = candle.Close
		}

		signal := strategyRunner.generateSignal(d, chain, spot)

		switch signal.Type {
		case models.SignalOpen:
			strategyRunner.openPosition(d, chain, spot)
		case models.SignalClose:
			strategyRunner.closePosition(signal.PositionID, d, signal.Reason)
		case models.SignalAlert:
			log.Warnf("backtest: %s: %s", dateKey(d), signal.Reason)
		}
	}

	renderPerformance(out, args, strategyRunner.performance())

	return nil
}

func renderPerformance(out io.Writer, args RunArgs, perf strategies.Performance) {
	fmt.Fprintf(out, "%s %s: %s to %s\n", args.Strategy, args.Symbol, dateKey(args.Start), dateKey(args.End))

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Closed trades", fmt.Sprintf("%d", perf.TotalTrades)})
	table.Append([]string{"Open positions", fmt.Sprintf("%d", perf.OpenPositions)})
	table.Append([]string{"Win rate", fmt.Sprintf("%.1f%%", perf.WinRate*100)})
	table.Append([]string{"Total P&L", fmt.Sprintf("$%.2f", perf.TotalPnL)})
	table.Append([]string{"Avg win", fmt.Sprintf("$%.2f", perf.AvgWin)})
	table.Append([]string{"Avg loss", fmt.Sprintf("$%.2f", perf.AvgLoss)})
	table.Render()
}
