package models

// IronCondorConfig is the flat parameter surface for the iron condor
// strategy. Defaults come from NewDefaultIronCondorConfig.
type IronCondorConfig struct {
	TargetDTE          int     `yaml:"target_dte"`
	DTETolerance       int     `yaml:"dte_tolerance"`
	ShortCallDelta     float64 `yaml:"short_call_delta"`
	ShortPutDelta      float64 `yaml:"short_put_delta"`
	WingWidth          float64 `yaml:"wing_width"`
	MinPremiumPct      float64 `yaml:"min_premium_pct"`
	MaxBidAskSpreadPct float64 `yaml:"max_bid_ask_spread_pct"`
	MinOpenInterest    int     `yaml:"min_open_interest"`
	MinVolume          int     `yaml:"min_volume"`
	ProfitTarget       float64 `yaml:"profit_target"`
	StopLoss           float64 `yaml:"stop_loss"`
	MinDTEClose        int     `yaml:"min_dte_close"`
	MaxPositions       int     `yaml:"max_positions"`
	PositionSize       int     `yaml:"position_size"`
	DeltaCeiling       float64 `yaml:"delta_ceiling"`
	GammaCeiling       float64 `yaml:"gamma_ceiling"`
	RiskFreeRate       float64 `yaml:"risk_free_rate"`
}

func NewDefaultIronCondorConfig() IronCondorConfig {
	return IronCondorConfig{
		TargetDTE:          45,
		DTETolerance:       7,
		ShortCallDelta:     0.16,
		ShortPutDelta:      -0.16,
		WingWidth:          5.0,
		MinPremiumPct:      0.15,
		MaxBidAskSpreadPct: 0.10,
		MinOpenInterest:    10,
		MinVolume:          5,
		ProfitTarget:       0.50,
		StopLoss:           2.0,
		MinDTEClose:        21,
		MaxPositions:       3,
		PositionSize:       1,
		DeltaCeiling:       30.0,
		GammaCeiling:       50.0,
		RiskFreeRate:       0.05,
	}
}

// BullCallSpreadConfig is the flat parameter surface for the bull call
// spread strategy.
type BullCallSpreadConfig struct {
	TargetDTE          int     `yaml:"target_dte"`
	DTETolerance       int     `yaml:"dte_tolerance"`
	LongCallDelta      float64 `yaml:"long_call_delta"`
	ShortCallDelta     float64 `yaml:"short_call_delta"`
	MinNetDebit        float64 `yaml:"min_net_debit"`
	MaxNetDebit        float64 `yaml:"max_net_debit"`
	MaxBidAskSpreadPct float64 `yaml:"max_bid_ask_spread_pct"`
	MinOpenInterest    int     `yaml:"min_open_interest"`
	MinVolume          int     `yaml:"min_volume"`
	ProfitTarget       float64 `yaml:"profit_target"`
	StopLoss           float64 `yaml:"stop_loss"`
	MinDTEClose        int     `yaml:"min_dte_close"`
	MaxPositions       int     `yaml:"max_positions"`
	PositionSize       int     `yaml:"position_size"`
	SmaPeriod          int     `yaml:"sma_period"`
	EmaPeriod          int     `yaml:"ema_period"`
	RiskFreeRate       float64 `yaml:"risk_free_rate"`
}

func NewDefaultBullCallSpreadConfig() BullCallSpreadConfig {
	return BullCallSpreadConfig{
		TargetDTE:          30,
		DTETolerance:       7,
		LongCallDelta:      0.50,
		ShortCallDelta:     0.30,
		MinNetDebit:        0.50,
		MaxNetDebit:        5.00,
		MaxBidAskSpreadPct: 0.10,
		MinOpenInterest:    10,
		MinVolume:          5,
		ProfitTarget:       0.50,
		StopLoss:           0.50,
		MinDTEClose:        7,
		MaxPositions:       2,
		PositionSize:       1,
		SmaPeriod:          200,
		EmaPeriod:          20,
		RiskFreeRate:       0.05,
	}
}
