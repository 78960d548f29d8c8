package alpha

import (
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/signal"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

var macdTrendDefaults = Params{
	"fast":       11,
	"slow":       32,
	"signal":     8,
	"near":       1.5,
	"far":        3,
	"atr_length": 13,
}

// macdTrend trades MACD crosses close to the zero line with the trend and
// crosses far from it against the trend. The far rules come last.
func macdTrend(p Params) Strategy {
	return Strategy{
		Name: NameMACDTrend,
		Indicators: []indicator.Spec{
			{Name: "macd", Type: types.IndicatorTypeMACD, Params: map[string]float64{"fast": p["fast"], "slow": p["slow"], "signal": p["signal"]}},
			{Name: "atr", Type: types.IndicatorTypeATR, Params: map[string]float64{"length": p["atr_length"]}},
		},
		Rules: []signal.Rule{
			{Name: "golden_near_zero", Signal: types.SignalTypeLongEntry, Conditions: []signal.Condition{
				signal.Threshold("macd_gx", signal.OperatorGreater, 0),
				signal.Threshold("macd_gx", signal.OperatorLess, p["near"]),
			}},
			{Name: "death_near_zero", Signal: types.SignalTypeShortEntry, Conditions: []signal.Condition{
				signal.Threshold("macd_dx", signal.OperatorGreater, -p["near"]),
				signal.Threshold("macd_dx", signal.OperatorLess, 0),
			}},
			{Name: "death_far_above", Signal: types.SignalTypeShortEntry, Conditions: []signal.Condition{
				signal.Threshold("macd_dx", signal.OperatorGreater, p["far"]),
			}},
			{Name: "golden_far_below", Signal: types.SignalTypeLongEntry, Conditions: []signal.Condition{
				signal.Threshold("macd_gx", signal.OperatorLess, -p["far"]),
			}},
		},
		VolatilityColumn: "atr",
	}
}

var adxStochRSIDefaults = Params{
	"adx_length":   14,
	"adx_trend":    20,
	"stoch_length": 14,
	"rsi_length":   10,
	"k":            10,
	"d":            10,
	"low":          20,
	"high":         80,
	"atr_length":   10,
}

// adxStochRSI takes StochRSI crosses in oversold or overbought territory
// while ADX confirms a trend.
func adxStochRSI(p Params) Strategy {
	return Strategy{
		Name: NameADXStochRSI,
		Indicators: []indicator.Spec{
			{Name: "adx", Type: types.IndicatorTypeADX, Params: map[string]float64{"length": p["adx_length"]}},
			{Name: "stochrsi", Type: types.IndicatorTypeStochRSI, Params: map[string]float64{
				"length": p["stoch_length"], "rsi_length": p["rsi_length"], "k": p["k"], "d": p["d"],
			}},
			{Name: "atr", Type: types.IndicatorTypeATR, Smoothing: indicator.SmoothingEMA, Params: map[string]float64{"length": p["atr_length"]}},
		},
		Rules: []signal.Rule{
			{Name: "trend_oversold_golden", Signal: types.SignalTypeLongEntry, Conditions: []signal.Condition{
				signal.Threshold("adx", signal.OperatorGreaterEqual, p["adx_trend"]),
				signal.Threshold("stochrsi_gx", signal.OperatorGreater, 0),
				signal.Threshold("stochrsi_gx", signal.OperatorLess, p["low"]),
			}},
			{Name: "trend_overbought_death", Signal: types.SignalTypeShortEntry, Conditions: []signal.Condition{
				signal.Threshold("adx", signal.OperatorGreaterEqual, p["adx_trend"]),
				signal.Threshold("stochrsi_dx", signal.OperatorGreater, p["high"]),
			}},
		},
		VolatilityColumn: "atr",
	}
}

var engulfHammerDefaults = Params{
	"dema_length":   10,
	"volume_length": 15,
	"volume_k":      3,
	"hammer_k":      3,
}

// engulfHammer fades extended moves on reversal candles backed by a volume spike.
func engulfHammer(p Params) Strategy {
	lowReversal := func(pattern string) []signal.Condition {
		return []signal.Condition{
			signal.Compare("close", signal.OperatorLess, "dema", 0),
			signal.Compare("volume", signal.OperatorGreaterEqual, "vol_ma", p["volume_k"]),
			signal.Threshold(pattern, signal.OperatorEqual, 1),
		}
	}

	highReversal := func(pattern string) []signal.Condition {
		return []signal.Condition{
			signal.Compare("close", signal.OperatorGreater, "dema", 0),
			signal.Compare("volume", signal.OperatorGreaterEqual, "vol_ma", p["volume_k"]),
			signal.Threshold(pattern, signal.OperatorEqual, -1),
		}
	}

	return Strategy{
		Name: NameEngulfHammer,
		Indicators: []indicator.Spec{
			{Name: "dema", Type: types.IndicatorTypeDEMA, Params: map[string]float64{"length": p["dema_length"]}},
			{Name: "vol_ma", Type: types.IndicatorTypeEMA, Source: types.PriceSourceVolume, Params: map[string]float64{"length": p["volume_length"]}},
			{Name: "atr", Type: types.IndicatorTypeATR, Params: map[string]float64{"length": p["volume_length"]}},
			{Name: "engulf", Type: types.IndicatorTypeEngulfing},
			{Name: "hammer", Type: types.IndicatorTypeHammer, Params: map[string]float64{"k": p["hammer_k"]}},
		},
		Rules: []signal.Rule{
			{Name: "low_engulfing", Signal: types.SignalTypeLongEntry, Conditions: lowReversal("engulf")},
			{Name: "low_hammer", Signal: types.SignalTypeLongEntry, Conditions: lowReversal("hammer")},
			{Name: "high_engulfing", Signal: types.SignalTypeShortEntry, Conditions: highReversal("engulf")},
			{Name: "high_shooting_star", Signal: types.SignalTypeShortEntry, Conditions: highReversal("hammer")},
		},
		VolatilityColumn: "atr",
	}
}
