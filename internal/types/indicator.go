package types

// IndicatorType selects an indicator builder from the registry.
type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeDEMA           IndicatorType = "dema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeStochRSI       IndicatorType = "stochrsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeADX            IndicatorType = "adx"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeBollingerBands IndicatorType = "bbands"
	IndicatorTypeEngulfing      IndicatorType = "engulfing"
	IndicatorTypeHammer         IndicatorType = "hammer"
	IndicatorTypeMACross        IndicatorType = "ma_cross"
)
