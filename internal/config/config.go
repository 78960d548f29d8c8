// Package config loads the YAML file that describes one signal process:
// the instrument, the bar feed, the strategy, risk settings, loop timing
// and where recommendations go.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/alpha"
	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/feed"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/position"
	"github.com/rxtech-lab/argo-signal/internal/scheduler"
	"github.com/rxtech-lab/argo-signal/internal/signal"
	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type FeedProvider string

const (
	FeedBinance FeedProvider = "binance"
	FeedPolygon FeedProvider = "polygon"
	FeedParquet FeedProvider = "parquet"
)

// PolygonAPIKeyEnv is read when feed.polygon_api_key is empty.
const PolygonAPIKeyEnv = "POLYGON_API_KEY"

type Config struct {
	EngineVersion string         `yaml:"engine_version,omitempty" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine version the file was written for. Major and minor must match the running engine"`
	Symbol        string         `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,example=BTCUSDT"`
	Interval      string         `yaml:"interval" json:"interval" validate:"required" jsonschema:"title=Interval,description=Bar width such as 1m 15m 4h 1d,example=15m"`
	WindowSize    int            `yaml:"window_size" json:"window_size" validate:"gte=2" jsonschema:"title=Window Size,description=Bars kept in the rolling window,default=500"`
	LogLevel      string         `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Feed          FeedConfig     `yaml:"feed" json:"feed" jsonschema:"title=Feed"`
	Strategy      StrategyConfig `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy"`
	Position      PositionConfig `yaml:"position" json:"position" jsonschema:"title=Position"`
	Schedule      ScheduleConfig `yaml:"schedule" json:"schedule" jsonschema:"title=Schedule"`
	Dispatch      DispatchConfig `yaml:"dispatch" json:"dispatch" jsonschema:"title=Dispatch"`
	Journal       JournalConfig  `yaml:"journal" json:"journal" jsonschema:"title=Journal"`
	Status        StatusConfig   `yaml:"status" json:"status" jsonschema:"title=Status Server"`
}

type FeedConfig struct {
	Provider      FeedProvider `yaml:"provider" json:"provider" validate:"oneof=binance polygon parquet" jsonschema:"title=Provider,enum=binance,enum=polygon,enum=parquet,default=binance"`
	PolygonAPIKey string       `yaml:"polygon_api_key,omitempty" json:"polygon_api_key,omitempty" jsonschema:"title=Polygon API Key,description=Falls back to POLYGON_API_KEY"`
	ParquetPath   string       `yaml:"parquet_path,omitempty" json:"parquet_path,omitempty" validate:"required_if=Provider parquet" jsonschema:"title=Parquet Path"`
}

// StrategyConfig names a preset or, with alpha "custom", spells out
// indicators and rules.
type StrategyConfig struct {
	Alpha            string             `yaml:"alpha" json:"alpha" validate:"required" jsonschema:"title=Alpha,enum=macd_trend,enum=adx_stochrsi,enum=engulf_hammer,enum=custom"`
	Params           map[string]float64 `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Params,description=Overrides for preset defaults"`
	Indicators       []indicator.Spec   `yaml:"indicators,omitempty" json:"indicators,omitempty" validate:"dive" jsonschema:"title=Indicators"`
	Rules            []signal.Rule      `yaml:"rules,omitempty" json:"rules,omitempty" validate:"dive" jsonschema:"title=Rules,description=Evaluated in order. A later matching rule overwrites an earlier one"`
	VolatilityColumn string             `yaml:"volatility_column,omitempty" json:"volatility_column,omitempty" jsonschema:"title=Volatility Column"`
}

type PositionConfig struct {
	ProfitMultiple    float64           `yaml:"profit_multiple" json:"profit_multiple" validate:"gt=0" jsonschema:"title=Profit Multiple,description=Take-profit distance in volatility units"`
	LossMultiple      float64           `yaml:"loss_multiple" json:"loss_multiple" validate:"gt=0" jsonschema:"title=Loss Multiple,description=Stop-loss distance in volatility units"`
	AccountMoney      float64           `yaml:"account_money" json:"account_money" validate:"gt=0" jsonschema:"title=Account Money"`
	Leverage          float64           `yaml:"leverage" json:"leverage" validate:"gt=0" jsonschema:"title=Leverage,default=1"`
	PositionSizer     float64           `yaml:"position_sizer" json:"position_sizer" validate:"gt=0" jsonschema:"title=Position Sizer,default=1"`
	ExitMode          position.ExitMode `yaml:"exit_mode" json:"exit_mode" validate:"oneof=close range" jsonschema:"title=Exit Mode,enum=close,enum=range,default=close"`
	Reverse           bool              `yaml:"reverse" json:"reverse" jsonschema:"title=Reverse,description=Flip a held position on an opposite entry"`
	ReplayHistory     bool              `yaml:"replay_history" json:"replay_history" jsonschema:"title=Replay History,default=true,description=Walk the whole window on the first cycle"`
	QuantityPrecision int32             `yaml:"quantity_precision" json:"quantity_precision" validate:"gte=0,lte=18" jsonschema:"title=Quantity Precision,default=3"`
}

type ScheduleConfig struct {
	ProductionInterval  time.Duration `yaml:"production_interval" json:"production_interval" validate:"gt=0" jsonschema:"title=Production Interval"`
	ConsumptionInterval time.Duration `yaml:"consumption_interval" json:"consumption_interval" validate:"gt=0" jsonschema:"title=Consumption Interval"`
	BackoffFraction     float64       `yaml:"backoff_fraction" json:"backoff_fraction" validate:"gt=0,lte=1" jsonschema:"title=Backoff Fraction,default=0.333"`
}

type DispatchConfig struct {
	Log      bool           `yaml:"log" json:"log" jsonschema:"title=Log,default=true"`
	YAMLFile YAMLFileConfig `yaml:"yaml_file" json:"yaml_file" jsonschema:"title=YAML File"`
	Redis    RedisConfig    `yaml:"redis" json:"redis" jsonschema:"title=Redis"`
	Paper    PaperConfig    `yaml:"paper" json:"paper" jsonschema:"title=Paper Reconciler"`
}

type YAMLFileConfig struct {
	Enabled bool                 `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
	Path    string               `yaml:"path" json:"path" jsonschema:"title=Path,default=signal_position.yaml"`
	Mode    dispatch.PayloadMode `yaml:"mode" json:"mode" validate:"oneof=full position" jsonschema:"title=Mode,enum=full,enum=position,default=position"`
}

type RedisConfig struct {
	Enabled  bool                 `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
	Addr     string               `yaml:"addr" json:"addr" validate:"required_if=Enabled true" jsonschema:"title=Address,default=localhost:6379"`
	Password string               `yaml:"password,omitempty" json:"password,omitempty" jsonschema:"title=Password"`
	DB       int                  `yaml:"db" json:"db" validate:"gte=0" jsonschema:"title=Database"`
	Key      string               `yaml:"key,omitempty" json:"key,omitempty" jsonschema:"title=Key,description=Defaults to argo:signal:<symbol>"`
	Channel  string               `yaml:"channel,omitempty" json:"channel,omitempty" jsonschema:"title=Pub/Sub Channel"`
	TTL      time.Duration        `yaml:"ttl,omitempty" json:"ttl,omitempty" validate:"gte=0" jsonschema:"title=TTL"`
	Mode     dispatch.PayloadMode `yaml:"mode" json:"mode" validate:"oneof=full position" jsonschema:"title=Mode,enum=full,enum=position,default=full"`
}

// PaperConfig drives an in-memory broker toward each recommendation.
type PaperConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
	Path    string `yaml:"path" json:"path" jsonschema:"title=Path,description=DuckDB file. Empty keeps the journal in memory"`
	// Restore rebuilds the position from the newest journaled transition at start-up.
	Restore bool `yaml:"restore" json:"restore" jsonschema:"title=Restore,default=true"`
}

type StatusConfig struct {
	Address string `yaml:"address" json:"address" jsonschema:"title=Address,description=Listen address. Empty disables the server,example=:8080"`
}

// Default returns a config with every optional field filled.
func Default() Config {
	return Config{
		EngineVersion: "",
		Symbol:        "",
		Interval:      "15m",
		WindowSize:    500,
		LogLevel:      "info",
		Feed: FeedConfig{
			Provider:      FeedBinance,
			PolygonAPIKey: "",
			ParquetPath:   "",
		},
		Strategy: StrategyConfig{
			Alpha:            alpha.NameMACDTrend,
			Params:           nil,
			Indicators:       nil,
			Rules:            nil,
			VolatilityColumn: "",
		},
		Position: PositionConfig{
			ProfitMultiple:    2,
			LossMultiple:      1,
			AccountMoney:      1000,
			Leverage:          1,
			PositionSizer:     1,
			ExitMode:          position.ExitModeClose,
			Reverse:           false,
			ReplayHistory:     true,
			QuantityPrecision: 3,
		},
		Schedule: ScheduleConfig{
			ProductionInterval:  time.Minute,
			ConsumptionInterval: 10 * time.Second,
			BackoffFraction:     1.0 / 3,
		},
		Dispatch: DispatchConfig{
			Log: true,
			YAMLFile: YAMLFileConfig{
				Enabled: false,
				Path:    dispatch.DefaultPositionFile,
				Mode:    dispatch.PayloadPosition,
			},
			Redis: RedisConfig{
				Enabled:  false,
				Addr:     "localhost:6379",
				Password: "",
				DB:       0,
				Key:      "",
				Channel:  "",
				TTL:      0,
				Mode:     dispatch.PayloadFull,
			},
			Paper: PaperConfig{Enabled: false},
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    "",
			Restore: true,
		},
		Status: StatusConfig{Address: ""},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeConfigReadFailed, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Parse decodes data over Default and validates the result. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	if cfg.Feed.Provider == FeedPolygon && cfg.Feed.PolygonAPIKey == "" {
		cfg.Feed.PolygonAPIKey = os.Getenv(PolygonAPIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags, then the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := version.CheckConfig(c.EngineVersion); err != nil {
		return err
	}

	if _, err := feed.ParseInterval(c.Interval); err != nil {
		return err
	}

	if c.Feed.Provider == FeedPolygon && c.Feed.PolygonAPIKey == "" {
		return errors.Newf(errors.ErrCodeMissingParameter, "polygon feed needs polygon_api_key or %s", PolygonAPIKeyEnv)
	}

	strategy, err := c.BuildStrategy()
	if err != nil {
		return err
	}

	engine, err := indicator.NewEngine(indicator.NewDefaultRegistry(), strategy.Indicators)
	if err != nil {
		return err
	}

	if engine.Warmup() >= c.WindowSize {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "window_size %d cannot cover a warm-up of %d bars", c.WindowSize, engine.Warmup()+1)
	}

	if _, err := signal.NewReducer(strategy.Rules); err != nil {
		return err
	}

	if err := c.PipelinePosition().Validate(); err != nil {
		return err
	}

	return c.SchedulerConfig().Validate()
}

// BarInterval parses Interval.
func (c *Config) BarInterval() (feed.Interval, error) {
	return feed.ParseInterval(c.Interval)
}

// BuildStrategy resolves the preset, or the custom indicators and rules.
func (c *Config) BuildStrategy() (alpha.Strategy, error) {
	s := c.Strategy

	if s.Alpha == alpha.NameCustom {
		return alpha.Custom(s.Indicators, s.Rules, s.VolatilityColumn)
	}

	if len(s.Indicators) > 0 || len(s.Rules) > 0 {
		return alpha.Strategy{}, errors.Newf(errors.ErrCodeInvalidConfiguration, "indicators and rules are only read for alpha %q", alpha.NameCustom) //nolint:exhaustruct
	}

	return alpha.Build(s.Alpha, alpha.Params(s.Params))
}

func (c *Config) PipelinePosition() position.Config {
	p := c.Position

	return position.Config{
		ProfitMultiple:    p.ProfitMultiple,
		LossMultiple:      p.LossMultiple,
		AccountMoney:      decimal.NewFromFloat(p.AccountMoney),
		Leverage:          decimal.NewFromFloat(p.Leverage),
		PositionSizer:     decimal.NewFromFloat(p.PositionSizer),
		ExitMode:          p.ExitMode,
		Reverse:           p.Reverse,
		ReplayHistory:     p.ReplayHistory,
		QuantityPrecision: p.QuantityPrecision,
	}
}

func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		ProductionInterval:  c.Schedule.ProductionInterval,
		ConsumptionInterval: c.Schedule.ConsumptionInterval,
		BackoffFraction:     c.Schedule.BackoffFraction,
	}
}

func (c *Config) RedisOptions() dispatch.RedisOptions {
	r := c.Dispatch.Redis

	return dispatch.RedisOptions{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		Key:      r.Key,
		Channel:  r.Channel,
		TTL:      r.TTL,
		Mode:     r.Mode,
	}
}
