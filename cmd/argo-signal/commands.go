package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/alpha"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/feed"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/pipeline"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func loadConfig(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create logger", err)
	}

	return cfg, log, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	a, err := newApp(ctx, cfg, log, appOptions{}) //nolint:exhaustruct
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("Starting signal process",
		zap.String("version", version.String()),
		zap.String("symbol", cfg.Symbol),
		zap.String("interval", cfg.Interval),
		zap.String("alpha", cfg.Strategy.Alpha),
		zap.String("feed", string(cfg.Feed.Provider)))

	if err := a.Run(ctx); err != nil {
		return err
	}

	log.Info("Signal process stopped")

	return nil
}

func onceAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if cfg.Feed.Provider != config.FeedParquet {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "once replays a parquet feed, config uses %s", cfg.Feed.Provider)
	}

	source, err := feed.NewParquetFeed(cfg.Feed.ParquetPath, cfg.Symbol, cfg.WindowSize, log)
	if err != nil {
		return err
	}
	defer source.Close()

	bars, err := source.History(ctx, timeOption(cmd.Timestamp("from")), timeOption(cmd.Timestamp("to")))
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log, appOptions{feed: source}) //nolint:exhaustruct
	if err != nil {
		return err
	}
	defer a.Close()

	progress := progressbar.NewOptions(len(bars),
		progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s", cfg.Symbol)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr))

	result := replay(ctx, a.pipeline, bars, cfg.WindowSize, func() { _ = progress.Add(1) })
	_ = progress.Finish()
	fmt.Fprintln(os.Stderr)

	if result.Failed() {
		return result.Reason
	}

	rec, ok := a.bus.Latest()
	if !ok {
		return errors.NewInsufficientDataError(a.pipeline.Warmup()+1, len(bars), cfg.Symbol)
	}

	if err := a.dispatcher.Dispatch(ctx, rec); err != nil && !dispatch.IsIncomplete(err) {
		log.Warn("Dispatch failed", zap.Error(err))
	}

	if path := cmd.String("export"); path != "" && a.journal != nil {
		if err := a.journal.Export(ctx, path); err != nil {
			return err
		}
	}

	return writeYAML(os.Stdout, rec)
}

// replay feeds bars to p one at a time through a sliding window, the way a
// live feed would deliver them.
func replay(ctx context.Context, p *pipeline.Pipeline, bars []types.Bar, window int, step func()) pipeline.Result {
	var result pipeline.Result

	for i := range bars {
		if ctx.Err() != nil {
			return pipeline.Result{Status: pipeline.StatusFailure, Reason: ctx.Err(), Recommendation: nil, Outcomes: nil}
		}

		lo := max(0, i+1-window)
		result = p.Process(ctx, bars[lo:i+1])

		if result.Failed() {
			return result
		}

		step()
	}

	return result
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	a := &app{cfg: cfg, logger: log} //nolint:exhaustruct
	defer a.Close()

	source, err := a.newFeed()
	if err != nil {
		return err
	}

	if err := source.Refresh(ctx); err != nil {
		return err
	}

	n, err := saveBars(cmd.String("out"), cfg.Symbol, source.Bars())
	if err != nil {
		return err
	}

	log.Info("Saved bars", zap.String("symbol", cfg.Symbol), zap.Int("bars", n), zap.String("path", cmd.String("out")))

	return nil
}

func saveBars(path, symbol string, bars []types.Bar) (int, error) {
	w := feed.NewParquetWriter(path)
	if err := w.Initialize(); err != nil {
		return 0, err
	}
	defer w.Close()

	for _, b := range bars {
		if err := w.Write(symbol, b); err != nil {
			return 0, err
		}
	}

	if _, err := w.Finalize(); err != nil {
		return 0, err
	}

	return w.Written(), nil
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	strategy, err := cfg.BuildStrategy()
	if err != nil {
		return err
	}

	return describe(os.Stdout, cfg, strategy)
}

func describe(w io.Writer, cfg *config.Config, strategy alpha.Strategy) error {
	var b strings.Builder

	fmt.Fprintf(&b, "config ok: %s %s via %s\n", cfg.Symbol, cfg.Interval, cfg.Feed.Provider)
	fmt.Fprintf(&b, "alpha %s, volatility column %s\n", strategy.Name, strategy.VolatilityColumn)

	for _, spec := range strategy.Indicators {
		fmt.Fprintf(&b, "  indicator %-10s %s\n", spec.Name, spec.Type)
	}

	for i, rule := range strategy.Rules {
		fmt.Fprintf(&b, "  rule %d %-24s -> %s\n", i+1, rule.Name, rule.Signal)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func alphasAction(_ context.Context, _ *cli.Command) error {
	for _, name := range alpha.List() {
		defaults, _ := alpha.Defaults(name)

		fmt.Printf("%s\n", name)

		out, err := yaml.Marshal(defaults)
		if err != nil {
			return err
		}

		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			fmt.Printf("  %s\n", line)
		}
	}

	return nil
}

func versionAction(_ context.Context, _ *cli.Command) error {
	fmt.Println(version.String())

	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}

func timeOption(t time.Time) optional.Option[time.Time] {
	if t.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}
