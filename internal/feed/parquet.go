package feed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// ParquetFeed serves bars from a parquet file through an in-memory DuckDB
// view. The file is re-read on every query, so a file that grows between
// refreshes is picked up.
type ParquetFeed struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	symbol string
	window *Window
	logger *logger.Logger
}

// NewParquetFeed opens path. The file needs time, open, high, low, close and
// volume columns, plus symbol when symbol is non-empty.
func NewParquetFeed(path string, symbol string, size int, log *logger.Logger) (*ParquetFeed, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "parquet path is required")
	}

	if size <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "window size must be positive, got %d", size)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to open duckdb", err)
	}

	// raw SQL since squirrel has no CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM read_parquet('%s');
	`, strings.ReplaceAll(path, "'", "''"))

	if _, err := db.Exec(query); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeFeedUnavailable, err, "failed to read parquet file %s", path)
	}

	return &ParquetFeed{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		symbol: symbol,
		window: NewWindow(size),
		logger: log.Named("parquet_feed"),
	}, nil
}

func (f *ParquetFeed) where() squirrel.And {
	conds := squirrel.And{}
	if f.symbol != "" {
		conds = append(conds, squirrel.Eq{"symbol": f.symbol})
	}

	return conds
}

// Refresh loads the newest bars after the last one already in the window.
func (f *ParquetFeed) Refresh(ctx context.Context) error {
	conds := f.where()
	if last, ok := f.window.Last(); ok {
		conds = append(conds, squirrel.Gt{"time": last.Time})
	}

	query, args, err := f.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(conds).
		OrderBy("time DESC").
		Limit(uint64(f.window.MaxSize())).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	bars, err := f.query(ctx, query, args...)
	if err != nil {
		return err
	}

	// newest first from the query
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	added := f.window.AddAll(bars)
	f.logger.Debug("Loaded parquet bars", zap.String("symbol", f.symbol), zap.Int("added", added))

	return nil
}

func (f *ParquetFeed) Bars() []types.Bar {
	return f.window.Bars()
}

// Count returns the number of bars between the optional bounds.
func (f *ParquetFeed) Count(ctx context.Context, start, end optional.Option[time.Time]) (int, error) {
	query, args, err := f.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(f.bounds(start, end)).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := f.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// History returns every bar between the optional bounds, oldest first.
func (f *ParquetFeed) History(ctx context.Context, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	query, args, err := f.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		Where(f.bounds(start, end)).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return f.query(ctx, query, args...)
}

func (f *ParquetFeed) bounds(start, end optional.Option[time.Time]) squirrel.And {
	conds := f.where()
	if start.IsSome() {
		conds = append(conds, squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		conds = append(conds, squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return conds
}

func (f *ParquetFeed) query(ctx context.Context, query string, args ...any) ([]types.Bar, error) {
	rows, err := f.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var b types.Bar

		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan row", err)
		}

		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return bars, nil
}

func (f *ParquetFeed) Close() error {
	return f.db.Close()
}
