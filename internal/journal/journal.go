// Package journal keeps an append-only DuckDB record of published
// recommendations and position transitions. The last transition is enough
// to restore the position machine after a restart.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/position"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id VARCHAR PRIMARY KEY,
	seq UBIGINT,
	symbol VARCHAR,
	interval VARCHAR,
	valid BOOLEAN,
	side VARCHAR,
	signal VARCHAR,
	direction INTEGER,
	exit_reason VARCHAR,
	entry_price DOUBLE,
	stop_loss DOUBLE,
	stop_profit DOUBLE,
	position VARCHAR,
	quantity VARCHAR,
	update_time TIMESTAMP,
	generated_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS transitions (
	symbol VARCHAR,
	time TIMESTAMP,
	signal VARCHAR,
	action VARCHAR,
	exit_reason VARCHAR,
	side VARCHAR,
	entry_price DOUBLE,
	stop_loss DOUBLE,
	stop_profit DOUBLE,
	opened_at TIMESTAMP,
	notional VARCHAR
);
`

// Journal is safe for concurrent use.
type Journal struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
	mu     sync.Mutex
}

// Open creates or reopens the journal at path. An empty path keeps it in memory.
func Open(path string, log *logger.Logger) (*Journal, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to open duckdb", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to create journal tables", err)
	}

	return &Journal{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: log.Named("journal"),
		mu:     sync.Mutex{},
	}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores rec and every transition in one transaction.
func (j *Journal) Record(ctx context.Context, rec *types.Recommendation, outcomes []position.Outcome) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to begin transaction", err)
	}

	if err := j.insertRecommendation(ctx, tx, rec); err != nil {
		tx.Rollback()

		return err
	}

	for _, o := range outcomes {
		if err := j.insertTransition(ctx, tx, rec.Symbol, o); err != nil {
			tx.Rollback()

			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to commit journal entry", err)
	}

	j.logger.Debug("Journaled recommendation", zap.Uint64("seq", rec.Seq), zap.Int("transitions", len(outcomes)))

	return nil
}

func (j *Journal) insertRecommendation(ctx context.Context, tx *sql.Tx, rec *types.Recommendation) error {
	query, args, err := j.sq.
		Insert("recommendations").
		Columns("id", "seq", "symbol", "interval", "valid", "side", "signal", "direction", "exit_reason",
			"entry_price", "stop_loss", "stop_profit", "position", "quantity", "update_time", "generated_at").
		Values(rec.ID, rec.Seq, rec.Symbol, rec.Interval, rec.Valid, string(rec.Side), string(rec.Signal), rec.Direction,
			string(rec.ExitReason), rec.EntryPrice, rec.StopLoss, rec.StopProfit, rec.Position.String(), rec.Quantity.String(),
			rec.UpdateTime.UTC(), rec.GeneratedAt.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert recommendation", err)
	}

	return nil
}

func (j *Journal) insertTransition(ctx context.Context, tx *sql.Tx, symbol string, o position.Outcome) error {
	r := o.Record

	query, args, err := j.sq.
		Insert("transitions").
		Columns("symbol", "time", "signal", "action", "exit_reason", "side",
			"entry_price", "stop_loss", "stop_profit", "opened_at", "notional").
		Values(symbol, o.Time.UTC(), string(o.Signal), string(o.Action), string(o.ExitReason), string(r.Side),
			nullable(r.EntryPrice), nullable(r.StopLoss), nullable(r.StopProfit), nullableTime(r.OpenedAt), nullableDecimal(r.Notional)).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert transition", err)
	}

	return nil
}

// LastRecord rebuilds the position record left by the newest transition for symbol.
func (j *Journal) LastRecord(ctx context.Context, symbol string) (types.PositionRecord, bool, error) {
	query, args, err := j.sq.
		Select("time", "side", "entry_price", "stop_loss", "stop_profit", "opened_at", "notional").
		From("transitions").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return types.PositionRecord{}, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err) //nolint:exhaustruct
	}

	var (
		barTime    time.Time
		side       string
		entry      sql.NullFloat64
		stopLoss   sql.NullFloat64
		stopProfit sql.NullFloat64
		openedAt   sql.NullTime
		notional   sql.NullString
	)

	err = j.db.QueryRowContext(ctx, query, args...).Scan(&barTime, &side, &entry, &stopLoss, &stopProfit, &openedAt, &notional)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NewFlatPosition(), false, nil
	}

	if err != nil {
		return types.PositionRecord{}, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read last transition", err) //nolint:exhaustruct
	}

	record := types.NewFlatPosition()
	record.LastProcessed = optional.Some(barTime.UTC())

	if types.PositionSide(side) == types.PositionSideFlat {
		return record, true, nil
	}

	record.Side = types.PositionSide(side)
	if entry.Valid {
		record.EntryPrice = optional.Some(entry.Float64)
	}

	if stopLoss.Valid {
		record.StopLoss = optional.Some(stopLoss.Float64)
	}

	if stopProfit.Valid {
		record.StopProfit = optional.Some(stopProfit.Float64)
	}

	if openedAt.Valid {
		record.OpenedAt = optional.Some(openedAt.Time.UTC())
	}

	if notional.Valid {
		d, err := decimal.NewFromString(notional.String)
		if err != nil {
			return types.PositionRecord{}, false, errors.Wrap(errors.ErrCodePositionCorrupted, "invalid notional in journal", err) //nolint:exhaustruct
		}

		record.Notional = optional.Some(d)
	}

	if !record.Consistent() {
		return types.PositionRecord{}, false, errors.Newf(errors.ErrCodePositionCorrupted, "journaled %s position is incomplete", side) //nolint:exhaustruct
	}

	return record, true, nil
}

// Recent returns up to limit recommendations for symbol, newest first.
func (j *Journal) Recent(ctx context.Context, symbol string, limit int) ([]types.Recommendation, error) {
	query, args, err := j.sq.
		Select("id", "seq", "symbol", "interval", "valid", "side", "signal", "direction", "exit_reason",
			"entry_price", "stop_loss", "stop_profit", "position", "quantity", "update_time", "generated_at").
		From("recommendations").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("generated_at DESC", "seq DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query recommendations", err)
	}
	defer rows.Close()

	var out []types.Recommendation

	for rows.Next() {
		var rec types.Recommendation

		var side, signal, exitReason, pos, quantity string

		err := rows.Scan(&rec.ID, &rec.Seq, &rec.Symbol, &rec.Interval, &rec.Valid, &side, &signal, &rec.Direction,
			&exitReason, &rec.EntryPrice, &rec.StopLoss, &rec.StopProfit, &pos, &quantity, &rec.UpdateTime, &rec.GeneratedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan recommendation", err)
		}

		rec.Side = types.PositionSide(side)
		rec.Signal = types.Action(signal)
		rec.ExitReason = types.ExitReason(exitReason)
		rec.Position, _ = decimal.NewFromString(pos)
		rec.Quantity, _ = decimal.NewFromString(quantity)
		rec.UpdateTime = rec.UpdateTime.UTC()
		rec.GeneratedAt = rec.GeneratedAt.UTC()

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return out, nil
}

// Export writes the recommendations table to a parquet file.
func (j *Journal) Export(ctx context.Context, path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// COPY takes no bind parameters
	query := fmt.Sprintf(`COPY (SELECT * FROM recommendations ORDER BY generated_at, seq) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(path, "'", "''"))

	if _, err := j.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(errors.ErrCodeJournalWriteFailed, err, "failed to export journal to %s", path)
	}

	return nil
}

func nullable(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}

func nullableTime(v optional.Option[time.Time]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap().UTC()
}

func nullableDecimal(v optional.Option[decimal.Decimal]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap().String()
}
