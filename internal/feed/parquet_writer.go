package feed

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// ParquetWriter collects bars in an in-memory DuckDB table and exports them
// as a parquet file in the layout ParquetFeed reads.
type ParquetWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	written    int
}

func NewParquetWriter(outputPath string) *ParquetWriter {
	return &ParquetWriter{
		db:         nil,
		tx:         nil,
		stmt:       nil,
		outputPath: outputPath,
		written:    0,
	}
}

// Initialize opens the database, creates the table and prepares the insert.
func (w *ParquetWriter) Initialize() (err error) {
	if w.outputPath == "" {
		return errors.New(errors.ErrCodeMissingParameter, "parquet output path is required")
	}

	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFeedUnavailable, "failed to open duckdb", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE market_data (
			id TEXT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (id, time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare statement", err)
	}

	return nil
}

func (w *ParquetWriter) Write(symbol string, bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeQueryFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(uuid.NewString(), bar.Time, symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert bar", err)
	}

	w.written++

	return nil
}

// Written is the number of bars inserted so far.
func (w *ParquetWriter) Written() int {
	return w.written
}

// Finalize commits and exports the table ordered by time.
func (w *ParquetWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeQueryFailed, "writer not initialized")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit bars", err)
	}

	w.tx = nil

	query := fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY symbol, time) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(w.outputPath, "'", "''"))

	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to export %s", w.outputPath)
	}

	return w.outputPath, nil
}

func (w *ParquetWriter) Close() error {
	if w.stmt != nil {
		w.stmt.Close()
		w.stmt = nil
	}

	if w.tx != nil {
		w.tx.Rollback()
		w.tx = nil
	}

	if w.db == nil {
		return nil
	}

	err := w.db.Close()
	w.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to close duckdb", err)
	}

	return nil
}
