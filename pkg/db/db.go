// Package db writes normalized EDGAR results to a SQLite file. It is an
// export target only; nothing in this module reads exports back to answer
// a request.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saranrapjs/edgar-xbrl/pkg/edgar"
	"github.com/saranrapjs/edgar-xbrl/pkg/facts"
	_ "modernc.org/sqlite"
)

const batchSize = 1000

// Kinds of export.
const (
	KindFilings = "filings"
	KindFacts   = "facts"
	KindFrame   = "frame"
)

// DB wraps a SQLite database connection for export storage
type DB struct {
	conn *sql.DB
}

// Export describes one export run.
type Export struct {
	ID        string
	Kind      string
	Subject   string
	Rows      int
	CreatedAt time.Time
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

var schema = []struct {
	name string
	sql  string
}{
	{"exports", `
		CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			subject TEXT NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`},
	{"filings", `
		CREATE TABLE IF NOT EXISTS filings (
			export_id TEXT NOT NULL REFERENCES exports(id),
			position INTEGER NOT NULL,
			cik TEXT NOT NULL,
			accession_number TEXT NOT NULL,
			form TEXT NOT NULL,
			filing_date TEXT NOT NULL,
			report_date TEXT NOT NULL,
			primary_document TEXT NOT NULL,
			filing BLOB NOT NULL,
			PRIMARY KEY (export_id, position)
		);`},
	{"observations", `
		CREATE TABLE IF NOT EXISTS observations (
			export_id TEXT NOT NULL REFERENCES exports(id),
			cik TEXT NOT NULL,
			taxonomy TEXT NOT NULL,
			tag TEXT NOT NULL,
			unit TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			val REAL NOT NULL,
			accn TEXT NOT NULL,
			fy INTEGER,
			fp TEXT NOT NULL,
			form TEXT NOT NULL,
			filed TEXT NOT NULL,
			frame TEXT NOT NULL
		);`},
	{"frame_entries", `
		CREATE TABLE IF NOT EXISTS frame_entries (
			export_id TEXT NOT NULL REFERENCES exports(id),
			taxonomy TEXT NOT NULL,
			tag TEXT NOT NULL,
			unit TEXT NOT NULL,
			period TEXT NOT NULL,
			cik TEXT NOT NULL,
			entity_name TEXT NOT NULL,
			loc TEXT NOT NULL,
			end_date TEXT NOT NULL,
			val REAL NOT NULL,
			accn TEXT NOT NULL
		);`},
	{"observations index", `CREATE INDEX IF NOT EXISTS idx_observations_tag ON observations(export_id, taxonomy, tag);`},
}

// createTables creates the required tables if they don't exist
func (db *DB) createTables() error {
	for _, s := range schema {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}
	return nil
}

// insertRows runs query once per row inside tx, checking ctx every
// batchSize rows.
func insertRows[T any](ctx context.Context, tx *sql.Tx, query string, rows []T, args func(int, T) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if i%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx, args(i, row)...); err != nil {
			return fmt.Errorf("failed to store row %d: %w", i, err)
		}
	}
	return nil
}

// export records one run and its rows in a single transaction, so a
// failed run leaves neither an exports row nor partial data behind.
func (db *DB) export(ctx context.Context, kind, subject string, rows int, store func(tx *sql.Tx, id string) error) (string, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO exports (id, kind, subject, row_count) VALUES (?, ?, ?, ?)`, id, kind, subject, rows); err != nil {
		return "", fmt.Errorf("failed to record export: %w", err)
	}
	if err := store(tx, id); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit export %s: %w", id, err)
	}
	return id, nil
}

// ExportFilings stores a merged filing history and returns the export ID.
func (db *DB) ExportFilings(ctx context.Context, cik edgar.CIK, filings []edgar.Filing) (string, error) {
	encoded := make([][]byte, len(filings))
	for i, f := range filings {
		var err error
		if encoded[i], err = json.Marshal(f); err != nil {
			return "", fmt.Errorf("failed to serialize filing: %w", err)
		}
	}
	query := `
		INSERT INTO filings (export_id, position, cik, accession_number, form, filing_date, report_date, primary_document, filing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return db.export(ctx, KindFilings, string(cik), len(filings), func(tx *sql.Tx, id string) error {
		err := insertRows(ctx, tx, query, filings, func(i int, f edgar.Filing) []any {
			return []any{id, i, string(f.CIK), f.AccessionNumber, f.Form, f.FilingDate, f.ReportDate, f.PrimaryDocument, encoded[i]}
		})
		if err != nil {
			return fmt.Errorf("failed to store filings: %w", err)
		}
		return nil
	})
}

// ExportObservations stores normalized facts for a company.
func (db *DB) ExportObservations(ctx context.Context, cik edgar.CIK, obs []facts.Observation) (string, error) {
	query := `
		INSERT INTO observations (export_id, cik, taxonomy, tag, unit, start_date, end_date, val, accn, fy, fp, form, filed, frame)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return db.export(ctx, KindFacts, string(cik), len(obs), func(tx *sql.Tx, id string) error {
		err := insertRows(ctx, tx, query, obs, func(_ int, o facts.Observation) []any {
			v := o.Value
			var fy sql.NullInt64
			if v.FY != nil {
				fy = sql.NullInt64{Int64: int64(*v.FY), Valid: true}
			}
			return []any{id, string(cik), o.Taxonomy, o.Tag, o.Unit, v.Start, v.End, v.Val, v.Accn, fy, v.FP, v.Form, v.Filed, v.Frame}
		})
		if err != nil {
			return fmt.Errorf("failed to store observations: %w", err)
		}
		return nil
	})
}

// ExportFrame stores every entry of a frame.
func (db *DB) ExportFrame(ctx context.Context, frame *edgar.Frame) (string, error) {
	subject := fmt.Sprintf("%s/%s/%s/%s", frame.Taxonomy, frame.Tag, frame.UOM, frame.CCP)
	query := `
		INSERT INTO frame_entries (export_id, taxonomy, tag, unit, period, cik, entity_name, loc, end_date, val, accn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return db.export(ctx, KindFrame, subject, len(frame.Data), func(tx *sql.Tx, id string) error {
		err := insertRows(ctx, tx, query, frame.Data, func(_ int, e edgar.FrameEntry) []any {
			return []any{id, frame.Taxonomy, frame.Tag, frame.UOM, frame.CCP, string(e.CIK), e.EntityName, e.Loc, e.End, e.Val, e.Accn}
		})
		if err != nil {
			return fmt.Errorf("failed to store frame: %w", err)
		}
		return nil
	})
}

// ListExports returns every recorded export, newest first.
func (db *DB) ListExports(ctx context.Context) ([]Export, error) {
	query := `SELECT id, kind, subject, row_count, created_at FROM exports ORDER BY created_at DESC, rowid DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.Kind, &e.Subject, &e.Rows, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}
