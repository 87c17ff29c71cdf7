package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/distancia360/agroanalytics/internal/refdata"
)

// importTimeLayout sorts lexically in time order for UTC values.
const importTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	clock clockwork.Clock
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, clock: clockwork.NewRealClock()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS municipalities (
	seq     INTEGER NOT NULL,
	cvegeo  TEXT NOT NULL,
	cve_ent TEXT NOT NULL DEFAULT '',
	nom_ent TEXT NOT NULL DEFAULT '',
	nomgeo  TEXT NOT NULL DEFAULT '',
	lon     REAL,
	lat     REAL
);

CREATE TABLE IF NOT EXISTS precipitation (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	clave  TEXT NOT NULL DEFAULT '',
	rangos TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS temperature (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	rangos TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS climate_units (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	tipo_n TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS soils (
	seq        INTEGER NOT NULL,
	cvegeo     TEXT NOT NULL,
	clave_wrb  TEXT,
	grupo1     TEXT,
	grupo2     TEXT,
	grupo3     TEXT,
	clase_text TEXT,
	frudica    TEXT
);

CREATE TABLE IF NOT EXISTS landforms (
	seq         INTEGER NOT NULL,
	cvegeo      TEXT NOT NULL,
	clave       TEXT NOT NULL DEFAULT '',
	nombre      TEXT NOT NULL DEFAULT '',
	descripcion TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS aptitudes (
	seq     INTEGER NOT NULL,
	cvegeo  TEXT NOT NULL,
	cultivo TEXT NOT NULL,
	aptitud REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS crops (
	seq        INTEGER NOT NULL,
	idcultivo  TEXT NOT NULL,
	nomcultivo TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS closures (
	seq       INTEGER NOT NULL,
	cvegeo    TEXT NOT NULL,
	idcultivo TEXT NOT NULL,
	anio      INTEGER,
	volumen   REAL
);

CREATE TABLE IF NOT EXISTS drought (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	fecha  TEXT,
	nivel  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	row_counts  TEXT NOT NULL,
	imported_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_precipitation_cvegeo ON precipitation(cvegeo);
CREATE INDEX IF NOT EXISTS idx_aptitudes_cultivo ON aptitudes(cultivo);
CREATE INDEX IF NOT EXISTS idx_closures_cvegeo ON closures(cvegeo);
CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ImportTables(ctx context.Context, source string, t *refdata.Tables) (*ImportRun, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: import: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, tb := range referenceTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+tb.name); err != nil {
			return nil, eris.Wrapf(err, "sqlite: import: clear %s", tb.name)
		}
		rows := tb.rows(t)
		if len(rows) == 0 {
			continue
		}
		if err := insertRows(ctx, tx, tb, rows); err != nil {
			return nil, err
		}
	}

	run := &ImportRun{
		ID:         uuid.New().String(),
		Source:     source,
		Rows:       t.Counts(),
		ImportedAt: s.clock.Now().UTC(),
	}
	counts, err := json.Marshal(run.Rows)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: import: marshal counts")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, row_counts, imported_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, string(counts), run.ImportedAt.Format(importTimeLayout),
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: import: record run")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: import: commit tx")
	}
	return run, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, tb table, rows [][]any) error {
	cols := tb.insertColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", tb.name, strings.Join(cols, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: import: prepare %s", tb.name)
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = sqliteValue(v)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return eris.Wrapf(err, "sqlite: import: insert %s row %d", tb.name, i)
		}
	}
	return nil
}

// sqliteValue dereferences optional columns so NULLs reach the driver as nil.
func sqliteValue(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return nil
		}
		return *p
	case *float64:
		if p == nil {
			return nil
		}
		return *p
	case *int64:
		if p == nil {
			return nil
		}
		return *p
	default:
		return v
	}
}

func (s *SQLiteStore) LoadTables(ctx context.Context) (*refdata.Tables, error) {
	t := &refdata.Tables{}
	for _, tb := range referenceTables {
		query := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", strings.Join(tb.columns, ", "), tb.name)
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: load %s", tb.name)
		}
		if err := scanAll(t, tb, rows); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "sqlite: load %s", tb.name)
		}
		if err := rows.Close(); err != nil {
			return nil, eris.Wrapf(err, "sqlite: load %s: close", tb.name)
		}
	}
	return t, nil
}

func scanAll(t *refdata.Tables, tb table, rows rowScanner) error {
	for rows.Next() {
		if err := tb.scan(t, rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) LastImport(ctx context.Context) (*ImportRun, error) {
	var run ImportRun
	var counts, at string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, row_counts, imported_at FROM imports ORDER BY imported_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.Source, &counts, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last import")
	}
	if err := json.Unmarshal([]byte(counts), &run.Rows); err != nil {
		return nil, eris.Wrap(err, "sqlite: last import: unmarshal counts")
	}
	run.ImportedAt, err = time.Parse(importTimeLayout, at)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last import: parse time")
	}
	return &run, nil
}
