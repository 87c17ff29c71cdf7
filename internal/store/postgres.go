package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"

	"github.com/distancia360/agroanalytics/internal/db"
	"github.com/distancia360/agroanalytics/internal/refdata"
)

// Schema holds every reference table in Postgres.
const Schema = "agro"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	clock   clockwork.Clock
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, clock: clockwork.NewRealClock()}, nil
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS agro;

CREATE TABLE IF NOT EXISTS agro.municipalities (
	seq     INTEGER NOT NULL,
	cvegeo  TEXT NOT NULL,
	cve_ent TEXT NOT NULL DEFAULT '',
	nom_ent TEXT NOT NULL DEFAULT '',
	nomgeo  TEXT NOT NULL DEFAULT '',
	lon     DOUBLE PRECISION,
	lat     DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS agro.precipitation (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	clave  TEXT NOT NULL DEFAULT '',
	rangos TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agro.temperature (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	rangos TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agro.climate_units (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	tipo_n TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agro.soils (
	seq        INTEGER NOT NULL,
	cvegeo     TEXT NOT NULL,
	clave_wrb  TEXT,
	grupo1     TEXT,
	grupo2     TEXT,
	grupo3     TEXT,
	clase_text TEXT,
	frudica    TEXT
);

CREATE TABLE IF NOT EXISTS agro.landforms (
	seq         INTEGER NOT NULL,
	cvegeo      TEXT NOT NULL,
	clave       TEXT NOT NULL DEFAULT '',
	nombre      TEXT NOT NULL DEFAULT '',
	descripcion TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agro.aptitudes (
	seq     INTEGER NOT NULL,
	cvegeo  TEXT NOT NULL,
	cultivo TEXT NOT NULL,
	aptitud DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS agro.crops (
	seq        INTEGER NOT NULL,
	idcultivo  TEXT NOT NULL,
	nomcultivo TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agro.closures (
	seq       INTEGER NOT NULL,
	cvegeo    TEXT NOT NULL,
	idcultivo TEXT NOT NULL,
	anio      BIGINT,
	volumen   DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS agro.drought (
	seq    INTEGER NOT NULL,
	cvegeo TEXT NOT NULL,
	fecha  TEXT,
	nivel  DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS agro.imports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	row_counts  JSONB NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_precipitation_cvegeo ON agro.precipitation(cvegeo);
CREATE INDEX IF NOT EXISTS idx_aptitudes_cultivo ON agro.aptitudes(cultivo);
CREATE INDEX IF NOT EXISTS idx_closures_cvegeo ON agro.closures(cvegeo);
CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON agro.imports(imported_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ImportTables(ctx context.Context, source string, t *refdata.Tables) (*ImportRun, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: import: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	names := make([]string, len(referenceTables))
	for i, tb := range referenceTables {
		names[i] = db.QualifiedName(Schema + "." + tb.name)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+strings.Join(names, ", ")); err != nil {
		return nil, eris.Wrap(err, "postgres: import: truncate")
	}

	for _, tb := range referenceTables {
		if _, err := db.CopyFromSchema(ctx, tx, Schema, tb.name, tb.insertColumns(), tb.rows(t)); err != nil {
			return nil, eris.Wrapf(err, "postgres: import %s", tb.name)
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
		return nil, eris.Wrap(err, "postgres: import: marshal counts")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO agro.imports (id, source, row_counts, imported_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Source, counts, run.ImportedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: import: record run")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: import: commit tx")
	}
	return run, nil
}

func (s *PostgresStore) LoadTables(ctx context.Context) (*refdata.Tables, error) {
	t := &refdata.Tables{}
	for _, tb := range referenceTables {
		query := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq",
			db.QuoteColumns(tb.columns), db.QualifiedName(Schema+"."+tb.name))
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: load %s", tb.name)
		}
		err = scanAll(t, tb, rows)
		rows.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: load %s", tb.name)
		}
	}
	return t, nil
}

func (s *PostgresStore) LastImport(ctx context.Context) (*ImportRun, error) {
	var run ImportRun
	var counts []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, source, row_counts, imported_at FROM agro.imports ORDER BY imported_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.Source, &counts, &run.ImportedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: last import")
	}
	if err := json.Unmarshal(counts, &run.Rows); err != nil {
		return nil, eris.Wrap(err, "postgres: last import: unmarshal counts")
	}
	return &run, nil
}
