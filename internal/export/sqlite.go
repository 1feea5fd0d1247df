package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	_ "modernc.org/sqlite"

	"github.com/sells-group/locations-cli/internal/locations"
)

// SQLiteWriter stores run results in a SQLite database.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteWriter, error) {
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteWriter{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	companies  INTEGER NOT NULL,
	results    INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS place_results (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL REFERENCES runs(id),
	company_name    TEXT NOT NULL,
	company_keyword TEXT NOT NULL,
	result_name     TEXT NOT NULL,
	types           TEXT NOT NULL,
	lat             REAL NOT NULL,
	lon             REAL NOT NULL,
	vicinity        TEXT NOT NULL,
	geom            BLOB,
	position        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_place_results_run_id ON place_results(run_id);
CREATE INDEX IF NOT EXISTS idx_place_results_company ON place_results(company_name);
`

// Migrate creates the schema when missing.
func (s *SQLiteWriter) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}

// Save writes every result of the run in one transaction and returns the
// number of rows inserted.
func (s *SQLiteWriter) Save(ctx context.Context, runID string, companies []*locations.CompanyLocations) (int, error) {
	if runID == "" {
		return 0, eris.New("sqlite: run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	total := 0
	for _, c := range companies {
		total += c.Len()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, companies, results, created_at) VALUES (?, ?, ?, ?)`,
		runID, len(companies), total, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert run %s", runID)
	}

	inserted := 0
	for _, c := range companies {
		for i, r := range c.Results() {
			types, err := json.Marshal(r.Types())
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: marshal types for %s", r.Name())
			}
			point, err := ewkb.Marshal(pointOf(r.Location()), ewkb.NDR)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: encode point for %s", r.Name())
			}

			loc := r.Location()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO place_results
					(id, run_id, company_name, company_keyword, result_name, types, lat, lon, vicinity, geom, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), runID, c.Name(), r.Keyword(), r.Name(), string(types),
				loc.Lat, loc.Lon, r.Vicinity(), point, i,
			)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert result %s for %s", r.Name(), c.Name())
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit results")
	}
	return inserted, nil
}

// LoadRun reads back the aggregates stored for runID, companies in name
// order and results in insertion order.
func (s *SQLiteWriter) LoadRun(ctx context.Context, runID string) ([]locations.CompanyData, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_name, company_keyword, result_name, types, lat, lon, vicinity
		FROM place_results
		WHERE run_id = ?
		ORDER BY company_name, position`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var out []locations.CompanyData
	for rows.Next() {
		var (
			company, types string
			rd             locations.ResultData
		)
		if err := rows.Scan(&company, &rd.CompanyKeyword, &rd.ResultName, &types,
			&rd.Geometry.Lat, &rd.Geometry.Lon, &rd.Vicinity); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		if err := json.Unmarshal([]byte(types), &rd.Types); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal types")
		}

		if n := len(out); n == 0 || out[n-1].CompanyName != company {
			out = append(out, locations.CompanyData{CompanyName: company})
		}
		last := &out[len(out)-1]
		last.QueryResultList = append(last.QueryResultList, rd)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate results")
}
