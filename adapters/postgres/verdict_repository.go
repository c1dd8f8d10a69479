package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goqc/domain/core"
	"goqc/domain/qc"
	"goqc/ports"

	"github.com/jmoiron/sqlx"
)

// resultsColumn stores a verdict's result sequence as JSONB
type resultsColumn []qc.Result

func (rc resultsColumn) Value() (driver.Value, error) {
	return json.Marshal(rc)
}

func (rc *resultsColumn) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("results column: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, rc)
}

// derivedColumn stores a verdict's derived figures as JSONB
type derivedColumn map[string]float64

func (dc derivedColumn) Value() (driver.Value, error) {
	if dc == nil {
		return nil, nil
	}
	return json.Marshal(dc)
}

func (dc *derivedColumn) Scan(src interface{}) error {
	if src == nil {
		*dc = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("derived column: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, dc)
}

// verdictRow is the database shape of a verdict
type verdictRow struct {
	ID       string        `db:"id"`
	Section  string        `db:"section"`
	Protocol string        `db:"protocol"`
	Overall  string        `db:"overall"`
	Results  resultsColumn `db:"results"`
	Derived  derivedColumn `db:"derived"`
	Created  time.Time     `db:"created_at"`
}

func (r verdictRow) toDomain() qc.Verdict {
	return qc.Verdict{
		ID:       core.VerdictID(r.ID),
		Section:  core.SectionID(r.Section),
		Protocol: core.ProtocolID(r.Protocol),
		Overall:  qc.Status(r.Overall),
		Results:  r.Results,
		Derived:  r.Derived,
		Created:  core.NewTimestamp(r.Created),
	}
}

// VerdictRepositoryImpl implements VerdictRepository for PostgreSQL
type VerdictRepositoryImpl struct {
	db *sqlx.DB
}

// NewVerdictRepository creates a new PostgreSQL verdict repository
func NewVerdictRepository(db *sqlx.DB) ports.VerdictRepository {
	return &VerdictRepositoryImpl{db: db}
}

// Migrate creates the verdicts table if it does not exist
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS verdicts (
			id UUID PRIMARY KEY,
			section TEXT NOT NULL,
			protocol TEXT NOT NULL DEFAULT '',
			overall TEXT NOT NULL,
			results JSONB NOT NULL,
			derived JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (section, protocol)
		)
	`)
	return err
}

// Save upserts a verdict keyed by (section, protocol)
func (r *VerdictRepositoryImpl) Save(ctx context.Context, verdict qc.Verdict) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verdicts (id, section, protocol, overall, results, derived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (section, protocol) DO UPDATE
		SET id = EXCLUDED.id, overall = EXCLUDED.overall, results = EXCLUDED.results,
		    derived = EXCLUDED.derived, created_at = EXCLUDED.created_at
	`, verdict.ID.String(), verdict.Section.String(), verdict.Protocol.String(),
		string(verdict.Overall), resultsColumn(verdict.Results), derivedColumn(verdict.Derived),
		verdict.Created.Time())
	return err
}

// Get retrieves the verdict for a section and protocol
func (r *VerdictRepositoryImpl) Get(ctx context.Context, section core.SectionID, protocol core.ProtocolID) (*qc.Verdict, error) {
	var row verdictRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, section, protocol, overall, results, derived, created_at
		FROM verdicts
		WHERE section = $1 AND protocol = $2
	`, section.String(), protocol.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrVerdictNotFound
	}
	if err != nil {
		return nil, err
	}
	verdict := row.toDomain()
	return &verdict, nil
}

// ListBySection returns all verdicts for one section
func (r *VerdictRepositoryImpl) ListBySection(ctx context.Context, section core.SectionID) ([]qc.Verdict, error) {
	var rows []verdictRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, section, protocol, overall, results, derived, created_at
		FROM verdicts
		WHERE section = $1
		ORDER BY protocol
	`, section.String())
	if err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

// ListAll returns every stored verdict
func (r *VerdictRepositoryImpl) ListAll(ctx context.Context) ([]qc.Verdict, error) {
	var rows []verdictRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, section, protocol, overall, results, derived, created_at
		FROM verdicts
		ORDER BY section, protocol
	`)
	if err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

// Delete removes the verdict for a section and protocol
func (r *VerdictRepositoryImpl) Delete(ctx context.Context, section core.SectionID, protocol core.ProtocolID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM verdicts WHERE section = $1 AND protocol = $2
	`, section.String(), protocol.String())
	return err
}

func rowsToDomain(rows []verdictRow) []qc.Verdict {
	verdicts := make([]qc.Verdict, len(rows))
	for i, row := range rows {
		verdicts[i] = row.toDomain()
	}
	return verdicts
}
