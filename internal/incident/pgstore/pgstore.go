// Package pgstore provides a PostgreSQL implementation of incident.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/warden/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/incident/pgstore")

//go:embed schema.sql
var schema string

// Store persists incidents in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store. The
// caller owns the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const incidentColumns = `id, title, description, status, priority, analysis, created_at, updated_at`

func startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Create inserts a new incident. A duplicate id is an error.
func (s *Store) Create(ctx context.Context, inc *incident.Incident) error {
	ctx, span := startSpan(ctx, "pgstore.Create", "INSERT")
	defer span.End()

	analysisJSON, err := marshalAnalysis(inc.Analysis)
	if err != nil {
		fail(span, err)
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO incidents (`+incidentColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		inc.ID, inc.Title, inc.Description, string(inc.Status), string(inc.Priority),
		analysisJSON, inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("insert incident: %w", err)
		fail(span, err)
		return err
	}
	return nil
}

// FindAll returns every incident ordered by creation time.
func (s *Store) FindAll(ctx context.Context) ([]*incident.Incident, error) {
	ctx, span := startSpan(ctx, "pgstore.FindAll", "SELECT")
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT `+incidentColumns+` FROM incidents ORDER BY created_at, id`)
	if err != nil {
		err = fmt.Errorf("query incidents: %w", err)
		fail(span, err)
		return nil, err
	}
	defer rows.Close()

	out := []*incident.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			fail(span, err)
			return nil, err
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		err = fmt.Errorf("iterate incidents: %w", err)
		fail(span, err)
		return nil, err
	}
	return out, nil
}

// FindByID retrieves an incident by ID.
func (s *Store) FindByID(ctx context.Context, id string) (*incident.Incident, bool, error) {
	ctx, span := startSpan(ctx, "pgstore.FindByID", "SELECT")
	defer span.End()

	inc, err := scanIncident(s.pool.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		fail(span, err)
		return nil, false, err
	}
	return inc, true, nil
}

// Update locks the row, applies fn and writes the result in one transaction.
func (s *Store) Update(ctx context.Context, id string, fn incident.MutateFunc) (*incident.Incident, error) {
	ctx, span := startSpan(ctx, "pgstore.Update", "UPDATE")
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	inc, err := scanIncident(tx.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, incident.ErrNotFound
	}
	if err != nil {
		fail(span, err)
		return nil, err
	}

	if err := fn(inc); err != nil {
		return nil, err
	}

	analysisJSON, err := marshalAnalysis(inc.Analysis)
	if err != nil {
		fail(span, err)
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE incidents SET title = $2, description = $3, status = $4, priority = $5,
		 analysis = $6, updated_at = $7 WHERE id = $1`,
		inc.ID, inc.Title, inc.Description, string(inc.Status), string(inc.Priority),
		analysisJSON, inc.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("update incident: %w", err)
		fail(span, err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		fail(span, err)
		return nil, fmt.Errorf("commit: %w", err)
	}
	return inc, nil
}

func marshalAnalysis(a *incident.Analysis) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	return b, nil
}

// scanIncident scans a single row. pgx.ErrNoRows is returned unwrapped.
func scanIncident(row pgx.Row) (*incident.Incident, error) {
	var (
		inc          incident.Incident
		status       string
		priority     string
		analysisJSON []byte
	)
	err := row.Scan(&inc.ID, &inc.Title, &inc.Description, &status, &priority,
		&analysisJSON, &inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	inc.Status = incident.Status(status)
	inc.Priority = incident.Priority(priority)

	if len(analysisJSON) > 0 {
		var a incident.Analysis
		if err := json.Unmarshal(analysisJSON, &a); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		inc.Analysis = &a
	}
	return &inc, nil
}
