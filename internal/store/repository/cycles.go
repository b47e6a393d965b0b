package repository

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/store"
)

// CycleRepository persists cycle reports.
type CycleRepository struct {
	db Querier
}

// NewCycleRepository creates a new cycle repository.
func NewCycleRepository(db Querier) *CycleRepository {
	return &CycleRepository{db: db}
}

// Save stores one row per report.
func (r *CycleRepository) Save(ctx context.Context, reports []pipeline.CycleReport) error {
	query := `
		INSERT INTO cycle_reports (source, started_at, finished_at, candidates,
			new_games, existing, published, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, rep := range reports {
		failed := rep.Failed
		if failed == nil {
			failed = []string{}
		}
		if _, err := r.db.ExecContext(ctx, query,
			rep.Source, rep.StartedAt, rep.FinishedAt, rep.Candidates,
			rep.New, rep.Existing, rep.Published, pq.Array(failed), rep.Error,
		); err != nil {
			return errors.Wrapf(err, "insert cycle report for %s", rep.Source)
		}
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (r *CycleRepository) Recent(ctx context.Context, limit int) ([]*store.CycleReportRow, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT report_id, source, started_at, finished_at, candidates,
			new_games, existing, published, failed, error
		FROM cycle_reports
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query cycle reports")
	}
	defer rows.Close()

	var out []*store.CycleReportRow
	for rows.Next() {
		row := &store.CycleReportRow{}
		if err := rows.Scan(
			&row.ReportID, &row.Source, &row.StartedAt, &row.FinishedAt, &row.Candidates,
			&row.New, &row.Existing, &row.Published, pq.Array(&row.Failed), &row.Error,
		); err != nil {
			return nil, errors.Wrap(err, "scan cycle report")
		}
		out = append(out, row)
	}
	return out, errors.Wrap(rows.Err(), "iterate cycle reports")
}
