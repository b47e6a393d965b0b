package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/store"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Querier is the subset of *sql.DB the repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const recordColumns = `record_id, title, source, source_url, game_date, season, competition,
	opponent, is_home_team, own_score, opponent_score, body, published_at, created_at`

// RecordRepository is the ledger of published records.
type RecordRepository struct {
	db     Querier
	logger *logging.Logger
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db Querier, logger *logging.Logger) *RecordRepository {
	return &RecordRepository{db: db, logger: logger.Component("ledger")}
}

// FromPublication maps a publication onto a ledger row.
func FromPublication(p pipeline.Publication) *store.PublishedRecord {
	return &store.PublishedRecord{
		Title:         p.Title,
		Source:        p.Source,
		SourceURL:     p.SourceURL,
		GameDate:      p.Record.Date,
		Season:        p.Record.Season,
		Competition:   p.Record.Competition,
		Opponent:      p.Record.Opponent,
		IsHomeTeam:    p.Record.IsHomeTeam,
		OwnScore:      p.Record.OwnScore,
		OpponentScore: p.Record.OpponentScore,
		Body:          p.Body,
		PublishedAt:   p.PublishedAt,
	}
}

// Insert stores rec. A title already in the ledger is left untouched.
func (r *RecordRepository) Insert(ctx context.Context, rec *store.PublishedRecord) error {
	query := `
		INSERT INTO published_records (title, source, source_url, game_date, season,
			competition, opponent, is_home_team, own_score, opponent_score, body, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (title) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.Title, rec.Source, rec.SourceURL, rec.GameDate, rec.Season,
		rec.Competition, rec.Opponent, rec.IsHomeTeam, rec.OwnScore, rec.OpponentScore,
		rec.Body, rec.PublishedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert record %s", rec.Title)
	}
	return nil
}

// ByTitle returns the ledger row for title.
func (r *RecordRepository) ByTitle(ctx context.Context, title string) (*store.PublishedRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM published_records WHERE title = $1`

	rec := &store.PublishedRecord{}
	err := r.db.QueryRowContext(ctx, query, title).Scan(
		&rec.RecordID, &rec.Title, &rec.Source, &rec.SourceURL, &rec.GameDate, &rec.Season,
		&rec.Competition, &rec.Opponent, &rec.IsHomeTeam, &rec.OwnScore, &rec.OpponentScore,
		&rec.Body, &rec.PublishedAt, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Mark(errors.Newf("no record titled %q", title), ErrNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query record")
	}
	return rec, nil
}

// Recent returns up to limit rows, newest first. Bodies are omitted.
func (r *RecordRepository) Recent(ctx context.Context, limit int) ([]*store.PublishedRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + recordColumns + ` FROM published_records ORDER BY published_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query recent records")
	}
	defer rows.Close()

	var out []*store.PublishedRecord
	for rows.Next() {
		rec := &store.PublishedRecord{}
		if err := rows.Scan(
			&rec.RecordID, &rec.Title, &rec.Source, &rec.SourceURL, &rec.GameDate, &rec.Season,
			&rec.Competition, &rec.Opponent, &rec.IsHomeTeam, &rec.OwnScore, &rec.OpponentScore,
			&rec.Body, &rec.PublishedAt, &rec.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan record")
		}
		rec.Body = ""
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "iterate records")
}

// Published implements pipeline.Observer.
func (r *RecordRepository) Published(ctx context.Context, p pipeline.Publication) {
	if err := r.Insert(ctx, FromPublication(p)); err != nil {
		r.logger.Warn("failed to write ledger row", "title", p.Title, "error", err)
	}
}
