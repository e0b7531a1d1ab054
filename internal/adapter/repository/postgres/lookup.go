package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode
}

type lookupDB struct {
	ID        string        `db:"id"`
	URL       string        `db:"url"`
	Platform  string        `db:"platform"`
	Views     sql.NullInt64 `db:"views"`
	Error     string        `db:"error"`
	FetchedAt time.Time     `db:"fetched_at"`
}

func (l *lookupDB) toEntity() *entity.Lookup {
	lookup := &entity.Lookup{
		ID:        l.ID,
		URL:       l.URL,
		Platform:  entity.Platform(l.Platform),
		Error:     l.Error,
		FetchedAt: l.FetchedAt,
	}

	if l.Views.Valid {
		views := l.Views.Int64
		lookup.Views = &views
	}

	return lookup
}

func nullViews(views *int64) sql.NullInt64 {
	if views == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *views, Valid: true}
}

type LookupRepository struct {
	db *sqlx.DB
}

func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

func (r *LookupRepository) Save(ctx context.Context, lookup entity.Lookup) (*entity.Lookup, error) {
	const op = "adapter.repository.postgres.LookupRepository.Save"
	const query = `INSERT INTO lookups(id, url, platform, views, error, fetched_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING *`

	fetchedAt := lookup.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	var row lookupDB

	err := r.db.GetContext(ctx, &row, query,
		lookup.ID, lookup.URL, string(lookup.Platform), nullViews(lookup.Views), lookup.Error, fetchedAt.UTC())
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLookupExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into lookups table: %w", op, err)
	}

	return row.toEntity(), nil
}

func (r *LookupRepository) RetrieveByID(ctx context.Context, id string) (*entity.Lookup, error) {
	const op = "adapter.repository.postgres.LookupRepository.RetrieveByID"
	const query = `SELECT * FROM lookups WHERE id = $1`

	var row lookupDB

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLookupNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from lookups table: %w", op, err)
	}

	return row.toEntity(), nil
}

// List returns up to limit lookups, most recent first.
func (r *LookupRepository) List(ctx context.Context, limit int) ([]entity.Lookup, error) {
	const op = "adapter.repository.postgres.LookupRepository.List"
	const query = `SELECT * FROM lookups ORDER BY fetched_at DESC, id LIMIT $1`

	var rows []lookupDB

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to select from lookups table: %w", op, err)
	}

	lookups := make([]entity.Lookup, 0, len(rows))
	for i := range rows {
		lookups = append(lookups, *rows[i].toEntity())
	}

	return lookups, nil
}
