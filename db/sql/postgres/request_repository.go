package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/pinkoogupta/eduzap/requests"
)

const requestColumns = `id, name, phone, title, image, created_at, updated_at`

// RequestRepository persists requests.Record rows inside PostgreSQL.
type RequestRepository struct {
	db *sql.DB
}

var _ requests.Repository = (*RequestRepository)(nil)

// NewRequestRepository wraps an existing *sql.DB connection.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Insert(ctx context.Context, rec requests.NewRecord) (requests.Record, error) {
	const query = `INSERT INTO requests (name, phone, title, image)
                   VALUES ($1, $2, $3, $4)
                   RETURNING ` + requestColumns
	out, err := scanRecord(r.db.QueryRowContext(ctx, query, rec.Name, rec.Phone, rec.Title, rec.Image))
	if err != nil {
		return requests.Record{}, translateRequestError(err)
	}
	return out, nil
}

func (r *RequestRepository) Count(ctx context.Context, f requests.Filter) (int, error) {
	where, args := filterClause(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM requests`+where, args...).Scan(&n); err != nil {
		return 0, translateRequestError(err)
	}
	return n, nil
}

func (r *RequestRepository) Find(ctx context.Context, f requests.Filter, s requests.Sort, skip, limit int) ([]requests.Record, error) {
	where, args := filterClause(f)
	args = append(args, skip, limit)
	query := fmt.Sprintf(`SELECT %s FROM requests%s ORDER BY %s OFFSET $%d LIMIT $%d`,
		requestColumns, where, orderClause(s), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateRequestError(err)
	}
	defer rows.Close()

	out := make([]requests.Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, translateRequestError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translateRequestError(err)
	}
	return out, nil
}

func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return translateRequestError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return requests.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (requests.Record, error) {
	var rec requests.Record
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Phone,
		&rec.Title,
		&rec.Image,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return requests.Record{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func filterClause(f requests.Filter) (string, []any) {
	if f.TitleContains == "" {
		return "", nil
	}
	return ` WHERE title ILIKE $1 ESCAPE '\'`, []any{"%" + escapeLike(f.TitleContains) + "%"}
}

func orderClause(s requests.Sort) string {
	switch s {
	case requests.SortTitleAsc:
		return `title COLLATE title_ci ASC, created_at DESC, id DESC`
	case requests.SortTitleDesc:
		return `title COLLATE title_ci DESC, created_at DESC, id DESC`
	default:
		return `created_at DESC, id DESC`
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func translateRequestError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return requests.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "22P02":
			return requests.ErrNotFound
		}
	}
	return err
}
