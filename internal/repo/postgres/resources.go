package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/univault/internal/domain/resource"
	"github.com/geocoder89/univault/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourcesRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewResourcesRepo(pool *pgxpool.Pool, metrics *observability.Prom) *ResourcesRepo {
	return &ResourcesRepo{
		pool:    pool,
		metrics: metrics,
	}
}

func (r *ResourcesRepo) Create(ctx context.Context, res resource.Resource) (resource.Resource, error) {
	err := r.metrics.ObserveDB("resources.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO resources (id, title, description, branch, semester, subject, year, file_url, uploaded_by, created_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			res.ID, res.Title, res.Description, res.Branch, res.Semester, res.Subject, res.Year, res.FileRef, res.UploadedBy, res.CreatedAt)
		return err
	})

	if err != nil {
		return resource.Resource{}, err
	}

	return res, nil
}

const viewColumns = `r.id,
		r.title,
		COALESCE(r.description, ''),
		r.branch,
		r.semester,
		r.subject,
		r.year,
		r.file_url,
		r.uploaded_by,
		r.created_at,
		u.name AS uploader_name`

func (r *ResourcesRepo) List(ctx context.Context, filter resource.ListFilter) ([]resource.View, error) {
	baseQuery := `SELECT ` + viewColumns + `
	FROM resources r
	JOIN users u ON r.uploaded_by = u.id
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	// filtered conditional checks; every predicate is parameterized,
	// never interpolated into the query text.
	if filter.Branch != nil {
		conds = append(conds, fmt.Sprintf("r.branch = $%d", argsPosition))
		args = append(args, *filter.Branch)
		argsPosition++
	}

	if filter.Semester != nil {
		conds = append(conds, fmt.Sprintf("r.semester = $%d", argsPosition))
		args = append(args, *filter.Semester)
		argsPosition++
	}

	if filter.Subject != nil {
		conds = append(conds, fmt.Sprintf("r.subject ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*filter.Subject)+"%")
		argsPosition++
	}

	if filter.Year != nil {
		conds = append(conds, fmt.Sprintf("r.year = $%d", argsPosition))
		args = append(args, *filter.Year)
		argsPosition++
	}

	if filter.Search != nil {
		conds = append(conds, fmt.Sprintf("(r.title ILIKE $%d OR r.description ILIKE $%d)", argsPosition, argsPosition))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// newest first; id keeps the ordering stable across equal timestamps
	query += " ORDER BY r.created_at DESC, r.id ASC"

	output := make([]resource.View, 0)

	err := r.metrics.ObserveDB("resources.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var v resource.View

			err = rows.Scan(
				&v.ID,
				&v.Title,
				&v.Description,
				&v.Branch,
				&v.Semester,
				&v.Subject,
				&v.Year,
				&v.FileRef,
				&v.UploadedBy,
				&v.CreatedAt,
				&v.UploaderName,
			)

			if err != nil {
				return err
			}

			output = append(output, v)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *ResourcesRepo) GetByID(ctx context.Context, id string) (resource.View, error) {
	var v resource.View

	err := r.metrics.ObserveDB("resources.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+viewColumns+`
			FROM resources r
			JOIN users u ON r.uploaded_by = u.id
			WHERE r.id = $1`, id).Scan(
			&v.ID,
			&v.Title,
			&v.Description,
			&v.Branch,
			&v.Semester,
			&v.Subject,
			&v.Year,
			&v.FileRef,
			&v.UploadedBy,
			&v.CreatedAt,
			&v.UploaderName,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resource.View{}, resource.ErrNotFound
		}
		return resource.View{}, err
	}

	return v, nil
}

func (r *ResourcesRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.metrics.ObserveDB("resources.delete", func() error {
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM resources WHERE id = $1
		`, id)

		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return resource.ErrNotFound
	}

	return nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied substrings.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
