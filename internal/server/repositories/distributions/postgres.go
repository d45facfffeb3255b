package distributions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d *models.Distribution) (*models.Distribution, error) {
	query :=
		`INSERT INTO distributions (id, user_id, name, required, current)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, d.ID, d.UserID, d.Name, d.Required, d.Current).Scan(&d.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.NewNotFound(common.KindUser, d.UserID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, courseID := range d.Courses {
		if _, err := r.PushCourse(ctx, d.ID, courseID); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Distribution, error) {
	return r.get(ctx, id, "")
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Distribution, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresRepository) get(ctx context.Context, id, lock string) (*models.Distribution, error) {
	query :=
		`SELECT id, user_id, name, required, current, created_at FROM distributions
		 WHERE id = $1
		 ` + lock

	d := &models.Distribution{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.UserID, &d.Name, &d.Required, &d.Current, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound(common.KindDistribution, id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	d.Courses, err = r.CourseIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Distribution, error) {
	query :=
		`SELECT id, user_id, name, required, current, created_at FROM distributions
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Distribution
	byID := make(map[string]*models.Distribution)
	for rows.Next() {
		d := &models.Distribution{Courses: []string{}}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Required, &d.Current, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	linkQuery :=
		`SELECT dc.distribution_id, dc.course_id FROM distribution_courses dc
		 JOIN distributions d ON d.id = dc.distribution_id
		 WHERE d.user_id = $1
		 ORDER BY dc.position
		 `

	links, err := r.db.QueryContext(ctx, linkQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var distID, courseID string
		if err := links.Scan(&distID, &courseID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if d, ok := byID[distID]; ok {
			d.Courses = append(d.Courses, courseID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) ListIDsByUser(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT id FROM distributions
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `
	return r.strings(ctx, query, userID)
}

func (r *PostgresRepository) ListIDsByCourse(ctx context.Context, courseID string) ([]string, error) {
	query :=
		`SELECT distribution_id FROM distribution_courses
		 WHERE course_id = $1
		 ORDER BY distribution_id
		 `
	return r.strings(ctx, query, courseID)
}

func (r *PostgresRepository) PushCourse(ctx context.Context, distributionID, courseID string) (bool, error) {
	query :=
		`INSERT INTO distribution_courses (distribution_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, distributionID, courseID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return false, common.NewNotFound(common.KindDistribution, distributionID)
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected(res)
}

func (r *PostgresRepository) PullCourse(ctx context.Context, distributionID, courseID string) (bool, error) {
	query :=
		`DELETE FROM distribution_courses
		 WHERE distribution_id = $1 AND course_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, distributionID, courseID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected(res)
}

func (r *PostgresRepository) CourseIDs(ctx context.Context, distributionID string) ([]string, error) {
	query :=
		`SELECT course_id FROM distribution_courses
		 WHERE distribution_id = $1
		 ORDER BY position
		 `
	return r.strings(ctx, query, distributionID)
}

func (r *PostgresRepository) AdjustCurrent(ctx context.Context, distributionID string, delta float64) (float64, error) {
	query :=
		`UPDATE distributions SET current = current + $2
		 WHERE id = $1
		 RETURNING current
		 `

	var current float64
	err := r.db.QueryRowContext(ctx, query, distributionID, delta).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.NewNotFound(common.KindDistribution, distributionID)
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return current, nil
}

func (r *PostgresRepository) SetCurrent(ctx context.Context, distributionID string, value float64) error {
	query :=
		`UPDATE distributions SET current = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, distributionID, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewNotFound(common.KindDistribution, distributionID)
	}
	return nil
}

func (r *PostgresRepository) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
