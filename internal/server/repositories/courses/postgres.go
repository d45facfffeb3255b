package courses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
)

const courseColumns = `c.id, c.user_id, c.title, c.number, c.term, c.year, c.credits, c.taken, c.created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(s scanner) (*models.Course, error) {
	c := &models.Course{DistributionIDs: []string{}}
	err := s.Scan(&c.ID, &c.UserID, &c.Title, &c.Number, &c.Term, &c.Year, &c.Credits, &c.Taken, &c.CreatedAt)
	return c, err
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Course) (*models.Course, error) {
	query :=
		`INSERT INTO courses (id, user_id, title, number, term, year, credits, taken)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.Title, c.Number, c.Term, c.Year, c.Credits, c.Taken).Scan(&c.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.NewNotFound(common.KindUser, c.UserID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.insertLinks(ctx, c.ID, c.DistributionIDs); err != nil {
		return nil, err
	}

	return c, nil
}

func (r *PostgresRepository) insertLinks(ctx context.Context, courseID string, distributionIDs []string) error {
	query :=
		`INSERT INTO course_distributions (course_id, distribution_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	for _, id := range distributionIDs {
		if _, err := r.db.ExecContext(ctx, query, courseID, id); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate reads the course and locks its row until the surrounding
// transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Course, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresRepository) get(ctx context.Context, id, lock string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c
		 WHERE c.id = $1
		 ` + lock

	c, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound(common.KindCourse, id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	linkQuery :=
		`SELECT distribution_id FROM course_distributions
		 WHERE course_id = $1
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, linkQuery, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var distID string
		if err := rows.Scan(&distID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.DistributionIDs = append(c.DistributionIDs, distID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) SetTaken(ctx context.Context, id string, taken bool) (*models.Course, bool, error) {
	c, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c.Taken == taken {
		return c, false, nil
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE courses SET taken = $2 WHERE id = $1`, id, taken); err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	c.Taken = taken
	return c, true, nil
}

func (r *PostgresRepository) SetDistributionIDs(ctx context.Context, id string, distributionIDs []string) (*models.Course, error) {
	c, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_distributions WHERE course_id = $1`, id); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.insertLinks(ctx, id, distributionIDs); err != nil {
		return nil, err
	}

	c.DistributionIDs = append([]string{}, distributionIDs...)
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Course, error) {
	c, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	// lost a race with another delete
	if n == 0 {
		return nil, common.NewNotFound(common.KindCourse, id)
	}

	return c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Course, error) {
	return r.list(ctx, `c.user_id = $1`, userID)
}

func (r *PostgresRepository) ListByDistribution(ctx context.Context, distributionID string) ([]*models.Course, error) {
	return r.list(ctx,
		`c.id IN (SELECT course_id FROM course_distributions WHERE distribution_id = $1)`,
		distributionID)
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}
	return r.list(ctx, `c.id = ANY($1)`, ids)
}

func (r *PostgresRepository) ListByTerm(ctx context.Context, userID, year, term string) ([]*models.Course, error) {
	return r.list(ctx,
		`c.id IN (SELECT course_id FROM user_year_courses WHERE user_id = $1 AND year = $2) AND c.term = $3`,
		userID, year, term)
}

// list loads the courses matching where (which may refer to courses as c)
// and fills in their distribution ids with a second query.
func (r *PostgresRepository) list(ctx context.Context, where string, args ...any) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c
		 WHERE ` + where + `
		 ORDER BY c.created_at, c.id
		 `

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Course{}
	byID := make(map[string]*models.Course)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	linkQuery :=
		`SELECT cd.course_id, cd.distribution_id FROM course_distributions cd
		 JOIN courses c ON c.id = cd.course_id
		 WHERE ` + where + `
		 ORDER BY cd.position
		 `

	links, err := r.db.QueryContext(ctx, linkQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var courseID, distID string
		if err := links.Scan(&courseID, &distID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if c, ok := byID[courseID]; ok {
			c.DistributionIDs = append(c.DistributionIDs, distID)
		}
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
