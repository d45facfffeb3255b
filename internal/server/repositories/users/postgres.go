package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, name, email, affiliation, school, grade)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.Affiliation, user.School, user.Grade).Scan(&user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email, affiliation, school, grade, created_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email,
		&user.Affiliation, &user.School, &user.Grade, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewNotFound(common.KindUser, id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) PushYearCourse(ctx context.Context, userID, year, courseID string) (bool, error) {
	query :=
		`INSERT INTO user_year_courses (user_id, year, course_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, userID, year, courseID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return false, common.NewNotFound(common.KindUser, userID)
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected(res)
}

func (r *PostgresRepository) PullYearCourse(ctx context.Context, userID, year, courseID string) (bool, error) {
	query :=
		`DELETE FROM user_year_courses
		 WHERE user_id = $1 AND year = $2 AND course_id = $3
		 `

	res, err := r.db.ExecContext(ctx, query, userID, year, courseID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected(res)
}

func (r *PostgresRepository) YearCourses(ctx context.Context, userID string) (map[string][]string, error) {
	query :=
		`SELECT year, course_id FROM user_year_courses
		 WHERE user_id = $1
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	years := make(map[string][]string)
	for rows.Next() {
		var year, courseID string
		if err := rows.Scan(&year, &courseID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		years[year] = append(years[year], courseID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return years, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
