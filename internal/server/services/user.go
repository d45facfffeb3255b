package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ucredit/internal/common"
	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/auth"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/repomanager"
)

// UserService resolves signed-in users and assembles user profiles.
type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{tx: tx, repomanager: m, logger: logger.With("module", "users")}
}

// Login returns the user identified by claims, creating it from the claims
// on first sign-in.
func (s *UserService) Login(ctx context.Context, claims *auth.UserClaims) (*models.User, error) {
	if claims == nil || claims.UserID == "" {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.tx.Conn())
	if _, err := repo.GetByID(ctx, claims.UserID); err == nil {
		return s.GetUser(ctx, claims.UserID)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	_, err := repo.Create(ctx, &models.User{
		ID:          claims.UserID,
		Name:        claims.Name,
		Email:       claims.Email,
		Affiliation: claims.Affiliation,
		School:      claims.School,
		Grade:       claims.Grade,
	})
	if err != nil {
		// a concurrent login may have created it first
		if _, getErr := repo.GetByID(ctx, claims.UserID); getErr != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
	} else {
		s.logger.Info(ctx, "user created", "user_id", claims.UserID)
	}

	return s.GetUser(ctx, claims.UserID)
}

// GetUser returns the user with its owned distribution ids and year-fields
// filled in.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	conn := s.tx.Conn()

	user, err := s.repomanager.Users(conn).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DistributionIDs, err = s.repomanager.Distributions(conn).ListIDsByUser(ctx, userID); err != nil {
		return nil, err
	}
	if user.Years, err = s.repomanager.Users(conn).YearCourses(ctx, userID); err != nil {
		return nil, err
	}

	return user, nil
}
