package services

import (
	"context"

	"github.com/dmitrijs2005/ucredit/internal/dbx"
	"github.com/dmitrijs2005/ucredit/internal/logging"
	"github.com/dmitrijs2005/ucredit/internal/server/models"
	"github.com/dmitrijs2005/ucredit/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DistributionService creates and reads distributions. Credit totals are
// never written here; see CourseService.
type DistributionService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewDistributionService(tx dbx.Transactor, m repomanager.RepositoryManager, logger logging.Logger) *DistributionService {
	return &DistributionService{tx: tx, repomanager: m, logger: logger.With("module", "distributions")}
}

// Create adds an empty distribution (current 0, no courses) owned by the
// input's user.
func (s *DistributionService) Create(ctx context.Context, in CreateDistributionInput) (*models.Distribution, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	conn := s.tx.Conn()
	if _, err := s.repomanager.Users(conn).GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	d, err := s.repomanager.Distributions(conn).Create(ctx, &models.Distribution{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		Name:     in.Name,
		Required: in.Required,
		Courses:  []string{},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "distribution created", "distribution_id", d.ID, "user_id", d.UserID)
	return d, nil
}

func (s *DistributionService) Get(ctx context.Context, distributionID string) (*models.Distribution, error) {
	return s.repomanager.Distributions(s.tx.Conn()).GetByID(ctx, distributionID)
}

func (s *DistributionService) ListByUser(ctx context.Context, userID string) ([]*models.Distribution, error) {
	list, err := s.repomanager.Distributions(s.tx.Conn()).ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Distribution{}
	}
	return list, nil
}
