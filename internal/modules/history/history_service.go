package history

import (
	"context"
	"fmt"
	"time"

	"trip-planner/internal/models"
	"trip-planner/pkg/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type ServiceInterface interface {
	Record(ctx context.Context, rec *models.TripRecord) error
	ListRecent(ctx context.Context, limit int) ([]*models.TripRecord, error)
	Purge(ctx context.Context) (int64, error)
}

// Service wraps the repository with id assignment, limits and retention.
type Service struct {
	repo      RepositoryInterface
	retention time.Duration
	now       func() time.Time
}

func NewService(repo RepositoryInterface, retention time.Duration) *Service {
	return &Service{repo: repo, retention: retention, now: time.Now}
}

// Record assigns an id and timestamp when missing and stores the record.
func (s *Service) Record(ctx context.Context, rec *models.TripRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	if err := s.repo.SaveTrip(ctx, rec); err != nil {
		return fmt.Errorf("history.Record: %w", err)
	}
	return nil
}

// ListRecent clamps limit to [1, MaxListLimit]; non-positive means the default.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.TripRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	records, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history.ListRecent: %w", err)
	}
	return records, nil
}

// Purge deletes records older than the retention window. A zero window keeps
// everything.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	n, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history.Purge: %w", err)
	}
	utils.Logger.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff}).Info("Trip history purged")
	return n, nil
}
