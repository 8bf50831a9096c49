package reports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oelv/crm-funnel-backend/internal/domain"
	"github.com/oelv/crm-funnel-backend/internal/platform/logger"
)

// SnapshotRepo persists completed extraction runs for the history view.
type SnapshotRepo interface {
	Create(ctx context.Context, snap *domain.ReportSnapshot) error
	// List returns recent snapshots without the JSON payload, newest first.
	List(ctx context.Context, limit int) ([]*domain.ReportSnapshot, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ReportSnapshot, error)
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, log *logger.Logger) SnapshotRepo {
	return &snapshotRepo{db: db, log: log.With("repo", "SnapshotRepo")}
}

func (r *snapshotRepo) Create(ctx context.Context, snap *domain.ReportSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(snap).Error
}

func (r *snapshotRepo) List(ctx context.Context, limit int) ([]*domain.ReportSnapshot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var snaps []*domain.ReportSnapshot
	err := r.db.WithContext(ctx).
		Model(&domain.ReportSnapshot{}).
		Select("id", "range_from", "range_to", "row_count", "total_users", "created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (r *snapshotRepo) Get(ctx context.Context, id uuid.UUID) (*domain.ReportSnapshot, error) {
	var snap domain.ReportSnapshot
	err := r.db.WithContext(ctx).First(&snap, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
