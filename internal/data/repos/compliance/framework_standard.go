package compliance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type FrameworkStandardRepo interface {
	// GetByKeySuperset fetches every row matching any of the given
	// control ids, frameworks, and standard ids in one query. Callers
	// filter the superset down to exact (control, framework,
	// standard_id) triples in memory; this keeps the per-batch
	// existence check to a single round trip on any SQL backend.
	GetByKeySuperset(ctx context.Context, tx *gorm.DB, controlIDs []uuid.UUID, frameworks, standardIDs []string) ([]*types.FrameworkStandard, error)

	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.FrameworkStandard) error
	UpdateMappedFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, name *string, description string, section *string) error

	GetByControl(ctx context.Context, tx *gorm.DB, controlID uuid.UUID) ([]*types.FrameworkStandard, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type frameworkStandardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFrameworkStandardRepo(db *gorm.DB, baseLog *logger.Logger) FrameworkStandardRepo {
	return &frameworkStandardRepo{db: db, log: baseLog.With("repo", "FrameworkStandardRepo")}
}

func (r *frameworkStandardRepo) GetByKeySuperset(ctx context.Context, tx *gorm.DB, controlIDs []uuid.UUID, frameworks, standardIDs []string) ([]*types.FrameworkStandard, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.FrameworkStandard
	if len(controlIDs) == 0 || len(frameworks) == 0 || len(standardIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("control_id IN ? AND framework IN ? AND standard_id IN ?", controlIDs, frameworks, standardIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *frameworkStandardRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.FrameworkStandard) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *frameworkStandardRepo) UpdateMappedFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, name *string, description string, section *string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.FrameworkStandard{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":        name,
			"description": description,
			"section":     section,
		}).Error
}

func (r *frameworkStandardRepo) GetByControl(ctx context.Context, tx *gorm.DB, controlID uuid.UUID) ([]*types.FrameworkStandard, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.FrameworkStandard
	if err := t.WithContext(ctx).
		Where("control_id = ?", controlID).
		Order("framework ASC, standard_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *frameworkStandardRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.FrameworkStandard{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
