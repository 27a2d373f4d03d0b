package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type ControlRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Control) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Control, error)
	GetByShortName(ctx context.Context, tx *gorm.DB, shortName string) (*types.Control, error)
	GetByShortNames(ctx context.Context, tx *gorm.DB, shortNames []string) ([]*types.Control, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Control, error)
	GetByOriginalIDs(ctx context.Context, tx *gorm.DB, originalIDs []string) ([]*types.Control, error)

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type controlRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewControlRepo(db *gorm.DB, baseLog *logger.Logger) ControlRepo {
	return &controlRepo{db: db, log: baseLog.With("repo", "ControlRepo")}
}

func (r *controlRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Control) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *controlRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Control, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Control
	err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *controlRepo) GetByShortName(ctx context.Context, tx *gorm.DB, shortName string) (*types.Control, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if shortName == "" {
		return nil, nil
	}
	var out types.Control
	err := t.WithContext(ctx).Where("short_name = ?", shortName).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *controlRepo) GetByShortNames(ctx context.Context, tx *gorm.DB, shortNames []string) ([]*types.Control, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Control
	if len(shortNames) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("short_name IN ?", shortNames).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *controlRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Control, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if name == "" {
		return nil, nil
	}
	var out types.Control
	err := t.WithContext(ctx).Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *controlRepo) GetByOriginalIDs(ctx context.Context, tx *gorm.DB, originalIDs []string) ([]*types.Control, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Control
	if len(originalIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("original_id IN ?", originalIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *controlRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.Control{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
