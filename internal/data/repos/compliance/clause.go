package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type ClauseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Clause) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clause, error)
	GetByCertificationAndRef(ctx context.Context, tx *gorm.DB, certificationID uuid.UUID, referenceID string) (*types.Clause, error)
	GetByCertification(ctx context.Context, tx *gorm.DB, certificationID uuid.UUID) ([]*types.Clause, error)

	UpdateParent(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type clauseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClauseRepo(db *gorm.DB, baseLog *logger.Logger) ClauseRepo {
	return &clauseRepo{db: db, log: baseLog.With("repo", "ClauseRepo")}
}

func (r *clauseRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Clause) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *clauseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Clause, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Clause
	err := t.WithContext(ctx).Preload("Certification").Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *clauseRepo) GetByCertificationAndRef(ctx context.Context, tx *gorm.DB, certificationID uuid.UUID, referenceID string) (*types.Clause, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if referenceID == "" {
		return nil, nil
	}
	var out types.Clause
	err := t.WithContext(ctx).
		Where("certification_id = ? AND reference_id = ?", certificationID, referenceID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *clauseRepo) GetByCertification(ctx context.Context, tx *gorm.DB, certificationID uuid.UUID) ([]*types.Clause, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Clause
	if err := t.WithContext(ctx).
		Where("certification_id = ?", certificationID).
		Order("reference_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clauseRepo) UpdateParent(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.Clause{}).
		Where("id = ?", id).
		Update("parent_id", parentID).Error
}

func (r *clauseRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.Clause{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
