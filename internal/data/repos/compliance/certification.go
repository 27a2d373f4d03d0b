package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type CertificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Certification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certification, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Certification, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Certification, error)

	// UpdateSyncFields overwrites the scalar fields a framework
	// re-sync is authoritative for; name and slug stay untouched.
	UpdateSyncFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, version, description, sourceURL, regulationName string) error

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type certificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificationRepo(db *gorm.DB, baseLog *logger.Logger) CertificationRepo {
	return &certificationRepo{db: db, log: baseLog.With("repo", "CertificationRepo")}
}

func (r *certificationRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Certification) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *certificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Certification, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Certification
	err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *certificationRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Certification, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if name == "" {
		return nil, nil
	}
	var out types.Certification
	err := t.WithContext(ctx).Where("name = ?", name).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *certificationRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Certification, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Certification
	if err := t.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *certificationRepo) UpdateSyncFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, version, description, sourceURL, regulationName string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.Certification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"version":         version,
			"description":     description,
			"source_url":      sourceURL,
			"regulation_name": regulationName,
		}).Error
}

func (r *certificationRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.Certification{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
