package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type PolicyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Policy) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Policy, error)
	GetByPolicyID(ctx context.Context, tx *gorm.DB, policyID string) (*types.Policy, error)
	GetByReference(ctx context.Context, tx *gorm.DB, reference string) (*types.Policy, error)
	GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.Policy, error)

	// UpdateTemplate overwrites policy_template only; all other scalar
	// fields keep their first-sync values.
	UpdateTemplate(ctx context.Context, tx *gorm.DB, id uuid.UUID, template string) error
	UpdateSecurityGroup(ctx context.Context, tx *gorm.DB, id uuid.UUID, securityGroup *string) error

	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return &policyRepo{db: db, log: baseLog.With("repo", "PolicyRepo")}
}

func (r *policyRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Policy) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *policyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Policy, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Policy
	err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *policyRepo) GetByPolicyID(ctx context.Context, tx *gorm.DB, policyID string) (*types.Policy, error) {
	return r.getByColumn(ctx, tx, "policy_id", policyID)
}

func (r *policyRepo) GetByReference(ctx context.Context, tx *gorm.DB, reference string) (*types.Policy, error) {
	return r.getByColumn(ctx, tx, "policy_reference", reference)
}

func (r *policyRepo) GetByTitle(ctx context.Context, tx *gorm.DB, title string) (*types.Policy, error) {
	return r.getByColumn(ctx, tx, "title", title)
}

func (r *policyRepo) getByColumn(ctx context.Context, tx *gorm.DB, column, value string) (*types.Policy, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if value == "" {
		return nil, nil
	}
	var out types.Policy
	err := t.WithContext(ctx).Where(column+" = ?", value).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *policyRepo) UpdateTemplate(ctx context.Context, tx *gorm.DB, id uuid.UUID, template string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.Policy{}).
		Where("id = ?", id).
		Update("policy_template", template).Error
}

func (r *policyRepo) UpdateSecurityGroup(ctx context.Context, tx *gorm.DB, id uuid.UUID, securityGroup *string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Model(&types.Policy{}).
		Where("id = ?", id).
		Update("security_group", securityGroup).Error
}

func (r *policyRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.Policy{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
