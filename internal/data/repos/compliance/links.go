package compliance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// LinkStats is a (key, edge count) pair for status reporting.
type LinkStats struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type LinkRepo interface {
	ClausePolicyExists(ctx context.Context, tx *gorm.DB, clauseID, policyID uuid.UUID) (bool, error)
	LinkClausePolicy(ctx context.Context, tx *gorm.DB, clauseID, policyID uuid.UUID) error

	ClauseControlExists(ctx context.Context, tx *gorm.DB, clauseID, controlID uuid.UUID) (bool, error)
	LinkClauseControl(ctx context.Context, tx *gorm.DB, clauseID, controlID uuid.UUID) error

	PolicyControlExists(ctx context.Context, tx *gorm.DB, policyID, controlID uuid.UUID) (bool, error)
	LinkPolicyControl(ctx context.Context, tx *gorm.DB, policyID, controlID uuid.UUID) error

	// ReplacePolicyControls swaps a policy's full control edge set for
	// exactly the given controls, including the empty set.
	ReplacePolicyControls(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, controlIDs []uuid.UUID) error

	ControlIDsForPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]uuid.UUID, error)
	PolicyIDsForClause(ctx context.Context, tx *gorm.DB, clauseID uuid.UUID) ([]uuid.UUID, error)
	ControlIDsForClause(ctx context.Context, tx *gorm.DB, clauseID uuid.UUID) ([]uuid.UUID, error)

	CountClausePolicy(ctx context.Context, tx *gorm.DB) (int64, error)
	CountClauseControl(ctx context.Context, tx *gorm.DB) (int64, error)
	CountPolicyControl(ctx context.Context, tx *gorm.DB) (int64, error)

	MostLinkedPolicy(ctx context.Context, tx *gorm.DB) (*LinkStats, error)
	MostLinkedControl(ctx context.Context, tx *gorm.DB) (*LinkStats, error)
}

type linkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLinkRepo(db *gorm.DB, baseLog *logger.Logger) LinkRepo {
	return &linkRepo{db: db, log: baseLog.With("repo", "LinkRepo")}
}

func (r *linkRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *linkRepo) ClausePolicyExists(ctx context.Context, tx *gorm.DB, clauseID, policyID uuid.UUID) (bool, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).
		Model(&types.ClausePolicy{}).
		Where("clause_id = ? AND policy_id = ?", clauseID, policyID).
		Count(&n).Error
	return n > 0, err
}

func (r *linkRepo) LinkClausePolicy(ctx context.Context, tx *gorm.DB, clauseID, policyID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Create(&types.ClausePolicy{ClauseID: clauseID, PolicyID: policyID}).Error
}

func (r *linkRepo) ClauseControlExists(ctx context.Context, tx *gorm.DB, clauseID, controlID uuid.UUID) (bool, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).
		Model(&types.ClauseControl{}).
		Where("clause_id = ? AND control_id = ?", clauseID, controlID).
		Count(&n).Error
	return n > 0, err
}

func (r *linkRepo) LinkClauseControl(ctx context.Context, tx *gorm.DB, clauseID, controlID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Create(&types.ClauseControl{ClauseID: clauseID, ControlID: controlID}).Error
}

func (r *linkRepo) PolicyControlExists(ctx context.Context, tx *gorm.DB, policyID, controlID uuid.UUID) (bool, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).
		Model(&types.PolicyControl{}).
		Where("policy_id = ? AND control_id = ?", policyID, controlID).
		Count(&n).Error
	return n > 0, err
}

func (r *linkRepo) LinkPolicyControl(ctx context.Context, tx *gorm.DB, policyID, controlID uuid.UUID) error {
	return r.tx(tx).WithContext(ctx).Create(&types.PolicyControl{PolicyID: policyID, ControlID: controlID}).Error
}

func (r *linkRepo) ReplacePolicyControls(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, controlIDs []uuid.UUID) error {
	t := r.tx(tx)
	if err := t.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Delete(&types.PolicyControl{}).Error; err != nil {
		return err
	}
	if len(controlIDs) == 0 {
		return nil
	}
	rows := make([]*types.PolicyControl, 0, len(controlIDs))
	for _, cid := range controlIDs {
		rows = append(rows, &types.PolicyControl{PolicyID: policyID, ControlID: cid})
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *linkRepo) ControlIDsForPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.tx(tx).WithContext(ctx).
		Model(&types.PolicyControl{}).
		Where("policy_id = ?", policyID).
		Pluck("control_id", &out).Error
	return out, err
}

func (r *linkRepo) PolicyIDsForClause(ctx context.Context, tx *gorm.DB, clauseID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.tx(tx).WithContext(ctx).
		Model(&types.ClausePolicy{}).
		Where("clause_id = ?", clauseID).
		Pluck("policy_id", &out).Error
	return out, err
}

func (r *linkRepo) ControlIDsForClause(ctx context.Context, tx *gorm.DB, clauseID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.tx(tx).WithContext(ctx).
		Model(&types.ClauseControl{}).
		Where("clause_id = ?", clauseID).
		Pluck("control_id", &out).Error
	return out, err
}

func (r *linkRepo) CountClausePolicy(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).Model(&types.ClausePolicy{}).Count(&n).Error
	return n, err
}

func (r *linkRepo) CountClauseControl(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).Model(&types.ClauseControl{}).Count(&n).Error
	return n, err
}

func (r *linkRepo) CountPolicyControl(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).Model(&types.PolicyControl{}).Count(&n).Error
	return n, err
}

func (r *linkRepo) MostLinkedPolicy(ctx context.Context, tx *gorm.DB) (*LinkStats, error) {
	var row LinkStats
	err := r.tx(tx).WithContext(ctx).Raw(`
		SELECT p.policy_id AS key, COUNT(*) AS count
		FROM clause_policy cp
		JOIN policy p ON p.id = cp.policy_id
		GROUP BY p.policy_id
		ORDER BY count DESC
		LIMIT 1`).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Key == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *linkRepo) MostLinkedControl(ctx context.Context, tx *gorm.DB) (*LinkStats, error) {
	var row LinkStats
	err := r.tx(tx).WithContext(ctx).Raw(`
		SELECT c.short_name AS key, COUNT(*) AS count
		FROM clause_control cc
		JOIN control c ON c.id = cc.control_id
		GROUP BY c.short_name
		ORDER BY count DESC
		LIMIT 1`).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Key == "" {
		return nil, nil
	}
	return &row, nil
}
