package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Join rows for the three many-to-many edge kinds. Each edge is
// unique on its pair and carries no attributes beyond existence.

type ClausePolicy struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClauseID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_clause_policy,unique,priority:1" json:"clause_id"`
	PolicyID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_clause_policy,unique,priority:2" json:"policy_id"`

	Clause *Clause `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClauseID;references:ID" json:"clause,omitempty"`
	Policy *Policy `gorm:"constraint:OnDelete:CASCADE;foreignKey:PolicyID;references:ID" json:"policy,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ClausePolicy) TableName() string { return "clause_policy" }

func (l *ClausePolicy) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type ClauseControl struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClauseID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_clause_control,unique,priority:1" json:"clause_id"`
	ControlID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_clause_control,unique,priority:2" json:"control_id"`

	Clause  *Clause  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ClauseID;references:ID" json:"clause,omitempty"`
	Control *Control `gorm:"constraint:OnDelete:CASCADE;foreignKey:ControlID;references:ID" json:"control,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ClauseControl) TableName() string { return "clause_control" }

func (l *ClauseControl) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type PolicyControl struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PolicyID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_policy_control,unique,priority:1" json:"policy_id"`
	ControlID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_policy_control,unique,priority:2" json:"control_id"`

	Policy  *Policy  `gorm:"constraint:OnDelete:CASCADE;foreignKey:PolicyID;references:ID" json:"policy,omitempty"`
	Control *Control `gorm:"constraint:OnDelete:CASCADE;foreignKey:ControlID;references:ID" json:"control,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PolicyControl) TableName() string { return "policy_control" }

func (l *PolicyControl) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
