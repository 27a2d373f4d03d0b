package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Clause is a numbered section/requirement within a certification.
// Identity is (certification, reference_id); the optional parent is a
// weak self-reference set by the parent-assignment pass.
type Clause struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CertificationID uuid.UUID      `gorm:"type:uuid;not null;index;index:idx_clause_cert_ref,unique,priority:1" json:"certification_id"`
	Certification   *Certification `gorm:"constraint:OnDelete:CASCADE;foreignKey:CertificationID;references:ID" json:"certification,omitempty"`

	ReferenceID       string `gorm:"column:reference_id;type:text;not null;index:idx_clause_cert_ref,unique,priority:2" json:"reference_id"`
	DisplayIdentifier string `gorm:"column:display_identifier;type:text;not null;default:''" json:"display_identifier"`
	Title             string `gorm:"type:text;not null;default:''" json:"title"`
	Description       string `gorm:"type:text;not null;default:''" json:"description"`
	OriginalID        *string `gorm:"column:original_id;type:text;index" json:"original_id,omitempty"`

	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Clause    `gorm:"constraint:OnDelete:SET NULL;foreignKey:ParentID;references:ID" json:"parent,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Clause) TableName() string { return "clause" }

func (c *Clause) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
