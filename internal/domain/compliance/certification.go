package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certification is one compliance framework/certification document
// (e.g. SOC 2, ISO 27001) as seen by either upstream source.
// Name and Slug are immutable once created; the remaining scalar
// fields are overwritten on every framework re-sync.
type Certification struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name string `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:text;not null;uniqueIndex" json:"slug"`

	Description    string `gorm:"type:text;not null;default:''" json:"description"`
	SourceURL      string `gorm:"column:source_url;type:text;not null;default:''" json:"source_url"`
	Version        string `gorm:"type:text;not null;default:''" json:"version"`
	RegulationName string `gorm:"column:regulation_name;type:text;not null;default:''" json:"regulation_name"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Certification) TableName() string { return "certification" }

func (c *Certification) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
