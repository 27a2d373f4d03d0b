package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FrameworkStandard maps one control into one external regulatory
// framework's clause numbering. Framework holds the canonical display
// name resolved through the translation table, never a raw source key.
// Identity is (control, framework, standard_id).
type FrameworkStandard struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ControlID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_framework_standard_key,unique,priority:1" json:"control_id"`
	Control   *Control  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ControlID;references:ID" json:"control,omitempty"`

	Framework  string `gorm:"type:text;not null;index:idx_framework_standard_key,unique,priority:2" json:"framework"`
	StandardID string `gorm:"column:standard_id;type:text;not null;index:idx_framework_standard_key,unique,priority:3" json:"standard_id"`

	Name        *string `gorm:"type:text" json:"name,omitempty"`
	Description string  `gorm:"type:text;not null;default:''" json:"description"`
	Section     *string `gorm:"type:text" json:"section,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (FrameworkStandard) TableName() string { return "framework_standard" }

func (f *FrameworkStandard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
