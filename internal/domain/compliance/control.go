package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GatheredFromTrustCloud = "trustcloud"
	GatheredFromEramba     = "eramba"
)

// Control is a security capability/safeguard. ShortName is the
// primary identity key within a sync pass; CustomShortName is a
// secondary unique alias never used for lookup.
type Control struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ShortName       string  `gorm:"column:short_name;type:text;not null;uniqueIndex" json:"short_name"`
	CustomShortName *string `gorm:"column:custom_short_name;type:text;uniqueIndex" json:"custom_short_name,omitempty"`

	Name        string  `gorm:"type:text;not null;index" json:"name"`
	Description string  `gorm:"type:text;not null;default:''" json:"description"`
	OriginalID  *string `gorm:"column:original_id;type:text;index" json:"original_id,omitempty"`
	Category    *string `gorm:"type:text;index" json:"category,omitempty"`

	ControlGatheredFrom *string `gorm:"column:control_gathered_from;type:text;index" json:"control_gathered_from,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Control) TableName() string { return "control" }

func (c *Control) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
