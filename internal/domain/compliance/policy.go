package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Policy is a governance document. TrustCloud records key on
// PolicyReference, Eramba records key on Title; PolicyID and
// PolicyReference are both unique across sources.
type Policy struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PolicyID        string `gorm:"column:policy_id;type:text;not null;uniqueIndex" json:"policy_id"`
	PolicyReference string `gorm:"column:policy_reference;type:text;not null;uniqueIndex" json:"policy_reference"`

	Title          string  `gorm:"type:text;not null;index" json:"title"`
	PolicyDoc      string  `gorm:"column:policy_doc;type:text;not null;default:''" json:"policy_doc"`
	PolicyVersion  string  `gorm:"column:policy_version;type:text;not null;default:''" json:"policy_version"`
	PolicyTemplate string  `gorm:"column:policy_template;type:text;not null;default:''" json:"policy_template"`
	SecurityGroup  *string `gorm:"column:security_group;type:text;index" json:"security_group,omitempty"`

	PolicyGatheredFrom *string `gorm:"column:policy_gathered_from;type:text;index" json:"policy_gathered_from,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Policy) TableName() string { return "policy" }

func (p *Policy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
