package compliance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CaptureDocument stores a raw JSON payload captured from an upstream
// source, keyed so a re-capture of the same page overwrites in place.
// The reconciliation passes consume these rows instead of reading an
// output directory off disk.
type CaptureDocument struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Key     string         `gorm:"type:text;not null;uniqueIndex" json:"key"`
	Source  string         `gorm:"type:text;not null;index" json:"source"`
	Payload datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`

	CapturedAt time.Time `gorm:"column:captured_at;not null;index" json:"captured_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (CaptureDocument) TableName() string { return "capture_document" }

func (d *CaptureDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
