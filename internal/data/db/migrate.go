package db

import (
	types "github.com/complyline/compliance-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Canonical entity graph
		// =========================
		&types.Certification{},
		&types.Clause{},
		&types.Control{},
		&types.Policy{},
		&types.FrameworkStandard{},

		// =========================
		// Many-to-many edges
		// =========================
		&types.ClausePolicy{},
		&types.ClauseControl{},
		&types.PolicyControl{},

		// =========================
		// Raw source captures
		// =========================
		&types.CaptureDocument{},
	)
}
