package repos

import (
	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos/compliance"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type CertificationRepo = compliance.CertificationRepo
type ClauseRepo = compliance.ClauseRepo
type ControlRepo = compliance.ControlRepo
type PolicyRepo = compliance.PolicyRepo
type FrameworkStandardRepo = compliance.FrameworkStandardRepo
type LinkRepo = compliance.LinkRepo
type LinkStats = compliance.LinkStats

func NewCertificationRepo(db *gorm.DB, baseLog *logger.Logger) CertificationRepo {
	return compliance.NewCertificationRepo(db, baseLog)
}
func NewClauseRepo(db *gorm.DB, baseLog *logger.Logger) ClauseRepo {
	return compliance.NewClauseRepo(db, baseLog)
}
func NewControlRepo(db *gorm.DB, baseLog *logger.Logger) ControlRepo {
	return compliance.NewControlRepo(db, baseLog)
}
func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return compliance.NewPolicyRepo(db, baseLog)
}
func NewFrameworkStandardRepo(db *gorm.DB, baseLog *logger.Logger) FrameworkStandardRepo {
	return compliance.NewFrameworkStandardRepo(db, baseLog)
}
func NewLinkRepo(db *gorm.DB, baseLog *logger.Logger) LinkRepo {
	return compliance.NewLinkRepo(db, baseLog)
}
