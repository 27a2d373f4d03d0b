package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// ClauseParentService derives the clause hierarchy from dotted
// reference identifiers: clause "4.1.2" gets clause "4.1" as its
// parent when that clause exists in the same certification. Top-level
// clauses and clauses whose parent reference is missing keep a nil
// parent.
type ClauseParentService struct {
	db             *gorm.DB
	certifications repos.CertificationRepo
	clauses        repos.ClauseRepo
	log            *logger.Logger
}

func NewClauseParentService(db *gorm.DB, certifications repos.CertificationRepo, clauses repos.ClauseRepo, baseLog *logger.Logger) *ClauseParentService {
	return &ClauseParentService{
		db:             db,
		certifications: certifications,
		clauses:        clauses,
		log:            baseLog.With("service", "ClauseParentService"),
	}
}

// parentReference strips the last dotted segment: "4.1.2" -> "4.1".
// A reference without a dot has no parent.
func parentReference(referenceID string) string {
	i := strings.LastIndex(referenceID, ".")
	if i <= 0 {
		return ""
	}
	return referenceID[:i]
}

// AssignParents recomputes parent links for every certification in
// one transaction. It is idempotent; re-running after new clauses are
// ingested fills in parents that were missing before.
func (s *ClauseParentService) AssignParents(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		certs, err := s.certifications.GetAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("list certifications: %w", err)
		}
		for _, cert := range certs {
			clauses, err := s.clauses.GetByCertification(ctx, tx, cert.ID)
			if err != nil {
				return fmt.Errorf("list clauses for %q: %w", cert.Name, err)
			}
			byRef := make(map[string]int, len(clauses))
			for i, cl := range clauses {
				byRef[cl.ReferenceID] = i
			}
			for _, cl := range clauses {
				ref := parentReference(cl.ReferenceID)
				if ref == "" {
					continue
				}
				pi, ok := byRef[ref]
				if !ok {
					sum.Warnf("certification %q: clause %q has no parent clause %q", cert.Name, cl.ReferenceID, ref)
					continue
				}
				parent := clauses[pi]
				if cl.ParentID != nil && *cl.ParentID == parent.ID {
					continue
				}
				if err := s.clauses.UpdateParent(ctx, tx, cl.ID, &parent.ID); err != nil {
					sum.RecordErrorf("clause_parents", cl.ReferenceID, "%v", err)
					continue
				}
				sum.Add("clause_parents_assigned", 1)
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, err
	}
	return sum.Finalize(), nil
}
