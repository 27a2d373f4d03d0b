package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
)

func SeedCertification(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Certification {
	tb.Helper()
	c := &types.Certification{
		ID:   uuid.New(),
		Name: name,
		Slug: name,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed certification: %v", err)
	}
	return c
}

func SeedClause(tb testing.TB, ctx context.Context, tx *gorm.DB, certID uuid.UUID, ref string) *types.Clause {
	tb.Helper()
	c := &types.Clause{
		ID:                uuid.New(),
		CertificationID:   certID,
		ReferenceID:       ref,
		DisplayIdentifier: ref,
		Title:             "clause " + ref,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed clause: %v", err)
	}
	return c
}

func SeedControl(tb testing.TB, ctx context.Context, tx *gorm.DB, shortName string) *types.Control {
	tb.Helper()
	c := &types.Control{
		ID:        uuid.New(),
		ShortName: shortName,
		Name:      "control " + shortName,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed control: %v", err)
	}
	return c
}

func SeedPolicy(tb testing.TB, ctx context.Context, tx *gorm.DB, policyID, reference string) *types.Policy {
	tb.Helper()
	p := &types.Policy{
		ID:              uuid.New(),
		PolicyID:        policyID,
		PolicyReference: reference,
		Title:           "policy " + policyID,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed policy: %v", err)
	}
	return p
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrString(v string) *string { return &v }
