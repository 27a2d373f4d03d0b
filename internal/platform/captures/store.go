package captures

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/complyline/compliance-backend/internal/domain"
	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// Source names for stored capture documents.
const (
	SourceTrustCloudSections  = "trustcloud_sections"
	SourceTrustCloudPolicies  = "trustcloud_policies"
	SourceTrustCloudStandards = "trustcloud_standards"
)

// Store holds raw JSON documents captured from upstream sources. The
// reconciliation passes consume documents through this interface so
// they can be tested without a filesystem or a capture session.
type Store interface {
	Put(ctx context.Context, key, source string, payload []byte) error
	Get(ctx context.Context, key string) (*types.CaptureDocument, error)
	List(ctx context.Context, source string) ([]*types.CaptureDocument, error)
}

type dbStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewStore returns the database-backed capture store. A re-capture of
// an existing key overwrites the stored payload in place.
func NewStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &dbStore{db: db, log: baseLog.With("service", "CaptureStore")}
}

func (s *dbStore) Put(ctx context.Context, key, source string, payload []byte) error {
	if key == "" || source == "" {
		return pkgerrors.ErrInvalidArgument
	}
	row := &types.CaptureDocument{
		Key:        key,
		Source:     source,
		Payload:    datatypes.JSON(payload),
		CapturedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"source", "payload", "captured_at", "updated_at"}),
		}).
		Create(row).Error
}

func (s *dbStore) Get(ctx context.Context, key string) (*types.CaptureDocument, error) {
	var out types.CaptureDocument
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *dbStore) List(ctx context.Context, source string) ([]*types.CaptureDocument, error) {
	var out []*types.CaptureDocument
	if err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
