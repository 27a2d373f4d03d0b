package captures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/complyline/compliance-backend/internal/domain"
	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
)

// memoryStore is an in-memory Store for tests and local tooling.
type memoryStore struct {
	mu   sync.RWMutex
	docs map[string]*types.CaptureDocument
}

func NewMemoryStore() Store {
	return &memoryStore{docs: map[string]*types.CaptureDocument{}}
}

func (s *memoryStore) Put(ctx context.Context, key, source string, payload []byte) error {
	if key == "" || source == "" {
		return pkgerrors.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.docs[key] = &types.CaptureDocument{
		ID:         uuid.New(),
		Key:        key,
		Source:     source,
		Payload:    datatypes.JSON(buf),
		CapturedAt: time.Now().UTC(),
	}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (*types.CaptureDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	out := *doc
	return &out, nil
}

func (s *memoryStore) List(ctx context.Context, source string) ([]*types.CaptureDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.CaptureDocument
	for _, doc := range s.docs {
		if doc.Source == source {
			d := *doc
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
