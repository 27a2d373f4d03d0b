package captures

import (
	"context"
	"testing"

	"github.com/complyline/compliance-backend/internal/data/repos/testutil"
	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"db":     NewStore(testutil.Tx(t, testutil.DB(t)), testutil.Logger(t)),
	}
}

func TestStorePutGetList(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Put(ctx, "iso_27001.json", SourceTrustCloudSections, []byte(`[{"a": 1}]`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := store.Put(ctx, "gdpr.json", SourceTrustCloudSections, []byte(`[]`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := store.Put(ctx, "policies.json", SourceTrustCloudPolicies, []byte(`[]`)); err != nil {
				t.Fatalf("put: %v", err)
			}

			doc, err := store.Get(ctx, "iso_27001.json")
			if err != nil || doc == nil {
				t.Fatalf("get: %v %v", doc, err)
			}
			if string(doc.Payload) != `[{"a": 1}]` {
				t.Fatalf("payload = %s", doc.Payload)
			}

			// Re-capture overwrites in place.
			if err := store.Put(ctx, "iso_27001.json", SourceTrustCloudSections, []byte(`[{"a": 2}]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			doc, err = store.Get(ctx, "iso_27001.json")
			if err != nil || doc == nil {
				t.Fatalf("get after overwrite: %v %v", doc, err)
			}
			if string(doc.Payload) != `[{"a": 2}]` {
				t.Fatalf("payload after overwrite = %s", doc.Payload)
			}

			docs, err := store.List(ctx, SourceTrustCloudSections)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(docs) != 2 {
				t.Fatalf("list size = %d, want 2 (other sources excluded)", len(docs))
			}
			if docs[0].Key != "gdpr.json" || docs[1].Key != "iso_27001.json" {
				t.Fatalf("list order = %s, %s", docs[0].Key, docs[1].Key)
			}

			missing, err := store.Get(ctx, "never_captured.json")
			if err != nil || missing != nil {
				t.Fatalf("missing key: %v %v", missing, err)
			}
		})
	}
}

func TestStoreRejectsEmptyKeyOrSource(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Put(ctx, "", SourceTrustCloudSections, []byte(`[]`)); err != pkgerrors.ErrInvalidArgument {
				t.Fatalf("empty key err = %v", err)
			}
			if err := store.Put(ctx, "k.json", "", []byte(`[]`)); err != pkgerrors.ErrInvalidArgument {
				t.Fatalf("empty source err = %v", err)
			}
		})
	}
}
