package eramba

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/complyline/compliance-backend/internal/pkg/httpx"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

const (
	// fetchParallelism bounds the id-range fan-out; the proxy offers
	// no bulk listing for security policies.
	fetchParallelism = 12

	requestTimeout = 10 * time.Second
	maxAttempts    = 3
)

// Client talks to the Eramba proxy API. Endpoint documents are
// fetched whole; security policies are fetched per-id across a
// bounded worker pool, with a nil record for absent ids.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(baseURL string, baseLog *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		log:     baseLog.With("client", "Eramba"),
	}
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("eramba: unexpected status %d from %s", e.code, e.url)
}

func (e *statusError) HTTPStatusCode() int { return e.code }

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	url := fmt.Sprintf("%s?endpoint=%s", c.baseURL, endpoint)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(httpx.JitterSleep(time.Duration(attempt) * time.Second)):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if httpx.IsRetryableError(err) {
				continue
			}
			return fmt.Errorf("eramba request %s: %w", endpoint, err)
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return &statusError{code: resp.StatusCode, url: url}
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = &statusError{code: resp.StatusCode, url: url}
			if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
				continue
			}
			return lastErr
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("eramba: malformed payload from %s: %w", endpoint, err)
		}
		return nil
	}
	return fmt.Errorf("eramba request %s failed after %d attempts: %w", endpoint, maxAttempts, lastErr)
}

func (c *Client) FetchRegulators(ctx context.Context) (*RegulatorsDocument, error) {
	var doc RegulatorsDocument
	if err := c.get(ctx, "compliance-package-regulators", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) FetchSecurityServices(ctx context.Context) (*SecurityServicesDocument, error) {
	var doc SecurityServicesDocument
	if err := c.get(ctx, "security-services", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FetchPolicyRange fetches security policies for ids in [fromID,
// toID] across the worker pool and materializes the present ones, in
// id order, before any reconciliation starts. Absent ids (404 or an
// empty data array) are skipped silently; workers never touch shared
// entity state.
func (c *Client) FetchPolicyRange(ctx context.Context, fromID, toID int) ([]SecurityPolicy, error) {
	if toID < fromID {
		return nil, fmt.Errorf("eramba: invalid policy id range [%d, %d]", fromID, toID)
	}

	var mu sync.Mutex
	found := make(map[int]SecurityPolicy)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)

	for id := fromID; id <= toID; id++ {
		id := id
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rec, err := c.fetchPolicy(gctx, id)
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}
			mu.Lock()
			found[id] = *rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]SecurityPolicy, 0, len(found))
	for id := fromID; id <= toID; id++ {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *Client) fetchPolicy(ctx context.Context, id int) (*SecurityPolicy, error) {
	var doc SecurityPoliciesDocument
	err := c.get(ctx, fmt.Sprintf("security-policies/%d", id), &doc)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(doc.Data) == 0 {
		return nil, nil
	}
	rec := doc.Data[0]
	if rec.ID == 0 {
		rec.ID = id
	}
	return &rec, nil
}
