package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/climatenet/sensor-bot/internal/retry"
)

// unknownRegion groups devices whose listing record carries no parent region.
const unknownRegion = "Unknown"

var (
	errUnexpectedStatus = errors.New("unexpected status code")
	errCircuitOpen      = errors.New("circuit breaker open")
)

// deviceRecord mirrors one entry of the device-listing endpoint.
type deviceRecord struct {
	Name        string  `json:"name"`
	GeneratedID string  `json:"generated_id"`
	ParentName  string  `json:"parent_name"`
	Issues      []Issue `json:"issues"`
}

// Directory owns the authoritative region/device/issue mapping fetched from
// the device-listing endpoint. It serves immutable snapshots and keeps the
// last successfully built one when a refresh fails.
type Directory struct {
	url     string
	client  *http.Client
	policy  retry.Policy
	circuit *gobreaker.CircuitBreaker

	mu                  sync.RWMutex
	snap                *Snapshot
	refreshCount        int
	consecutiveFailures int
	lastRefresh         time.Time
}

// New creates a Directory polling the given listing URL. The client's timeout
// bounds each fetch attempt; policy drives retries within one refresh.
func New(url string, client *http.Client, policy retry.Policy) *Directory {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "device-listing",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Directory{
		url:     url,
		client:  client,
		policy:  policy,
		circuit: cb,
		snap:    emptySnapshot(),
	}
}

// Snapshot returns the most recently installed snapshot. It never blocks on
// an in-flight refresh and never exposes a half-built one.
func (d *Directory) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// ConsecutiveFailures returns how many refreshes in a row have failed.
func (d *Directory) ConsecutiveFailures() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.consecutiveFailures
}

// Refresh fetches the device listing and atomically installs a new snapshot.
// On exhausting retries the previous snapshot stays in place and the error is
// returned; the directory keeps serving last-known-good data.
func (d *Directory) Refresh(ctx context.Context) error {
	var next *Snapshot

	err := retry.Do(ctx, d.policy, func() error {
		snap, fetchErr := d.fetchOnce(ctx)
		if fetchErr != nil {
			log.Printf("directory: fetch attempt failed: %v", fetchErr)
			return fetchErr
		}
		next = snap
		return nil
	})
	if err != nil {
		d.mu.Lock()
		d.consecutiveFailures++
		failures := d.consecutiveFailures
		d.mu.Unlock()

		log.Printf("directory: refresh failed after retries (%d consecutive): %v", failures, err)
		return fmt.Errorf("refresh device listing: %w", err)
	}

	d.mu.Lock()
	oldDevices := d.snap.DeviceCount()
	oldIssues := d.snap.IssueCount()
	d.snap = next
	d.refreshCount++
	d.consecutiveFailures = 0
	d.lastRefresh = time.Now().UTC()
	d.mu.Unlock()

	log.Printf("directory: refresh complete: devices %d -> %d, with issues %d -> %d",
		oldDevices, next.DeviceCount(), oldIssues, next.IssueCount())
	return nil
}

// fetchOnce performs a single listing fetch and builds a complete candidate
// snapshot. The network call happens outside any directory lock.
func (d *Directory) fetchOnce(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, err
	}

	result, err := d.circuit.Execute(func() (interface{}, error) {
		resp, execErr := d.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
		}

		var records []deviceRecord
		if decodeErr := json.NewDecoder(resp.Body).Decode(&records); decodeErr != nil {
			return nil, fmt.Errorf("decode device listing: %w", decodeErr)
		}
		return records, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	records, ok := result.([]deviceRecord)
	if !ok {
		return nil, errors.New("unexpected result type from circuit breaker")
	}

	return buildSnapshot(records), nil
}

// buildSnapshot assembles all four directory maps from one full response.
// Records without a display name are skipped with a warning; a single bad
// entry never aborts the refresh.
func buildSnapshot(records []deviceRecord) *Snapshot {
	snap := emptySnapshot()

	for _, rec := range records {
		if rec.Name == "" {
			log.Printf("directory: skipping device record without a name")
			continue
		}

		if rec.GeneratedID != "" {
			snap.deviceIDs[rec.Name] = rec.GeneratedID
		}

		region := rec.ParentName
		if region == "" {
			region = unknownRegion
		}
		snap.regions[region] = append(snap.regions[region], rec.Name)

		if len(rec.Issues) > 0 {
			snap.issues[rec.Name] = rec.Issues
			snap.withIssues[rec.Name] = struct{}{}
		}
	}

	return snap
}
