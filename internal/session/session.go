package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/climatenet/sensor-bot/internal/format"
	"github.com/climatenet/sensor-bot/internal/measure"
)

// Mode is the comparison state for one chat.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCollecting
	ModeExecuting
)

var (
	// ErrNotComparing means no comparison has been started for the chat.
	ErrNotComparing = errors.New("no comparison in progress")
	// ErrDuplicateSelection means the device is already in the selection;
	// the session state is unchanged.
	ErrDuplicateSelection = errors.New("device already selected")
	// ErrTooFewDevices means an explicit execute was requested with fewer
	// than two devices; the session keeps collecting.
	ErrTooFewDevices = errors.New("comparison needs at least two devices")
	// ErrSelectionFull means the selection already holds the maximum.
	ErrSelectionFull = errors.New("device selection is full")
)

// IncompleteError aborts a comparison when any device fails to yield a
// measurement; partial comparisons are never rendered.
type IncompleteError struct {
	Device string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("failed to fetch data for %s", e.Device)
}

// SelectedDevice is one entry of the ordered comparison selection.
type SelectedDevice struct {
	Name string
	ID   string
}

type state struct {
	mode    Mode
	devices []SelectedDevice
}

// Fetcher yields the latest measurement for a device, or absence.
type Fetcher interface {
	Latest(ctx context.Context, deviceID string) (measure.Measurement, bool)
}

// Renderer turns a comparison document into an image.
type Renderer interface {
	Render(ctx context.Context, document string) ([]byte, error)
}

// IssueLookup resolves a device name to its active issue names.
type IssueLookup func(name string) []string

// Manager holds the per-chat comparison sessions and runs the comparison
// pipeline: concurrent in-order measurement fetch, document formatting, and
// rendering. Termination always clears the session back to Idle.
type Manager struct {
	fetcher  Fetcher
	renderer Renderer
	issues   IssueLookup
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]*state
}

func NewManager(fetcher Fetcher, renderer Renderer, issues IssueLookup) *Manager {
	return &Manager{
		fetcher:  fetcher,
		renderer: renderer,
		issues:   issues,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[int64]*state),
	}
}

// Begin starts collecting devices for a chat, replacing any previous
// selection.
func (m *Manager) Begin(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = &state{mode: ModeCollecting}
}

// Mode reports the chat's current comparison mode.
func (m *Manager) Mode(chatID int64) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return s.mode
	}
	return ModeIdle
}

// Devices returns a copy of the chat's ordered selection.
func (m *Manager) Devices(chatID int64) []SelectedDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return nil
	}
	out := make([]SelectedDevice, len(s.devices))
	copy(out, s.devices)
	return out
}

// SelectResult describes the state after a successful device selection.
type SelectResult struct {
	Count       int
	AutoExecute bool // the fifth device was added; run the comparison now
}

// Select appends a device to the chat's selection. Duplicates are rejected
// without touching the state.
func (m *Manager) Select(chatID int64, device SelectedDevice) (SelectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok || s.mode != ModeCollecting {
		return SelectResult{}, ErrNotComparing
	}
	if len(s.devices) >= format.MaxComparisonDevices {
		return SelectResult{Count: len(s.devices)}, ErrSelectionFull
	}
	for _, d := range s.devices {
		if d.Name == device.Name {
			return SelectResult{Count: len(s.devices)}, ErrDuplicateSelection
		}
	}

	s.devices = append(s.devices, device)
	return SelectResult{
		Count:       len(s.devices),
		AutoExecute: len(s.devices) == format.MaxComparisonDevices,
	}, nil
}

// Cancel drops the chat's comparison, reporting whether one existed.
func (m *Manager) Cancel(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[chatID]
	delete(m.sessions, chatID)
	return ok
}

// clear resets the chat to Idle; every Execute path ends here.
func (m *Manager) clear(chatID int64) {
	m.mu.Lock()
	delete(m.sessions, chatID)
	m.mu.Unlock()
	log.Printf("session: cleared comparison context for chat %d", chatID)
}

// Execute runs the comparison for the chat's selection and returns the
// rendered image. Whatever the outcome, the session ends Idle: the clear is
// deferred, not tied to the success path. Fewer than two devices is the one
// non-terminating failure.
func (m *Manager) Execute(ctx context.Context, chatID int64) ([]byte, error) {
	m.mu.Lock()
	s, ok := m.sessions[chatID]
	if !ok || s.mode == ModeIdle {
		m.mu.Unlock()
		return nil, ErrNotComparing
	}
	if len(s.devices) < format.MinComparisonDevices {
		m.mu.Unlock()
		return nil, ErrTooFewDevices
	}
	s.mode = ModeExecuting
	devices := make([]SelectedDevice, len(s.devices))
	copy(devices, s.devices)
	m.mu.Unlock()

	defer m.clear(chatID)

	measurements, err := m.fetchAll(ctx, devices)
	if err != nil {
		return nil, err
	}

	columns := make([]format.ComparisonDevice, len(devices))
	for i, d := range devices {
		columns[i] = format.ComparisonDevice{Name: d.Name, Issues: m.issues(d.Name)}
	}

	document, err := format.ComparisonDocument(columns, measurements, m.now())
	if err != nil {
		return nil, err
	}

	image, err := m.renderer.Render(ctx, document)
	if err != nil {
		return nil, err
	}
	return image, nil
}

// fetchAll retrieves every device's latest measurement concurrently while
// assembling results in selection order. A single absent reading fails the
// whole comparison, naming the first offending device in selection order.
func (m *Manager) fetchAll(ctx context.Context, devices []SelectedDevice) ([]measure.Measurement, error) {
	var wg sync.WaitGroup
	measurements := make([]measure.Measurement, len(devices))
	present := make([]bool, len(devices))

	for i, d := range devices {
		wg.Add(1)
		go func(i int, d SelectedDevice) {
			defer wg.Done()
			measurements[i], present[i] = m.fetcher.Latest(ctx, d.ID)
		}(i, d)
	}
	wg.Wait()

	for i, ok := range present {
		if !ok {
			return nil, &IncompleteError{Device: devices[i].Name}
		}
	}
	return measurements, nil
}
