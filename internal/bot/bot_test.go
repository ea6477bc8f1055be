package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/climatenet/sensor-bot/internal/chat"
	"github.com/climatenet/sensor-bot/internal/directory"
	"github.com/climatenet/sensor-bot/internal/measure"
	"github.com/climatenet/sensor-bot/internal/metrics"
	"github.com/climatenet/sensor-bot/internal/render"
	"github.com/climatenet/sensor-bot/internal/retry"
	"github.com/climatenet/sensor-bot/internal/session"
)

const testListing = `[
	{"name": "Yerevan Center", "generated_id": "dev-001", "parent_name": "Yerevan"},
	{"name": "Gyumri Park", "generated_id": "dev-002", "parent_name": "Shirak",
	 "issues": [{"name": "Low battery"}]},
	{"name": "Gyumri Station", "generated_id": "dev-003", "parent_name": "Shirak"}
]`

type sentText struct {
	chatID   int64
	text     string
	keyboard chat.Keyboard
}

type stubChannel struct {
	texts  []sentText
	images [][]byte
}

func (c *stubChannel) SendText(chatID int64, text string, kb chat.Keyboard) error {
	c.texts = append(c.texts, sentText{chatID: chatID, text: text, keyboard: kb})
	return nil
}

func (c *stubChannel) SendImage(chatID int64, image []byte) error {
	c.images = append(c.images, image)
	return nil
}

func (c *stubChannel) lastText() string {
	if len(c.texts) == 0 {
		return ""
	}
	return c.texts[len(c.texts)-1].text
}

func (c *stubChannel) allText() string {
	var b strings.Builder
	for _, t := range c.texts {
		b.WriteString(t.text)
		b.WriteString("\n")
	}
	return b.String()
}

type stubFetcher struct {
	absent map[string]bool
}

func (f *stubFetcher) Latest(ctx context.Context, deviceID string) (measure.Measurement, bool) {
	if f.absent[deviceID] {
		return measure.Measurement{}, false
	}
	uv := 4.0
	return measure.Measurement{Timestamp: "2026-08-30 11:45:00", UV: &uv}, true
}

type okRenderer struct{}

func (okRenderer) RenderFile(ctx context.Context, path string, viewport render.Viewport) ([]byte, error) {
	return []byte("png-bytes"), nil
}

type fixture struct {
	bot      *Bot
	channel  *stubChannel
	sessions *session.Manager
	sink     *metrics.MemorySink
	tmpDir   string
}

func newFixture(t *testing.T, fetcher *stubFetcher) *fixture {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testListing))
	}))
	t.Cleanup(srv.Close)

	dir := directory.New(srv.URL, srv.Client(), retry.Policy{MaxAttempts: 1, InitialInterval: time.Millisecond})
	require.NoError(t, dir.Refresh(context.Background()))

	tmpDir := t.TempDir()
	cssPath := filepath.Join(tmpDir, "comparison.css")
	require.NoError(t, os.WriteFile(cssPath, []byte("td { padding: 2px; }"), 0o600))

	adapter := render.NewAdapter(okRenderer{}, cssPath, tmpDir, render.Viewport{Width: 1000, Height: 800}, time.Second)
	sessions := session.NewManager(fetcher, adapter, IssueLookup(dir))
	channel := &stubChannel{}
	sink := metrics.NewMemorySink()

	return &fixture{
		bot:      New(channel, dir, fetcher, sessions, sink),
		channel:  channel,
		sessions: sessions,
		sink:     sink,
		tmpDir:   tmpDir,
	}
}

func (f *fixture) send(texts ...string) {
	for _, text := range texts {
		f.bot.Handle(context.Background(), Event{ChatID: 10, UserID: 20, Text: text})
	}
}

func stagedFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "comparison-*.html"))
	require.NoError(t, err)
	return matches
}

func TestStartSendsRegionMenu(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/start")

	require.Contains(t, f.channel.allText(), "Welcome to ClimateNet")
	last := f.channel.texts[len(f.channel.texts)-1]
	require.Contains(t, last.text, "choose a Region")
	require.Equal(t, chat.Keyboard{{"Shirak"}, {"Yerevan"}}, last.keyboard)
}

func TestDeviceSelectionSendsMeasurementWithIssues(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("Gyumri Park")

	body := f.channel.allText()
	require.Contains(t, body, "Gyumri Park")
	require.Contains(t, body, "UV Index")
	require.Contains(t, body, "⚠️ Low battery")
}

func TestMapSendsDeviceMap(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Map 🗺️")

	body := f.channel.allText()
	require.Contains(t, body, "map.png")
	require.Contains(t, body, "highlighted locations indicate the current active climate devices")
}

func TestHelpListsMapCommand(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Help ❓")

	require.Contains(t, f.channel.lastText(), "/Map 🗺️")
}

func TestMainMenuShowsSelectedDevice(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("Gyumri Park")

	// The measurement reply carries the command menu; its Current button
	// names the selected device.
	menu := f.channel.texts[len(f.channel.texts)-2].keyboard
	require.Equal(t, "/Current 📍Gyumri Park", menu[0][0])
	require.Contains(t, menu[2], "/Map 🗺️")
}

func TestCurrentWithoutSelectionPrompts(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Current 📍")

	require.Contains(t, f.channel.lastText(), "select a device first")
}

func TestComparisonSuccessEndToEnd(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Compare 🆚", "Yerevan Center", "Gyumri Park", "/Start_Comparing ✅")

	// Exactly one image, session back to Idle, staged temp file removed.
	require.Len(t, f.channel.images, 1)
	require.Equal(t, []byte("png-bytes"), f.channel.images[0])
	require.Equal(t, session.ModeIdle, f.sessions.Mode(10))
	require.Empty(t, stagedFiles(t, f.tmpDir))
	require.Contains(t, f.channel.lastText(), "Comparison table sent as image above.")
}

func TestComparisonAbortsWhenOneFetchFails(t *testing.T) {
	f := newFixture(t, &stubFetcher{absent: map[string]bool{"dev-002": true}})
	f.send("/Compare 🆚", "Yerevan Center", "Gyumri Park", "Gyumri Station", "/Start_Comparing ✅")

	require.Empty(t, f.channel.images)
	require.Contains(t, f.channel.lastText(), "Gyumri Park")
	require.Equal(t, session.ModeIdle, f.sessions.Mode(10))
}

func TestDuplicateSelectionIsRejected(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Compare 🆚", "Yerevan Center", "Yerevan Center")

	require.Contains(t, f.channel.lastText(), "already selected")
	require.Len(t, f.sessions.Devices(10), 1)
	require.Equal(t, session.ModeCollecting, f.sessions.Mode(10))
}

func TestStartComparingWithOneDeviceWarns(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Compare 🆚", "Yerevan Center", "/Start_Comparing ✅")

	require.Contains(t, f.channel.lastText(), "at least two devices")
	require.Equal(t, session.ModeCollecting, f.sessions.Mode(10))
}

func TestCancelCompareClearsSession(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/Compare 🆚", "Yerevan Center", "/Cancel_Compare ❌")

	require.Contains(t, f.channel.lastText(), "Comparison cancelled")
	require.Equal(t, session.ModeIdle, f.sessions.Mode(10))
}

func TestUnknownInputAsksForValidCommand(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("what's the weather")

	require.Contains(t, f.channel.lastText(), "valid command")
}

func TestMetricsRecordedPerCommand(t *testing.T) {
	f := newFixture(t, &stubFetcher{})
	f.send("/start", "Gyumri Park")

	entries := f.sink.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "start", entries[0].Command)
	require.True(t, entries[0].Success)
	require.Equal(t, "select_device", entries[1].Command)
	require.Equal(t, int64(20), entries[1].UserID)
}
