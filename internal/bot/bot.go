package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/climatenet/sensor-bot/internal/chat"
	"github.com/climatenet/sensor-bot/internal/directory"
	"github.com/climatenet/sensor-bot/internal/format"
	"github.com/climatenet/sensor-bot/internal/measure"
	"github.com/climatenet/sensor-bot/internal/metrics"
	"github.com/climatenet/sensor-bot/internal/session"
)

const (
	websiteURL = "https://climatenet.am/en/"
	mapURL     = "https://images-in-website.s3.us-east-1.amazonaws.com/Bot/map.png"
)

// Fetcher yields the latest measurement for a device id, or absence.
type Fetcher interface {
	Latest(ctx context.Context, deviceID string) (measure.Measurement, bool)
}

// selected is the normal-mode per-chat device context.
type selected struct {
	name string
	id   string
}

// Bot routes chat events to the directory, measurement and comparison
// pipelines and replies over the channel.
type Bot struct {
	channel  chat.Channel
	dir      *directory.Directory
	fetcher  Fetcher
	sessions *session.Manager
	sink     metrics.Sink

	mu      sync.Mutex
	current map[int64]selected
}

func New(channel chat.Channel, dir *directory.Directory, fetcher Fetcher, sessions *session.Manager, sink metrics.Sink) *Bot {
	return &Bot{
		channel:  channel,
		dir:      dir,
		fetcher:  fetcher,
		sessions: sessions,
		sink:     sink,
		current:  make(map[int64]selected),
	}
}

// Handle dispatches one chat event. Every path goes through the metrics
// interceptor under the resolved command name; handler errors are logged,
// never fatal.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	name, fn := b.route(ev.Text)
	if err := WithMetrics(b.sink, name, fn)(ctx, ev); err != nil {
		log.Printf("bot: %s handler for chat %d: %v", name, ev.ChatID, err)
	}
}

func (b *Bot) route(text string) (string, HandlerFunc) {
	if cmd, ok := command(text); ok {
		switch cmd {
		case "start":
			return "start", b.handleStart
		case "compare":
			return "compare", b.handleCompare
		case "one_more":
			return "one_more", b.handleOneMore
		case "start_comparing":
			return "start_comparing", b.handleStartComparing
		case "cancel_compare":
			return "cancel_compare", b.handleCancelCompare
		case "current":
			return "current", b.handleCurrent
		case "change_device", "change_location":
			return "change_device", b.handleChangeDevice
		case "help":
			return "help", b.handleHelp
		case "website":
			return "website", b.handleWebsite
		case "map":
			return "map", b.handleMap
		}
		return "unknown", b.handleUnknown
	}

	snap := b.dir.Snapshot()
	if len(snap.Devices(text)) > 0 {
		return "select_region", b.handleRegion
	}
	if snap.HasDevice(text) {
		return "select_device", b.handleDevice
	}
	return "unknown", b.handleUnknown
}

// command extracts a lower-cased command name from "/Name" style input,
// tolerating the decorated button labels ("/One_More ➕").
func command(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(text, "/")
	if i := strings.IndexByte(name, ' '); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), name != ""
}

func (b *Bot) handleStart(ctx context.Context, ev Event) error {
	if err := b.channel.SendText(ev.ChatID, "🌤️ Welcome to ClimateNet! 🌧️", nil); err != nil {
		return err
	}
	return b.sendRegionMenu(ev.ChatID, "Please choose a Region: 📍", false)
}

func (b *Bot) handleHelp(ctx context.Context, ev Event) error {
	return b.channel.SendText(ev.ChatID, `<b>/Current 📍:</b> Get the latest climate data in selected location.
<b>/Change_device 🔄:</b> Change to another climate monitoring device.
<b>/Help ❓:</b> Show available commands.
<b>/Website 🌐:</b> Visit our website for more information.
<b>/Map 🗺️:</b> View the locations of all devices on a map.
<b>/Compare 🆚:</b> Compare data from multiple devices side by side.`, b.mainMenu(ev.ChatID))
}

func (b *Bot) handleWebsite(ctx context.Context, ev Event) error {
	return b.channel.SendText(ev.ChatID, "For more information, visit our official website: 🖥️ "+websiteURL, b.mainMenu(ev.ChatID))
}

// handleMap sends the network map showing every active device location. The
// map is a hosted image; the channel delivers it by URL.
func (b *Bot) handleMap(ctx context.Context, ev Event) error {
	if err := b.channel.SendText(ev.ChatID, mapURL, nil); err != nil {
		return err
	}
	return b.channel.SendText(ev.ChatID,
		"📌 The highlighted locations indicate the current active climate devices. 🗺️",
		b.mainMenu(ev.ChatID))
}

func (b *Bot) handleUnknown(ctx context.Context, ev Event) error {
	return b.channel.SendText(ev.ChatID, "❗ Please use a valid command.\nYou can see all available commands by typing /Help ❓", nil)
}

func (b *Bot) handleChangeDevice(ctx context.Context, ev Event) error {
	b.mu.Lock()
	delete(b.current, ev.ChatID)
	b.mu.Unlock()
	return b.sendRegionMenu(ev.ChatID, "Please choose a Region: 📍", false)
}

func (b *Bot) handleRegion(ctx context.Context, ev Event) error {
	comparing := b.sessions.Mode(ev.ChatID) == session.ModeCollecting
	snap := b.dir.Snapshot()

	kb := make(chat.Keyboard, 0)
	for _, device := range snap.Devices(ev.Text) {
		kb = append(kb, []string{device})
	}
	if comparing {
		kb = append(kb, []string{"/Cancel_Compare ❌"})
		n := len(b.sessions.Devices(ev.ChatID)) + 1
		return b.channel.SendText(ev.ChatID, fmt.Sprintf("Please choose Location %d: ✅", n), kb)
	}
	kb = append(kb, []string{"/Change_location"})
	return b.channel.SendText(ev.ChatID, "Please choose a Location: ✅", kb)
}

func (b *Bot) handleDevice(ctx context.Context, ev Event) error {
	name := ev.Text
	id, ok := b.dir.Snapshot().DeviceID(name)
	if !ok {
		return b.channel.SendText(ev.ChatID, "⚠️ Device not found. ❌", nil)
	}

	if b.sessions.Mode(ev.ChatID) == session.ModeCollecting {
		return b.selectForComparison(ctx, ev, name, id)
	}

	b.mu.Lock()
	b.current[ev.ChatID] = selected{name: name, id: id}
	b.mu.Unlock()
	return b.sendLatest(ctx, ev.ChatID, name, id)
}

func (b *Bot) handleCurrent(ctx context.Context, ev Event) error {
	b.mu.Lock()
	sel, ok := b.current[ev.ChatID]
	b.mu.Unlock()
	if !ok {
		return b.channel.SendText(ev.ChatID, "⚠️ Please select a device first using /Change_device 🔄.", b.mainMenu(ev.ChatID))
	}
	return b.sendLatest(ctx, ev.ChatID, sel.name, sel.id)
}

func (b *Bot) sendLatest(ctx context.Context, chatID int64, name, id string) error {
	m, ok := b.fetcher.Latest(ctx, id)
	if !ok {
		return b.channel.SendText(chatID, "⚠️ Error retrieving data. Please try again later.", b.mainMenu(chatID))
	}

	body := format.DeviceMessage(name, m, b.issueNames(name))
	if err := b.channel.SendText(chatID, body, b.mainMenu(chatID)); err != nil {
		return err
	}
	return b.channel.SendText(chatID, "For the next measurement, select /Current 📍 every quarter of the hour. 🕒", nil)
}

func (b *Bot) handleCompare(ctx context.Context, ev Event) error {
	b.sessions.Begin(ev.ChatID)
	return b.sendRegionMenu(ev.ChatID, "Please choose a Region 1: 📍", true)
}

func (b *Bot) selectForComparison(ctx context.Context, ev Event, name, id string) error {
	res, err := b.sessions.Select(ev.ChatID, session.SelectedDevice{Name: name, ID: id})
	switch {
	case errors.Is(err, session.ErrDuplicateSelection):
		return b.channel.SendText(ev.ChatID, fmt.Sprintf("❗Device %s is already selected.", name), nil)
	case errors.Is(err, session.ErrSelectionFull):
		return b.channel.SendText(ev.ChatID, "Maximum of 5 devices is reached.", nil)
	case err != nil:
		return err
	}

	if res.AutoExecute {
		return b.runComparison(ctx, ev.ChatID)
	}
	if res.Count >= format.MinComparisonDevices {
		kb := chat.NewKeyboard("/One_More ➕", "/Cancel_Compare ❌", "/Start_Comparing ✅")
		return b.channel.SendText(ev.ChatID,
			fmt.Sprintf("Location %d (%s) added. Want to add another device?", res.Count, name), kb)
	}
	return b.sendRegionMenu(ev.ChatID, fmt.Sprintf("Please choose a Region %d: 📍", res.Count+1), true)
}

func (b *Bot) handleOneMore(ctx context.Context, ev Event) error {
	if b.sessions.Mode(ev.ChatID) != session.ModeCollecting {
		return b.channel.SendText(ev.ChatID, "⚠️ Please start comparison with /Compare first.", nil)
	}
	n := len(b.sessions.Devices(ev.ChatID))
	if n >= format.MaxComparisonDevices {
		return b.channel.SendText(ev.ChatID, "Maximum of 5 devices is reached.", nil)
	}
	return b.sendRegionMenu(ev.ChatID, fmt.Sprintf("Please choose a Region %d: 📍", n+1), true)
}

func (b *Bot) handleStartComparing(ctx context.Context, ev Event) error {
	if b.sessions.Mode(ev.ChatID) != session.ModeCollecting {
		return b.channel.SendText(ev.ChatID, "⚠️ Please start comparison with /Compare first.", nil)
	}
	return b.runComparison(ctx, ev.ChatID)
}

func (b *Bot) handleCancelCompare(ctx context.Context, ev Event) error {
	b.sessions.Cancel(ev.ChatID)
	return b.channel.SendText(ev.ChatID, "Comparison cancelled. Back to the main menu.", b.mainMenu(ev.ChatID))
}

// runComparison executes the session pipeline and reports the outcome. Any
// terminating failure leaves the session Idle; only a too-small selection
// keeps collecting.
func (b *Bot) runComparison(ctx context.Context, chatID int64) error {
	image, err := b.sessions.Execute(ctx, chatID)

	var incomplete *session.IncompleteError
	switch {
	case errors.Is(err, session.ErrTooFewDevices):
		return b.channel.SendText(chatID, "⚠️ Please select at least two devices to compare.", nil)
	case errors.As(err, &incomplete):
		return b.channel.SendText(chatID,
			fmt.Sprintf("⚠️ Error during comparison: failed to fetch data for %s. Please try again.", incomplete.Device),
			b.mainMenu(chatID))
	case err != nil:
		log.Printf("bot: comparison for chat %d: %v", chatID, err)
		return b.channel.SendText(chatID, "⚠️ Error generating comparison image. Please try again.", b.mainMenu(chatID))
	}

	if err := b.channel.SendImage(chatID, image); err != nil {
		return err
	}
	return b.channel.SendText(chatID, "Comparison table sent as image above.", b.mainMenu(chatID))
}

func (b *Bot) sendRegionMenu(chatID int64, prompt string, comparing bool) error {
	regions := b.dir.Snapshot().Regions()
	if len(regions) == 0 {
		return b.channel.SendText(chatID, "⚠️ No locations available. Please try again later.", nil)
	}
	kb := make(chat.Keyboard, 0, len(regions)+1)
	for _, r := range regions {
		kb = append(kb, []string{r})
	}
	if comparing {
		kb = append(kb, []string{"/Cancel_Compare ❌"})
	}
	return b.channel.SendText(chatID, prompt, kb)
}

// mainMenu builds the command keyboard. The Current button carries the
// chat's selected device name so the user sees which device it will query.
func (b *Bot) mainMenu(chatID int64) chat.Keyboard {
	b.mu.Lock()
	cur := b.current[chatID].name
	b.mu.Unlock()
	return chat.Keyboard{
		{"/Current 📍" + cur, "/Change_device 🔄"},
		{"/Help ❓", "/Website 🌐"},
		{"/Map 🗺️", "/Compare 🆚"},
	}
}

func (b *Bot) issueNames(device string) []string {
	return issueNames(b.dir.Snapshot(), device)
}

func issueNames(snap *directory.Snapshot, device string) []string {
	issues := snap.Issues(device)
	names := make([]string, 0, len(issues))
	for _, issue := range issues {
		names = append(names, issue.Name)
	}
	return names
}

// IssueLookup adapts the directory for the session manager's issue column.
func IssueLookup(dir *directory.Directory) session.IssueLookup {
	return func(name string) []string {
		return issueNames(dir.Snapshot(), name)
	}
}
