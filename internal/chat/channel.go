package chat

// Keyboard is a reply-keyboard layout: rows of button labels. A nil Keyboard
// leaves the channel's current keyboard untouched.
type Keyboard [][]string

// NewKeyboard builds a keyboard with one button per row.
func NewKeyboard(buttons ...string) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, []string{b})
	}
	return kb
}

// Channel is the messaging transport the bot emits to. Delivery is
// best-effort; implementations live outside this module.
type Channel interface {
	SendText(chatID int64, text string, keyboard Keyboard) error
	SendImage(chatID int64, image []byte) error
}
