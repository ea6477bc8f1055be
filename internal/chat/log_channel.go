package chat

import "log"

// LogChannel is the default Channel used until a real transport adapter is
// attached: it logs outbound messages instead of delivering them.
type LogChannel struct{}

func NewLogChannel() *LogChannel {
	return &LogChannel{}
}

func (LogChannel) SendText(chatID int64, text string, keyboard Keyboard) error {
	log.Printf("chat: text to %d (%d keyboard rows): %s", chatID, len(keyboard), text)
	return nil
}

func (LogChannel) SendImage(chatID int64, image []byte) error {
	log.Printf("chat: image to %d (%d bytes)", chatID, len(image))
	return nil
}
