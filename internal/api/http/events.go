package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/climatenet/sensor-bot/internal/bot"
)

// eventRequest is one chat event delivered by the upstream messaging channel.
type eventRequest struct {
	ChatID int64  `json:"chat_id" validate:"required"`
	UserID int64  `json:"user_id"`
	Text   string `json:"text" validate:"required"`
}

// RegisterEventRoutes wires the chat-event ingress. Events are handled on
// their own goroutine; ordering is only guaranteed per chat by the upstream
// channel, not here.
func RegisterEventRoutes(app *fiber.App, b *bot.Bot) {
	app.Post("/api/v1/events", func(c *fiber.Ctx) error {
		var req eventRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed event payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		userID := req.UserID
		if userID == 0 {
			userID = req.ChatID
		}

		go b.Handle(context.Background(), bot.Event{
			ChatID: req.ChatID,
			UserID: userID,
			Text:   req.Text,
		})

		return c.SendStatus(fiber.StatusAccepted)
	})
}
