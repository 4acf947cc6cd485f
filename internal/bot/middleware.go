package bot

import (
	"context"

	"github.com/Fi44er/shop_bot/internal/models"
)

const genericErrorText = "An error occurred. Please try again later."

// withUserCheck makes sure the sender has a User row before the handler runs.
func (b *Bot) withUserCheck(handler func(context.Context, Event, *models.User)) func(context.Context, Event) {
	return func(ctx context.Context, ev Event) {
		user, err := b.service.GetUser(ctx, ev.UserID)
		if err != nil {
			b.logger.Errorf("Failed to get user: %v", err)
			b.sendMessage(ev.ChatID, genericErrorText, nil)
			return
		}

		if user == nil {
			if err := b.service.RegisterUser(ctx, ev.UserID, ev.Username); err != nil {
				b.logger.Errorf("Failed to create user: %v", err)
				b.sendMessage(ev.ChatID, genericErrorText, nil)
				return
			}
			user, err = b.service.GetUser(ctx, ev.UserID)
			if err != nil || user == nil {
				b.logger.Errorf("Failed to get user after creation: %v", err)
				return
			}
		}

		handler(ctx, ev, user)
	}
}

// requireAdmin rejects non-admins with a message and leaves their state untouched.
func (b *Bot) requireAdmin(ev Event) bool {
	if b.isAdmin(ev.UserID) {
		return true
	}
	b.logger.WithChat(ev.ChatID).Warnf("User %d attempted an admin action", ev.UserID)
	b.sendMessage(ev.ChatID, "⛔ This action is available to administrators only.", GetMainMenu(false))
	return false
}
