package bot

import (
	"github.com/Fi44er/shop_bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type EventKind string

const (
	EventText        EventKind = "text"
	EventPhoto       EventKind = "photo"
	EventCallback    EventKind = "callback"
	EventPreCheckout EventKind = "pre_checkout"
	EventPayment     EventKind = "successful_payment"
)

// Event is an inbound update reduced to what the flows need. Only the fields of
// its Kind are set.
type Event struct {
	Kind     EventKind
	ChatID   int64
	UserID   int64
	Username string

	Text     string
	PhotoRef string

	CallbackID string
	Data       string

	PreCheckout service.PreCheckout
	Payment     service.PaymentConfirmation
}

func classify(update tgbotapi.Update) (Event, bool) {
	switch {
	case update.PreCheckoutQuery != nil:
		q := update.PreCheckoutQuery
		if q.From == nil {
			return Event{}, false
		}
		return Event{
			Kind:     EventPreCheckout,
			ChatID:   q.From.ID,
			UserID:   q.From.ID,
			Username: displayName(q.From),
			PreCheckout: service.PreCheckout{
				QueryID:     q.ID,
				FromID:      q.From.ID,
				Currency:    q.Currency,
				TotalAmount: int64(q.TotalAmount),
				Payload:     q.InvoicePayload,
			},
		}, true

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil {
			return Event{}, false
		}
		chatID := cb.From.ID
		if cb.Message != nil && cb.Message.Chat != nil {
			chatID = cb.Message.Chat.ID
		}
		return Event{
			Kind:       EventCallback,
			ChatID:     chatID,
			UserID:     cb.From.ID,
			Username:   displayName(cb.From),
			CallbackID: cb.ID,
			Data:       cb.Data,
		}, true

	case update.Message != nil:
		return classifyMessage(update.Message)
	}
	return Event{}, false
}

func classifyMessage(m *tgbotapi.Message) (Event, bool) {
	if m.From == nil || m.Chat == nil {
		return Event{}, false
	}
	ev := Event{
		ChatID:   m.Chat.ID,
		UserID:   m.From.ID,
		Username: displayName(m.From),
	}

	switch {
	case m.SuccessfulPayment != nil:
		p := m.SuccessfulPayment
		ev.Kind = EventPayment
		ev.Payment = service.PaymentConfirmation{
			UserID:      m.From.ID,
			PaymentID:   p.TelegramPaymentChargeID,
			Currency:    p.Currency,
			TotalAmount: int64(p.TotalAmount),
			Payload:     p.InvoicePayload,
		}
	case len(m.Photo) > 0:
		ev.Kind = EventPhoto
		// Telegram lists sizes ascending; keep the largest.
		ev.PhotoRef = m.Photo[len(m.Photo)-1].FileID
		ev.Text = m.Caption
	case m.Text != "":
		ev.Kind = EventText
		ev.Text = m.Text
	default:
		return Event{}, false
	}
	return ev, true
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}
