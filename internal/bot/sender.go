package bot

import (
	"strings"

	"github.com/Fi44er/shop_bot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the outbound half of the Telegram transport.
type Sender interface {
	SendMessage(chatID int64, text string, replyMarkup interface{}) error
	SendPhoto(chatID int64, photoRef, caption string, replyMarkup interface{}) error
	AnswerCallback(callbackID, text string) error
	SendInvoice(chatID int64, invoice *service.Invoice) error
	AnswerPreCheckout(queryID string, ok bool, errorMessage string) error
}

type telegramSender struct {
	api *tgbotapi.BotAPI
}

func NewTelegramSender(api *tgbotapi.BotAPI) Sender {
	return &telegramSender{api: api}
}

func (s *telegramSender) SendMessage(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	_, err := s.api.Send(msg)
	return err
}

func (s *telegramSender) SendPhoto(chatID int64, photoRef, caption string, replyMarkup interface{}) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photoRef))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	if replyMarkup != nil {
		photo.ReplyMarkup = replyMarkup
	}
	_, err := s.api.Send(photo)
	return err
}

func (s *telegramSender) AnswerCallback(callbackID, text string) error {
	_, err := s.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (s *telegramSender) SendInvoice(chatID int64, invoice *service.Invoice) error {
	cfg := tgbotapi.NewInvoice(
		chatID,
		invoice.Title,
		invoice.Description,
		invoice.Payload,
		invoice.ProviderToken,
		"topup",
		invoice.Currency,
		[]tgbotapi.LabeledPrice{{Label: invoice.Title, Amount: int(invoice.AmountMinor)}},
	)
	// v5.5.1 serializes a nil slice as null, which the Bot API rejects.
	cfg.SuggestedTipAmounts = []int{}
	_, err := s.api.Send(cfg)
	return err
}

func (s *telegramSender) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	_, err := s.api.Request(tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	})
	return err
}

// sendMessage - unified helper for text replies; delivery failures are logged, not returned.
func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	if err := b.sender.SendMessage(chatID, text, replyMarkup); err != nil {
		b.logger.WithChat(chatID).Errorf("Failed to send message: %v", err)
	}
}

func (b *Bot) sendPhoto(chatID int64, photoRef, caption string, replyMarkup interface{}) {
	if err := b.sender.SendPhoto(chatID, photoRef, caption, replyMarkup); err != nil {
		b.logger.WithChat(chatID).Errorf("Failed to send photo, falling back to text: %v", err)
		b.sendMessage(chatID, caption, replyMarkup)
	}
}

func (b *Bot) answerCallback(callbackID string, text string) {
	if err := b.sender.AnswerCallback(callbackID, text); err != nil {
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.service.IsAdmin(userID)
}

func (b *Bot) notifyAdmins(text string) {
	for _, id := range b.config.AdminIDs {
		b.sendMessage(id, text, nil)
	}
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[",
)

// escape makes user supplied text safe inside a Markdown message.
func escape(text string) string {
	return markdownEscaper.Replace(text)
}
