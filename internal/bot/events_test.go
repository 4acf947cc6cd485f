package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestClassify(t *testing.T) {
	from := &tgbotapi.User{ID: 7, UserName: "alice"}
	chat := &tgbotapi.Chat{ID: 70}

	tests := []struct {
		name   string
		update tgbotapi.Update
		want   Event
		ok     bool
	}{
		{
			name:   "text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Text: "hi"}},
			want:   Event{Kind: EventText, ChatID: 70, UserID: 7, Username: "alice", Text: "hi"},
			ok:     true,
		},
		{
			name: "photo keeps largest size",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Photo: []tgbotapi.PhotoSize{
				{FileID: "small"}, {FileID: "large"},
			}}},
			want: Event{Kind: EventPhoto, ChatID: 70, UserID: 7, Username: "alice", PhotoRef: "large"},
			ok:   true,
		},
		{
			name: "callback",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb1", From: from, Message: &tgbotapi.Message{Chat: chat}, Data: "buy_product",
			}},
			want: Event{Kind: EventCallback, ChatID: 70, UserID: 7, Username: "alice", CallbackID: "cb1", Data: "buy_product"},
			ok:   true,
		},
		{
			name:   "sticker is ignored",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat}},
			ok:     false,
		},
		{
			name:   "empty update",
			update: tgbotapi.Update{},
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify(tt.update)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyPayments(t *testing.T) {
	from := &tgbotapi.User{ID: 7, FirstName: "Alice"}

	ev, ok := classify(tgbotapi.Update{PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{
		ID: "q1", From: from, Currency: "USD", TotalAmount: 250, InvoicePayload: "topup:x",
	}})
	if !ok || ev.Kind != EventPreCheckout {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Username != "Alice" || ev.PreCheckout.FromID != 7 || ev.PreCheckout.TotalAmount != 250 || ev.PreCheckout.Payload != "topup:x" {
		t.Fatalf("unexpected pre-checkout %+v", ev.PreCheckout)
	}

	ev, ok = classify(tgbotapi.Update{Message: &tgbotapi.Message{
		From: from,
		Chat: &tgbotapi.Chat{ID: 7},
		SuccessfulPayment: &tgbotapi.SuccessfulPayment{
			Currency: "USD", TotalAmount: 1, InvoicePayload: "topup:x", TelegramPaymentChargeID: "charge-1",
		},
	}})
	if !ok || ev.Kind != EventPayment {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Payment.PaymentID != "charge-1" || ev.Payment.UserID != 7 || ev.Payment.TotalAmount != 1 {
		t.Fatalf("unexpected payment %+v", ev.Payment)
	}
}
