package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/service"
	"github.com/Fi44er/shop_bot/internal/state"
	"github.com/Fi44er/shop_bot/utils"
)

func (b *Bot) handleTopUpRequest(chatID int64) {
	b.store.Clear(chatID)
	b.store.SetState(chatID, state.AwaitingTopUpAmount)
	b.sendMessage(chatID, fmt.Sprintf("Enter the amount to top up (%s):", b.service.Currency()), backKeyboard())
}

func (b *Bot) handleTopUpAmount(ctx context.Context, ev Event, text string) {
	amount, err := utils.ParseAmount(text)
	if err != nil {
		b.sendMessage(ev.ChatID, "❌ Invalid amount. Enter a positive number:", backKeyboard())
		return
	}
	if _, err := utils.UnitsToMinor(amount, b.service.CurrencyExponent()); err != nil {
		b.sendMessage(ev.ChatID, fmt.Sprintf(
			"❌ The amount must be between %s and %s. Enter another amount:",
			utils.FormatMoney(utils.MinorToUnits(1, b.service.CurrencyExponent()), b.service.Currency()),
			utils.FormatMoney(utils.MinorToUnits(utils.MaxMinorAmount, b.service.CurrencyExponent()), b.service.Currency()),
		), backKeyboard())
		return
	}
	b.store.Clear(ev.ChatID)

	menu := GetMainMenu(b.isAdmin(ev.UserID))
	invoice, err := b.service.CreateTopUp(ctx, ev.UserID, amount)
	if err != nil {
		if errors.Is(err, service.ErrPaymentsDisabled) {
			b.sendMessage(ev.ChatID, "Top-ups are currently unavailable.", menu)
			return
		}
		b.logger.WithChat(ev.ChatID).Errorf("Failed to create top-up: %v", err)
		b.sendMessage(ev.ChatID, "❌ Failed to create the invoice. Please try again.", menu)
		return
	}

	if err := b.sender.SendInvoice(ev.ChatID, invoice); err != nil {
		b.logger.WithChat(ev.ChatID).Errorf("Failed to send invoice %s: %v", invoice.Payload, err)
		b.sendMessage(ev.ChatID, "❌ The payment provider is unavailable. Please try again later.", menu)
		return
	}
	b.sendMessage(ev.ChatID, "💳 Pay the invoice above to top up your wallet.", menu)
}

// handlePreCheckout approves only invoices that match a pending top-up.
func (b *Bot) handlePreCheckout(ctx context.Context, ev Event) {
	q := ev.PreCheckout
	ok := true
	errorMessage := ""

	if err := b.service.ValidatePreCheckout(ctx, q); err != nil {
		ok = false
		errorMessage = "This invoice is no longer valid. Please request a new top-up."
		b.logger.WithChat(ev.ChatID).Warnf("Pre-checkout %s rejected: %v", q.QueryID, err)
	}

	if err := b.sender.AnswerPreCheckout(q.QueryID, ok, errorMessage); err != nil {
		b.logger.Errorf("Failed to answer pre-checkout %s: %v", q.QueryID, err)
	}
}

func (b *Bot) handleSuccessfulPayment(ctx context.Context, ev Event, user *models.User) {
	p := ev.Payment
	log := b.logger.WithChat(ev.ChatID).WithField("payment_id", p.PaymentID)

	credit, balance, err := b.service.ConfirmPayment(ctx, p)
	if errors.Is(err, service.ErrPaymentAlreadyProcessed) {
		log.Info("Payment already credited, ignoring redelivery")
		return
	}
	if err != nil {
		log.Errorf("Failed to credit payment: %v", err)
		b.sendMessage(ev.ChatID, fmt.Sprintf(
			"❌ Your payment was received but could not be credited. Please contact %s.",
			escape(b.service.SupportContact()),
		), nil)
		b.notifyAdmins(paymentFailureNotice(p.PaymentID, user.UserID, err))
		return
	}

	currency := b.service.Currency()
	b.sendMessage(ev.ChatID, fmt.Sprintf(
		"✅ Your wallet was credited with `%s`.\n💰 Balance: `%s`",
		utils.FormatMoney(credit, currency),
		utils.FormatMoney(balance, currency),
	), GetMainMenu(b.isAdmin(ev.UserID)))

	b.notifyAdmins(fmt.Sprintf(
		"✅ New top-up!\n\n"+
			"👤 *User:* `%d`\n"+
			"💰 *Amount:* `%s`\n"+
			"🔗 *Payment:* `%s`",
		user.UserID,
		utils.FormatMoney(credit, currency),
		p.PaymentID,
	))
}

func paymentFailureNotice(paymentID string, userID int64, err error) string {
	return fmt.Sprintf("‼️ Payment `%s` from user `%d` was not credited: %s", paymentID, userID, escape(err.Error()))
}
