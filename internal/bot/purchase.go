package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/Fi44er/shop_bot/internal/state"
	"github.com/Fi44er/shop_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackCategory = "getcats_"
	callbackProduct  = "getproduct_"
	callbackBuy      = "buy_product"
)

func (b *Bot) handleCategoryCallback(ctx context.Context, ev Event, category string) {
	b.answerCallback(ev.CallbackID, "")

	products, err := b.service.AvailableProducts(ctx, category)
	if err != nil {
		b.logger.Errorf("Failed to list products of %q: %v", category, err)
		b.sendMessage(ev.ChatID, genericErrorText, nil)
		return
	}
	if len(products) == 0 {
		b.sendMessage(ev.ChatID, "No items available in this category.", nil)
		return
	}

	currency := b.service.Currency()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products))
	for _, p := range products {
		label := fmt.Sprintf("%s - %s", p.ProductName, utils.FormatMoney(p.ProductPrice, currency))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", callbackProduct, p.ProductNumber)),
		))
	}
	b.sendMessage(ev.ChatID, fmt.Sprintf("*%s*\nChoose an item:", escape(category)), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleProductCallback shows one item and remembers it as the chat's purchase target.
func (b *Bot) handleProductCallback(ctx context.Context, ev Event, user *models.User, raw string) {
	number, ok := utils.ParseProductNumber(raw)
	if !ok {
		b.answerCallback(ev.CallbackID, "Unknown item.")
		return
	}

	product, err := b.service.GetProduct(ctx, number)
	if err != nil {
		b.logger.Errorf("Failed to load product %d: %v", number, err)
		b.answerCallback(ev.CallbackID, genericErrorText)
		return
	}
	if product == nil || !product.InStock() {
		b.answerCallback(ev.CallbackID, "This item is no longer available.")
		return
	}
	b.answerCallback(ev.CallbackID, "")

	b.store.Update(ev.ChatID, func(s *state.Session) {
		s.Purchase.ProductNumber = number
	})

	currency := b.service.Currency()
	msgText := fmt.Sprintf(
		"*%s*\n%s\n\n"+
			"💵 *Price:* `%s`\n"+
			"📦 *In stock:* `%d`\n"+
			"💰 *Your balance:* `%s`",
		escape(product.ProductName),
		escape(product.ProductDescription),
		utils.FormatMoney(product.ProductPrice, currency),
		product.ProductQuantity,
		utils.FormatMoney(user.Wallet, currency),
	)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Buy", callbackBuy)),
	)

	if product.ProductImageLink != "" {
		b.sendPhoto(ev.ChatID, product.ProductImageLink, msgText, keyboard)
		return
	}
	b.sendMessage(ev.ChatID, msgText, keyboard)
}

func (b *Bot) handleBuyCallback(ctx context.Context, ev Event, user *models.User) {
	number := b.store.Get(ev.ChatID).Purchase.ProductNumber
	if number == 0 {
		b.answerCallback(ev.CallbackID, "Select an item first.")
		return
	}
	b.store.Update(ev.ChatID, func(s *state.Session) {
		s.Purchase = state.PurchaseDraft{}
	})
	b.answerCallback(ev.CallbackID, "")

	order, err := b.service.Purchase(ctx, user.UserID, number)
	if err != nil {
		b.sendMessage(ev.ChatID, purchaseErrorText(err), nil)
		if !isPurchaseRejection(err) {
			b.logger.WithChat(ev.ChatID).Errorf("Purchase of %d failed: %v", number, err)
		}
		return
	}

	currency := b.service.Currency()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"✅ Order `%s` confirmed!\n\n*%s* for `%s`",
		order.OrderNumber,
		escape(order.ProductName),
		utils.FormatMoney(order.ProductPrice, currency),
	))
	if order.ProductDownloadLink != "" {
		sb.WriteString("\n\n📥 Download: " + escape(order.ProductDownloadLink))
	}
	if order.ProductKeys != "" {
		sb.WriteString("\n\n🔑 Keys:\n" + escape(order.ProductKeys))
	}
	b.sendMessage(ev.ChatID, sb.String(), GetMainMenu(b.isAdmin(ev.UserID)))

	b.notifyAdmins(fmt.Sprintf(
		"🛍 New order `%s`\n\n"+
			"👤 *Buyer:* `%d`\n"+
			"📦 *Item:* %s (`%d`)\n"+
			"💵 *Price:* `%s`",
		order.OrderNumber,
		order.BuyerID,
		escape(order.ProductName),
		order.ProductNumber,
		utils.FormatMoney(order.ProductPrice, currency),
	))
}

func isPurchaseRejection(err error) bool {
	return errors.Is(err, repository.ErrInsufficientFunds) ||
		errors.Is(err, repository.ErrOutOfStock) ||
		errors.Is(err, repository.ErrNotFound)
}

func purchaseErrorText(err error) string {
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		return "❌ Insufficient balance. Top up your wallet first."
	case errors.Is(err, repository.ErrOutOfStock):
		return "❌ Sorry, this item is sold out."
	case errors.Is(err, repository.ErrNotFound):
		return "❌ This item is no longer available."
	}
	return "❌ The purchase failed. Your wallet was not charged."
}
