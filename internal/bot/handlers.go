package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/service"
	"github.com/Fi44er/shop_bot/internal/state"
	"github.com/Fi44er/shop_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleText(ctx context.Context, ev Event, user *models.User) {
	text := strings.TrimSpace(ev.Text)
	chatID := ev.ChatID

	b.logger.WithChat(chatID).Infof("Processing message from user %d: %s", user.UserID, text)

	if strings.EqualFold(text, buttonBack) {
		b.handleBack(chatID, ev.UserID)
		return
	}

	switch b.store.State(chatID) {
	case state.AwaitingName:
		b.handleProductName(chatID, text)
		return
	case state.AwaitingPrice:
		b.handleProductPrice(chatID, text)
		return
	case state.AwaitingQuantity:
		b.handleProductQuantity(chatID, text)
		return
	case state.AwaitingPhoto, state.AwaitingPhotoUpload:
		b.handleProductPhotoText(ctx, ev, text)
		return
	case state.AwaitingEditID:
		b.handleEditID(ctx, chatID, text)
		return
	case state.AwaitingEditDetails:
		b.handleEditDetails(ctx, ev, text)
		return
	case state.AwaitingTopUpAmount:
		b.handleTopUpAmount(ctx, ev, text)
		return
	}

	if strings.HasPrefix(text, "/") {
		command, args, _ := strings.Cut(text, " ")
		switch command {
		case "/start":
			b.handleStart(ctx, ev)
		case "/shop":
			b.handleShop(ctx, chatID)
		case "/credit":
			b.handleCreditCommand(ctx, ev, args)
		case "/stock":
			b.handleStockCommand(ctx, ev, args)
		default:
			b.sendMessage(chatID, "Unknown command. Use the menu.", GetMainMenu(b.isAdmin(ev.UserID)))
		}
		return
	}

	switch text {
	case buttonShop:
		b.handleShop(ctx, chatID)
	case buttonOrders:
		b.handleOrders(ctx, chatID, user)
	case buttonWallet:
		b.handleWallet(ctx, chatID, user)
	case buttonTopUp:
		b.handleTopUpRequest(chatID)
	case buttonSupport:
		b.sendMessage(chatID, fmt.Sprintf("📞 For help, contact %s", escape(b.service.SupportContact())), nil)
	case buttonAddItem:
		b.handleAddItem(ev)
	case buttonEdit:
		b.handleEditItem(ev)
	default:
		b.sendMessage(chatID, "Unknown command. Use the menu.", GetMainMenu(b.isAdmin(ev.UserID)))
	}
}

func (b *Bot) handleStart(ctx context.Context, ev Event) {
	admin := b.isAdmin(ev.UserID)
	if admin {
		if err := b.service.RegisterAdmin(ctx, ev.UserID, ev.Username); err != nil {
			b.logger.Errorf("Failed to register admin %d: %v", ev.UserID, err)
		}
	}
	b.sendMessage(ev.ChatID, "Welcome to the store! Use /shop to browse.", GetMainMenu(admin))
}

// handleBack is the only cancellation: it drops the step and every scratch field.
func (b *Bot) handleBack(chatID, userID int64) {
	b.store.Clear(chatID)
	b.sendMessage(chatID, "Cancelled. Choose an action from the menu:", GetMainMenu(b.isAdmin(userID)))
}

func (b *Bot) handleShop(ctx context.Context, chatID int64) {
	categories, err := b.service.AvailableCategories(ctx)
	if err != nil {
		b.logger.Errorf("Failed to list categories: %v", err)
		b.sendMessage(chatID, genericErrorText, nil)
		return
	}
	if len(categories) == 0 {
		b.sendMessage(chatID, "No items are available right now.", nil)
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c, callbackCategory+c),
		))
	}
	b.sendMessage(chatID, "🛒 Choose a category:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleOrders(ctx context.Context, chatID int64, user *models.User) {
	orders, err := b.service.ListOrders(ctx, user.UserID)
	if err != nil {
		b.logger.Errorf("Failed to list orders of %d: %v", user.UserID, err)
		b.sendMessage(chatID, genericErrorText, nil)
		return
	}
	if len(orders) == 0 {
		b.sendMessage(chatID, "You have no orders yet.", nil)
		return
	}

	currency := b.service.Currency()
	var sb strings.Builder
	sb.WriteString("🛍 Your orders:\n\n")
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf(
			"`%s`\n%s: %s\n%s\n\n",
			o.OrderNumber,
			escape(o.ProductName),
			utils.FormatMoney(o.ProductPrice, currency),
			o.OrderDate.Format("2006-01-02 15:04"),
		))
	}
	b.sendMessage(chatID, sb.String(), nil)
}

func (b *Bot) handleWallet(ctx context.Context, chatID int64, user *models.User) {
	balance, err := b.service.Balance(ctx, user.UserID)
	if err != nil {
		b.logger.WithChat(chatID).Errorf("Failed to read balance: %v", err)
		b.sendMessage(chatID, genericErrorText, nil)
		return
	}
	msgText := fmt.Sprintf("💰 Your balance: `%s`", utils.FormatMoney(balance, b.service.Currency()))
	b.sendMessage(chatID, msgText, nil)
}

// handleCreditCommand is "/credit <user_id> <amount>" for manual adjustments.
func (b *Bot) handleCreditCommand(ctx context.Context, ev Event, args string) {
	if !b.requireAdmin(ev) {
		return
	}

	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.sendMessage(ev.ChatID, "Usage: /credit <user\\_id> <amount>", nil)
		return
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		b.sendMessage(ev.ChatID, "❌ Invalid user id.", nil)
		return
	}
	amount, err := utils.ParseAmount(fields[1])
	if err != nil {
		b.sendMessage(ev.ChatID, "❌ Invalid amount. Enter a positive number.", nil)
		return
	}

	balance, err := b.service.CreditWallet(ctx, ev.UserID, userID, amount)
	if err != nil {
		b.logger.Errorf("Manual credit of %d failed: %v", userID, err)
		b.sendMessage(ev.ChatID, "❌ Failed to credit the wallet.", nil)
		return
	}

	currency := b.service.Currency()
	b.sendMessage(ev.ChatID, fmt.Sprintf("✅ User `%d` credited. New balance: `%s`", userID, utils.FormatMoney(balance, currency)), nil)
	b.sendMessage(userID, fmt.Sprintf("✅ Your wallet was credited with `%s`.", utils.FormatMoney(amount, currency)), nil)
}

func (b *Bot) handlePhoto(ctx context.Context, ev Event, _ *models.User) {
	switch b.store.State(ev.ChatID) {
	case state.AwaitingPhoto, state.AwaitingPhotoUpload:
		b.commitProduct(ctx, ev, ev.PhotoRef)
	default:
		b.sendMessage(ev.ChatID, "Unknown command. Use the menu.", GetMainMenu(b.isAdmin(ev.UserID)))
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, ev Event, user *models.User) {
	data := ev.Data

	switch {
	case strings.HasPrefix(data, callbackCategory):
		b.handleCategoryCallback(ctx, ev, strings.TrimPrefix(data, callbackCategory))
	case strings.HasPrefix(data, callbackProduct):
		b.handleProductCallback(ctx, ev, user, strings.TrimPrefix(data, callbackProduct))
	case data == callbackBuy:
		b.handleBuyCallback(ctx, ev, user)
	default:
		b.logger.Warnf("Unknown callback data: %s", data)
		b.answerCallback(ev.CallbackID, "Unknown action.")
	}
}

// handleStockCommand is "/stock <product_number> <quantity>" for restocking.
func (b *Bot) handleStockCommand(ctx context.Context, ev Event, args string) {
	if !b.requireAdmin(ev) {
		return
	}

	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.sendMessage(ev.ChatID, "Usage: /stock <product\\_number> <quantity>", nil)
		return
	}
	number, ok := utils.ParseProductNumber(fields[0])
	if !ok {
		b.sendMessage(ev.ChatID, "❌ Product number must be 8 digits.", nil)
		return
	}
	quantity, err := utils.ParseQuantity(fields[1])
	if err != nil {
		b.sendMessage(ev.ChatID, "❌ Invalid quantity. Enter a whole number (0 or more).", nil)
		return
	}

	if err := b.service.SetStock(ctx, number, quantity); err != nil {
		if service.IsNotFound(err) {
			b.sendMessage(ev.ChatID, "❌ Product not found.", nil)
			return
		}
		b.logger.Errorf("Restock of %d failed: %v", number, err)
		b.sendMessage(ev.ChatID, genericErrorText, nil)
		return
	}
	b.sendMessage(ev.ChatID, fmt.Sprintf("✅ Product `%d` now has `%d` in stock.", number, quantity), nil)
}
