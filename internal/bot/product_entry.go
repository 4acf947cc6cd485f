package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/shop_bot/internal/service"
	"github.com/Fi44er/shop_bot/internal/state"
	"github.com/Fi44er/shop_bot/utils"
)

const skipWord = "skip"

// --- Add item ---

func (b *Bot) handleAddItem(ev Event) {
	if !b.requireAdmin(ev) {
		return
	}
	b.store.Clear(ev.ChatID)
	b.store.SetState(ev.ChatID, state.AwaitingName)
	b.sendMessage(ev.ChatID, "Enter the product name:", backKeyboard())
}

func (b *Bot) handleProductName(chatID int64, text string) {
	name := utils.SanitizeText(text)
	if name == "" {
		b.sendMessage(chatID, "❌ The name cannot be empty. Enter the product name:", backKeyboard())
		return
	}
	b.store.Update(chatID, func(s *state.Session) {
		s.Product.Name = name
		s.Step = state.AwaitingPrice
	})
	b.sendMessage(chatID, "Enter the price:", backKeyboard())
}

func (b *Bot) handleProductPrice(chatID int64, text string) {
	price, err := utils.ParsePrice(text)
	if err != nil {
		b.sendMessage(chatID, "❌ Invalid price. Enter a non-negative number:", backKeyboard())
		return
	}
	b.store.Update(chatID, func(s *state.Session) {
		s.Product.Price = price
		s.Step = state.AwaitingQuantity
	})
	b.sendMessage(chatID, "Enter the quantity:", backKeyboard())
}

func (b *Bot) handleProductQuantity(chatID int64, text string) {
	qty, err := utils.ParseQuantity(text)
	if err != nil {
		b.sendMessage(chatID, "❌ Invalid quantity. Enter a whole number, 0 or more:", backKeyboard())
		return
	}
	b.store.Update(chatID, func(s *state.Session) {
		s.Product.Quantity = qty
		s.Step = state.AwaitingPhoto
	})
	b.sendMessage(chatID, "Send a photo of the product, or type skip:", backKeyboard())
}

func (b *Bot) handleProductPhotoText(ctx context.Context, ev Event, text string) {
	if strings.EqualFold(text, skipWord) {
		b.commitProduct(ctx, ev, "")
		return
	}
	b.store.SetState(ev.ChatID, state.AwaitingPhotoUpload)
	b.sendMessage(ev.ChatID, "Please upload a photo, or type skip:", backKeyboard())
}

// commitProduct always clears the session, including when the insert fails.
func (b *Bot) commitProduct(ctx context.Context, ev Event, imageRef string) {
	draft := b.store.Get(ev.ChatID).Product
	b.store.Clear(ev.ChatID)

	menu := GetMainMenu(true)
	product, err := b.service.AddProduct(ctx, service.ProductInput{
		AdminID:  ev.UserID,
		Username: ev.Username,
		Name:     draft.Name,
		Price:    draft.Price,
		Quantity: draft.Quantity,
		ImageRef: imageRef,
	})
	if err != nil {
		b.logger.WithChat(ev.ChatID).Errorf("Failed to add product %q: %v", draft.Name, err)
		b.sendMessage(ev.ChatID, "❌ Failed to add the product. Please try again.", menu)
		return
	}

	image := "none"
	if product.ProductImageLink != "" {
		image = "attached"
	}
	msgText := fmt.Sprintf(
		"✅ Product added!\n\n"+
			"*Number:* `%d`\n"+
			"*Name:* %s\n"+
			"*Price:* `%s`\n"+
			"*Quantity:* `%d`\n"+
			"*Image:* %s",
		product.ProductNumber,
		escape(product.ProductName),
		utils.FormatMoney(product.ProductPrice, b.service.Currency()),
		product.ProductQuantity,
		image,
	)
	b.sendMessage(ev.ChatID, msgText, menu)
}

// --- Edit item ---

func (b *Bot) handleEditItem(ev Event) {
	if !b.requireAdmin(ev) {
		return
	}
	b.store.Clear(ev.ChatID)
	b.store.SetState(ev.ChatID, state.AwaitingEditID)
	b.sendMessage(ev.ChatID, "Enter the product number to edit:", backKeyboard())
}

// handleEditID re-prompts on malformed input; a well formed number that matches
// no product ends the flow.
func (b *Bot) handleEditID(ctx context.Context, chatID int64, text string) {
	number, ok := utils.ParseProductNumber(text)
	if !ok {
		b.sendMessage(chatID, "❌ A product number has 8 digits. Enter the product number:", backKeyboard())
		return
	}

	product, err := b.service.GetProduct(ctx, number)
	if err != nil {
		b.logger.WithChat(chatID).Errorf("Failed to load product %d: %v", number, err)
		b.store.Clear(chatID)
		b.sendMessage(chatID, genericErrorText, GetMainMenu(true))
		return
	}
	if product == nil {
		b.store.Clear(chatID)
		b.sendMessage(chatID, fmt.Sprintf("❌ Product `%d` not found.", number), GetMainMenu(true))
		return
	}

	b.store.Update(chatID, func(s *state.Session) {
		s.Edit.ProductNumber = number
		s.Step = state.AwaitingEditDetails
	})
	msgText := fmt.Sprintf(
		"Current values: %s,%s,%d\n",
		escape(product.ProductName),
		product.ProductPrice.StringFixed(2),
		product.ProductQuantity,
	)
	if sold, err := b.service.SoldCount(ctx, number); err == nil {
		msgText += fmt.Sprintf("Sold so far: %d\n", sold)
	}
	b.sendMessage(chatID, msgText+"\nSend the new values as name,price,quantity:", backKeyboard())
}

func (b *Bot) handleEditDetails(ctx context.Context, ev Event, text string) {
	if _, _, _, err := service.ParseEditLine(text); err != nil {
		b.sendMessage(ev.ChatID, "❌ Expected name,price,quantity (for example: Widget,10,3). Try again:", backKeyboard())
		return
	}

	number := b.store.Get(ev.ChatID).Edit.ProductNumber
	b.store.Clear(ev.ChatID)

	product, err := b.service.EditProduct(ctx, number, text)
	if err != nil {
		b.logger.WithChat(ev.ChatID).Errorf("Failed to edit product %d: %v", number, err)
		msgText := "❌ Failed to update the product."
		if service.IsNotFound(err) {
			msgText = fmt.Sprintf("❌ Product `%d` no longer exists.", number)
		}
		b.sendMessage(ev.ChatID, msgText, GetMainMenu(true))
		return
	}

	msgText := fmt.Sprintf(
		"✅ Product `%d` updated: %s, `%s`, quantity `%d`.",
		product.ProductNumber,
		escape(product.ProductName),
		utils.FormatMoney(product.ProductPrice, b.service.Currency()),
		product.ProductQuantity,
	)
	b.sendMessage(ev.ChatID, msgText, GetMainMenu(true))
}
