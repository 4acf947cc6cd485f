package bot

import (
	"context"
	"time"

	"github.com/Fi44er/shop_bot/config"
	"github.com/Fi44er/shop_bot/internal/metrics"
	"github.com/Fi44er/shop_bot/internal/service"
	"github.com/Fi44er/shop_bot/internal/state"
	"github.com/Fi44er/shop_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	buttonShop    = "Shop Items 🛒"
	buttonOrders  = "My Orders 🛍"
	buttonSupport = "Support 📞"
	buttonWallet  = "My Wallet 💰"
	buttonTopUp   = "Top Up 💳"
	buttonAddItem = "Add Item ➕"
	buttonEdit    = "Edit Item ✏️"
	buttonBack    = "Back"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	service *service.Service
	store   *state.Store
	metrics *metrics.Metrics
	logger  *utils.Logger
	config  *config.Config
}

func NewBot(
	api *tgbotapi.BotAPI,
	svc *service.Service,
	store *state.Store,
	m *metrics.Metrics,
	logger *utils.Logger,
	config *config.Config,
) *Bot {
	return &Bot{
		api:     api,
		sender:  NewTelegramSender(api),
		service: svc,
		store:   store,
		metrics: m,
		logger:  logger,
		config:  config,
	}
}

// Start runs long polling until ctx is cancelled. Updates are handled in arrival
// order so a chat's multi-step input is never reordered.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("Starting bot in long polling mode...")
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate is the entry point shared by polling and the webhook.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.logger.Debugf("Received update: %d", update.UpdateID)
	ev, ok := classify(update)
	if !ok {
		b.logger.Debugf("Ignoring update %d of unsupported type", update.UpdateID)
		return
	}
	b.Dispatch(ctx, ev)
}

// Dispatch routes one event. Events of the same chat never run concurrently.
func (b *Bot) Dispatch(ctx context.Context, ev Event) {
	defer b.store.Lock(ev.ChatID)()

	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.Updates.WithLabelValues(string(ev.Kind)).Inc()
			b.metrics.HandlerDuration.WithLabelValues(string(ev.Kind)).Observe(time.Since(start).Seconds())
		}
	}()

	switch ev.Kind {
	case EventPreCheckout:
		b.handlePreCheckout(ctx, ev)
	case EventPayment:
		b.withUserCheck(b.handleSuccessfulPayment)(ctx, ev)
	case EventCallback:
		b.withUserCheck(b.handleCallbackQuery)(ctx, ev)
	case EventPhoto:
		b.withUserCheck(b.handlePhoto)(ctx, ev)
	case EventText:
		b.withUserCheck(b.handleText)(ctx, ev)
	}
}

func GetMainMenu(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		{
			tgbotapi.NewKeyboardButton(buttonShop),
			tgbotapi.NewKeyboardButton(buttonOrders),
		},
		{
			tgbotapi.NewKeyboardButton(buttonWallet),
			tgbotapi.NewKeyboardButton(buttonTopUp),
		},
		{
			tgbotapi.NewKeyboardButton(buttonSupport),
		},
	}

	if isAdmin {
		rows = append(rows, []tgbotapi.KeyboardButton{
			tgbotapi.NewKeyboardButton(buttonAddItem),
			tgbotapi.NewKeyboardButton(buttonEdit),
		})
	}

	return tgbotapi.NewReplyKeyboard(rows...)
}

func backKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonBack)))
}
