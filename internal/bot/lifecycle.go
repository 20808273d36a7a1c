package bot

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookPath is where Telegram posts updates in webhook mode
const WebhookPath = "/telegram-webhook"

// Start runs the bot in polling mode until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no Telegram client")
	}
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := b.client.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.client.GetUpdatesChan(u)

	b.logger.Info("Bot started successfully. Waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.logger.Info("Bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// StartWebhook registers webhookURL + WebhookPath with Telegram
func (b *Bot) StartWebhook(webhookURL string) error {
	if b.client == nil {
		return errors.New("bot has no Telegram client")
	}
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL + WebhookPath)
	if err != nil {
		return err
	}
	webhookConfig.MaxConnections = 40

	if _, err := b.client.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return err
	}

	info, err := b.client.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}
	return nil
}

// WebhookHandler decodes an update posted by Telegram and handles it
func (b *Bot) WebhookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			b.logger.Warn("Invalid webhook payload", zap.Error(err))
			c.Status(http.StatusBadRequest)
			return
		}
		b.HandleUpdate(c.Request.Context(), update)
		c.Status(http.StatusOK)
	}
}

// HandleUpdate checks the sender against the allow list and dispatches the update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil && update.Message.From != nil {
		userID := update.Message.From.ID
		if !b.allowedUsers[userID] {
			b.logger.Warn("Unauthorized access attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.Message.From.UserName),
				zap.String("text", update.Message.Text),
			)
			b.reply(update.Message.Chat.ID, "Sorry, you are not authorized to use this bot.")
			return
		}
		unlock := b.lockUser(userID)
		b.handleMessage(ctx, update.Message)
		unlock()
	}

	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		userID := update.CallbackQuery.From.ID
		if !b.allowedUsers[userID] {
			b.logger.Warn("Unauthorized callback query attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.CallbackQuery.From.UserName),
				zap.String("callback_data", update.CallbackQuery.Data),
			)
			return
		}
		unlock := b.lockUser(userID)
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		unlock()
	}
}
