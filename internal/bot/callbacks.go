package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleBorrowCallback stores the picked book and asks who borrows it
func (b *Bot) handleBorrowCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != "borrow" {
		return
	}
	id := strings.TrimPrefix(query.Data, "borrow:")

	book, err := b.store.Get(ctx, id)
	if err != nil {
		b.replyError(query.Message.Chat.ID, err)
		state.Step = -1
		return
	}

	state.Data["book_id"] = book.ID
	state.Step = 2
	b.reply(query.Message.Chat.ID, fmt.Sprintf("Who is borrowing %q?", book.Title))
}

// handleReturnCallback marks the picked book as returned
func (b *Bot) handleReturnCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != "return" {
		return
	}
	id := strings.TrimPrefix(query.Data, "return:")

	book, err := b.store.Return(ctx, id)
	if err != nil {
		b.logger.Warn("Return failed",
			zap.Error(err),
			zap.String("book_id", id),
			zap.Int64("user_id", query.From.ID),
		)
		b.replyError(query.Message.Chat.ID, err)
	} else {
		b.reply(query.Message.Chat.ID, fmt.Sprintf("✅ %s has been returned by %s.", book.Title, book.Borrower))
	}
	state.Step = -1
}
