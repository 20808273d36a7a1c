package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID

	// Any command interrupts an ongoing conversation
	interrupted := false
	if state := b.getState(userID); state != nil {
		if !message.IsCommand() {
			b.handleConversation(ctx, message, state)
			return
		}
		b.clearState(userID)
		interrupted = true
	}

	if !message.IsCommand() {
		b.reply(message.Chat.ID, "Use /start to see available commands.")
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "books":
		b.handleBooks(ctx, message)
	case "book":
		b.handleBook(ctx, message)
	case "search":
		b.handleSearchStart(ctx, message)
	case "recent":
		b.handleRecent(ctx, message)
	case "borrowed":
		b.handleBorrowed(ctx, message)
	case "stats":
		b.handleStats(ctx, message)
	case "new_book":
		b.handleNewBookStart(message)
	case "borrow":
		b.handleBorrowStart(ctx, message)
	case "return":
		b.handleReturnStart(ctx, message)
	case "cancel":
		if interrupted {
			b.reply(message.Chat.ID, "Cancelled.")
		} else {
			b.reply(message.Chat.ID, "Nothing to cancel.")
		}
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /start to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback query", zap.Error(err))
		}
	}

	if query.Message == nil {
		return
	}

	userID := query.From.ID
	state := b.getState(userID)
	if state == nil {
		return
	}

	data := query.Data
	switch {
	case strings.HasPrefix(data, "borrow:"):
		b.handleBorrowCallback(ctx, query, state)
	case strings.HasPrefix(data, "return:"):
		b.handleReturnCallback(ctx, query, state)
	}

	if state.Step == -1 {
		b.clearState(userID)
	}
}

func (b *Bot) getState(userID int64) *ConversationState {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	return b.states[userID]
}

func (b *Bot) setState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}

// lockUser serializes updates from one user. Webhook requests arrive on concurrent
// goroutines and share that user's ConversationState.
func (b *Bot) lockUser(userID int64) func() {
	v, _ := b.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
