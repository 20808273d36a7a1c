package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookcatalog/internal/models"
)

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Command {
	case "new_book":
		b.handleNewBookConversation(ctx, message, state)
	case "search":
		b.runSearch(ctx, message.Chat.ID, message.Text)
		state.Step = -1
	case "borrow":
		b.handleBorrowConversation(ctx, message, state)
	default:
		// Waiting for a button press
		b.reply(message.Chat.ID, "Please use the buttons above, or /cancel.")
	}

	// Clean up completed conversations
	if state.Step == -1 {
		b.clearState(message.From.ID)
	}
}

// handleNewBookConversation asks for title, author and genre in turn, then adds the book
func (b *Bot) handleNewBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.reply(message.Chat.ID, "Please send some text.")
		return
	}

	switch state.Step {
	case 1: // Waiting for title
		state.Data["title"] = text
		state.Step = 2
		b.reply(message.Chat.ID, "Author:")

	case 2: // Waiting for author
		state.Data["author"] = text
		state.Step = 3
		b.reply(message.Chat.ID, "Genre:")

	case 3: // Waiting for genre
		book, err := b.store.Add(ctx, models.NewBook{
			Title:  state.Data["title"],
			Author: state.Data["author"],
			Genre:  text,
		})
		if err != nil {
			b.replyError(message.Chat.ID, err)
		} else {
			b.reply(message.Chat.ID, fmt.Sprintf("✅ Book added!\n\n#%s %s by %s (%s)",
				book.ID, book.Title, book.Author, book.Genre))
		}
		state.Step = -1
	}
}

// handleBorrowConversation receives the borrower name after a book was picked
func (b *Bot) handleBorrowConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	if state.Step != 2 {
		b.reply(message.Chat.ID, "Please pick a book from the buttons above, or /cancel.")
		return
	}

	book, err := b.store.Borrow(ctx, state.Data["book_id"], message.Text)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		if isValidation(err) {
			// Ask again
			return
		}
	} else {
		b.reply(message.Chat.ID, fmt.Sprintf("✅ %s is now borrowed by %s.", book.Title, book.Borrower))
	}
	state.Step = -1
}
