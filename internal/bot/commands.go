package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
	"bookcatalog/internal/render"
)

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := fmt.Sprintf(`Welcome to %s! 📚

Available commands:
/books - List all books
/book <id> - Show one book
/search <text> - Search titles, authors, genres and ISBNs
/recent - Recently added books
/borrowed - Books currently on loan
/stats - Catalog statistics
/new_book - Add a book
/borrow - Lend a book
/return - Mark a book as returned
/cancel - Abort the current command`, b.store.Name())

	b.reply(message.Chat.ID, text)
}

// handleBooks lists the whole catalog
func (b *Bot) handleBooks(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.store.ListAll(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}
	b.reply(message.Chat.ID, formatBookList(b.store.Name(), books))
}

// handleBook shows the details of the book named by the command argument
func (b *Bot) handleBook(ctx context.Context, message *tgbotapi.Message) {
	id := strings.TrimSpace(message.CommandArguments())
	if id == "" {
		b.reply(message.Chat.ID, "Usage: /book <id>")
		return
	}

	book, err := b.store.Get(ctx, id)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}

	var sb strings.Builder
	if err := render.Book(&sb, book); err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}
	b.reply(message.Chat.ID, sb.String())
}

// handleSearchStart searches right away when a query follows the command, otherwise asks for one
func (b *Bot) handleSearchStart(ctx context.Context, message *tgbotapi.Message) {
	if query := strings.TrimSpace(message.CommandArguments()); query != "" {
		b.runSearch(ctx, message.Chat.ID, query)
		return
	}

	b.setState(message.From.ID, &ConversationState{
		Command: "search",
		Step:    1,
		Data:    make(map[string]string),
	})
	b.reply(message.Chat.ID, "🔎 What are you looking for?")
}

func (b *Bot) runSearch(ctx context.Context, chatID int64, query string) {
	books, err := b.store.Search(ctx, query, models.SearchAll)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.reply(chatID, formatBookList(fmt.Sprintf("Results for %q", query), books))
}

// handleRecent shows the most recently added books
func (b *Bot) handleRecent(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.store.RecentlyAdded(ctx, catalog.DefaultRecentLimit)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}
	b.reply(message.Chat.ID, formatBookList("Recently added", books))
}

// handleBorrowed lists the books on loan
func (b *Bot) handleBorrowed(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.store.ListBorrowed(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}
	b.reply(message.Chat.ID, formatBookList("Borrowed books", books))
}

// handleStats shows the catalog statistics
func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	stats, err := b.store.Stats(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}

	var sb strings.Builder
	if err := render.Stats(&sb, "📊 "+b.store.Name(), stats); err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}
	b.reply(message.Chat.ID, sb.String())
}

// handleNewBookStart initiates the new book conversation
func (b *Bot) handleNewBookStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, &ConversationState{
		Command: "new_book",
		Step:    1,
		Data:    make(map[string]string),
	})
	b.reply(message.Chat.ID, "Please enter the book title:")
}

// handleBorrowStart offers the available books as buttons
func (b *Bot) handleBorrowStart(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.store.ListAll(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}

	var available []models.Book
	for _, book := range books {
		if !book.IsBorrowed {
			available = append(available, book)
		}
	}
	if len(available) == 0 {
		b.reply(message.Chat.ID, "No books are available to borrow.")
		return
	}

	b.setState(message.From.ID, &ConversationState{
		Command: "borrow",
		Step:    1,
		Data:    make(map[string]string),
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, "📚 Select a book to lend:")
	msg.ReplyMarkup = bookKeyboard(available, "borrow:")
	b.sendMessage(msg)
}

// handleReturnStart offers the borrowed books as buttons
func (b *Bot) handleReturnStart(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.store.ListBorrowed(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, err)
		return
	}
	if len(books) == 0 {
		b.reply(message.Chat.ID, "No books are on loan.")
		return
	}

	b.setState(message.From.ID, &ConversationState{
		Command: "return",
		Step:    1,
		Data:    make(map[string]string),
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, "📥 Select the returned book:")
	msg.ReplyMarkup = bookKeyboard(books, "return:")
	b.sendMessage(msg)
}
