package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/models"
	"bookcatalog/internal/render"
)

// Telegram rejects messages longer than this
const maxMessageLength = 4096

const buttonTitleWidth = 28

// sendMessage sends msg, skipping when there is no client (tests)
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.api == nil {
		return
	}
	msg.Text = render.Truncate(msg.Text, maxMessageLength)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// replyError tells the user what went wrong. Unexpected errors are logged and hidden.
func (b *Bot) replyError(chatID int64, err error) {
	switch {
	case isValidation(err):
		b.reply(chatID, "❌ "+err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		b.reply(chatID, "❌ Book not found.")
	case errors.Is(err, catalog.ErrInvalidStateOrNotFound):
		b.reply(chatID, "❌ That book does not exist or is not in the right state.")
	default:
		b.logger.Error("Command failed", zap.Error(err), zap.Int64("chat_id", chatID))
		b.reply(chatID, "An error occurred while processing your request. Please try again.")
	}
}

func isValidation(err error) bool {
	return errors.Is(err, catalog.ErrValidation)
}

// formatBookList renders one line per book under a heading
func formatBookList(heading string, books []models.Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d)\n\n", heading, len(books))
	if len(books) == 0 {
		sb.WriteString("No books found.")
		return sb.String()
	}

	for _, book := range books {
		mark := "✅"
		if book.IsBorrowed {
			mark = "📕 " + book.Borrower
		}
		fmt.Fprintf(&sb, "#%s %s by %s (%s) %s\n", book.ID, book.Title, book.Author, book.Genre, mark)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// bookKeyboard lays out one button per book, two per row
func bookKeyboard(books []models.Book, prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, book := range books {
		button := tgbotapi.NewInlineKeyboardButtonData(
			render.Truncate(book.Title, buttonTitleWidth),
			prefix+book.ID,
		)
		currentRow = append(currentRow, button)

		if len(currentRow) == 2 || i == len(books)-1 {
			rows = append(rows, currentRow)
			currentRow = nil
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
