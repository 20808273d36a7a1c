package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookcatalog/internal/models"
)

// Catalog is the store surface the bot commands use
type Catalog interface {
	Add(ctx context.Context, nb models.NewBook) (models.Book, error)
	Get(ctx context.Context, id string) (models.Book, error)
	ListAll(ctx context.Context) ([]models.Book, error)
	ListBorrowed(ctx context.Context) ([]models.Book, error)
	Search(ctx context.Context, query string, field models.SearchField) ([]models.Book, error)
	RecentlyAdded(ctx context.Context, limit int) ([]models.Book, error)
	Borrow(ctx context.Context, id, borrower string) (models.Book, error)
	Return(ctx context.Context, id string) (models.Book, error)
	Stats(ctx context.Context) (models.Stats, error)
	Name() string
}

// sender is the part of the Telegram client used to reply. *tgbotapi.BotAPI implements it.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	client       *tgbotapi.BotAPI
	api          sender
	store        Catalog
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.Mutex
	userLocks    sync.Map // int64 -> *sync.Mutex, one conversation step at a time per user
	logger       *zap.Logger
}

// ConversationState tracks the state of multi-step commands.
// Step -1 marks a finished conversation.
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]string
}
