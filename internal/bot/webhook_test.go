package bot

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBot_WebhookHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bot, _, rec := setupBot(t)

	r := gin.New()
	r.POST(WebhookPath, bot.WebhookHandler())

	body := `{"update_id": 1, "message": {"message_id": 1, "date": 0,
		"from": {"id": 123, "is_bot": false, "first_name": "T"},
		"chat": {"id": 456, "type": "private"},
		"text": "/books", "entities": [{"type": "bot_command", "offset": 0, "length": 6}]}}`

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath, bytes.NewBufferString(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := rec.last(t).Text; !strings.HasPrefix(got, "Test Library (5)") {
		t.Errorf("Unexpected reply %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath, bytes.NewBufferString("{")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a broken payload, got %d", w.Code)
	}
}

func TestBot_WebhookConcurrentUpdatesFromOneUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bot, store, _ := setupBot(t)
	ctx := context.Background()

	r := gin.New()
	r.POST(WebhookPath, bot.WebhookHandler())

	bot.handleMessage(ctx, command("/borrow"))

	callbackBody := func(n int) string {
		return fmt.Sprintf(`{"update_id": %d, "callback_query": {"id": "cb%d",
			"from": {"id": 123, "is_bot": false, "first_name": "T"},
			"message": {"message_id": 1, "date": 0, "chat": {"id": 456, "type": "private"}},
			"data": "borrow:1"}}`, n, n)
	}
	messageBody := func(n int) string {
		return fmt.Sprintf(`{"update_id": %d, "message": {"message_id": %d, "date": 0,
			"from": {"id": 123, "is_bot": false, "first_name": "T"},
			"chat": {"id": 456, "type": "private"}, "text": "Carol"}}`, n, n)
	}

	var wg sync.WaitGroup
	codes := make(chan int, 40)
	for i := 0; i < 40; i++ {
		body := callbackBody(i)
		if i%4 == 3 {
			body = messageBody(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath, bytes.NewBufferString(body)))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		if code != http.StatusOK {
			t.Errorf("Expected 200, got %d", code)
		}
	}

	book, err := store.Get(ctx, "1")
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if book.IsBorrowed && book.Borrower != "Carol" {
		t.Errorf("Expected book 1 to be free or borrowed by Carol, got %+v", book)
	}
}
