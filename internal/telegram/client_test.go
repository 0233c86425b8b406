package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/bot", "TOKEN", 2*time.Second, WithSendRate(0))
}

func TestGetUpdates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("offset"))
		assert.Equal(t, "30", r.URL.Query().Get("timeout"))
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":101,"message":{"message_id":5,"from":{"id":42,"is_bot":false,"first_name":"Ann"},"chat":{"id":42,"type":"private"},"date":1700000000,"text":"/tip 2000 15% 4"}},
			{"update_id":102,"edited_message":{"message_id":6}}
		]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 101, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	msg := updates[0].Message
	require.NotNil(t, msg)
	assert.Equal(t, int64(101), updates[0].UpdateID)
	assert.Equal(t, int64(42), msg.Chat.ID)
	assert.Equal(t, "Ann", msg.From.FirstName)
	assert.Equal(t, "/tip 2000 15% 4", msg.Text)
	assert.Nil(t, updates[1].Message)
}

func TestSendMessage(t *testing.T) {
	var got sendMessageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	})

	keyboard := &ReplyKeyboardMarkup{
		Keyboard:       [][]KeyboardButton{{{Text: "/tip"}, {Text: "/convert"}}},
		ResizeKeyboard: true,
	}
	require.NoError(t, c.SendMessage(context.Background(), 42, "hello", keyboard))

	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "hello", got.Text)
	require.NotNil(t, got.ReplyMarkup)
	assert.True(t, got.ReplyMarkup.ResizeKeyboard)
	assert.Equal(t, "/convert", got.ReplyMarkup.Keyboard[0][1].Text)
}

func TestSendMessageTruncates(t *testing.T) {
	var got sendMessageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, c.SendMessage(context.Background(), 1, strings.Repeat("я", 5000), nil))
	assert.Equal(t, maxMessageChars, len([]rune(got.Text)))
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`))
	})

	err := c.SendMessage(context.Background(), 1, "hi", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Code)
	assert.Equal(t, "sendMessage", apiErr.Method)

	wait, ok := RetryAfter(err)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, wait)
}

func TestBadResponseBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := c.GetUpdates(context.Background(), 0, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	_, ok := RetryAfter(err)
	assert.False(t, ok)
}

func TestWebhookCalls(t *testing.T) {
	var paths []string
	var hook setWebhookRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/setWebhook") {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&hook))
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	})

	ctx := context.Background()
	require.NoError(t, c.SetWebhook(ctx, "https://bot.example.com/telegram/webhook", "s3cret"))
	require.NoError(t, c.DeleteWebhook(ctx))

	assert.Equal(t, []string{"/botTOKEN/setWebhook", "/botTOKEN/deleteWebhook"}, paths)
	assert.Equal(t, "https://bot.example.com/telegram/webhook", hook.URL)
	assert.Equal(t, "s3cret", hook.SecretToken)
}

func TestSendRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/bot", "T", time.Second, WithSendRate(1))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// burst of 2, the third send has to wait about a second
	require.NoError(t, c.SendMessage(ctx, 1, "a", nil))
	require.NoError(t, c.SendMessage(ctx, 1, "b", nil))
	assert.Error(t, c.SendMessage(ctx, 1, "c", nil))
}
