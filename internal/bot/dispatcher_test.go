package bot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tipbot/internal/metrics"
	"github.com/mmynk/tipbot/internal/service"
	"github.com/mmynk/tipbot/internal/storage/sqlite"
	"github.com/mmynk/tipbot/internal/telegram"
)

type staticRates map[string]decimal.Decimal

func (s staticRates) GetRate(_ context.Context, code string) (decimal.Decimal, bool) {
	r, ok := s[code]
	return r, ok
}

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.ReplyKeyboardMarkup
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSender) SendMessage(_ context.Context, chatID int64, text string, kb *telegram.ReplyKeyboardMarkup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text, keyboard: kb})
	return nil
}

func (s *recordingSender) Sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func setupDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *recordingSender, *sqlite.SQLiteStore) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sender := &recordingSender{}
	tips := service.NewTipService(store)
	converter := service.NewConvertService(staticRates{"USD": decimal.NewFromInt(90), "RUB": decimal.NewFromInt(1)})
	return NewDispatcher(tips, converter, sender, opts...), sender, store
}

func message(userID int64, text string) *telegram.Message {
	return &telegram.Message{
		MessageID: 1,
		From:      &telegram.User{ID: userID, FirstName: "Ann"},
		Chat:      telegram.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		botName  string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{text: "/tip 2000 15% 4", wantName: "tip", wantArgs: []string{"2000", "15%", "4"}, wantOK: true},
		{text: "/help", wantName: "help", wantArgs: []string{}, wantOK: true},
		{text: "  /convert   100\tUSD ", wantName: "convert", wantArgs: []string{"100", "USD"}, wantOK: true},
		{text: "/tip@TipBot 100", botName: "TipBot", wantName: "tip", wantArgs: []string{"100"}, wantOK: true},
		{text: "/tip@tipbot 100", botName: "TipBot", wantName: "tip", wantArgs: []string{"100"}, wantOK: true},
		{text: "/tip@OtherBot 100", botName: "TipBot", wantOK: false},
		{text: "/HELP", wantName: "help", wantArgs: []string{}, wantOK: true},
		{text: "hello", wantOK: false},
		{text: "/", wantOK: false},
		{text: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, args, ok := parseCommand(tt.text, tt.botName)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantName, name)
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestDispatcherHandle(t *testing.T) {
	ctx := context.Background()
	d, _, store := setupDispatcher(t, WithBotName("@TipBot"))

	t.Run("tip", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(1, "/tip 2000 15% 4"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "Per person: 575.00 RUB")
		assert.Equal(t, mainMenu, reply.Keyboard)

		history, err := store.GetHistory(ctx, 1, 5)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("tip usage error shows tip examples", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(1, "/tip"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "specify an amount")
		assert.Equal(t, tipExamplesMenu, reply.Keyboard)
	})

	t.Run("convert", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(1, "/convert 100 usd"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "100.00 USD = 9000.00 RUB")
		assert.Contains(t, reply.Text, "1 USD = 90.00 RUB")
	})

	t.Run("unsupported currency shows convert examples", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(2, "/convert 100 XYZ"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "not supported")
		assert.Equal(t, convertExamplesMenu, reply.Keyboard)

		history, err := store.GetHistory(ctx, 2, 5)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("set default rejection keeps main menu", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(3, "/set_default_tip 150"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "between 1 and 100")
		assert.Equal(t, mainMenu, reply.Keyboard)

		p, err := store.GetDefaultTip(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 10, p)
	})

	t.Run("help shows current default", func(t *testing.T) {
		_, ok := d.Handle(ctx, message(4, "/set_default_tip 18"))
		require.True(t, ok)

		reply, ok := d.Handle(ctx, message(4, "/help"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "18% is used")
	})

	t.Run("start greets by name", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(5, "/start"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "Hi, Ann!")
		assert.Contains(t, reply.Text, "default tip is 10%")
	})

	t.Run("history and clear", func(t *testing.T) {
		_, _ = d.Handle(ctx, message(6, "/tip 100"))

		reply, ok := d.Handle(ctx, message(6, "/history"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "100.00 RUB + 10% = 110.00 RUB")

		reply, ok = d.Handle(ctx, message(6, "/clear_history"))
		require.True(t, ok)
		assert.Contains(t, reply.Text, "Deleted 1 record")
	})

	t.Run("back returns to main menu", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(1, BackLabel))
		require.True(t, ok)
		assert.Equal(t, textMainMenu, reply.Text)
		assert.Equal(t, mainMenu, reply.Keyboard)
	})

	t.Run("free text gets a hint", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(1, "what is this"))
		require.True(t, ok)
		assert.Equal(t, textHint, reply.Text)
	})

	t.Run("unknown command gets a hint", func(t *testing.T) {
		reply, ok := d.Handle(ctx, message(1, "/weather"))
		require.True(t, ok)
		assert.Equal(t, textHint, reply.Text)
	})

	t.Run("ignored messages", func(t *testing.T) {
		_, ok := d.Handle(ctx, message(1, "/tip@OtherBot 100"))
		assert.False(t, ok)
		_, ok = d.Handle(ctx, message(1, "   "))
		assert.False(t, ok)
		_, ok = d.Handle(ctx, nil)
		assert.False(t, ok)
	})
}

func TestDispatcherDeliver(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d, sender, _ := setupDispatcher(t, WithMetrics(m))
	ctx := context.Background()

	d.Deliver(ctx, telegram.Update{UpdateID: 1, Message: message(77, "/tip 2000 4")})
	d.Deliver(ctx, telegram.Update{UpdateID: 2, Message: message(77, "/tip abc")})
	d.Deliver(ctx, telegram.Update{UpdateID: 3})

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(77), sent[0].chatID)
	assert.Contains(t, sent[0].text, "Total: 2200.00 RUB")
	assert.Contains(t, sent[0].text, "Per person: 550.00 RUB")
	assert.Equal(t, tipExamplesMenu, sent[1].keyboard)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommandsTotal.WithLabelValues(CmdTip, metrics.OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommandsTotal.WithLabelValues(CmdTip, metrics.OutcomeUsageError)))
}

func TestMenus(t *testing.T) {
	require.Len(t, mainMenu.Keyboard, 3)
	assert.True(t, mainMenu.ResizeKeyboard)
	assert.Equal(t, "/set_default_tip", mainMenu.Keyboard[2][0].Text)

	last := tipExamplesMenu.Keyboard[len(tipExamplesMenu.Keyboard)-1]
	assert.Equal(t, BackLabel, last[0].Text)
	assert.Equal(t, "/convert 50 EUR", convertExamplesMenu.Keyboard[1][0].Text)
}
