package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/tipbot/internal/metrics"
	"github.com/mmynk/tipbot/internal/middleware"
	"github.com/mmynk/tipbot/internal/models"
	"github.com/mmynk/tipbot/internal/service"
	"github.com/mmynk/tipbot/internal/telegram"
)

// Sender delivers replies to a chat. *telegram.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.ReplyKeyboardMarkup) error
}

// Reply is what the bot answers to one message.
type Reply struct {
	Text     string
	Keyboard *telegram.ReplyKeyboardMarkup
}

// Dispatcher routes incoming messages to the command handlers.
type Dispatcher struct {
	tips      *service.TipService
	converter *service.ConvertService
	sender    Sender
	botName   string
	handlers  map[string]middleware.HandlerFunc
}

// Option configures a Dispatcher.
type Option func(*dispatcherConfig)

type dispatcherConfig struct {
	botName string
	metrics *metrics.Metrics
}

// WithBotName ignores commands addressed to other bots ("/tip@OtherBot").
func WithBotName(name string) Option {
	return func(c *dispatcherConfig) { c.botName = strings.TrimPrefix(name, "@") }
}

// WithMetrics records command metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *dispatcherConfig) { c.metrics = m }
}

// NewDispatcher wires the command handlers through the middleware chain.
func NewDispatcher(tips *service.TipService, converter *service.ConvertService, sender Sender, opts ...Option) *Dispatcher {
	cfg := &dispatcherConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d := &Dispatcher{
		tips:      tips,
		converter: converter,
		sender:    sender,
		botName:   cfg.botName,
	}

	mws := []middleware.Middleware{middleware.Recover(), middleware.RequestID(), middleware.Logging()}
	if cfg.metrics != nil {
		mws = append(mws, middleware.Metrics(cfg.metrics))
	}

	d.handlers = map[string]middleware.HandlerFunc{
		CmdStart:        middleware.Chain(d.handleStart, mws...),
		CmdHelp:         middleware.Chain(d.handleHelp, mws...),
		CmdTip:          middleware.Chain(d.handleTip, mws...),
		CmdConvert:      middleware.Chain(d.handleConvert, mws...),
		CmdHistory:      middleware.Chain(d.handleHistory, mws...),
		CmdClearHistory: middleware.Chain(d.handleClearHistory, mws...),
		CmdSetDefault:   middleware.Chain(d.handleSetDefault, mws...),
	}
	return d
}

// Handle computes the reply to msg. ok is false when the message should be
// ignored (no text, or a command for another bot).
func (d *Dispatcher) Handle(ctx context.Context, msg *telegram.Message) (reply Reply, ok bool) {
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return Reply{}, false
	}

	text := strings.TrimSpace(msg.Text)
	if text == BackLabel {
		return Reply{Text: textMainMenu, Keyboard: mainMenu}, true
	}

	name, args, isCommand := parseCommand(text, d.botName)
	if !isCommand {
		if strings.HasPrefix(text, "/") {
			return Reply{}, false
		}
		return Reply{Text: textHint, Keyboard: mainMenu}, true
	}

	handler, known := d.handlers[name]
	if !known {
		return Reply{Text: textHint, Keyboard: mainMenu}, true
	}

	cmd := middleware.Command{Name: name, ChatID: msg.Chat.ID, Args: args}
	if msg.From != nil {
		cmd.UserID = msg.From.ID
		cmd.FirstName = msg.From.FirstName
	} else {
		cmd.UserID = msg.Chat.ID
	}

	out, err := handler(ctx, cmd)
	if err != nil {
		return Reply{Text: service.UserMessage(err), Keyboard: errorMenu(name, err)}, true
	}
	return Reply{Text: out, Keyboard: mainMenu}, true
}

// Deliver handles one update and sends the reply back to its chat.
func (d *Dispatcher) Deliver(ctx context.Context, update telegram.Update) {
	reply, ok := d.Handle(ctx, update.Message)
	if !ok {
		return
	}
	if err := d.sender.SendMessage(ctx, update.Message.Chat.ID, reply.Text, reply.Keyboard); err != nil {
		slog.Error("Failed to send reply",
			"update_id", update.UpdateID,
			"chat_id", update.Message.Chat.ID,
			"error", err,
		)
	}
}

// errorMenu shows the examples for tip and convert after a usage error.
func errorMenu(name string, err error) *telegram.ReplyKeyboardMarkup {
	if !service.IsUsageError(err) {
		return mainMenu
	}
	switch name {
	case CmdTip:
		return tipExamplesMenu
	case CmdConvert:
		return convertExamplesMenu
	default:
		return mainMenu
	}
}

// defaultTip is shown in the start and help texts; a storage failure falls
// back to the global default instead of failing the command. The sender is
// taken from ctx, which middleware.RequestID fills in.
func (d *Dispatcher) defaultTip(ctx context.Context) int {
	userID := middleware.GetUserID(ctx)
	percent, err := d.tips.DefaultTip(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load default tip",
			"user_id", userID,
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		return models.DefaultTipPercent
	}
	return percent
}

func (d *Dispatcher) handleStart(ctx context.Context, cmd middleware.Command) (string, error) {
	return startText(cmd.FirstName, d.defaultTip(ctx)), nil
}

func (d *Dispatcher) handleHelp(ctx context.Context, cmd middleware.Command) (string, error) {
	return helpText(d.defaultTip(ctx)), nil
}

func (d *Dispatcher) handleTip(ctx context.Context, cmd middleware.Command) (string, error) {
	return d.tips.ComputeTip(ctx, cmd.UserID, cmd.Args)
}

func (d *Dispatcher) handleConvert(ctx context.Context, cmd middleware.Command) (string, error) {
	return d.converter.Convert(ctx, cmd.Args)
}

func (d *Dispatcher) handleHistory(ctx context.Context, cmd middleware.Command) (string, error) {
	return d.tips.History(ctx, cmd.UserID)
}

func (d *Dispatcher) handleClearHistory(ctx context.Context, cmd middleware.Command) (string, error) {
	return d.tips.ClearHistory(ctx, cmd.UserID)
}

func (d *Dispatcher) handleSetDefault(ctx context.Context, cmd middleware.Command) (string, error) {
	return d.tips.SetDefaultTip(ctx, cmd.UserID, cmd.Args)
}
