// Package bot is the Telegram front end. Any text that is not a command is
// taken as a building name or code and answered with the on-call suggestion.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api       Sender
	suggester Suggester
	dir       *directory.Directory
	log       *slog.Logger
}

func New(api Sender, suggester Suggester, dir *directory.Directory, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{api: api, suggester: suggester, dir: dir, log: log}
}

// Start connects with token and serves updates until ctx is cancelled.
func Start(ctx context.Context, token string, suggester Suggester, dir *directory.Directory, log *slog.Logger) error {
	if token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}

	b := New(api, suggester, dir, log)
	b.log.Info("telegram bot running", "username", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	return b.Run(ctx, updates)
}

// Run handles updates one at a time until ctx is done or updates is closed.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.Handle(ctx, update.Message)
		}
	}
}

// Handle answers a single message.
func (b *Bot) Handle(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var text string
	if msg.IsCommand() {
		text = b.commandReply(msg.Command())
	} else {
		query := strings.TrimSpace(msg.Text)
		if query == "" || strings.HasPrefix(query, "/") {
			return
		}
		if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
			b.log.Warn("typing action failed", "chat", chatID, "err", err)
		}
		text = b.replyFor(ctx, query)
	}
	if text == "" {
		return
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("send failed", "chat", chatID, "err", err)
	}
}

func (b *Bot) commandReply(command string) string {
	switch command {
	case "start":
		return startText
	case "help":
		return helpText
	case "buildings":
		if b.dir == nil {
			return "Error loading buildings list. Please try again."
		}
		return BuildingsText(b.dir)
	case "zones":
		if b.dir == nil {
			return "Error loading zones list. Please try again."
		}
		return ZonesText(b.dir)
	default:
		return ""
	}
}

func (b *Bot) replyFor(ctx context.Context, query string) string {
	s, err := b.suggester.Suggest(ctx, query)
	if err == nil {
		return FormatResponse(s.SuggestionResult, query)
	}

	b.log.Error("error processing request", "query", query, "err", err)
	switch {
	case errors.Is(err, models.ErrBuildingNotFound):
		return notFoundText(query)
	case errors.Is(err, ErrAPIUnreachable):
		return unreachableText
	default:
		return failureText
	}
}
