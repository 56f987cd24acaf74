package notifier

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command, args string) string

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is
// cancelled. Messages from chats other than the configured one are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			log.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || !msg.IsCommand() {
				continue
			}
			if msg.Chat.ID != t.chatID {
				log.Warn().Int64("chat", msg.Chat.ID).Msg("ignoring command from unknown chat")
				continue
			}
			log.Info().Str("command", msg.Command()).Str("args", msg.CommandArguments()).Msg("received command")
			reply := handler(ctx, msg.Command(), msg.CommandArguments())
			if reply == "" {
				continue
			}
			if err := t.sendTo(ctx, msg.Chat.ID, reply); err != nil {
				log.Error().Err(err).Msg("send reply")
			}
		}
	}
}
