package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 30 * time.Second

var newBot = tele.NewBot

// NewTelegramBot connects to Telegram without polling yet. An empty token
// returns (nil, nil).
func NewTelegramBot(token string) (*tele.Bot, error) {
	if token == "" {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	return newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("telegram handler error")
		},
	})
}

// StartTelegramBot registers the command handlers and starts long polling.
func StartTelegramBot(b *tele.Bot, cmds *Commands) {
	Register(b, cmds)
	log.Info().Str("username", b.Me.Username).Msg("telegram bot started")
	go b.Start()
}

// Register wires cmds to the bot's command and text handlers.
func Register(b *tele.Bot, cmds *Commands) {
	static := map[string]func() string{
		"/ping":             cmds.Ping,
		"/start_discovery":  cmds.StartDiscovery,
		"/stop_discovery":   cmds.StopDiscovery,
		"/discovery_status": cmds.DiscoveryStatus,
		"/start_twitter":    cmds.StartTwitter,
		"/stop_twitter":     cmds.StopTwitter,
		"/twitter_status":   cmds.TwitterStatus,
	}
	for endpoint, fn := range static {
		b.Handle(endpoint, func(c tele.Context) error {
			return reply(c, fn())
		})
	}

	b.Handle("/analyze", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return reply(c, cmds.Analyze(ctx, c.Args()))
	})
	b.Handle("/best", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return reply(c, cmds.Best(ctx, c.Args()))
	})
	b.Handle("/history", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return reply(c, cmds.ShowHistory(ctx))
	})

	b.Handle(tele.OnText, func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || !addressed(c.Chat(), msg, b.Me.Username) {
			return nil
		}
		from := ""
		if u := c.Sender(); u != nil {
			from = u.Username
		}
		log.Info().Int64("chat", c.Chat().ID).Str("chat_type", string(c.Chat().Type)).Str("from", from).Msg("processing message")

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		for _, r := range cmds.Text(ctx, msg.Text) {
			if err := reply(c, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// addressed reports whether the bot should answer msg: always in private
// chats, and in groups only when @-mentioned.
func addressed(chat *tele.Chat, msg *tele.Message, username string) bool {
	if chat != nil && chat.Type == tele.ChatPrivate {
		return true
	}
	if username == "" {
		return false
	}
	want := "@" + strings.ToLower(username)
	for _, e := range msg.Entities {
		if e.Type == tele.EntityMention && strings.ToLower(msg.EntityText(e)) == want {
			return true
		}
	}
	return false
}

func reply(c tele.Context, text string) error {
	return c.Reply(text, &tele.SendOptions{
		ParseMode:             tele.ModeMarkdown,
		DisableWebPagePreview: true,
	})
}
