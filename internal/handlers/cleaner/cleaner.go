package cleaner

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
)

// Cleaner deletes group messages carrying commands outside the whitelist.
// It observes every message and never blocks other handlers.
type Cleaner struct {
	s         bot.Service
	whitelist []string
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	whitelist := make([]string, 0, len(s.GetConfig().Cleaner.Whitelist))
	for _, command := range s.GetConfig().Cleaner.Whitelist {
		whitelist = append(whitelist, strings.ToLower(strings.TrimSpace(command)))
	}
	return &Cleaner{s: s, whitelist: whitelist}, nil
}

func (c *Cleaner) Name() string {
	return "cleaner"
}

func (c *Cleaner) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:   c.Name(),
		Priority: 100,
		Mode:     bot.AllMatch,
		Predicate: func(u *api.Update, chat *api.Chat, user *api.User) bool {
			if chat == nil || !(chat.IsGroup() || chat.IsSuperGroup()) {
				return false
			}
			if u.Message == nil || user == nil || user.IsBot {
				return false
			}
			return ExtractCommand(u.Message.Text) != ""
		},
		Handler: c.handleMessage,
	})
}

func (c *Cleaner) handleMessage(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	command := ExtractCommand(u.Message.Text)
	if c.IsWhitelisted(command) {
		return nil
	}

	if err := bot.DeleteChatMessage(ctx, c.s.GetBot(), chat.ID, u.Message.MessageID); err != nil {
		c.getLogEntry().WithError(err).WithField("chat_id", chat.ID).Debug("cant delete command message")
		return nil
	}
	c.getLogEntry().WithFields(log.Fields{
		"chat_id": chat.ID,
		"user_id": user.ID,
		"command": command,
	}).Info("deleted command message")

	logChatID := c.s.GetConfig().LogChatID
	if logChatID == 0 {
		return nil
	}
	msg := api.NewMessage(logChatID, fmt.Sprintf(
		"🧹 deleted /%s from %s in chat %d", command, bot.GetUN(user), chat.ID,
	))
	msg.DisableNotification = true
	if _, err := c.s.GetBot().Send(msg); err != nil {
		c.getLogEntry().WithError(err).Warn("cant log deletion")
	}
	return nil
}

// IsWhitelisted reports whether a command survives cleaning.
func (c *Cleaner) IsWhitelisted(command string) bool {
	return tool.In(strings.ToLower(command), c.whitelist...)
}

// ExtractCommand returns the leading bot command of a message text without
// slash and @botname suffix, or "" when the text carries none.
func ExtractCommand(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	command := strings.Fields(text)[0][1:]
	if command == "" {
		return ""
	}
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	for _, r := range command {
		if !isCommandRune(r) {
			return ""
		}
	}
	return command
}

func isCommandRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func (c *Cleaner) getLogEntry() *log.Entry {
	return log.WithField("handler", c.Name())
}
