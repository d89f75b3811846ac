package configmenu

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/internal/i18n"
	"github.com/butcherhq/butcherbot/internal/policy/permissions"
)

const (
	callbackPrefix = "cfg:"
	callbackToggle = callbackPrefix + "toggle:"
	callbackClose  = callbackPrefix + "close"

	auditLimit = 15
)

// exempt modules can never be disabled per chat; gating them out would lock
// admins out of the menu itself.
var exempt = []string{"configmenu"}

// ConfigMenu renders per-chat module toggles as an inline keyboard, persists
// them, and serves usage statistics and the change audit log. Its Gate and
// RecordUsage hooks plug into the dispatcher.
type ConfigMenu struct {
	s bot.Service
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	return &ConfigMenu{s: s}, nil
}

func (c *ConfigMenu) Name() string {
	return "configmenu"
}

func (c *ConfigMenu) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    c.Name(),
		Priority:  -100,
		Mode:      bot.FirstMatch,
		Predicate: bot.GroupCommandPredicate("config", "modstats", "audit"),
		Handler:   c.handleCommand,
	})
	d.Add(bot.Registration{
		Module:   c.Name(),
		Priority: -100,
		Mode:     bot.FirstMatch,
		Predicate: func(u *api.Update, chat *api.Chat, user *api.User) bool {
			// chat resolves only when the callback still carries its message;
			// expired and inline buttons arrive without one.
			return chat != nil && u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, callbackPrefix)
		},
		Handler: c.handleCallback,
	})
}

// Gate vetoes registrations of modules an admin disabled in the chat. Lookup
// failures admit the module; a broken database must not silence the bot.
func (c *ConfigMenu) Gate(ctx context.Context, module string, chatID int64) bool {
	if tool.In(module, exempt...) {
		return true
	}
	disabled, err := c.s.GetDB().GetDisabledModules(ctx, chatID)
	if err != nil {
		c.getLogEntry().WithError(err).WithField("chat_id", chatID).Warn("cant load disabled modules")
		return true
	}
	return !tool.In(module, disabled...)
}

// RecordUsage persists one successful invocation for /modstats.
func (c *ConfigMenu) RecordUsage(ctx context.Context, module string, chatID int64) {
	if err := c.s.GetDB().IncrementModuleUsage(ctx, chatID, module); err != nil {
		c.getLogEntry().WithError(err).Debug("cant record module usage")
	}
}

func (c *ConfigMenu) handleCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := c.s.GetLanguage(ctx, chat.ID, user)

	if !c.canManage(ctx, chat, user) {
		return c.reply(m, i18n.Get("Only admins can configure the chat", lang))
	}

	switch m.Command() {
	case "config":
		return c.sendMenu(ctx, chat, lang)
	case "modstats":
		return c.sendStats(ctx, m, lang)
	case "audit":
		return c.sendAudit(ctx, m, lang)
	}
	return nil
}

func (c *ConfigMenu) sendMenu(ctx context.Context, chat *api.Chat, lang string) error {
	markup, err := c.menuMarkup(ctx, chat.ID)
	if err != nil {
		return err
	}
	msg := api.NewMessage(chat.ID, i18n.Get("Chat modules", lang))
	msg.ReplyMarkup = markup
	msg.DisableNotification = true
	_, err = c.s.GetBot().Send(msg)
	return err
}

func (c *ConfigMenu) menuMarkup(ctx context.Context, chatID int64) (api.InlineKeyboardMarkup, error) {
	disabled, err := c.s.GetDB().GetDisabledModules(ctx, chatID)
	if err != nil {
		return api.InlineKeyboardMarkup{}, errors.WithMessage(err, "cant load disabled modules")
	}

	var rows [][]api.InlineKeyboardButton
	for _, name := range bot.ModuleNames() {
		if tool.In(name, exempt...) {
			continue
		}
		label := "✅ " + name
		if tool.In(name, disabled...) {
			label = "🚫 " + name
		}
		rows = append(rows, api.NewInlineKeyboardRow(
			api.NewInlineKeyboardButtonData(label, callbackToggle+name),
		))
	}
	rows = append(rows, api.NewInlineKeyboardRow(
		api.NewInlineKeyboardButtonData("×", callbackClose),
	))
	return api.NewInlineKeyboardMarkup(rows...), nil
}

func (c *ConfigMenu) handleCallback(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	query := u.CallbackQuery
	lang := c.s.GetLanguage(ctx, chat.ID, user)

	answer := func(text string) {
		if _, err := c.s.GetBot().Request(api.NewCallback(query.ID, text)); err != nil {
			c.getLogEntry().WithError(err).Warn("cant answer callback")
		}
	}

	if !c.canManage(ctx, chat, user) {
		answer(i18n.Get("Only admins can configure the chat", lang))
		return nil
	}

	switch {
	case query.Data == callbackClose:
		answer("")
		if query.Message != nil {
			if err := bot.DeleteChatMessage(ctx, c.s.GetBot(), chat.ID, query.Message.MessageID); err != nil {
				c.getLogEntry().WithError(err).Warn("cant close menu")
			}
		}
		return nil

	case strings.HasPrefix(query.Data, callbackToggle):
		module := strings.TrimPrefix(query.Data, callbackToggle)
		if !tool.In(module, bot.ModuleNames()...) || tool.In(module, exempt...) {
			answer("")
			return nil
		}

		disabled, err := c.s.GetDB().GetDisabledModules(ctx, chat.ID)
		if err != nil {
			return errors.WithMessage(err, "cant load disabled modules")
		}
		nowDisabled := !tool.In(module, disabled...)
		if err := c.s.GetDB().SetModuleDisabled(ctx, chat.ID, module, nowDisabled); err != nil {
			return errors.WithMessage(err, "cant toggle module")
		}

		action := "enable"
		if nowDisabled {
			action = "disable"
		}
		c.audit(ctx, chat.ID, user.ID, action, module)
		answer(module + ": " + action + "d")

		if query.Message != nil {
			markup, err := c.menuMarkup(ctx, chat.ID)
			if err != nil {
				return err
			}
			edit := api.NewEditMessageReplyMarkup(chat.ID, query.Message.MessageID, markup)
			if _, err := c.s.GetBot().Send(edit); err != nil {
				c.getLogEntry().WithError(err).Warn("cant re-render menu")
			}
		}
		return nil
	}
	answer("")
	return nil
}

func (c *ConfigMenu) sendStats(ctx context.Context, m *api.Message, lang string) error {
	stats, err := c.s.GetDB().GetModuleStats(ctx, m.Chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant load module stats")
	}
	if len(stats) == 0 {
		return c.reply(m, i18n.Get("No module activity recorded yet", lang))
	}
	var b strings.Builder
	b.WriteString(i18n.Get("Module usage", lang) + ":\n")
	for _, stat := range stats {
		fmt.Fprintf(&b, "• %s: %d (last %s)\n", stat.Module, stat.UsageCount, stat.LastUsed.Format("2006-01-02 15:04"))
	}
	return c.reply(m, b.String())
}

func (c *ConfigMenu) sendAudit(ctx context.Context, m *api.Message, lang string) error {
	entries, err := c.s.GetDB().GetAuditLog(ctx, m.Chat.ID, auditLimit)
	if err != nil {
		return errors.WithMessage(err, "cant load audit log")
	}
	if len(entries) == 0 {
		return c.reply(m, i18n.Get("No configuration changes recorded yet", lang))
	}
	var b strings.Builder
	b.WriteString(i18n.Get("Recent configuration changes", lang) + ":\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "• %s %s %s by %d\n",
			entry.CreatedAt.Format("2006-01-02 15:04"), entry.Action, entry.Details, entry.ActorID)
	}
	return c.reply(m, b.String())
}

func (c *ConfigMenu) audit(ctx context.Context, chatID, actorID int64, action, details string) {
	entry := &db.AuditEntry{
		ID:        uuid.New(),
		ChatID:    chatID,
		ActorID:   actorID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.s.GetDB().AddAuditEntry(ctx, entry); err != nil {
		c.getLogEntry().WithError(err).Warn("cant write audit entry")
	}
}

func (c *ConfigMenu) canManage(ctx context.Context, chat *api.Chat, user *api.User) bool {
	if user == nil || chat == nil {
		return false
	}
	if c.s.IsSudoer(user.ID) {
		return true
	}
	return permissions.IsChatModerator(ctx, c.s.GetBot(), chat.ID, user.ID)
}

func (c *ConfigMenu) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := c.s.GetBot().Send(msg)
	return err
}

func (c *ConfigMenu) getLogEntry() *log.Entry {
	return log.WithField("handler", c.Name())
}
