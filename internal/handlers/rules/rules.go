package rules

import (
	"context"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/i18n"
	"github.com/butcherhq/butcherbot/internal/policy/permissions"
)

const (
	callbackPrefix      = "rules:"
	callbackClearYes    = callbackPrefix + "clear:yes"
	callbackClearCancel = callbackPrefix + "clear:cancel"
)

// Rules stores one free-form rules text per chat. Clearing asks for inline
// confirmation, with the permission re-checked when the button is pressed.
type Rules struct {
	s bot.Service
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	return &Rules{s: s}, nil
}

func (r *Rules) Name() string {
	return "rules"
}

func (r *Rules) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    r.Name(),
		Mode:      bot.FirstMatch,
		Predicate: bot.GroupCommandPredicate("rules", "setrules", "clearrules"),
		Handler:   r.handleCommand,
	})
	d.Add(bot.Registration{
		Module: r.Name(),
		Mode:   bot.FirstMatch,
		Predicate: func(u *api.Update, chat *api.Chat, user *api.User) bool {
			// chat resolves only when the callback still carries its message;
			// expired and inline buttons arrive without one.
			return chat != nil && u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, callbackPrefix)
		},
		Handler: r.handleCallback,
	})
}

func (r *Rules) handleCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := r.s.GetLanguage(ctx, chat.ID, user)

	switch m.Command() {
	case "rules":
		stored, err := r.s.GetDB().GetRules(ctx, chat.ID)
		if err != nil {
			return errors.WithMessage(err, "cant load rules")
		}
		if stored == "" {
			return r.reply(m, i18n.Get("No rules are set for this chat", lang))
		}
		return r.reply(m, stored)

	case "setrules":
		if !r.canManage(ctx, chat, user) {
			return r.reply(m, i18n.Get("Only admins can change the rules", lang))
		}
		text := strings.TrimSpace(m.CommandArguments())
		if text == "" && m.ReplyToMessage != nil {
			text = m.ReplyToMessage.Text
		}
		if text == "" {
			return r.reply(m, i18n.Get("Usage", lang)+": /setrules text")
		}
		if err := r.s.GetDB().SetRules(ctx, chat.ID, text); err != nil {
			return errors.WithMessage(err, "cant save rules")
		}
		return r.reply(m, i18n.Get("Rules updated", lang))

	case "clearrules":
		if !r.canManage(ctx, chat, user) {
			return r.reply(m, i18n.Get("Only admins can change the rules", lang))
		}
		msg := api.NewMessage(chat.ID, i18n.Get("Remove the chat rules?", lang))
		msg.ReplyMarkup = api.NewInlineKeyboardMarkup(
			api.NewInlineKeyboardRow(
				api.NewInlineKeyboardButtonData(i18n.Get("Yes, remove", lang), callbackClearYes),
				api.NewInlineKeyboardButtonData(i18n.Get("Cancel", lang), callbackClearCancel),
			),
		)
		msg.DisableNotification = true
		_, err := r.s.GetBot().Send(msg)
		return err
	}
	return nil
}

func (r *Rules) handleCallback(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	query := u.CallbackQuery
	lang := r.s.GetLanguage(ctx, chat.ID, user)

	answer := func(text string) {
		if _, err := r.s.GetBot().Request(api.NewCallback(query.ID, text)); err != nil {
			r.getLogEntry().WithError(err).Warn("cant answer callback")
		}
	}

	if !r.canManage(ctx, chat, user) {
		answer(i18n.Get("Only admins can change the rules", lang))
		return nil
	}

	var result string
	switch query.Data {
	case callbackClearYes:
		if err := r.s.GetDB().DeleteRules(ctx, chat.ID); err != nil {
			return errors.WithMessage(err, "cant delete rules")
		}
		result = i18n.Get("Rules removed", lang)
	case callbackClearCancel:
		result = i18n.Get("Cancelled", lang)
	default:
		answer("")
		return nil
	}
	answer(result)

	if query.Message != nil {
		edit := api.NewEditMessageText(chat.ID, query.Message.MessageID, result)
		if _, err := r.s.GetBot().Send(edit); err != nil {
			r.getLogEntry().WithError(err).Warn("cant edit confirmation message")
		}
	}
	return nil
}

func (r *Rules) canManage(ctx context.Context, chat *api.Chat, user *api.User) bool {
	if user == nil || chat == nil {
		return false
	}
	if r.s.IsSudoer(user.ID) {
		return true
	}
	return permissions.IsChatModerator(ctx, r.s.GetBot(), chat.ID, user.ID)
}

func (r *Rules) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := r.s.GetBot().Send(msg)
	return err
}

func (r *Rules) getLogEntry() *log.Entry {
	return log.WithField("handler", r.Name())
}
