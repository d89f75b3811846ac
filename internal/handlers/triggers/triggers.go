package triggers

import (
	"context"
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/internal/i18n"
	"github.com/butcherhq/butcherbot/internal/policy/permissions"
)

// Triggers replies with stored text or media whenever a message mentions a
// trigger word. Triggers are global across chats.
type Triggers struct {
	s bot.Service
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	return &Triggers{s: s}, nil
}

func (t *Triggers) Name() string {
	return "triggers"
}

func (t *Triggers) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    t.Name(),
		Mode:      bot.FirstMatch,
		Predicate: bot.CommandPredicate("addtrigger", "deltrigger", "triggers", "cleartriggers"),
		Handler:   t.handleCommand,
	})
	d.Add(bot.Registration{
		Module:   t.Name(),
		Priority: 50,
		Mode:     bot.AllMatch,
		Predicate: func(u *api.Update, chat *api.Chat, user *api.User) bool {
			if u.Message == nil || user == nil || user.IsBot || u.Message.IsCommand() {
				return false
			}
			return messageText(u.Message) != ""
		},
		Handler: t.handleMessage,
	})
}

func (t *Triggers) handleCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := t.s.GetLanguage(ctx, chat.ID, user)

	if !t.canManage(ctx, chat, user) {
		return t.reply(m, i18n.Get("Only admins can manage triggers", lang))
	}

	switch m.Command() {
	case "addtrigger":
		return t.addTrigger(ctx, m, lang)
	case "deltrigger":
		return t.deleteTrigger(ctx, m, lang)
	case "triggers":
		return t.listTriggers(ctx, m, lang)
	case "cleartriggers":
		return t.clearTriggers(ctx, m, lang)
	}
	return nil
}

func (t *Triggers) addTrigger(ctx context.Context, m *api.Message, lang string) error {
	args := strings.SplitN(strings.TrimSpace(m.CommandArguments()), " ", 2)
	if len(args) == 0 || args[0] == "" {
		return t.reply(m, i18n.Get("Usage", lang)+": /addtrigger word response")
	}
	word := strings.ToLower(args[0])

	trigger := &db.Trigger{Word: word}
	switch {
	case len(args) == 2 && strings.TrimSpace(args[1]) != "":
		trigger.Response = strings.TrimSpace(args[1])
	case m.ReplyToMessage != nil:
		reply := m.ReplyToMessage
		if fileID, mediaType, ok := bot.MediaFileID(reply); ok {
			trigger.MediaID = fileID
			trigger.MediaType = string(mediaType)
		} else if reply.Text != "" {
			trigger.Response = reply.Text
		}
	}
	if trigger.Response == "" && trigger.MediaID == "" {
		return t.reply(m, i18n.Get("Provide a response text or reply to a media message", lang))
	}

	if err := t.s.GetDB().UpsertTrigger(ctx, trigger); err != nil {
		t.getLogEntry().WithError(err).Error("cant save trigger")
		return t.reply(m, i18n.Get("Could not update triggers, try again later", lang))
	}
	return t.reply(m, fmt.Sprintf(i18n.Get("Saved trigger %q", lang), word))
}

func (t *Triggers) deleteTrigger(ctx context.Context, m *api.Message, lang string) error {
	word := strings.ToLower(strings.TrimSpace(m.CommandArguments()))
	if word == "" {
		return t.reply(m, i18n.Get("Usage", lang)+": /deltrigger word")
	}
	if err := t.s.GetDB().DeleteTrigger(ctx, word); err != nil {
		t.getLogEntry().WithError(err).Error("cant delete trigger")
		return t.reply(m, i18n.Get("Could not update triggers, try again later", lang))
	}
	return t.reply(m, fmt.Sprintf(i18n.Get("Deleted trigger %q", lang), word))
}

func (t *Triggers) listTriggers(ctx context.Context, m *api.Message, lang string) error {
	stored, err := t.s.GetDB().GetTriggers(ctx)
	if err != nil {
		t.getLogEntry().WithError(err).Error("cant list triggers")
		return t.reply(m, i18n.Get("Could not update triggers, try again later", lang))
	}
	if len(stored) == 0 {
		return t.reply(m, i18n.Get("No triggers saved", lang))
	}
	words := make([]string, 0, len(stored))
	for _, trigger := range stored {
		words = append(words, "`"+trigger.Word+"`")
	}
	msg := api.NewMessage(m.Chat.ID, i18n.Get("Triggers", lang)+": "+strings.Join(words, ", "))
	msg.ParseMode = api.ModeMarkdown
	msg.DisableNotification = true
	_, err = t.s.GetBot().Send(msg)
	return err
}

func (t *Triggers) clearTriggers(ctx context.Context, m *api.Message, lang string) error {
	removed, err := t.s.GetDB().ClearTriggers(ctx)
	if err != nil {
		t.getLogEntry().WithError(err).Error("cant clear triggers")
		return t.reply(m, i18n.Get("Could not update triggers, try again later", lang))
	}
	return t.reply(m, fmt.Sprintf(i18n.Get("Removed %d triggers", lang), removed))
}

func (t *Triggers) handleMessage(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	text := strings.ToLower(messageText(m))

	stored, err := t.s.GetDB().GetTriggers(ctx)
	if err != nil {
		return errors.WithMessage(err, "cant load triggers")
	}
	trigger := Match(text, stored)
	if trigger == nil {
		return nil
	}

	if trigger.MediaID != "" {
		if err := t.sendMedia(m, trigger); err != nil {
			t.getLogEntry().WithError(err).Warn("cant send trigger media")
			return t.reply(m, i18n.Get("Could not send the saved media", t.s.GetLanguage(ctx, chat.ID, user)))
		}
		return nil
	}
	return t.reply(m, trigger.Response)
}

// Match returns the first stored trigger whose word occurs in text, which the
// caller lowercases. Stored order decides ties.
func Match(text string, stored []*db.Trigger) *db.Trigger {
	if text == "" {
		return nil
	}
	for _, trigger := range stored {
		if strings.Contains(text, trigger.Word) {
			return trigger
		}
	}
	return nil
}

func (t *Triggers) sendMedia(m *api.Message, trigger *db.Trigger) error {
	fileID := api.FileID(trigger.MediaID)
	var chattable api.Chattable
	switch bot.MessageType(trigger.MediaType) {
	case bot.MessageTypeAnimation:
		chattable = api.NewAnimation(m.Chat.ID, fileID)
	case bot.MessageTypeAudio:
		chattable = api.NewAudio(m.Chat.ID, fileID)
	case bot.MessageTypeDocument:
		chattable = api.NewDocument(m.Chat.ID, fileID)
	case bot.MessageTypePhoto:
		chattable = api.NewPhoto(m.Chat.ID, fileID)
	case bot.MessageTypeSticker:
		chattable = api.NewSticker(m.Chat.ID, fileID)
	case bot.MessageTypeVideo:
		chattable = api.NewVideo(m.Chat.ID, fileID)
	case bot.MessageTypeVoice:
		chattable = api.NewVoice(m.Chat.ID, fileID)
	default:
		return errors.Errorf("unknown media type %q", trigger.MediaType)
	}
	_, err := t.s.GetBot().Send(chattable)
	return err
}

func (t *Triggers) canManage(ctx context.Context, chat *api.Chat, user *api.User) bool {
	if t.s.IsSudoer(user.ID) {
		return true
	}
	if chat.IsPrivate() {
		return true
	}
	return permissions.IsChatModerator(ctx, t.s.GetBot(), chat.ID, user.ID)
}

func (t *Triggers) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := t.s.GetBot().Send(msg)
	return err
}

func messageText(m *api.Message) string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

func (t *Triggers) getLogEntry() *log.Entry {
	return log.WithField("handler", t.Name())
}
