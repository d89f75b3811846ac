package shippering

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/internal/i18n"
)

const (
	dateLayout = "02/01/2006"
	rosterMax  = 200
)

// Shippering pairs two chat members once a day. The chat client cannot
// enumerate group members, so the module keeps a roster of recently active
// users per chat and draws from it.
type Shippering struct {
	s bot.Service
}

type rosterEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	return &Shippering{s: s}, nil
}

func (h *Shippering) Name() string {
	return "shippering"
}

func (h *Shippering) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    h.Name(),
		Mode:      bot.FirstMatch,
		Predicate: bot.GroupCommandPredicate("couple"),
		Handler:   h.handleCouple,
	})
	d.Add(bot.Registration{
		Module:   h.Name(),
		Priority: 90,
		Mode:     bot.AllMatch,
		Predicate: func(u *api.Update, chat *api.Chat, user *api.User) bool {
			if chat == nil || !(chat.IsGroup() || chat.IsSuperGroup()) {
				return false
			}
			return u.Message != nil && user != nil && !user.IsBot
		},
		Handler: h.observeActivity,
	})
}

func (h *Shippering) observeActivity(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	roster, err := h.loadRoster(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant load roster")
	}

	name := bot.GetFullName(user)
	for i, entry := range roster {
		if entry.ID == user.ID {
			if entry.Name != name {
				roster[i].Name = name
				return h.saveRoster(ctx, chat.ID, roster)
			}
			return nil
		}
	}
	roster = append(roster, rosterEntry{ID: user.ID, Name: name})
	if len(roster) > rosterMax {
		roster = roster[len(roster)-rosterMax:]
	}
	return h.saveRoster(ctx, chat.ID, roster)
}

func (h *Shippering) handleCouple(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := h.s.GetLanguage(ctx, chat.ID, user)
	today := time.Now().Format(dateLayout)

	couple, err := h.s.GetDB().GetCouple(ctx, chat.ID, today)
	if err != nil {
		return errors.WithMessage(err, "cant load couple")
	}

	roster, err := h.loadRoster(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant load roster")
	}

	if couple == nil {
		if len(roster) < 2 {
			return h.reply(m, i18n.Get("Not enough known members in this chat yet", lang))
		}
		first := roster[tool.RandInt(0, len(roster)-1)]
		second := first
		for second.ID == first.ID {
			second = roster[tool.RandInt(0, len(roster)-1)]
		}
		couple = &db.Couple{
			ChatID:   chat.ID,
			Date:     today,
			FirstID:  first.ID,
			SecondID: second.ID,
		}
		if err := h.s.GetDB().SaveCouple(ctx, couple); err != nil {
			return errors.WithMessage(err, "cant save couple")
		}
	}

	return h.reply(m, fmt.Sprintf(
		i18n.Get("💘 Couple of the day:\n%s + %s = ❤️", lang),
		h.mention(roster, couple.FirstID), h.mention(roster, couple.SecondID),
	))
}

func (h *Shippering) mention(roster []rosterEntry, userID int64) string {
	for _, entry := range roster {
		if entry.ID == userID {
			return fmt.Sprintf("[%s](tg://user?id=%d)", entry.Name, userID)
		}
	}
	return fmt.Sprintf("[%d](tg://user?id=%d)", userID, userID)
}

func (h *Shippering) rosterKey(chatID int64) string {
	return fmt.Sprintf("shippering:roster:%d", chatID)
}

func (h *Shippering) loadRoster(ctx context.Context, chatID int64) ([]rosterEntry, error) {
	raw, err := h.s.GetDB().GetKV(ctx, h.rosterKey(chatID))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var roster []rosterEntry
	if err := json.Unmarshal([]byte(raw), &roster); err != nil {
		h.getLogEntry().WithError(err).Warn("dropping corrupt roster")
		return nil, nil
	}
	return roster, nil
}

func (h *Shippering) saveRoster(ctx context.Context, chatID int64, roster []rosterEntry) error {
	raw, err := json.Marshal(roster)
	if err != nil {
		return err
	}
	return h.s.GetDB().SetKV(ctx, h.rosterKey(chatID), string(raw))
}

func (h *Shippering) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ParseMode = api.ModeMarkdown
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := h.s.GetBot().Send(msg)
	return err
}

func (h *Shippering) getLogEntry() *log.Entry {
	return log.WithField("handler", h.Name())
}
