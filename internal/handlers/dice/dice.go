package dice

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
)

// maxRerolls bounds the sudoer lucky streak.
const maxRerolls = 10

// Dice sends an animated dice. Sudoers get rerolls until a six comes up, the
// failed attempts are deleted.
type Dice struct {
	s bot.Service
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	return &Dice{s: s}, nil
}

func (h *Dice) Name() string {
	return "dice"
}

func (h *Dice) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    h.Name(),
		Mode:      bot.FirstMatch,
		Predicate: bot.CommandPredicate("dice"),
		Handler:   h.handleDice,
	})
}

func (h *Dice) handleDice(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	rolls := 1
	if h.s.IsSudoer(user.ID) {
		rolls = maxRerolls
	}

	for attempt := 0; attempt < rolls; attempt++ {
		roll := api.NewDice(chat.ID)
		roll.ReplyParameters.MessageID = u.Message.MessageID
		sent, err := h.s.GetBot().Send(roll)
		if err != nil {
			return errors.WithMessage(err, "cant send dice")
		}
		if sent.Dice == nil || sent.Dice.Value == 6 || attempt == rolls-1 {
			return nil
		}
		if err := bot.DeleteChatMessage(ctx, h.s.GetBot(), chat.ID, sent.MessageID); err != nil {
			h.getLogEntry().WithError(err).Debug("cant delete failed roll")
			return nil
		}
	}
	return nil
}

func (h *Dice) getLogEntry() *log.Entry {
	return log.WithField("handler", h.Name())
}
