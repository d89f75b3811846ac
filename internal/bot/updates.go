package bot

import (
	"context"
	"strings"
	"unicode/utf8"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
)

// GetUpdatesChans polls the Telegram API and exposes updates as a channel.
// The error channel delivers at most one error, after which both channels
// close.
func GetUpdatesChans(ctx context.Context, bot *api.BotAPI, config api.UpdateConfig) (api.UpdatesChannel, chan error) {
	ch := make(chan api.Update, bot.Buffer)
	chErr := make(chan error)

	go func() {
		defer close(ch)
		defer close(chErr)
		for {
			select {
			case <-ctx.Done():
				chErr <- ctx.Err()
				return
			default:
				updates, err := bot.GetUpdates(config)
				if err != nil {
					chErr <- err
					return
				}

				for _, update := range updates {
					if update.UpdateID >= config.Offset {
						config.Offset = update.UpdateID + 1
						select {
						case ch <- update:
						case <-ctx.Done():
							chErr <- ctx.Err()
							return
						}
					}
				}
			}
		}
	}()

	return ch, chErr
}

func DeleteChatMessage(ctx context.Context, bot *api.BotAPI, chatID int64, messageID int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.NewDeleteMessage(chatID, messageID)); err != nil {
			return err
		}
		return nil
	}
}

func BanUserFromChat(ctx context.Context, bot *api.BotAPI, userID int64, chatID int64, untilUnix int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		if _, err := bot.Request(api.BanChatMemberConfig{
			ChatMemberConfig: api.ChatMemberConfig{
				ChatConfig: api.ChatConfig{
					ChatID: chatID,
				},
				UserID: userID,
			},
			UntilDate:      untilUnix,
			RevokeMessages: true,
		}); err != nil {
			return errors.WithMessage(err, "cant ban")
		}
		return nil
	}
}

func GetUN(user *api.User) string {
	if user == nil {
		return ""
	}
	userName := user.UserName
	if len(userName) == 0 {
		userName = user.FirstName + " " + user.LastName
		userName = strings.TrimSpace(userName)
	}
	return userName
}

func GetFullName(user *api.User) string {
	if user == nil {
		return ""
	}
	fullName := user.FirstName + " " + user.LastName
	fullName = strings.TrimSpace(fullName)
	if len(fullName) == 0 {
		fullName = user.UserName
	}
	return fullName
}

// CommandPredicate matches human messages carrying one of the given commands.
// Telegram strips the @botname suffix in Command().
func CommandPredicate(commands ...string) Predicate {
	return func(u *api.Update, chat *api.Chat, user *api.User) bool {
		if u.Message == nil || user == nil || user.IsBot || !u.Message.IsCommand() {
			return false
		}
		return tool.In(u.Message.Command(), commands...)
	}
}

// GroupCommandPredicate is CommandPredicate restricted to groups and
// supergroups.
func GroupCommandPredicate(commands ...string) Predicate {
	inner := CommandPredicate(commands...)
	return func(u *api.Update, chat *api.Chat, user *api.User) bool {
		if chat == nil || !(chat.IsGroup() || chat.IsSuperGroup()) {
			return false
		}
		return inner(u, chat, user)
	}
}

// TruncateMessage cuts text to at most limit bytes without splitting a rune,
// so the result stays valid UTF-8 and the chat API does not reject it.
func TruncateMessage(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// MessageType distinguishes the media payload of a message; text is the
// fallback.
type MessageType string

const (
	MessageTypeText      MessageType = "text"
	MessageTypeAnimation MessageType = "animation"
	MessageTypeAudio     MessageType = "audio"
	MessageTypeDocument  MessageType = "document"
	MessageTypePhoto     MessageType = "photo"
	MessageTypeSticker   MessageType = "sticker"
	MessageTypeVideo     MessageType = "video"
	MessageTypeVoice     MessageType = "voice"
)

func GetMessageType(msg *api.Message) MessageType {
	switch {
	case msg.Animation != nil:
		return MessageTypeAnimation
	case msg.Audio != nil:
		return MessageTypeAudio
	case msg.Document != nil:
		return MessageTypeDocument
	case len(msg.Photo) > 0:
		return MessageTypePhoto
	case msg.Sticker != nil:
		return MessageTypeSticker
	case msg.Video != nil:
		return MessageTypeVideo
	case msg.Voice != nil:
		return MessageTypeVoice
	default:
		return MessageTypeText
	}
}

// MediaFileID returns the reusable file ID of a message's media payload, if
// any.
func MediaFileID(msg *api.Message) (string, MessageType, bool) {
	switch t := GetMessageType(msg); t {
	case MessageTypeAnimation:
		return msg.Animation.FileID, t, true
	case MessageTypeAudio:
		return msg.Audio.FileID, t, true
	case MessageTypeDocument:
		return msg.Document.FileID, t, true
	case MessageTypePhoto:
		return msg.Photo[len(msg.Photo)-1].FileID, t, true
	case MessageTypeSticker:
		return msg.Sticker.FileID, t, true
	case MessageTypeVideo:
		return msg.Video.FileID, t, true
	case MessageTypeVoice:
		return msg.Voice.FileID, t, true
	default:
		return "", MessageTypeText, false
	}
}
