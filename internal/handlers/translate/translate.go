package translate

import (
	"context"
	"sort"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/adapters"
	"github.com/butcherhq/butcherbot/internal/adapters/deepl"
	"github.com/butcherhq/butcherbot/internal/adapters/llm"
	"github.com/butcherhq/butcherbot/internal/adapters/llm/gemini"
	"github.com/butcherhq/butcherbot/internal/adapters/llm/openai"
	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/i18n"
)

const maxMessageLength = 4096

// deeplLangs is the subset of target languages the DeepL API accepts.
var deeplLangs = map[string]struct{}{
	"bg": {}, "cs": {}, "da": {}, "de": {}, "el": {}, "en": {}, "es": {},
	"et": {}, "fi": {}, "fr": {}, "hu": {}, "id": {}, "it": {}, "ja": {},
	"ko": {}, "lt": {}, "lv": {}, "nb": {}, "nl": {}, "pl": {}, "pt": {},
	"ro": {}, "ru": {}, "sk": {}, "sl": {}, "sv": {}, "tr": {}, "uk": {},
	"zh": {},
}

// languageNames maps every code the module accepts to its English name; LLM
// translation covers codes DeepL does not.
var languageNames = map[string]string{
	"ar": "Arabic", "bg": "Bulgarian", "cs": "Czech", "da": "Danish",
	"de": "German", "el": "Greek", "en": "English", "es": "Spanish",
	"et": "Estonian", "fa": "Persian", "fi": "Finnish", "fr": "French",
	"he": "Hebrew", "hi": "Hindi", "hu": "Hungarian", "id": "Indonesian",
	"it": "Italian", "ja": "Japanese", "ka": "Georgian", "ko": "Korean",
	"lt": "Lithuanian", "lv": "Latvian", "mn": "Mongolian", "nb": "Norwegian",
	"nl": "Dutch", "pl": "Polish", "pt": "Portuguese", "ro": "Romanian",
	"ru": "Russian", "sk": "Slovak", "sl": "Slovenian", "sv": "Swedish",
	"th": "Thai", "tr": "Turkish", "uk": "Ukrainian", "vi": "Vietnamese",
	"zh": "Chinese",
}

// Translate translates replied-to messages with DeepL when possible, falling
// back to an LLM provider for the long tail of languages.
type Translate struct {
	s     bot.Service
	deepl *deepl.API
	llm   adapters.LLM
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	t := &Translate{s: s}
	cfg := s.GetConfig().Translate
	entry := t.getLogEntry()

	if cfg.DeepLAPIKey != "" {
		t.deepl = deepl.New(cfg.DeepLAPIKey, entry)
	}
	if cfg.LLMAPIKey != "" {
		switch cfg.LLMType {
		case "gemini":
			provider, err := gemini.NewGemini(context.Background(), cfg.LLMAPIKey, cfg.LLMModel, entry)
			if err != nil {
				return nil, errors.WithMessage(err, "cant create gemini provider")
			}
			t.llm = provider
		default:
			t.llm = openai.NewOpenAI(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, entry)
		}
	}
	if t.deepl == nil && t.llm == nil {
		return nil, errors.New("no translation provider configured")
	}
	return t, nil
}

func (t *Translate) Name() string {
	return "translate"
}

func (t *Translate) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    t.Name(),
		Mode:      bot.FirstMatch,
		Predicate: bot.GroupCommandPredicate("translate", "tr", "langs"),
		Handler:   t.handleCommand,
	})
}

func (t *Translate) handleCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := t.s.GetLanguage(ctx, chat.ID, user)

	if m.Command() == "langs" {
		return t.reply(m, i18n.Get("Supported languages", lang)+": "+strings.Join(SupportedCodes(), ", "))
	}

	target := strings.ToLower(strings.TrimSpace(m.CommandArguments()))
	if !IsSupported(target) {
		return t.reply(m, i18n.Get("Unknown language code, see /langs", lang))
	}
	if m.ReplyToMessage == nil || m.ReplyToMessage.Text == "" {
		return t.reply(m, i18n.Get("Reply to a text message to translate it", lang))
	}

	translated, err := t.translate(ctx, m.ReplyToMessage.Text, target)
	if err != nil {
		t.getLogEntry().WithError(err).Error("translation failed")
		return t.reply(m, i18n.Get("Translation failed, try again later", lang))
	}
	return t.reply(m, bot.TruncateMessage(translated, maxMessageLength))
}

func (t *Translate) translate(ctx context.Context, text, target string) (string, error) {
	if t.deepl != nil {
		if _, ok := deeplLangs[target]; ok {
			translated, _, err := t.deepl.Translate(ctx, text, "", target)
			if err == nil {
				return translated, nil
			}
			t.getLogEntry().WithError(err).Warn("deepl failed, falling back")
		}
	}
	if t.llm == nil {
		return "", errors.New("no provider for language " + target)
	}

	resp, err := t.llm.ChatCompletion(ctx, []llm.ChatCompletionMessage{
		{
			Role: llm.RoleSystem,
			Content: "You are a translation engine. Translate the user message into " +
				languageNames[target] + ". Reply with the translation only.",
		},
		{Role: llm.RoleUser, Content: text},
	})
	if err != nil {
		return "", errors.WithMessage(err, "llm translation failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty llm response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// IsSupported reports whether code names a translatable target language.
func IsSupported(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// SupportedCodes lists the accepted language codes, sorted.
func SupportedCodes() []string {
	codes := make([]string, 0, len(languageNames))
	for code := range languageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (t *Translate) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := t.s.GetBot().Send(msg)
	return err
}

func (t *Translate) getLogEntry() *log.Entry {
	return log.WithField("handler", t.Name())
}
