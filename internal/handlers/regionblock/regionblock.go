package regionblock

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/internal/i18n"
	"github.com/butcherhq/butcherbot/internal/policy/permissions"
)

// scriptPatterns detects the writing system of a display name. Keys are the
// script identifiers admins pass to /blocklang.
var scriptPatterns = map[string]*regexp.Regexp{
	"cyrillic":  regexp.MustCompile(`\p{Cyrillic}`),
	"arabic":    regexp.MustCompile(`[\x{0600}-\x{06FF}]`),
	"hebrew":    regexp.MustCompile(`\p{Hebrew}`),
	"hindi":     regexp.MustCompile(`\p{Devanagari}`),
	"chinese":   regexp.MustCompile(`\p{Han}`),
	"thai":      regexp.MustCompile(`\p{Thai}`),
	"korean":    regexp.MustCompile(`\p{Hangul}`),
	"persian":   regexp.MustCompile(`[\x{FB50}-\x{FDFF}\x{FE70}-\x{FEFF}]`),
	"georgian":  regexp.MustCompile(`\p{Georgian}`),
	"mongolian": regexp.MustCompile(`\p{Mongolian}`),
}

// countryMarkers maps a country code to lowercase substrings that hint at it
// in names and usernames.
var countryMarkers = map[string][]string{
	"ru": {"россия", "russia", "рф"},
	"ua": {"україна", "ukraine"},
	"ir": {"iran", "ايران"},
	"cn": {"china", "中国"},
	"in": {"india", "भारत"},
	"pk": {"pakistan"},
	"id": {"indonesia"},
	"tr": {"türkiye", "turkey"},
	"sa": {"saudi", "السعودية"},
	"th": {"thailand", "ไทย"},
}

// RegionBlock bans joining users whose names match a per-chat blocklist of
// countries or writing scripts.
type RegionBlock struct {
	s bot.Service
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	return &RegionBlock{s: s}, nil
}

func (r *RegionBlock) Name() string {
	return "regionblock"
}

func (r *RegionBlock) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module: r.Name(),
		Mode:   bot.FirstMatch,
		Predicate: bot.GroupCommandPredicate(
			"block", "unblock", "blocklang", "unblocklang", "blocklist", "clearblocklist",
		),
		Handler: r.handleCommand,
	})
	d.Add(bot.Registration{
		Module:   r.Name(),
		Priority: -10,
		Mode:     bot.AllMatch,
		Predicate: func(u *api.Update, chat *api.Chat, user *api.User) bool {
			return joinedUser(u) != nil
		},
		Handler: r.handleJoin,
	})
}

func (r *RegionBlock) handleCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := r.s.GetLanguage(ctx, chat.ID, user)

	if !r.s.IsSudoer(user.ID) && !permissions.IsChatModerator(ctx, r.s.GetBot(), chat.ID, user.ID) {
		return r.reply(m, i18n.Get("Only admins can manage the blocklist", lang))
	}

	blocks, err := r.s.GetDB().GetRegionBlocks(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant load region blocks")
	}

	switch m.Command() {
	case "block", "unblock", "blocklang", "unblocklang":
		return r.mutate(ctx, m, blocks, lang)
	case "blocklist":
		if len(blocks.Countries) == 0 && len(blocks.Scripts) == 0 {
			return r.reply(m, i18n.Get("Nothing is blocked in this chat", lang))
		}
		return r.reply(m, fmt.Sprintf(
			i18n.Get("Blocked countries: %s\nBlocked scripts: %s", lang),
			joinOrDash(blocks.Countries), joinOrDash(blocks.Scripts),
		))
	case "clearblocklist":
		if err := r.s.GetDB().ClearRegionBlocks(ctx, chat.ID); err != nil {
			return errors.WithMessage(err, "cant clear region blocks")
		}
		return r.reply(m, i18n.Get("Blocklist cleared", lang))
	}
	return nil
}

func (r *RegionBlock) mutate(ctx context.Context, m *api.Message, blocks *db.RegionBlocks, lang string) error {
	items := splitArguments(m.CommandArguments())
	if len(items) == 0 {
		return r.reply(m, i18n.Get("Usage", lang)+": /"+m.Command()+" a,b,c")
	}

	var changed []string
	switch m.Command() {
	case "block":
		blocks.Countries, changed = blocks.Countries.Add(items...)
	case "unblock":
		blocks.Countries, changed = blocks.Countries.Remove(items...)
	case "blocklang":
		var unknown []string
		for _, item := range items {
			if _, ok := scriptPatterns[item]; !ok {
				unknown = append(unknown, item)
			}
		}
		if len(unknown) > 0 {
			return r.reply(m, fmt.Sprintf(
				i18n.Get("Unknown scripts: %s. Known: %s", lang),
				strings.Join(unknown, ", "), strings.Join(KnownScripts(), ", "),
			))
		}
		blocks.Scripts, changed = blocks.Scripts.Add(items...)
	case "unblocklang":
		blocks.Scripts, changed = blocks.Scripts.Remove(items...)
	}

	if len(changed) == 0 {
		return r.reply(m, i18n.Get("Nothing changed", lang))
	}
	if err := r.s.GetDB().SetRegionBlocks(ctx, blocks); err != nil {
		return errors.WithMessage(err, "cant save region blocks")
	}
	return r.reply(m, fmt.Sprintf(i18n.Get("Updated: %s", lang), strings.Join(changed, ", ")))
}

func (r *RegionBlock) handleJoin(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	joined := joinedUser(u)
	if joined == nil || joined.IsBot || chat == nil {
		return nil
	}

	blocks, err := r.s.GetDB().GetRegionBlocks(ctx, chat.ID)
	if err != nil {
		return errors.WithMessage(err, "cant load region blocks")
	}
	if len(blocks.Countries) == 0 && len(blocks.Scripts) == 0 {
		return nil
	}

	reason, hit := MatchUser(joined, blocks)
	if !hit {
		return nil
	}

	entry := r.getLogEntry().WithFields(log.Fields{
		"chat_id": chat.ID,
		"user_id": joined.ID,
		"reason":  reason,
	})
	if err := bot.BanUserFromChat(ctx, r.s.GetBot(), joined.ID, chat.ID, 0); err != nil {
		entry.WithError(err).Error("cant ban blocked user")
		return nil
	}
	entry.Info("banned blocked user")

	lang := r.s.GetLanguage(ctx, chat.ID, nil)
	msg := api.NewMessage(chat.ID, fmt.Sprintf(
		i18n.Get("%s was removed: region blocked (%s)", lang),
		bot.GetFullName(joined), reason,
	))
	msg.DisableNotification = true
	if _, err := r.s.GetBot().Send(msg); err != nil {
		entry.WithError(err).Warn("cant announce removal")
	}
	return nil
}

// MatchUser reports whether the user's name or username hits a blocked script
// or country, and which one.
func MatchUser(user *api.User, blocks *db.RegionBlocks) (string, bool) {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	haystack := strings.ToLower(name + " " + user.UserName)

	for _, script := range blocks.Scripts {
		pattern, ok := scriptPatterns[script]
		if !ok {
			continue
		}
		if pattern.MatchString(name) {
			return script, true
		}
	}
	for _, country := range blocks.Countries {
		if strings.Contains(haystack, strings.ToLower(country)) {
			return country, true
		}
		for _, marker := range countryMarkers[strings.ToLower(country)] {
			if strings.Contains(haystack, marker) {
				return country, true
			}
		}
	}
	return "", false
}

// KnownScripts lists the detectable writing systems.
func KnownScripts() []string {
	scripts := make([]string, 0, len(scriptPatterns))
	for script := range scriptPatterns {
		scripts = append(scripts, script)
	}
	sort.Strings(scripts)
	return scripts
}

func joinedUser(u *api.Update) *api.User {
	if u.ChatMember == nil {
		return nil
	}
	old, updated := u.ChatMember.OldChatMember, u.ChatMember.NewChatMember
	wasOut := old.Status == "left" || old.Status == "kicked"
	isIn := updated.Status == "member" || updated.Status == "restricted"
	if wasOut && isIn {
		return updated.User
	}
	return nil
}

func splitArguments(args string) []string {
	var items []string
	for _, part := range strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, ", ")
}

func (r *RegionBlock) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := r.s.GetBot().Send(msg)
	return err
}

func (r *RegionBlock) getLogEntry() *log.Entry {
	return log.WithField("handler", r.Name())
}
