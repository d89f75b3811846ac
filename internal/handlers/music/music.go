package music

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/butcherhq/butcherbot/internal/adapters/songapi"
	"github.com/butcherhq/butcherbot/internal/bot"
	botErrors "github.com/butcherhq/butcherbot/internal/errors"
	"github.com/butcherhq/butcherbot/internal/i18n"
)

const maxLyricsLength = 4096

// Music downloads audio from the song catalog and fetches lyrics. Downloads
// are mutually exclusive process-wide; a second concurrent request is
// rejected, not queued.
type Music struct {
	s            bot.Service
	catalog      *songapi.API
	downloadLock *semaphore.Weighted
}

func New(s bot.Service) (bot.Module, error) {
	if s == nil {
		return nil, errors.New("nil service")
	}
	cfg := s.GetConfig().Music
	if cfg.CatalogBaseURL == "" {
		return nil, errors.New("no music catalog configured")
	}
	m := &Music{
		s:            s,
		downloadLock: semaphore.NewWeighted(1),
	}
	m.catalog = songapi.New(cfg.CatalogBaseURL, cfg.CatalogAPIKey, m.getLogEntry())
	return m, nil
}

func (h *Music) Name() string {
	return "music"
}

func (h *Music) Register(d *bot.Dispatcher) {
	d.Add(bot.Registration{
		Module:    h.Name(),
		Mode:      bot.FirstMatch,
		Predicate: bot.CommandPredicate("ytmusic", "saavn", "lyrics"),
		Handler:   h.handleCommand,
	})
}

func (h *Music) handleCommand(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error {
	m := u.Message
	lang := h.s.GetLanguage(ctx, chat.ID, user)
	query := m.CommandArguments()
	if query == "" {
		return h.reply(m, i18n.Get("Usage", lang)+": /"+m.Command()+" query")
	}

	switch m.Command() {
	case "ytmusic":
		if !h.s.IsSudoer(user.ID) {
			return h.reply(m, i18n.Get("This command is restricted", lang))
		}
		return h.download(ctx, m, query, lang)
	case "saavn":
		return h.download(ctx, m, query, lang)
	case "lyrics":
		return h.lyrics(ctx, m, query, lang)
	}
	return nil
}

func (h *Music) download(ctx context.Context, m *api.Message, query, lang string) error {
	if !h.downloadLock.TryAcquire(1) {
		h.getLogEntry().WithError(botErrors.ErrBusy).Debug("rejecting concurrent download")
		return h.reply(m, i18n.Get("Another download is already in progress, try again later", lang))
	}
	defer h.downloadLock.Release(1)

	cfg := h.s.GetConfig().Music
	ctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout)
	defer cancel()

	tracks, err := h.catalog.Search(ctx, query, 1)
	if err != nil {
		return errors.WithMessage(err, "cant search catalog")
	}
	if len(tracks) == 0 {
		return h.reply(m, i18n.Get("Nothing found", lang))
	}
	track := tracks[0]
	if time.Duration(track.Duration)*time.Second > cfg.MaxDuration {
		return h.reply(m, i18n.Get("Track is too long to download", lang))
	}

	media, err := h.catalog.ResolveMedia(ctx, track.ID)
	if err != nil {
		return errors.WithMessage(err, "cant resolve media")
	}

	path, err := h.fetch(ctx, media.URL)
	if err != nil {
		return errors.WithMessage(err, "cant fetch audio")
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			h.getLogEntry().WithError(err).Warn("cant remove temp file")
		}
	}()

	audio := api.NewAudio(m.Chat.ID, api.FilePath(path))
	audio.Title = track.Title
	audio.Performer = track.Artist
	audio.Duration = track.Duration
	audio.ReplyParameters.MessageID = m.MessageID
	if _, err := h.s.GetBot().Send(audio); err != nil {
		return errors.WithMessage(err, "cant send audio")
	}
	return nil
}

func (h *Music) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("media fetch returned status %d", resp.StatusCode)
	}

	file, err := os.CreateTemp("", "butcherbot-audio-*.mp3")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

func (h *Music) lyrics(ctx context.Context, m *api.Message, query, lang string) error {
	text, err := h.catalog.Lyrics(ctx, query, "")
	if err != nil {
		h.getLogEntry().WithError(err).Debug("lyrics lookup failed")
		return h.reply(m, i18n.Get("No lyrics found", lang))
	}
	if len(text) > maxLyricsLength {
		text = bot.TruncateMessage(text, maxLyricsLength-len("…")) + "…"
	}
	return h.reply(m, fmt.Sprintf("🎶 %s\n\n%s", query, text))
}

func (h *Music) reply(m *api.Message, text string) error {
	msg := api.NewMessage(m.Chat.ID, text)
	msg.ReplyParameters.MessageID = m.MessageID
	msg.DisableNotification = true
	_, err := h.s.GetBot().Send(msg)
	return err
}

func (h *Music) getLogEntry() *log.Entry {
	return log.WithField("handler", h.Name())
}
