package songapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// API talks to a song catalog service exposing search, stream URL resolution
// and lyrics lookup.
type API struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Entry
}

type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Duration int    `json:"duration"`
	ImageURL string `json:"image_url"`
}

type TrackMedia struct {
	URL      string `json:"url"`
	MIMEType string `json:"mime_type"`
	Bitrate  int    `json:"bitrate"`
}

func New(baseURL, apiKey string, logger *log.Entry) *API {
	return &API{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (s *API) get(ctx context.Context, path string, query url.Values, out any) error {
	if s.baseURL == "" {
		return errors.New("no catalog base url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return errors.WithMessage(err, "cant create catalog request")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.WithMessage(err, "cant execute catalog request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("catalog returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WithMessage(err, "cant decode catalog response")
	}
	return nil
}

// Search returns the best catalog matches for a free-form query.
func (s *API) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var result struct {
		Tracks []Track `json:"tracks"`
	}
	if err := s.get(ctx, "/search", q, &result); err != nil {
		return nil, err
	}
	return result.Tracks, nil
}

// ResolveMedia returns a downloadable stream for a track.
func (s *API) ResolveMedia(ctx context.Context, trackID string) (*TrackMedia, error) {
	q := url.Values{}
	q.Set("id", trackID)
	var media TrackMedia
	if err := s.get(ctx, "/media", q, &media); err != nil {
		return nil, err
	}
	if media.URL == "" {
		return nil, errors.New("no media url")
	}
	return &media, nil
}

// Lyrics returns the lyrics text for a title/artist pair.
func (s *API) Lyrics(ctx context.Context, title, artist string) (string, error) {
	q := url.Values{}
	q.Set("title", title)
	if artist != "" {
		q.Set("artist", artist)
	}
	var result struct {
		Lyrics string `json:"lyrics"`
	}
	if err := s.get(ctx, "/lyrics", q, &result); err != nil {
		return "", err
	}
	if result.Lyrics == "" {
		return "", errors.New("no lyrics found")
	}
	return result.Lyrics, nil
}
