package deepl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const apiBaseURL = "https://api-free.deepl.com/v2"

// API is a thin client for the DeepL translation REST endpoint.
type API struct {
	apiKey     string
	httpClient *http.Client
	logger     *log.Entry
}

func New(apiKey string, logger *log.Entry) *API {
	return &API{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type translateRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang,omitempty"`
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// Translate converts text into targetLang. sourceLang may be empty, in which
// case DeepL detects it. Returns the translation and the detected source
// language code.
func (d *API) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, string, error) {
	if d.apiKey == "" {
		return "", "", errors.New("no deepl api key")
	}
	payload := translateRequest{
		Text:       []string{text},
		TargetLang: strings.ToUpper(targetLang),
	}
	if sourceLang != "" {
		payload.SourceLang = strings.ToUpper(sourceLang)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", errors.WithMessage(err, "cant marshal translate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", "", errors.WithMessage(err, "cant create translate request")
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", "", errors.WithMessage(err, "cant execute translate request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", errors.Errorf("deepl returned status %d", resp.StatusCode)
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", errors.WithMessage(err, "cant decode translate response")
	}
	if len(result.Translations) == 0 {
		return "", "", errors.New("empty translations")
	}
	translation := result.Translations[0]
	return translation.Text, strings.ToLower(translation.DetectedSourceLanguage), nil
}
