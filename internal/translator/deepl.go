package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/movapay/movapay/config"
)

// Client calls the DeepL translate endpoint. One attempt per invocation;
// retries are the caller's policy.
type Client struct {
	cfg        config.DeepLConfig
	httpClient *http.Client
}

func NewClient(cfg config.DeepLConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate sends the text and returns the translated variant. A non-200
// response or a payload without a translation is an error; the caller is
// expected to fail the owning payment.
func (cl *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("source_lang", sourceLang)
	form.Set("target_lang", targetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+cl.cfg.AuthKey)

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("translation provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("invalid translation response: %w", err)
	}
	if len(decoded.Translations) == 0 || decoded.Translations[0].Text == "" {
		return "", fmt.Errorf("translation response missing translated text")
	}

	return decoded.Translations[0].Text, nil
}
