package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"doodle-server/core"
)

const defaultWebhookTimeout = 2 * time.Minute

// Webhook posts the sketch to an HTTP endpoint that answers with a hosted
// image URL or an inline image.
type Webhook struct {
	url    string
	client *http.Client
}

type (
	webhookRequest struct {
		Image  string `json:"image"`
		Prompt string `json:"prompt"`
	}

	webhookResponse struct {
		URL   string `json:"url"`
		Image string `json:"image"`
		Error string `json:"error"`
	}
)

// NewWebhook builds the HTTP client for cfg: OAuth2 client credentials when
// a token URL is set, a static bearer token when only Token is set.
func NewWebhook(ctx context.Context, cfg WebhookConfig, timeout time.Duration) (*Webhook, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is not set")
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	client := base
	switch {
	case cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(ctx)
	case cfg.Token != "":
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	client.Timeout = timeout
	return &Webhook{url: cfg.URL, client: client}, nil
}

func (p *Webhook) Generate(ctx context.Context, req core.GenerationRequest) (*core.GeneratedImage, error) {
	body, err := json.Marshal(webhookRequest{Image: req.Snapshot, Prompt: req.Prompt})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	var out webhookResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return nil, errors.New(out.Error)
		}
		return nil, fmt.Errorf("webhook returned %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode webhook response: %w", decodeErr)
	}
	switch {
	case out.Error != "":
		return nil, errors.New(out.Error)
	case out.Image != "":
		return decodeImage(out.Image)
	case out.URL != "":
		return &core.GeneratedImage{URL: out.URL}, nil
	}
	return nil, errors.New("webhook returned no image")
}

// decodeImage accepts a data URL or bare base64.
func decodeImage(s string) (*core.GeneratedImage, error) {
	if strings.HasPrefix(s, "data:") {
		ct, data, err := core.DecodeDataURL(s)
		if err != nil {
			return nil, err
		}
		return &core.GeneratedImage{Data: data, ContentType: ct}, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode webhook image: %w", err)
	}
	return &core.GeneratedImage{Data: data, ContentType: http.DetectContentType(data)}, nil
}
