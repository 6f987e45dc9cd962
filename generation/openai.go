package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"

	"doodle-server/core"
)

// OpenAI edits the sketch with the OpenAI images API.
type OpenAI struct {
	client *openai.Client
	model  string
	size   string
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE2
	}
	size := cfg.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		size:   size,
	}, nil
}

func (p *OpenAI) Generate(ctx context.Context, req core.GenerationRequest) (*core.GeneratedImage, error) {
	_, data, err := core.DecodeDataURL(req.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	// The multipart upload takes its file name from the image file.
	f, err := os.CreateTemp("", "sketch-*.png")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          f,
		Prompt:         req.Prompt,
		Model:          p.model,
		N:              1,
		Size:           p.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no image")
	}
	out := resp.Data[0]
	if out.B64JSON == "" {
		return &core.GeneratedImage{URL: out.URL}, nil
	}
	img, err := base64.StdEncoding.DecodeString(out.B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode openai image: %w", err)
	}
	return &core.GeneratedImage{Data: img, ContentType: "image/png"}, nil
}
