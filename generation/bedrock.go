package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"doodle-server/core"
)

const (
	defaultBedrockRegion = "us-east-1"
	defaultTitanModel    = "amazon.titan-image-generator-v1"
	defaultTitanSize     = 1024
	defaultTitanCFG      = 8.0
)

// bedrockInvokeAPI abstracts the Bedrock runtime method used, for tests.
type bedrockInvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock produces variations of the sketch with Amazon Titan Image
// Generator.
type Bedrock struct {
	client bedrockInvokeAPI
	cfg    BedrockConfig
}

type (
	titanRequest struct {
		TaskType              string               `json:"taskType"`
		ImageVariationParams  titanVariationParams `json:"imageVariationParams"`
		ImageGenerationConfig titanImageConfig     `json:"imageGenerationConfig"`
	}

	titanVariationParams struct {
		Text   string   `json:"text"`
		Images []string `json:"images"`
	}

	titanImageConfig struct {
		NumberOfImages int     `json:"numberOfImages"`
		Width          int     `json:"width"`
		Height         int     `json:"height"`
		CFGScale       float64 `json:"cfgScale"`
	}

	titanResponse struct {
		Images []string `json:"images"`
		Error  string   `json:"error"`
	}
)

// NewBedrock creates a provider using the default AWS credential chain.
func NewBedrock(ctx context.Context, cfg BedrockConfig) (*Bedrock, error) {
	region := cfg.Region
	if region == "" {
		region = defaultBedrockRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newBedrockWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

func newBedrockWithClient(client bedrockInvokeAPI, cfg BedrockConfig) *Bedrock {
	if cfg.ModelID == "" {
		cfg.ModelID = defaultTitanModel
	}
	if cfg.Width == 0 {
		cfg.Width = defaultTitanSize
	}
	if cfg.Height == 0 {
		cfg.Height = defaultTitanSize
	}
	if cfg.CFG == 0 {
		cfg.CFG = defaultTitanCFG
	}
	return &Bedrock{client: client, cfg: cfg}
}

func (p *Bedrock) Generate(ctx context.Context, req core.GenerationRequest) (*core.GeneratedImage, error) {
	_, data, err := core.DecodeDataURL(req.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	body, err := json.Marshal(titanRequest{
		TaskType: "IMAGE_VARIATION",
		ImageVariationParams: titanVariationParams{
			Text:   req.Prompt,
			Images: []string{base64.StdEncoding.EncodeToString(data)},
		},
		ImageGenerationConfig: titanImageConfig{
			NumberOfImages: 1,
			Width:          p.cfg.Width,
			Height:         p.cfg.Height,
			CFGScale:       p.cfg.CFG,
		},
	})
	if err != nil {
		return nil, err
	}

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.cfg.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke: %w", err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decode bedrock response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if len(resp.Images) == 0 {
		return nil, errors.New("bedrock returned no image")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode bedrock image: %w", err)
	}
	return &core.GeneratedImage{Data: img, ContentType: "image/png"}, nil
}
