package core

import (
	"context"
	"image/color"
	"time"
)

type (
	// Style is the stroke configuration read when a shape is created and when
	// the free-draw brush is configured.
	Style struct {
		StrokeColor color.RGBA
		StrokeWidth float64
	}

	// GenerationResult is the outcome of one successful generation. It is
	// replaced wholesale by the next success and never partially updated.
	GenerationResult struct {
		URL        string    `json:"url"`
		ArtifactID string    `json:"artifactId,omitempty"`
		Prompt     string    `json:"prompt"`
		Timestamp  time.Time `json:"timestamp"`
	}

	// GenerationRequest is what the editor hands to a Generator: a
	// self-contained encoded image (data URL) and the user's prompt.
	GenerationRequest struct {
		Snapshot string
		Prompt   string
	}

	// GeneratedImage is a Generator's answer. Providers that return the image
	// inline fill Data; providers that host it fill URL.
	GeneratedImage struct {
		URL         string
		Data        []byte
		ContentType string
	}

	// Generator is the external image-generation collaborator.
	Generator interface {
		Generate(ctx context.Context, req GenerationRequest) (*GeneratedImage, error)
	}

	// Artifact is a stored generated image.
	Artifact struct {
		ID          string    `json:"id"`
		SketchID    string    `json:"sketchId"`
		Prompt      string    `json:"prompt"`
		ContentType string    `json:"contentType"`
		Data        []byte    `json:"-"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// ArtifactStore persists generated images so they can be downloaded later.
	ArtifactStore interface {
		Save(ctx context.Context, artifact *Artifact) (string, error)
		Get(ctx context.Context, id string) (*Artifact, error)
		Delete(ctx context.Context, id string) error
	}
)

const (
	// DefaultStrokeWidth is the initial stroke width of a new editor.
	DefaultStrokeWidth = 3
	// MinStrokeWidth and MaxStrokeWidth bound the width control.
	MinStrokeWidth = 1
	MaxStrokeWidth = 40
)

// DefaultStyle returns the style of a freshly opened editor.
func DefaultStyle() Style {
	return Style{
		StrokeColor: color.RGBA{0, 0, 0, 255},
		StrokeWidth: DefaultStrokeWidth,
	}
}

// ClampWidth limits w to the supported stroke width range.
func ClampWidth(w float64) float64 {
	if w < MinStrokeWidth {
		return MinStrokeWidth
	}
	if w > MaxStrokeWidth {
		return MaxStrokeWidth
	}
	return w
}
