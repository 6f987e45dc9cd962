package editor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"doodle-server/core"
	"doodle-server/surface"
)

// File is a downloadable generated image.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Generate sends a PNG snapshot of the canvas and prompt to the generation
// collaborator. A blank prompt records the validation message and makes no
// request. While a request is in flight further calls are rejected. On
// failure the previous result is kept and the error message is recorded.
func (e *Editor) Generate(ctx context.Context, prompt string) (*core.GenerationResult, error) {
	e.mu.Lock()
	e.touch()
	e.state.Prompt = prompt
	if strings.TrimSpace(prompt) == "" {
		e.state.Error = ValidationMessage
		e.mu.Unlock()
		e.changed()
		return nil, core.ErrEmptyPrompt
	}
	if e.state.Generating {
		e.mu.Unlock()
		return nil, core.ErrGenerationInProgress
	}
	e.state.Generating = true
	e.state.Error = ""
	started := e.now()
	snapshot, snapErr := e.surface.ExportSnapshot(surface.FormatPNG, 1)
	gen := e.generator
	e.mu.Unlock()
	e.changed()

	var (
		result *core.GenerationResult
		err    error
	)
	switch {
	case snapErr != nil:
		err = fmt.Errorf("export snapshot: %w", snapErr)
	case gen == nil:
		err = core.ErrNotConfigured
	default:
		result, err = e.request(ctx, gen, snapshot, prompt)
	}

	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Generating = false
	if err != nil {
		e.state.Error = errorMessage(err)
		e.log.WithError(err).Warn("generation failed")
		return nil, fmt.Errorf("%w: %w", core.ErrGenerationFailed, err)
	}
	result.Timestamp = started
	e.state.Result = result
	e.log.WithField("url", result.URL).Info("generation finished")
	return result, nil
}

func (e *Editor) request(ctx context.Context, gen core.Generator, snapshot, prompt string) (*core.GenerationResult, error) {
	img, err := gen.Generate(ctx, core.GenerationRequest{Snapshot: snapshot, Prompt: prompt})
	if err != nil {
		return nil, err
	}
	if img == nil || (img.URL == "" && len(img.Data) == 0) {
		return nil, fmt.Errorf("no image returned")
	}
	result := &core.GenerationResult{URL: img.URL, Prompt: prompt}
	if len(img.Data) == 0 {
		return result, nil
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	if e.artifacts == nil {
		result.URL = core.EncodeDataURL(contentType, img.Data)
		return result, nil
	}
	id, err := e.artifacts.Save(ctx, &core.Artifact{
		SketchID:    e.ID,
		Prompt:      prompt,
		ContentType: contentType,
		Data:        img.Data,
		CreatedAt:   e.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	result.ArtifactID = id
	result.URL = e.artifactURL(id)
	return result, nil
}

// Download returns the current result as doodle-<unix ms>.png.
func (e *Editor) Download(ctx context.Context) (*File, error) {
	e.mu.Lock()
	e.touch()
	result := e.state.Result
	name := "doodle-" + strconv.FormatInt(e.now().UnixMilli(), 10) + ".png"
	e.mu.Unlock()

	if result == nil {
		return nil, core.ErrNoResult
	}
	f := &File{Name: name}
	switch {
	case result.ArtifactID != "" && e.artifacts != nil:
		a, err := e.artifacts.Get(ctx, result.ArtifactID)
		if err != nil {
			return nil, fmt.Errorf("load artifact %s: %w", result.ArtifactID, err)
		}
		f.ContentType, f.Data = a.ContentType, a.Data
	case strings.HasPrefix(result.URL, "data:"):
		ct, data, err := core.DecodeDataURL(result.URL)
		if err != nil {
			return nil, err
		}
		f.ContentType, f.Data = ct, data
	default:
		ct, data, err := e.fetch.Fetch(ctx, result.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", result.URL, err)
		}
		f.ContentType, f.Data = ct, data
	}
	return f, nil
}
