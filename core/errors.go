package core

import "errors"

var (
	// ErrEmptyPrompt is returned when generation is requested without a prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrGenerationInProgress rejects a second generation while one is pending.
	ErrGenerationInProgress = errors.New("generation already in progress")
	// ErrGenerationFailed wraps errors reported by the generation collaborator.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrNotConfigured is returned when no generation provider is set up.
	ErrNotConfigured = errors.New("generation provider not configured")
	// ErrSurfaceNotReady is returned by a drawing surface before it is initialised.
	ErrSurfaceNotReady = errors.New("surface not initialised")
	// ErrNoResult is returned when downloading before any successful generation.
	ErrNoResult = errors.New("no generated image")
	// ErrNotFound is returned by stores and registries for unknown ids.
	ErrNotFound = errors.New("not found")
	// ErrUnknownTool is returned for tool names outside the toolbar.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidColor is returned for unparseable colour specs.
	ErrInvalidColor = errors.New("invalid color")
	// ErrNotText is returned when editing the text of a non-text object.
	ErrNotText = errors.New("object is not text")
)
