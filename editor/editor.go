// Package editor is the application shell around one drawing surface. An
// Editor owns the tool, style, prompt and generation state, routes pointer
// events to the surface and the tool machine, and talks to the generation
// collaborator.
package editor

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
	"doodle-server/surface"
	"doodle-server/tools"
)

const (
	// ValidationMessage is shown when Generate is called without a prompt.
	ValidationMessage = "Please describe what to generate."
	// FallbackError is shown when a failed generation carries no message.
	FallbackError = "AI Error"
)

// State is the editor's UI state record.
type State struct {
	Tool       core.Tool
	Style      core.Style
	Prompt     string
	Generating bool
	Result     *core.GenerationResult
	Error      string
}

// Editor serialises every action on its surface. Generation is the only
// action that releases the lock while it waits.
type Editor struct {
	ID string

	mu         sync.Mutex
	surface    surface.Surface
	machine    tools.Machine
	session    tools.Session
	state      State
	background color.RGBA
	lastActive time.Time

	generator   core.Generator
	artifacts   core.ArtifactStore
	artifactURL func(id string) string
	fetch       Fetcher
	now         func() time.Time
	notify      func(*Editor)
	log         *logrus.Entry
}

// Option configures an Editor.
type Option func(*Editor)

// WithGenerator sets the generation collaborator.
func WithGenerator(g core.Generator) Option {
	return func(e *Editor) { e.generator = g }
}

// WithArtifacts stores generated images in s.
func WithArtifacts(s core.ArtifactStore) Option {
	return func(e *Editor) { e.artifacts = s }
}

// WithArtifactURL sets how stored artifacts are addressed in results.
func WithArtifactURL(fn func(id string) string) Option {
	return func(e *Editor) { e.artifactURL = fn }
}

// WithFetcher sets how remote result URLs are downloaded.
func WithFetcher(f Fetcher) Option {
	return func(e *Editor) { e.fetch = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

// WithListener registers a callback run after every change, outside the
// editor's lock.
func WithListener(fn func(*Editor)) Option {
	return func(e *Editor) { e.notify = fn }
}

// New wraps an initialised surface. The editor starts with the Pencil tool
// and the default style.
func New(id string, s surface.Surface, opts ...Option) *Editor {
	e := &Editor{
		ID:         id,
		surface:    s,
		machine:    tools.NewMachine(newObjectID),
		background: surface.White,
		state: State{
			Tool:  core.ToolPencil,
			Style: core.DefaultStyle(),
		},
		artifactURL: func(id string) string { return "/api/v1/artifacts/" + id },
		fetch:       HTTPFetcher{},
		now:         time.Now,
		log:         logrus.WithField("sketch", id),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastActive = e.now()
	if err := e.applyMode(); err != nil {
		e.log.WithError(err).Warn("failed to configure surface")
	}
	return e
}

func newObjectID() string {
	return ulid.Make().String()
}

// State returns a copy of the state record.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastActive is the time of the last action.
func (e *Editor) LastActive() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

// Objects returns the scene in paint order.
func (e *Editor) Objects() []*surface.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.Objects()
}

// Selection returns the active objects.
func (e *Editor) Selection() []*surface.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.ActiveObjects()
}

// Snapshot exports the scene as a data URL.
func (e *Editor) Snapshot(format surface.Format, quality float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.ExportSnapshot(format, quality)
}

// SelectTool switches tools and reconfigures the surface for it.
func (e *Editor) SelectTool(tool core.Tool) error {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	return e.switchTool(tool)
}

// SetStyle replaces the drawing style. The width is clamped to the supported
// range and the brush is reconfigured.
func (e *Editor) SetStyle(style core.Style) error {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	style.StrokeWidth = core.ClampWidth(style.StrokeWidth)
	e.state.Style = style
	return e.applyMode()
}

// SetPrompt records the prompt text.
func (e *Editor) SetPrompt(prompt string) {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	e.state.Prompt = prompt
}

// Pointer routes one raw pointer event: text placement first, then the
// surface's own handling, then the tool machine.
func (e *Editor) Pointer(phase surface.Phase, raw surface.RawPointer) error {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	p, err := e.surface.PointerPosition(raw)
	if errors.Is(err, core.ErrSurfaceNotReady) {
		return nil
	}
	if err != nil {
		return err
	}
	ev := tools.Event{Phase: phase, Point: p, Tool: e.state.Tool, Style: e.state.Style}
	if cmds, ok := e.machine.PlaceText(ev); ok {
		return e.run(cmds)
	}
	changed, err := e.surface.HandleNative(phase, p)
	if err != nil && !errors.Is(err, core.ErrSurfaceNotReady) {
		return err
	}
	if changed {
		e.surface.Render()
	}
	var cmds []tools.Command
	e.session, cmds = e.machine.Reduce(e.session, ev)
	return e.run(cmds)
}

// Delete removes every selected object.
func (e *Editor) Delete() error {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	var ids []string
	for _, o := range e.surface.ActiveObjects() {
		ids = append(ids, o.ID)
	}
	if err := ignoreNotReady(e.surface.RemoveObject(ids...)); err != nil {
		return err
	}
	if err := ignoreNotReady(e.surface.DiscardActiveObject()); err != nil {
		return err
	}
	e.surface.Render()
	return nil
}

// Clear empties the canvas, repaints it white and returns to the Pencil.
func (e *Editor) Clear() error {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	e.background = surface.White
	e.session = tools.Session{}
	if err := ignoreNotReady(e.surface.ClearAll(e.background)); err != nil {
		return err
	}
	if err := e.switchTool(core.ToolPencil); err != nil {
		return err
	}
	e.surface.Render()
	return nil
}

// EditText replaces the content of a text object.
func (e *Editor) EditText(id, text string) error {
	defer e.changed()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	obj, ok := e.surface.Object(id)
	if !ok {
		return fmt.Errorf("object %s: %w", id, core.ErrNotFound)
	}
	if obj.Kind != surface.KindText {
		return fmt.Errorf("object %s: %w", id, core.ErrNotText)
	}
	if err := ignoreNotReady(e.surface.SetObjectProperties(id, surface.Content(text))); err != nil {
		return err
	}
	e.surface.Render()
	return nil
}

func (e *Editor) touch() {
	e.lastActive = e.now()
}

func (e *Editor) changed() {
	if e.notify != nil {
		e.notify(e)
	}
}

func (e *Editor) switchTool(tool core.Tool) error {
	e.state.Tool = tool
	return e.applyMode()
}

func (e *Editor) applyMode() error {
	mode := tools.ModeFor(e.state.Tool, e.state.Style, e.background)
	return ignoreNotReady(mode.Apply(e.surface))
}

func (e *Editor) run(cmds []tools.Command) error {
	return tools.Run(e.surface, cmds, e.switchTool)
}

func ignoreNotReady(err error) error {
	if errors.Is(err, core.ErrSurfaceNotReady) {
		return nil
	}
	return err
}

func errorMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackError
}
