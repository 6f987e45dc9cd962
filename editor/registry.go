package editor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
	"doodle-server/surface"
)

// Factory builds the editor for a new sketch id.
type Factory func(id string) *Editor

// CanvasFactory returns a Factory that backs each editor with a fresh,
// initialised raster canvas.
func CanvasFactory(opts ...Option) Factory {
	return func(id string) *Editor {
		c := surface.NewCanvas(surface.WithIDs(newObjectID))
		c.Init()
		return New(id, c, opts...)
	}
}

// Summary describes a live editor.
type Summary struct {
	ID         string    `json:"id"`
	Objects    int       `json:"objects"`
	Tool       core.Tool `json:"tool"`
	Generating bool      `json:"generating"`
	LastActive time.Time `json:"lastActive"`
}

// Registry holds the live editors keyed by sketch id.
type Registry struct {
	mu      sync.RWMutex
	editors map[string]*Editor
	factory Factory
	now     func() time.Time
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		editors: make(map[string]*Editor),
		factory: factory,
		now:     time.Now,
	}
}

// Create opens a new editor under a fresh ULID.
func (r *Registry) Create() *Editor {
	id := ulid.Make().String()
	e := r.factory(id)
	r.mu.Lock()
	r.editors[id] = e
	r.mu.Unlock()
	logrus.WithField("sketch", id).Info("sketch created")
	return e
}

func (r *Registry) Get(id string) (*Editor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.editors[id]
	if !ok {
		return nil, fmt.Errorf("sketch %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

// List returns every editor, most recently active first.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	editors := make([]*Editor, 0, len(r.editors))
	for _, e := range r.editors {
		editors = append(editors, e)
	}
	r.mu.RUnlock()

	list := make([]Summary, 0, len(editors))
	for _, e := range editors {
		state := e.State()
		list = append(list, Summary{
			ID:         e.ID,
			Objects:    len(e.Objects()),
			Tool:       state.Tool,
			Generating: state.Generating,
			LastActive: e.LastActive(),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastActive.Equal(list[j].LastActive) {
			return list[i].ID < list[j].ID
		}
		return list[i].LastActive.After(list[j].LastActive)
	})
	return list
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.editors[id]; !ok {
		return fmt.Errorf("sketch %s: %w", id, core.ErrNotFound)
	}
	delete(r.editors, id)
	logrus.WithField("sketch", id).Info("sketch deleted")
	return nil
}

// Sweep drops editors idle for longer than maxIdle. Editors with a
// generation in flight are kept.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int
	for id, e := range r.editors {
		if e.State().Generating || e.LastActive().After(cutoff) {
			continue
		}
		delete(r.editors, id)
		removed++
	}
	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"removed": removed,
			"maxIdle": maxIdle,
		}).Info("swept idle sketches")
	}
	return removed
}
