package sketches

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
	"doodle-server/editor"
	"doodle-server/surface"
)

type (
	// Registry is the set of live sketches.
	Registry interface {
		Create() *editor.Editor
		Get(id string) (*editor.Editor, error)
		List() []editor.Summary
		Delete(id string) error
	}

	ToolRequest struct {
		Tool string `json:"tool"`
	}

	StyleRequest struct {
		StrokeColor *string  `json:"strokeColor"`
		StrokeWidth *float64 `json:"strokeWidth"`
	}

	PromptRequest struct {
		Prompt string `json:"prompt"`
	}

	PointerRequest struct {
		Phase string  `json:"phase"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}

	TextRequest struct {
		Text string `json:"text"`
	}

	GenerateRequest struct {
		Prompt *string `json:"prompt"`
	}

	SnapshotResponse struct {
		DataURL string `json:"dataUrl"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}

	SketchResponse struct {
		ID          string                 `json:"id"`
		Tool        core.Tool              `json:"tool"`
		StrokeColor string                 `json:"strokeColor"`
		StrokeWidth float64                `json:"strokeWidth"`
		Prompt      string                 `json:"prompt"`
		Generating  bool                   `json:"generating"`
		Result      *core.GenerationResult `json:"result,omitempty"`
		Error       string                 `json:"error,omitempty"`
		Objects     []*surface.Object      `json:"objects"`
		Selection   []string               `json:"selection"`
	}
)

// NewSketchResponse renders the editor's state and scene.
func NewSketchResponse(e *editor.Editor) SketchResponse {
	state := e.State()
	objects := e.Objects()
	if objects == nil {
		objects = []*surface.Object{}
	}
	selection := []string{}
	for _, o := range e.Selection() {
		selection = append(selection, o.ID)
	}
	return SketchResponse{
		ID:          e.ID,
		Tool:        state.Tool,
		StrokeColor: core.FormatColor(state.Style.StrokeColor),
		StrokeWidth: state.Style.StrokeWidth,
		Prompt:      state.Prompt,
		Generating:  state.Generating,
		Result:      state.Result,
		Error:       state.Error,
		Objects:     objects,
		Selection:   selection,
	}
}

func lookup(reg Registry, w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	id := chi.URLParam(r, "id")
	e, err := reg.Get(id)
	if err != nil {
		logrus.WithField("sketch", id).Warn("Sketch not found")
		http.Error(w, "Sketch not found", http.StatusNotFound)
		return nil, false
	}
	return e, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logrus.WithField("error", err).Error("Failed to decode request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, e *editor.Editor) {
	render.JSON(w, r, NewSketchResponse(e))
}

// HandleCreate opens a new sketch.
func HandleCreate(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := reg.Create()
		render.Status(r, http.StatusCreated)
		respond(w, r, e)
	}
}

// HandleList lists live sketches, most recently active first.
func HandleList(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, reg.List())
	}
}

func HandleGet(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		respond(w, r, e)
	}
}

func HandleDelete(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := reg.Delete(id); err != nil {
			http.Error(w, "Sketch not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSelectTool(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var req ToolRequest
		if !decode(w, r, &req) {
			return
		}
		tool, err := core.ParseTool(req.Tool)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := e.SelectTool(tool); err != nil {
			logrus.WithField("error", err).Error("Failed to select tool")
			http.Error(w, "Failed to select tool", http.StatusInternalServerError)
			return
		}
		respond(w, r, e)
	}
}

// HandleSetStyle updates the stroke colour, the width, or both.
func HandleSetStyle(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var req StyleRequest
		if !decode(w, r, &req) {
			return
		}
		style := e.State().Style
		if req.StrokeColor != nil {
			c, err := core.ParseColor(*req.StrokeColor)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			style.StrokeColor = c
		}
		if req.StrokeWidth != nil {
			style.StrokeWidth = *req.StrokeWidth
		}
		if err := e.SetStyle(style); err != nil {
			logrus.WithField("error", err).Error("Failed to set style")
			http.Error(w, "Failed to set style", http.StatusInternalServerError)
			return
		}
		respond(w, r, e)
	}
}

func HandleSetPrompt(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var req PromptRequest
		if !decode(w, r, &req) {
			return
		}
		e.SetPrompt(req.Prompt)
		respond(w, r, e)
	}
}

// HandlePointer feeds one pointer event in viewport coordinates.
func HandlePointer(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var req PointerRequest
		if !decode(w, r, &req) {
			return
		}
		phase, err := surface.ParsePhase(req.Phase)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := e.Pointer(phase, surface.RawPointer{ClientX: req.X, ClientY: req.Y}); err != nil {
			logrus.WithField("error", err).Error("Failed to handle pointer event")
			http.Error(w, "Failed to handle pointer event", http.StatusInternalServerError)
			return
		}
		respond(w, r, e)
	}
}

// HandleDeleteSelection removes the selected objects.
func HandleDeleteSelection(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		if err := e.Delete(); err != nil {
			logrus.WithField("error", err).Error("Failed to delete selection")
			http.Error(w, "Failed to delete selection", http.StatusInternalServerError)
			return
		}
		respond(w, r, e)
	}
}

func HandleClear(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		if err := e.Clear(); err != nil {
			logrus.WithField("error", err).Error("Failed to clear sketch")
			http.Error(w, "Failed to clear sketch", http.StatusInternalServerError)
			return
		}
		respond(w, r, e)
	}
}

func HandleEditText(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var req TextRequest
		if !decode(w, r, &req) {
			return
		}
		err := e.EditText(chi.URLParam(r, "objectId"), req.Text)
		switch {
		case errors.Is(err, core.ErrNotFound):
			http.Error(w, "Object not found", http.StatusNotFound)
			return
		case errors.Is(err, core.ErrNotText):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			logrus.WithField("error", err).Error("Failed to edit text")
			http.Error(w, "Failed to edit text", http.StatusInternalServerError)
			return
		}
		respond(w, r, e)
	}
}

// HandleSnapshot exports the canvas. ?format=png|jpeg and ?quality=0..1
// select the encoding; ?encoding=dataurl answers with JSON instead of the
// raw image.
func HandleSnapshot(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		format, err := surface.ParseFormat(q.Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		quality := 1.0
		if s := q.Get("quality"); s != "" {
			if quality, err = strconv.ParseFloat(s, 64); err != nil {
				http.Error(w, "Invalid quality", http.StatusBadRequest)
				return
			}
		}
		dataURL, err := e.Snapshot(format, quality)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to export snapshot")
			http.Error(w, "Failed to export snapshot", http.StatusInternalServerError)
			return
		}
		if q.Get("encoding") == "dataurl" {
			render.JSON(w, r, SnapshotResponse{DataURL: dataURL})
			return
		}
		ct, data, err := core.DecodeDataURL(dataURL)
		if err != nil {
			http.Error(w, "Failed to export snapshot", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	}
}

// HandleGenerate runs a generation with the prompt from the body, or the
// sketch's current prompt when the body has none.
func HandleGenerate(reg Registry, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		prompt := e.State().Prompt
		if req.Prompt != nil {
			prompt = *req.Prompt
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		_, err := e.Generate(ctx, prompt)
		switch {
		case errors.Is(err, core.ErrEmptyPrompt):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: editor.ValidationMessage})
			return
		case errors.Is(err, core.ErrGenerationInProgress):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, ErrorResponse{Error: err.Error()})
			return
		case err != nil:
			logrus.WithFields(logrus.Fields{
				"sketch": e.ID,
				"error":  err,
			}).Error("Generation failed")
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, ErrorResponse{Error: e.State().Error})
			return
		}
		respond(w, r, e)
	}
}

// HandleDownload serves the generated image as an attachment.
func HandleDownload(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := lookup(reg, w, r)
		if !ok {
			return
		}
		f, err := e.Download(r.Context())
		if errors.Is(err, core.ErrNoResult) {
			http.Error(w, "Nothing generated yet", http.StatusNotFound)
			return
		}
		if err != nil {
			logrus.WithField("error", err).Error("Failed to download result")
			http.Error(w, "Failed to download result", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", f.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
		_, _ = w.Write(f.Data)
	}
}
