package websocket

import (
	"errors"
	"image/color"
	"reflect"
	"testing"

	"doodle-server/core"
	"doodle-server/editor"
	"doodle-server/surface"
)

func TestSetSketchUsers(t *testing.T) {
	sketchesMutex.Lock()
	activeSketches = make(map[string]int)
	sketchesMutex.Unlock()

	setSketchUsers("sketch-1", 2)
	setSketchUsers("sketch-2", 1)
	if got := GetActiveSketches(); got["sketch-1"] != 2 || got["sketch-2"] != 1 {
		t.Errorf("Unexpected active sketches: %v", got)
	}

	setSketchUsers("sketch-1", 0)
	got := GetActiveSketches()
	if _, exists := got["sketch-1"]; exists {
		t.Error("Expected sketch-1 to be removed when empty")
	}

	got["sketch-2"] = 99
	if GetActiveSketches()["sketch-2"] != 1 {
		t.Error("GetActiveSketches must return a copy")
	}
}

func TestExtractAck(t *testing.T) {
	var gotErr error
	var gotPayload map[string]any
	cb := func(err error, payload map[string]any) {
		gotErr = err
		gotPayload = payload
	}

	ack, args := extractAck([]any{"sketch-1", map[string]any{"phase": "down"}, cb})
	if ack == nil {
		t.Fatal("Expected ack to be extracted")
	}
	if len(args) != 2 {
		t.Fatalf("Expected 2 args, got %d", len(args))
	}

	ack(nil, map[string]any{"status": "ok"})
	if gotErr != nil || gotPayload["status"] != "ok" {
		t.Errorf("Unexpected ack call: %v %v", gotErr, gotPayload)
	}

	ack, args = extractAck([]any{"sketch-1"})
	if ack != nil {
		t.Error("Expected no ack for non-function last argument")
	}
	if len(args) != 1 {
		t.Errorf("Expected args to be untouched, got %d", len(args))
	}

	ack, args = extractAck(nil)
	if ack != nil || len(args) != 0 {
		t.Error("Expected nothing from empty datas")
	}
}

func TestWrapAck_SingleArgument(t *testing.T) {
	var got any
	ack := wrapAck(func(v any) { got = v })

	ack(nil, map[string]any{"status": "ok"})
	if m, ok := got.(map[string]any); !ok || m["status"] != "ok" {
		t.Errorf("Expected payload on success, got %v", got)
	}

	boom := errors.New("boom")
	ack(boom, map[string]any{"status": "error"})
	if got != boom {
		t.Errorf("Expected error on failure, got %v", got)
	}
}

func TestCoerceValue(t *testing.T) {
	if v := coerceValue(nil, reflect.TypeOf("")); v.String() != "" {
		t.Errorf("Expected zero string, got %q", v.String())
	}
	if v := coerceValue(42, reflect.TypeOf("")); v.String() != "*" {
		t.Errorf("Expected int to convert to rune string, got %q", v.String())
	}
	if v := coerceValue(errors.New("bad"), reflect.TypeOf("")); v.String() != "bad" {
		t.Errorf("Expected error text, got %q", v.String())
	}

	type payload map[string]string
	v := coerceValue(map[string]any{"status": "ok", "tags": []string{"a"}}, reflect.TypeOf(payload{}))
	m := v.Interface().(payload)
	if m["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", m)
	}
	if _, exists := m["tags"]; exists {
		t.Error("Expected non-convertible value to be skipped")
	}
}

func TestParsePointer(t *testing.T) {
	phase, raw, err := parsePointer(map[string]any{"phase": "move", "x": 12.5, "y": float64(40)})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if phase != surface.PointerMove {
		t.Errorf("Expected move, got %s", phase)
	}
	if raw.ClientX != 12.5 || raw.ClientY != 40 {
		t.Errorf("Unexpected pointer: %+v", raw)
	}

	if _, _, err := parsePointer("down"); err == nil {
		t.Error("Expected error for non-object payload")
	}
	if _, _, err := parsePointer(map[string]any{"phase": "hover", "x": 1.0, "y": 1.0}); err == nil {
		t.Error("Expected error for unknown phase")
	}
	if _, _, err := parsePointer(map[string]any{"phase": "up", "x": "1"}); err == nil {
		t.Error("Expected error for non-numeric coordinates")
	}
}

func TestParseStyle(t *testing.T) {
	current := core.DefaultStyle()

	style, err := parseStyle(current, map[string]any{"strokeColor": "#ff0000"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if style.StrokeColor != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Unexpected colour: %v", style.StrokeColor)
	}
	if style.StrokeWidth != current.StrokeWidth {
		t.Errorf("Width should be unchanged, got %v", style.StrokeWidth)
	}

	style, err = parseStyle(current, map[string]any{"strokeWidth": 12.0})
	if err != nil || style.StrokeWidth != 12 {
		t.Errorf("Unexpected width result: %v %v", style.StrokeWidth, err)
	}

	if _, err := parseStyle(current, map[string]any{"strokeColor": "nope"}); err == nil {
		t.Error("Expected error for invalid colour")
	}
	if _, err := parseStyle(current, map[string]any{"strokeWidth": "wide"}); err == nil {
		t.Error("Expected error for non-numeric width")
	}
}

func TestLookupSketch(t *testing.T) {
	reg := editor.NewRegistry(editor.CanvasFactory())
	e := reg.Create()

	got, err := lookupSketch(reg, []any{e.ID})
	if err != nil || got != e {
		t.Errorf("Expected editor %s, got %v (%v)", e.ID, got, err)
	}
	if _, err := lookupSketch(reg, nil); err == nil {
		t.Error("Expected error for missing id")
	}
	if _, err := lookupSketch(reg, []any{42}); err == nil {
		t.Error("Expected error for non-string id")
	}
	if _, err := lookupSketch(reg, []any{"missing"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPublish_NilServer(t *testing.T) {
	Publish(nil, nil)
}

func TestHandleAction_AcksSuccess(t *testing.T) {
	reg := editor.NewRegistry(editor.CanvasFactory())
	e := reg.Create()

	var gotErr error
	var gotPayload map[string]any
	cb := func(err error, payload map[string]any) {
		gotErr = err
		gotPayload = payload
	}

	handleAction(reg, nil, "select-tool-ack", []any{e.ID, "ellipse", cb}, func(ed *editor.Editor, arg any) error {
		tool, err := core.ParseTool(arg.(string))
		if err != nil {
			return err
		}
		return ed.SelectTool(tool)
	})

	if gotErr != nil || gotPayload["status"] != "ok" {
		t.Errorf("Unexpected ack: %v %v", gotErr, gotPayload)
	}
	if e.State().Tool != core.ToolEllipse {
		t.Errorf("Expected tool ellipse, got %s", e.State().Tool)
	}
}
