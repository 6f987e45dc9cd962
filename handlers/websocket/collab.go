package websocket

import (
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"doodle-server/core"
	"doodle-server/editor"
	"doodle-server/handlers/api/sketches"
	"doodle-server/surface"
)

type ackInvoker func(err error, payload map[string]any)

// Registry resolves sketch ids to live editors.
type Registry interface {
	Get(id string) (*editor.Editor, error)
}

var (
	activeSketches = make(map[string]int)
	sketchesMutex  sync.RWMutex
)

// GetActiveSketches returns the number of connected sockets per sketch.
func GetActiveSketches() map[string]int {
	sketchesMutex.RLock()
	defer sketchesMutex.RUnlock()

	out := make(map[string]int, len(activeSketches))
	for k, v := range activeSketches {
		out[k] = v
	}
	return out
}

func setSketchUsers(sketchID string, n int) {
	sketchesMutex.Lock()
	defer sketchesMutex.Unlock()
	if n <= 0 {
		delete(activeSketches, sketchID)
		return
	}
	activeSketches[sketchID] = n
}

// Publish pushes the sketch's current state to every socket in its room.
func Publish(srv *socketio.Server, e *editor.Editor) {
	if srv == nil || e == nil {
		return
	}
	_ = srv.To(socketio.Room(e.ID)).Emit("sketch-updated", sketches.NewSketchResponse(e))
}

func SetupSocketIO(reg Registry) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin:      []any{localhostOrigin},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		me := socket.Id()
		utils.Log().Printf("socket %v connected\n", me)

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-sketch", func(datas ...any) {
			ack, args := extractAck(datas)
			e, err := lookupSketch(reg, args)
			if err != nil {
				respondWithAck(socket, ack, "join-sketch-ack", errorPayload(err), err)
				return
			}

			room := socketio.Room(e.ID)
			socket.Join(room)
			utils.Log().Printf("socket %v has joined sketch %v\n", me, room)

			srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, fetchErr error) {
				if fetchErr != nil {
					respondWithAck(socket, ack, "join-sketch-ack", errorPayload(fetchErr), fetchErr)
					return
				}
				setSketchUsers(e.ID, len(users))
				respondWithAck(socket, ack, "join-sketch-ack", map[string]any{
					"status":     "ok",
					"user_count": len(users),
					"sketch":     sketches.NewSketchResponse(e),
				}, nil)
			})
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("leave-sketch", func(datas ...any) {
			ack, args := extractAck(datas)
			if len(args) == 0 {
				err := fmt.Errorf("sketch id is required")
				respondWithAck(socket, ack, "", errorPayload(err), err)
				return
			}
			sketchID, _ := args[0].(string)
			room := socketio.Room(sketchID)
			socket.Leave(room)
			srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
				setSketchUsers(sketchID, len(users))
			})
			respondWithAck(socket, ack, "", map[string]any{"status": "ok"}, nil)
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("pointer", func(datas ...any) {
			handleAction(reg, socket, "pointer-ack", datas, func(e *editor.Editor, arg any) error {
				phase, raw, err := parsePointer(arg)
				if err != nil {
					return err
				}
				return e.Pointer(phase, raw)
			})
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("select-tool", func(datas ...any) {
			handleAction(reg, socket, "select-tool-ack", datas, func(e *editor.Editor, arg any) error {
				name, _ := arg.(string)
				tool, err := core.ParseTool(name)
				if err != nil {
					return err
				}
				return e.SelectTool(tool)
			})
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("set-style", func(datas ...any) {
			handleAction(reg, socket, "set-style-ack", datas, func(e *editor.Editor, arg any) error {
				style, err := parseStyle(e.State().Style, arg)
				if err != nil {
					return err
				}
				return e.SetStyle(style)
			})
		})

		socket.On("disconnecting", func(datas ...any) {
			for _, currentRoom := range socket.Rooms().Keys() {
				if string(currentRoom) == string(me) {
					continue
				}
				sketchID := string(currentRoom)
				srv.In(currentRoom).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
					others := 0
					for _, user := range users {
						if user.Id() != me {
							others++
						}
					}
					utils.Log().Printf("disconnecting %v from sketch %v\n", me, currentRoom)
					setSketchUsers(sketchID, others)
				})
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv
}

// handleAction resolves the sketch named by the first argument and applies
// fn with the second. A trailing function argument is the client's ack: it
// receives (nil, {"status": "ok"}) on success, and on failure the error with
// {"status": "error", "error": msg}, which is also emitted as event. The new
// state itself reaches every socket in the room through sketch-updated.
func handleAction(reg Registry, socket *socketio.Socket, event string, datas []any, fn func(*editor.Editor, any) error) {
	ack, args := extractAck(datas)
	e, err := lookupSketch(reg, args)
	if err != nil {
		respondWithAck(socket, ack, event, errorPayload(err), err)
		return
	}
	var arg any
	if len(args) > 1 {
		arg = args[1]
	}
	if err := fn(e, arg); err != nil {
		respondWithAck(socket, ack, event, errorPayload(err), err)
		return
	}
	if ack != nil {
		ack(nil, map[string]any{"status": "ok"})
	}
}

func lookupSketch(reg Registry, args []any) (*editor.Editor, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("sketch id is required")
	}
	sketchID, ok := args[0].(string)
	if !ok || sketchID == "" {
		return nil, fmt.Errorf("invalid sketch id")
	}
	return reg.Get(sketchID)
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
	}
}

func parsePointer(arg any) (surface.Phase, surface.RawPointer, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return "", surface.RawPointer{}, fmt.Errorf("pointer payload must be an object")
	}
	name, _ := m["phase"].(string)
	phase, err := surface.ParsePhase(name)
	if err != nil {
		return "", surface.RawPointer{}, err
	}
	x, okX := number(m["x"])
	y, okY := number(m["y"])
	if !okX || !okY {
		return "", surface.RawPointer{}, fmt.Errorf("pointer x and y must be numbers")
	}
	return phase, surface.RawPointer{ClientX: x, ClientY: y}, nil
}

func parseStyle(current core.Style, arg any) (core.Style, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return current, fmt.Errorf("style payload must be an object")
	}
	if v, exists := m["strokeColor"]; exists {
		s, _ := v.(string)
		c, err := core.ParseColor(s)
		if err != nil {
			return current, err
		}
		current.StrokeColor = c
	}
	if v, exists := m["strokeWidth"]; exists {
		w, ok := number(v)
		if !ok {
			return current, fmt.Errorf("strokeWidth must be a number")
		}
		current.StrokeWidth = w
	}
	return current, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// extractAck splits a trailing Socket.IO ack callback off the event args.
func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	candidate := datas[len(datas)-1]
	ack = wrapAck(candidate)
	if ack == nil {
		return nil, datas
	}

	return ack, datas[:len(datas)-1]
}

func wrapAck(candidate any) ackInvoker {
	if candidate == nil {
		return nil
	}

	value := reflect.ValueOf(candidate)
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil
	}

	typ := value.Type()
	return func(err error, payload map[string]any) {
		args := buildAckArgs(typ, err, payload)
		value.Call(args)
	}
}

func buildAckArgs(typ reflect.Type, err error, payload map[string]any) []reflect.Value {
	numIn := typ.NumIn()
	args := make([]reflect.Value, numIn)

	for i := 0; i < numIn; i++ {
		var argValue any
		switch {
		case numIn == 1:
			if err != nil {
				argValue = err
			} else {
				argValue = payload
			}
		case i == 0:
			argValue = err
		case i == 1:
			argValue = payload
		}
		args[i] = coerceValue(argValue, typ.In(i))
	}

	return args
}

func coerceValue(value any, targetType reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(targetType)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(targetType) {
		return rv
	}
	if rv.Type().ConvertibleTo(targetType) {
		return rv.Convert(targetType)
	}
	if targetType.Kind() == reflect.Interface {
		if rv.Type().Implements(targetType) || targetType.NumMethod() == 0 {
			return rv
		}
	}
	if targetType.Kind() == reflect.String {
		return reflect.ValueOf(fmt.Sprint(value)).Convert(targetType)
	}
	if targetType.Kind() == reflect.Map && targetType.Key().Kind() == reflect.String {
		if payload, ok := value.(map[string]any); ok {
			return convertMap(payload, targetType)
		}
	}

	return reflect.Zero(targetType)
}

func convertMap(source map[string]any, targetType reflect.Type) reflect.Value {
	result := reflect.MakeMapWithSize(targetType, len(source))
	for key, val := range source {
		keyValue := reflect.ValueOf(key).Convert(targetType.Key())
		valueValue := reflect.ValueOf(val)
		if !valueValue.IsValid() {
			continue
		}
		if !valueValue.Type().AssignableTo(targetType.Elem()) {
			if valueValue.Type().ConvertibleTo(targetType.Elem()) {
				valueValue = valueValue.Convert(targetType.Elem())
			} else if targetType.Elem().Kind() != reflect.Interface {
				continue
			}
		}
		result.SetMapIndex(keyValue, valueValue)
	}
	return result
}

func respondWithAck(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}

	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}
