package bridge

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/weft-ui/weft/internal/errors"
)

// Frame kinds.
const (
	KindEvent = "event"
	KindPing  = "ping"
)

// Reply statuses.
const (
	StatusOK      = "ok"
	StatusHandler = "handler_error"
	StatusInvalid = "invalid"
	StatusPong    = "pong"
)

// Frame is one inbound message:
//
//	{"id":"7","kind":"event","type":"click","hid":"h1","bubbles":true}
//
// kind defaults to "event". bubbles and cancelable default to true,
// composed to false.
type Frame struct {
	ID         string
	Kind       string
	Type       string
	HID        string
	Bubbles    bool
	Cancelable bool
	Composed   bool
	Detail     any
}

// DecodeFrame parses and validates a frame.
func DecodeFrame(msg []byte) (Frame, error) {
	if !gjson.ValidBytes(msg) {
		return Frame{}, errors.New("W080").WithDetail("The frame is not valid JSON.")
	}
	r := gjson.ParseBytes(msg)
	if !r.IsObject() {
		return Frame{}, errors.New("W080").WithDetail("The frame must be a JSON object.")
	}

	f := Frame{
		ID:         r.Get("id").String(),
		Kind:       r.Get("kind").String(),
		Type:       r.Get("type").String(),
		HID:        r.Get("hid").String(),
		Bubbles:    boolOr(r.Get("bubbles"), true),
		Cancelable: boolOr(r.Get("cancelable"), true),
		Composed:   boolOr(r.Get("composed"), false),
	}
	if d := r.Get("detail"); d.Exists() {
		f.Detail = d.Value()
	}
	if f.Kind == "" {
		f.Kind = KindEvent
	}

	switch f.Kind {
	case KindEvent:
		if f.Type == "" {
			return f, errors.New("W080").WithAttr("field", "type")
		}
		if f.HID == "" {
			return f, errors.New("W080").WithAttr("field", "hid")
		}
	case KindPing:
	default:
		return f, errors.New("W082").WithAttr("kind", f.Kind)
	}
	return f, nil
}

func boolOr(r gjson.Result, def bool) bool {
	if !r.Exists() {
		return def
	}
	return r.Bool()
}

// Reply is the outbound answer to a frame.
type Reply struct {
	ID     string
	Status string

	// Code and Message describe a rejected frame.
	Code    string
	Message string

	// DefaultPrevented reports whether a handler canceled the event.
	DefaultPrevented bool

	// Errors are the handler errors observed during the turn, the
	// synchronous one first.
	Errors []string
}

// Encode renders the reply as JSON.
func (r Reply) Encode() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, v)
		}
	}

	if r.ID != "" {
		set("id", r.ID)
	}
	set("status", r.Status)
	if r.Code != "" {
		set("code", r.Code)
		set("message", r.Message)
	}
	if r.Status == StatusOK || r.Status == StatusHandler {
		set("defaultPrevented", r.DefaultPrevented)
	}
	for _, msg := range r.Errors {
		set("errors.-1", msg)
	}
	return out, err
}

// rejection builds the reply for a frame that could not be dispatched.
func rejection(id string, err error) Reply {
	reply := Reply{ID: id, Status: StatusInvalid, Message: err.Error()}
	if we := errors.FromError(err, "W080"); we != nil {
		reply.Code = we.Code
		reply.Message = we.FormatCompact()
	}
	return reply
}
