package shortlog

import (
	"encoding/json"
	"io"
	"sync"
)

// EventRowSelected is the type of the event sent when a row is selected.
const EventRowSelected = "shortlog_row_selected"

// Event is what the widget reports back to its host.
type Event struct {
	Type     string `json:"type"`
	RowIndex int    `json:"rowIndex"` // index in the host's row sequence
	Row      Row    `json:"row"`
}

// Host receives widget events. Emit may be called from a timer goroutine.
type Host interface {
	Emit(Event)
}

// HostFunc adapts a function to Host.
type HostFunc func(Event)

// Emit calls f(e).
func (f HostFunc) Emit(e Event) { f(e) }

// JSONHost writes each event as one JSON line.
type JSONHost struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONHost returns a host writing events to w.
func NewJSONHost(w io.Writer) *JSONHost {
	return &JSONHost{enc: json.NewEncoder(w)}
}

// Emit writes e. The first write error is kept and later events dropped.
func (h *JSONHost) Emit(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return
	}
	h.err = h.enc.Encode(e)
}

// Err returns the first write error.
func (h *JSONHost) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}
