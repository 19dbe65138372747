package storefront

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/payment"
)

// Mode tells the transport how to deliver a view
type Mode string

const (
	ModeReply  Mode = "reply"  // send a new message
	ModeEdit   Mode = "edit"   // replace the message the action came from
	ModeDelete Mode = "delete" // remove the message the action came from
)

// Button is an inline button carrying a callback payload
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// View is one message-level output of the storefront
type View struct {
	Mode    Mode             `json:"mode"`
	Text    string           `json:"text,omitempty"`
	Buttons [][]Button       `json:"buttons,omitempty"`
	Photos  []string         `json:"photos,omitempty"`
	Invoice *payment.Invoice `json:"invoice,omitempty"`
}

// Sink delivers views to a user through some transport
type Sink interface {
	Send(ctx context.Context, userID int64, view View) error
}

// Collector is a Sink that keeps the views in memory, in order
type Collector struct {
	mu    sync.Mutex
	views []View
}

// NewCollector creates an empty Collector
func NewCollector() *Collector {
	return &Collector{}
}

// Send implements Sink
func (c *Collector) Send(_ context.Context, _ int64, view View) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = append(c.views, view)
	return nil
}

// Views returns the collected views
func (c *Collector) Views() []View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]View(nil), c.views...)
}

// sinkError marks failures of the transport, the only errors Handle returns
type sinkError struct {
	err error
}

func (e *sinkError) Error() string { return "send view: " + e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

func reply(text string, rows ...[]Button) View {
	return View{Mode: ModeReply, Text: text, Buttons: rows}
}

func edit(text string, rows ...[]Button) View {
	return View{Mode: ModeEdit, Text: text, Buttons: rows}
}

func row(buttons ...Button) []Button {
	return buttons
}
