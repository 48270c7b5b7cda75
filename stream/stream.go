// Package stream defines the contract between the gateway and the agent:
// a lazy, finite, non-restartable sequence of typed elements.
package stream

import "context"

// Element is one item produced by the agent during a turn: either a text
// fragment or a notification that a tool ran.
type Element interface {
	element()
}

// Text is a raw fragment of the agent's reply. Empty fragments are legal on
// the producer side and dropped by the consumer.
type Text struct {
	Value string
}

// ToolNotification reports that the agent invoked a tool. The source system
// treats execution as already complete when the notification arrives, so
// there is no separate completion signal. Failure is non-empty when the tool
// ran and failed; the notification still arrives so the client sees the
// start/result pair.
type ToolNotification struct {
	ToolName    string
	DisplayText string
	Failure     string
}

func (Text) element()             {}
func (ToolNotification) element() {}

// Chunk carries one element or a terminal production error. After a Chunk
// with Err set, the channel is closed and no further elements follow.
type Chunk struct {
	Element Element
	Err     error
}

// Request describes one conversational turn to generate.
type Request struct {
	UserID   int64
	Content  string
	ThreadID string
}

// Streamer produces the agent's output for one turn. The returned channel is
// closed when the turn completes or fails; cancelling ctx must stop
// production promptly. A stream cannot be restarted or resumed.
type Streamer interface {
	Stream(ctx context.Context, req Request) <-chan Chunk
}

// StreamerFunc adapts a function to the Streamer interface.
type StreamerFunc func(ctx context.Context, req Request) <-chan Chunk

func (f StreamerFunc) Stream(ctx context.Context, req Request) <-chan Chunk {
	return f(ctx, req)
}
