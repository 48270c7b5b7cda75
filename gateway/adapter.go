package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luminal-ai/agui-gateway/markdown"
	"github.com/luminal-ai/agui-gateway/protocol"
	"github.com/luminal-ai/agui-gateway/stream"
)

// Adapter drives the agent's output stream for one conversational turn and
// emits the framed event sequence: one TEXT_MESSAGE_START, an ordered mix of
// content deltas and tool start/result pairs, then exactly one terminal event
// (TEXT_MESSAGE_END, or an LLM_ERROR error event when the stream fails).
type Adapter struct {
	streamer stream.Streamer
	log      *slog.Logger
}

func NewAdapter(streamer stream.Streamer, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{streamer: streamer, log: log}
}

// TurnResult is what one adapter run produced. Completed is false when the
// turn ended with an LLM_ERROR event instead of TEXT_MESSAGE_END.
type TurnResult struct {
	MessageID string
	Text      string
	Completed bool
}

// Run streams one turn through emit and returns the accumulated sanitized
// text. The returned error is non-nil only when emit itself fails (the
// transport is gone); agent failures are reported to the client as an
// LLM_ERROR event and do not propagate.
//
// Every event of the turn carries the same fresh message id. A tool
// notification produces its start and result back to back: the agent reports
// tools only after they already ran, there is no separate completion signal
// to await.
func (a *Adapter) Run(ctx context.Context, req stream.Request, emit func(protocol.Event) error) (*TurnResult, error) {
	res := &TurnResult{MessageID: protocol.NewMessageID()}
	if err := emit(protocol.NewTextMessageStart(res.MessageID)); err != nil {
		return res, err
	}

	for chunk := range a.streamer.Stream(ctx, req) {
		if chunk.Err != nil {
			a.log.Error("agent stream failed", "error", chunk.Err, "message_id", res.MessageID)
			if err := emit(protocol.NewError("The assistant could not complete this response.", protocol.CodeLLMError)); err != nil {
				return res, err
			}
			return res, nil
		}

		switch el := chunk.Element.(type) {
		case stream.Text:
			delta := markdown.Sanitize(el.Value)
			if delta == "" {
				continue
			}
			res.Text += delta
			if err := emit(protocol.NewTextMessageContent(res.MessageID, delta)); err != nil {
				return res, err
			}
		case stream.ToolNotification:
			if err := a.emitToolPair(el, res, emit); err != nil {
				return res, err
			}
		}
	}

	if err := emit(protocol.NewTextMessageEnd(res.MessageID)); err != nil {
		return res, err
	}
	res.Completed = true
	return res, nil
}

func (a *Adapter) emitToolPair(tn stream.ToolNotification, res *TurnResult, emit func(protocol.Event) error) error {
	toolCallID := protocol.NewToolCallID()
	if err := emit(protocol.NewToolCallStart(toolCallID, tn.ToolName, nil)); err != nil {
		return err
	}

	if tn.DisplayText != "" {
		delta := markdown.Sanitize(tn.DisplayText)
		if delta != "" {
			res.Text += delta
			if err := emit(protocol.NewTextMessageContent(res.MessageID, delta)); err != nil {
				return err
			}
		}
	}

	content := tn.DisplayText
	result := map[string]any{"status": "executed"}
	success := true
	if tn.Failure != "" {
		content = tn.Failure
		result = map[string]any{"status": "failed", "error": tn.Failure}
		success = false
	}
	if content == "" {
		content = fmt.Sprintf("Tool %s executed", tn.ToolName)
	}
	return emit(protocol.NewToolCallResult(toolCallID, res.MessageID, content, result, success))
}

// Generate drains one turn without emitting events and returns the final
// concatenated text, dropping tool notifications. Used when a caller needs
// the full reply synchronously.
func (a *Adapter) Generate(ctx context.Context, req stream.Request) (string, error) {
	var accumulated string
	for chunk := range a.streamer.Stream(ctx, req) {
		if chunk.Err != nil {
			return accumulated, fmt.Errorf("agent stream: %w", chunk.Err)
		}
		if text, ok := chunk.Element.(stream.Text); ok {
			accumulated += markdown.Sanitize(text.Value)
		}
	}
	return accumulated, nil
}
