package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminal-ai/agui-gateway/protocol"
	"github.com/luminal-ai/agui-gateway/stream"
)

// scriptedStreamer replays a fixed sequence of chunks.
func scriptedStreamer(chunks ...stream.Chunk) stream.Streamer {
	return stream.StreamerFunc(func(ctx context.Context, req stream.Request) <-chan stream.Chunk {
		out := make(chan stream.Chunk, len(chunks))
		for _, c := range chunks {
			out <- c
		}
		close(out)
		return out
	})
}

func collectEvents(t *testing.T, streamer stream.Streamer) (*TurnResult, []protocol.Event) {
	t.Helper()
	var events []protocol.Event
	adapter := NewAdapter(streamer, nil)
	res, err := adapter.Run(context.Background(), stream.Request{UserID: 1, Content: "hi"}, func(ev protocol.Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return res, events
}

func eventTypes(events []protocol.Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type()
	}
	return types
}

func TestAdapterEmptyFragmentsDropped(t *testing.T) {
	_, events := collectEvents(t, scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "a"}},
		stream.Chunk{Element: stream.Text{Value: ""}},
		stream.Chunk{Element: stream.Text{Value: "b"}},
	))

	assert.Equal(t, []string{
		protocol.EventTextMessageStart,
		protocol.EventTextMessageContent,
		protocol.EventTextMessageContent,
		protocol.EventTextMessageEnd,
	}, eventTypes(events))

	assert.Equal(t, "a", events[1].(*protocol.TextMessageContent).Delta)
	assert.Equal(t, "b", events[2].(*protocol.TextMessageContent).Delta)
}

func TestAdapterMessageIDConsistentWithinTurn(t *testing.T) {
	res, events := collectEvents(t, scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "a"}},
		stream.Chunk{Element: stream.Text{Value: "b"}},
	))

	require.True(t, res.Completed)
	assert.Equal(t, "ab", res.Text)

	start := events[0].(*protocol.TextMessageStart)
	assert.Equal(t, res.MessageID, start.MessageID)
	for _, ev := range events[1 : len(events)-1] {
		assert.Equal(t, res.MessageID, ev.(*protocol.TextMessageContent).MessageID)
	}
	end := events[len(events)-1].(*protocol.TextMessageEnd)
	assert.Equal(t, res.MessageID, end.MessageID)
}

func TestAdapterMessageIDDiffersAcrossTurns(t *testing.T) {
	streamer := scriptedStreamer(stream.Chunk{Element: stream.Text{Value: "x"}})
	res1, _ := collectEvents(t, streamer)
	res2, _ := collectEvents(t, streamer)
	assert.NotEqual(t, res1.MessageID, res2.MessageID)
}

func TestAdapterToolCallPairing(t *testing.T) {
	res, events := collectEvents(t, scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "before "}},
		stream.Chunk{Element: stream.ToolNotification{ToolName: "web_search", DisplayText: "Searching..."}},
		stream.Chunk{Element: stream.Text{Value: "after"}},
	))

	assert.Equal(t, []string{
		protocol.EventTextMessageStart,
		protocol.EventTextMessageContent,
		protocol.EventToolCallStart,
		protocol.EventTextMessageContent,
		protocol.EventToolCallResult,
		protocol.EventTextMessageContent,
		protocol.EventTextMessageEnd,
	}, eventTypes(events))

	start := events[2].(*protocol.ToolCallStart)
	result := events[4].(*protocol.ToolCallResult)
	assert.Equal(t, "web_search", start.ToolCallName)
	assert.Equal(t, start.ToolCallID, result.ToolCallID)
	assert.Equal(t, res.MessageID, result.MessageID)
	assert.True(t, result.Success)

	// The display text streams as an ordinary delta and joins the turn text.
	assert.Equal(t, "Searching...", events[3].(*protocol.TextMessageContent).Delta)
	assert.Equal(t, "before Searching...after", res.Text)
}

func TestAdapterFailedToolStillPaired(t *testing.T) {
	_, events := collectEvents(t, scriptedStreamer(
		stream.Chunk{Element: stream.ToolNotification{ToolName: "db_write", Failure: "permission denied"}},
	))

	assert.Equal(t, []string{
		protocol.EventTextMessageStart,
		protocol.EventToolCallStart,
		protocol.EventToolCallResult,
		protocol.EventTextMessageEnd,
	}, eventTypes(events))

	result := events[2].(*protocol.ToolCallResult)
	assert.False(t, result.Success)
	assert.Equal(t, events[1].(*protocol.ToolCallStart).ToolCallID, result.ToolCallID)
	assert.Equal(t, "permission denied", result.Content)
}

func TestAdapterStreamErrorEmitsLLMError(t *testing.T) {
	res, events := collectEvents(t, scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "a"}},
		stream.Chunk{Element: stream.Text{Value: "b"}},
		stream.Chunk{Err: errors.New("model exploded")},
	))

	assert.Equal(t, []string{
		protocol.EventTextMessageStart,
		protocol.EventTextMessageContent,
		protocol.EventTextMessageContent,
		protocol.EventError,
	}, eventTypes(events))

	errEv := events[3].(*protocol.Error)
	assert.Equal(t, protocol.CodeLLMError, errEv.Code)
	assert.NotContains(t, errEv.Message, "exploded")
	assert.False(t, res.Completed)
}

func TestAdapterSanitizesFragments(t *testing.T) {
	res, events := collectEvents(t, scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "<b>bold</b>"}},
		stream.Chunk{Element: stream.Text{Value: "<div></div>"}},
	))

	// The second fragment sanitizes to empty and produces no event.
	assert.Equal(t, []string{
		protocol.EventTextMessageStart,
		protocol.EventTextMessageContent,
		protocol.EventTextMessageEnd,
	}, eventTypes(events))
	assert.Equal(t, "**bold**", res.Text)
}

func TestAdapterEmitFailureStopsTurn(t *testing.T) {
	adapter := NewAdapter(scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "a"}},
	), nil)

	wantErr := errors.New("socket gone")
	_, err := adapter.Run(context.Background(), stream.Request{}, func(protocol.Event) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestGenerateDrainsTextOnly(t *testing.T) {
	adapter := NewAdapter(scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "hello "}},
		stream.Chunk{Element: stream.ToolNotification{ToolName: "x", DisplayText: "ignored"}},
		stream.Chunk{Element: stream.Text{Value: "world"}},
	), nil)

	text, err := adapter.Generate(context.Background(), stream.Request{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestGenerateReturnsStreamError(t *testing.T) {
	adapter := NewAdapter(scriptedStreamer(
		stream.Chunk{Element: stream.Text{Value: "partial"}},
		stream.Chunk{Err: errors.New("boom")},
	), nil)

	_, err := adapter.Generate(context.Background(), stream.Request{})
	assert.Error(t, err)
}
