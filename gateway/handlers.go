package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luminal-ai/agui-gateway/protocol"
	"github.com/luminal-ai/agui-gateway/store"
	"github.com/luminal-ai/agui-gateway/stream"
)

// commandModes maps commands to the UI mode they activate. Unlisted commands
// keep the client in chat mode.
var commandModes = map[string]string{
	"start":   "start",
	"chat":    "chat",
	"tasks":   "tasks",
	"profile": "profile",
	"groups":  "groups",
	"catalog": "catalog",
}

func commandToMode(command string) string {
	if mode, ok := commandModes[strings.ToLower(command)]; ok {
		return mode
	}
	return "chat"
}

func (l *SessionLoop) handleUserMessage(ctx context.Context, m *protocol.UserMessage) {
	if m.Content == "" {
		l.sendError("Message content cannot be empty", protocol.CodeEmptyMessage)
		return
	}

	if l.session.IsGuest() && l.deps.Quota != nil {
		allowed, err := l.deps.Quota.CheckAndIncrement(ctx, l.session)
		if err != nil {
			l.log.Error("ws: quota check failed", "error", err)
			l.sendError("Failed to process message", protocol.CodeMessageProcessingError)
			return
		}
		if !allowed {
			GuestLimitRejections.Inc()
			l.sendErrorUpgrade(
				fmt.Sprintf("Guest message limit (%d) reached. Please sign in for unlimited messages.", l.deps.Quota.Limit()),
				protocol.CodeGuestLimitExceeded)
			return
		}
	}

	l.sendUIContext(ctx, "chat")

	start := time.Now()
	res, err := l.deps.Adapter.Run(ctx, stream.Request{
		UserID:   l.session.UserID,
		Content:  m.Content,
		ThreadID: m.ThreadID,
	}, l.emit)
	TurnDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// Only the transport fails this way; the loop will notice on the
		// next read.
		l.log.Info("ws: turn write failed", "error", err)
		return
	}

	if res.Completed {
		l.saveTurn(ctx, m, res)
	}
	l.sendTaskList(ctx, "chatbot_start", false)
}

// saveTurn persists the completed reply. Guests are ephemeral and failures
// never surface to the client.
func (l *SessionLoop) saveTurn(ctx context.Context, m *protocol.UserMessage, res *TurnResult) {
	if l.deps.Turns == nil || l.session.IsGuest() {
		return
	}
	err := l.deps.Turns.SaveTurn(ctx, &store.Turn{
		MessageID: res.MessageID,
		ThreadID:  m.ThreadID,
		UserID:    l.session.UserID,
		UserText:  m.Content,
		AgentText: res.Text,
	})
	if err != nil {
		l.log.Error("ws: turn persistence failed", "error", err, "message_id", res.MessageID)
	}
}

func (l *SessionLoop) handleCommand(ctx context.Context, m *protocol.Command) {
	if m.Command == "" {
		l.sendError("Command is required", protocol.CodeMissingCommand)
		return
	}

	mode := commandToMode(m.Command)
	l.sendUIContext(ctx, mode)

	l.send(protocol.NewStateUpdate("processing", map[string]any{
		"message": "Executing command: " + m.Command,
	}))

	if l.deps.Commands == nil {
		l.sendError("Command execution failed", protocol.CodeCommandError)
		return
	}
	outcome, err := l.deps.Commands.Execute(ctx, l.session.UserID, l.session.IsGuest(), m.Command, m.Parameters)
	if err != nil {
		l.log.Error("ws: command failed", "command", m.Command, "error", err)
		l.sendError("Command execution failed", protocol.CodeCommandError)
		return
	}

	l.send(protocol.NewCommandResult(m.Command, outcome.Success, outcome.Message, outcome.Data))

	status := "complete"
	if !outcome.Success {
		status = "error"
	}
	message := outcome.Message
	if message == "" {
		message = "Command executed"
	}
	l.send(protocol.NewStateUpdate(status, map[string]any{
		"message": message,
		"command": m.Command,
	}))

	l.sendTaskList(ctx, "chatbot_start", mode == "start" || mode == "tasks")
}

func (l *SessionLoop) handleFormSubmit(ctx context.Context, m *protocol.FormSubmit) {
	if m.FormID == "" {
		l.sendError("Form ID is required", protocol.CodeMissingFormID)
		return
	}

	// Onboarding forms are the one thing a guest may submit.
	isOnboarding := strings.HasPrefix(m.FormID, "onboarding_")
	if l.session.IsGuest() && !isOnboarding {
		l.sendErrorUpgrade("Authentication required to submit forms. Please sign in.", protocol.CodeAuthRequired)
		return
	}

	l.send(protocol.NewStateUpdate("processing", map[string]any{
		"message": "Submitting form...",
	}))

	if l.deps.Forms == nil {
		l.sendError("Failed to submit form", protocol.CodeFormSubmissionError)
		return
	}
	outcome, err := l.deps.Forms.Submit(ctx, l.session.UserID, m.FormID, m.FormData)
	if err != nil {
		l.log.Error("ws: form submission failed", "form_id", m.FormID, "error", err)
		l.sendError("Failed to submit form", protocol.CodeFormSubmissionError)
		return
	}

	l.send(protocol.NewFormSubmitted(m.FormID, outcome.Success, outcome.Message, outcome.Metadata))

	status := "complete"
	if !outcome.Success {
		status = "error"
	}
	l.send(protocol.NewStateUpdate(status, map[string]any{
		"message": outcome.Message,
	}))

	if isOnboarding {
		l.sendUIContext(ctx, "start")
	} else {
		l.sendTaskList(ctx, "chatbot_start", true)
	}
}

func (l *SessionLoop) handleSearch(ctx context.Context, m *protocol.SearchKB) {
	if m.Query == "" {
		l.sendError("Search query cannot be empty", protocol.CodeEmptyQuery)
		return
	}
	if m.KBID == "" {
		l.sendError("Knowledge base ID is required", protocol.CodeMissingKBID)
		return
	}

	method := m.SearchMethod
	if method == "" {
		method = store.SearchMethodText
	}
	maxResults := m.MaxResults
	if maxResults <= 0 {
		maxResults = store.DefaultMaxResults
	}

	l.send(protocol.NewStateUpdate("searching", map[string]any{
		"message": "Searching knowledge base...",
	}))

	if l.deps.Search == nil {
		l.sendError("Search failed", protocol.CodeSearchError)
		return
	}
	hits, err := l.deps.Search.SearchKB(ctx, m.KBID, m.Query, method, maxResults)
	if err != nil {
		l.log.Error("ws: search failed", "kb_id", m.KBID, "error", err)
		l.sendError("Search failed", protocol.CodeSearchError)
		return
	}
	if hits == nil {
		hits = []store.SearchHit{}
	}

	l.send(protocol.NewSearchResult(m.Query, m.KBID, hits, len(hits)))
	l.send(protocol.NewStateUpdate("complete", map[string]any{
		"message": fmt.Sprintf("Found %d results", len(hits)),
	}))
}
