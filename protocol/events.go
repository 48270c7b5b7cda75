package protocol

import (
	"time"

	"github.com/luminal-ai/agui-gateway/id"
)

// Outbound event type tags. Turn framing events use the uppercase names the
// CopilotKit/AG-UI client expects; the rest are camelCase.
const (
	EventTextMessageStart   = "TEXT_MESSAGE_START"
	EventTextMessageContent = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     = "TEXT_MESSAGE_END"
	EventToolCallStart      = "TOOL_CALL_START"
	EventToolCallResult     = "TOOL_CALL_RESULT"
	EventError              = "error"
	EventAuthSuccess        = "auth_success"
	EventPong               = "pong"
	EventStateUpdate        = "stateUpdate"
	EventSearchResult       = "searchResult"
	EventCommandResult      = "commandResult"
	EventFormSubmitted      = "formSubmitted"
	EventUIContext          = "uiContext"
	EventTaskList           = "taskList"
)

// Stable error codes carried by error events.
const (
	CodeAuthRequired           = "AUTH_REQUIRED"
	CodeInvalidToken           = "INVALID_TOKEN"
	CodePasswordRequired       = "PASSWORD_REQUIRED"
	CodeIncorrectPassword      = "INCORRECT_PASSWORD"
	CodeGuestLimitExceeded     = "GUEST_LIMIT_EXCEEDED"
	CodeEmptyMessage           = "EMPTY_MESSAGE"
	CodeUnknownMessageType     = "UNKNOWN_MESSAGE_TYPE"
	CodeMissingCommand         = "MISSING_COMMAND"
	CodeCommandError           = "COMMAND_ERROR"
	CodeMissingFormID          = "MISSING_FORM_ID"
	CodeFormSubmissionError    = "FORM_SUBMISSION_ERROR"
	CodeEmptyQuery             = "EMPTY_QUERY"
	CodeMissingKBID            = "MISSING_KB_ID"
	CodeSearchError            = "SEARCH_ERROR"
	CodeLLMError               = "LLM_ERROR"
	CodeMessageProcessingError = "MESSAGE_PROCESSING_ERROR"
	CodeInternalError          = "INTERNAL_ERROR"
)

// Event is one outbound protocol message. Concrete events marshal to the
// exact wire shapes; Type() reports the tag for routing and metrics.
type Event interface {
	Type() string
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

type TextMessageStart struct {
	EventType string `json:"type"`
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

type TextMessageContent struct {
	EventType string `json:"type"`
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
	Timestamp int64  `json:"timestamp"`
}

type TextMessageEnd struct {
	EventType string `json:"type"`
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}

type ToolCallStart struct {
	EventType    string         `json:"type"`
	ToolCallID   string         `json:"toolCallId"`
	ToolCallName string         `json:"toolCallName"`
	Args         map[string]any `json:"args"`
	Timestamp    int64          `json:"timestamp"`
}

type ToolCallResult struct {
	EventType  string `json:"type"`
	ToolCallID string `json:"toolCallId"`
	MessageID  string `json:"messageId"`
	Content    string `json:"content"`
	Result     any    `json:"result"`
	Success    bool   `json:"success"`
	Timestamp  int64  `json:"timestamp"`
}

type Error struct {
	EventType string `json:"type"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	// UpgradeURL points guests at the sign-in flow when a limit or an
	// auth gate produced the error.
	UpgradeURL string `json:"upgradeUrl,omitempty"`
	Hint       string `json:"hint,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

type AuthSuccess struct {
	EventType   string   `json:"type"`
	Mode        string   `json:"mode"`
	UserID      int64    `json:"user_id,omitempty"`
	Permissions []string `json:"permissions"`
	Message     string   `json:"message"`
	Timestamp   int64    `json:"timestamp"`
}

type Pong struct {
	EventType string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type StateUpdate struct {
	EventType string         `json:"type"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp int64          `json:"timestamp"`
}

type SearchResult struct {
	EventType string `json:"type"`
	Query     string `json:"query"`
	KBID      string `json:"kb_id"`
	Results   any    `json:"results"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
}

type CommandResult struct {
	EventType string         `json:"type"`
	Command   string         `json:"command"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

type FormSubmitted struct {
	EventType string         `json:"type"`
	FormID    string         `json:"formId"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

type UIContext struct {
	EventType  string         `json:"type"`
	ContextID  string         `json:"contextId"`
	ActiveMode string         `json:"activeMode"`
	UserInfo   map[string]any `json:"userInfo"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

type TaskList struct {
	EventType string         `json:"type"`
	Source    string         `json:"source"`
	Tasks     []any          `json:"tasks"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func (e *TextMessageStart) Type() string   { return e.EventType }
func (e *TextMessageContent) Type() string { return e.EventType }
func (e *TextMessageEnd) Type() string     { return e.EventType }
func (e *ToolCallStart) Type() string      { return e.EventType }
func (e *ToolCallResult) Type() string     { return e.EventType }
func (e *Error) Type() string              { return e.EventType }
func (e *AuthSuccess) Type() string        { return e.EventType }
func (e *Pong) Type() string               { return e.EventType }
func (e *StateUpdate) Type() string        { return e.EventType }
func (e *SearchResult) Type() string       { return e.EventType }
func (e *CommandResult) Type() string      { return e.EventType }
func (e *FormSubmitted) Type() string      { return e.EventType }
func (e *UIContext) Type() string          { return e.EventType }
func (e *TaskList) Type() string           { return e.EventType }

// NewMessageID mints the identifier shared by every framing event of one turn.
func NewMessageID() string { return id.NewMessage() }

// NewToolCallID mints the identifier pairing a TOOL_CALL_START with its result.
func NewToolCallID() string { return id.NewToolCall() }

func NewTextMessageStart(messageID string) *TextMessageStart {
	return &TextMessageStart{EventType: EventTextMessageStart, MessageID: messageID, Timestamp: nowMillis()}
}

func NewTextMessageContent(messageID, delta string) *TextMessageContent {
	return &TextMessageContent{EventType: EventTextMessageContent, MessageID: messageID, Delta: delta, Timestamp: nowMillis()}
}

func NewTextMessageEnd(messageID string) *TextMessageEnd {
	return &TextMessageEnd{EventType: EventTextMessageEnd, MessageID: messageID, Timestamp: nowMillis()}
}

func NewToolCallStart(toolCallID, toolName string, args map[string]any) *ToolCallStart {
	if args == nil {
		args = map[string]any{}
	}
	return &ToolCallStart{EventType: EventToolCallStart, ToolCallID: toolCallID, ToolCallName: toolName, Args: args, Timestamp: nowMillis()}
}

func NewToolCallResult(toolCallID, messageID, content string, result any, success bool) *ToolCallResult {
	return &ToolCallResult{
		EventType:  EventToolCallResult,
		ToolCallID: toolCallID,
		MessageID:  messageID,
		Content:    content,
		Result:     result,
		Success:    success,
		Timestamp:  nowMillis(),
	}
}

// NewError builds an error event. An empty code defaults to INTERNAL_ERROR.
func NewError(message, code string) *Error {
	if code == "" {
		code = CodeInternalError
	}
	return &Error{EventType: EventError, Message: message, Code: code, Timestamp: nowMillis()}
}

func NewAuthSuccess(mode string, userID int64, permissions []string, message string) *AuthSuccess {
	if permissions == nil {
		permissions = []string{}
	}
	return &AuthSuccess{
		EventType:   EventAuthSuccess,
		Mode:        mode,
		UserID:      userID,
		Permissions: permissions,
		Message:     message,
		Timestamp:   nowMillis(),
	}
}

func NewPong() *Pong {
	return &Pong{EventType: EventPong, Timestamp: nowMillis()}
}

func NewStateUpdate(status string, metadata map[string]any) *StateUpdate {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &StateUpdate{EventType: EventStateUpdate, Status: status, Metadata: metadata, Timestamp: nowMillis()}
}

func NewSearchResult(query, kbID string, results any, count int) *SearchResult {
	return &SearchResult{
		EventType: EventSearchResult,
		Query:     query,
		KBID:      kbID,
		Results:   results,
		Count:     count,
		Timestamp: nowMillis(),
	}
}

func NewCommandResult(command string, success bool, message string, data map[string]any) *CommandResult {
	if data == nil {
		data = map[string]any{}
	}
	return &CommandResult{
		EventType: EventCommandResult,
		Command:   command,
		Success:   success,
		Message:   message,
		Data:      data,
		Timestamp: nowMillis(),
	}
}

func NewFormSubmitted(formID string, success bool, message string, metadata map[string]any) *FormSubmitted {
	return &FormSubmitted{
		EventType: EventFormSubmitted,
		FormID:    formID,
		Success:   success,
		Message:   message,
		Metadata:  metadata,
		Timestamp: nowMillis(),
	}
}

func NewUIContext(activeMode string, userInfo, metadata map[string]any) *UIContext {
	if userInfo == nil {
		userInfo = map[string]any{}
	}
	return &UIContext{
		EventType:  EventUIContext,
		ContextID:  id.NewContext(),
		ActiveMode: activeMode,
		UserInfo:   userInfo,
		Metadata:   metadata,
		Timestamp:  nowMillis(),
	}
}

func NewTaskList(source string, tasks []any, metadata map[string]any) *TaskList {
	if tasks == nil {
		tasks = []any{}
	}
	return &TaskList{
		EventType: EventTaskList,
		Source:    source,
		Tasks:     tasks,
		Metadata:  metadata,
		Timestamp: nowMillis(),
	}
}
