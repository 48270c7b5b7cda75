// Package protocol defines the wire format spoken over the chat WebSocket:
// inbound client envelopes and outbound AG-UI events.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound envelope type tags.
const (
	TypeAuth        = "auth"
	TypeUserMessage = "user_message"
	TypeCommand     = "command"
	TypeFormSubmit  = "form_submit"
	TypeSearchKB    = "search_kb"
	TypePing        = "ping"
)

// Inbound is one JSON envelope received from the client. The concrete type
// carries the payload; Tag reports the wire tag it was decoded from.
type Inbound interface {
	Tag() string
}

type Auth struct {
	Token string `json:"token"`
	// Password is optional on the wire; nil means "not provided", which
	// the password gate treats differently from an empty attempt.
	Password *string `json:"password,omitempty"`
}

type UserMessage struct {
	Content  string `json:"content"`
	ThreadID string `json:"threadId,omitempty"`
}

type Command struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type FormSubmit struct {
	FormID   string         `json:"formId"`
	FormData map[string]any `json:"formData"`
}

type SearchKB struct {
	Query        string `json:"query"`
	KBID         string `json:"kb_id"`
	SearchMethod string `json:"search_method,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
}

type Ping struct{}

func (Auth) Tag() string        { return TypeAuth }
func (UserMessage) Tag() string { return TypeUserMessage }
func (Command) Tag() string     { return TypeCommand }
func (FormSubmit) Tag() string  { return TypeFormSubmit }
func (SearchKB) Tag() string    { return TypeSearchKB }
func (Ping) Tag() string        { return TypePing }

// UnknownTypeError reports an envelope whose type tag has no handler.
// Unknown tags are rejected, not ignored.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type: %q", e.Type)
}

// Decode parses one client envelope and returns its typed payload.
func Decode(data []byte) (Inbound, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch probe.Type {
	case TypeAuth:
		var m Auth
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode auth: %w", err)
		}
		return &m, nil
	case TypeUserMessage:
		var m UserMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode user_message: %w", err)
		}
		return &m, nil
	case TypeCommand:
		var m Command
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}
		return &m, nil
	case TypeFormSubmit:
		var m FormSubmit
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode form_submit: %w", err)
		}
		return &m, nil
	case TypeSearchKB:
		var m SearchKB
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode search_kb: %w", err)
		}
		return &m, nil
	case TypePing:
		return &Ping{}, nil
	default:
		return nil, &UnknownTypeError{Type: probe.Type}
	}
}

func (a *Auth) PasswordAttempt() (string, bool) {
	if a.Password == nil {
		return "", false
	}
	return *a.Password, true
}
