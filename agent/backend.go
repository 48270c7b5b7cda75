package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/luminal-ai/agui-gateway/gateway"
	"github.com/luminal-ai/agui-gateway/protocol"
)

// postJSON issues one request/response call against a sibling endpoint of
// the agent service and decodes the JSON reply into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxLineSize))
		return fmt.Errorf("agent returned status %d for %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Execute implements gateway.CommandExecutor.
func (c *Client) Execute(ctx context.Context, userID int64, isGuest bool, command string, parameters map[string]any) (*gateway.CommandOutcome, error) {
	var reply struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	err := c.postJSON(ctx, "/commands", map[string]any{
		"user_id":    userID,
		"is_guest":   isGuest,
		"command":    command,
		"parameters": parameters,
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("execute command %q: %w", command, err)
	}
	return &gateway.CommandOutcome{Success: reply.Success, Message: reply.Message, Data: reply.Data}, nil
}

// Submit implements gateway.FormSubmitter.
func (c *Client) Submit(ctx context.Context, userID int64, formID string, formData map[string]any) (*gateway.FormOutcome, error) {
	var reply struct {
		Success  bool           `json:"success"`
		Message  string         `json:"message"`
		Metadata map[string]any `json:"metadata"`
	}
	err := c.postJSON(ctx, "/forms", map[string]any{
		"user_id":   userID,
		"form_id":   formID,
		"form_data": formData,
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("submit form %q: %w", formID, err)
	}
	return &gateway.FormOutcome{Success: reply.Success, Message: reply.Message, Metadata: reply.Metadata}, nil
}

// UIContext implements gateway.UIEventSource. The agent may answer with an
// empty body section, which maps to no event.
func (c *Client) UIContext(ctx context.Context, userID int64, activeMode string, isGuest bool) (*protocol.UIContext, error) {
	var reply struct {
		UserInfo map[string]any `json:"user_info"`
		Metadata map[string]any `json:"metadata"`
		Skip     bool           `json:"skip"`
	}
	err := c.postJSON(ctx, "/ui-context", map[string]any{
		"user_id":     userID,
		"active_mode": activeMode,
		"is_guest":    isGuest,
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("build ui context: %w", err)
	}
	if reply.Skip {
		return nil, nil
	}
	return protocol.NewUIContext(activeMode, reply.UserInfo, reply.Metadata), nil
}

// TaskList implements gateway.UIEventSource.
func (c *Client) TaskList(ctx context.Context, userID int64, source string, force bool) (*protocol.TaskList, error) {
	var reply struct {
		Tasks    []any          `json:"tasks"`
		Metadata map[string]any `json:"metadata"`
		Skip     bool           `json:"skip"`
	}
	err := c.postJSON(ctx, "/tasks", map[string]any{
		"user_id": userID,
		"source":  source,
		"force":   force,
	}, &reply)
	if err != nil {
		return nil, fmt.Errorf("build task list: %w", err)
	}
	if reply.Skip {
		return nil, nil
	}
	return protocol.NewTaskList(source, reply.Tasks, reply.Metadata), nil
}
