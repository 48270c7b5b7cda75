// Package agent is the HTTP client for the upstream agent engine. The engine
// streams newline-delimited JSON; each line is either a text fragment or a
// tool notification, which the client converts into stream elements.
package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/luminal-ai/agui-gateway/stream"
)

const maxLineSize = 1 << 20

// line is one ndjson record from the agent.
type line struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	ToolName    string `json:"tool_name,omitempty"`
	DisplayText string `json:"display_text,omitempty"`
	Error       string `json:"error,omitempty"`
	Message     string `json:"message,omitempty"`
}

type turnRequest struct {
	UserID   int64  `json:"user_id"`
	Content  string `json:"content"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Client talks to the agent service. Streaming turns go to POST
// {base}/stream; the command, form, and UI-context collaborators live on
// sibling endpoints of the same service.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		// Per-turn deadline is managed via context so the body stays
		// readable for the whole stream.
		http: &http.Client{},
		log:  log,
	}
}

// Stream starts one turn. The returned channel closes when the agent is done
// or after a terminal error chunk. Cancelling ctx aborts the request.
func (c *Client) Stream(ctx context.Context, req stream.Request) <-chan stream.Chunk {
	out := make(chan stream.Chunk)
	go func() {
		defer close(out)
		if err := c.run(ctx, req, out); err != nil {
			select {
			case out <- stream.Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

func (c *Client) run(ctx context.Context, req stream.Request, out chan<- stream.Chunk) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(turnRequest{UserID: req.UserID, Content: req.Content, ThreadID: req.ThreadID})
	if err != nil {
		return fmt.Errorf("encode turn request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build turn request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxLineSize))
		return fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			c.log.Warn("agent: skipping malformed line", "error", err)
			continue
		}

		el, terminal, err := c.convert(l)
		if err != nil {
			return err
		}
		if terminal {
			return nil
		}
		if el == nil {
			continue
		}

		select {
		case out <- stream.Chunk{Element: el}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("agent stream read: %w", err)
	}
	return nil
}

func (c *Client) convert(l line) (el stream.Element, terminal bool, err error) {
	switch l.Type {
	case "text":
		return stream.Text{Value: l.Content}, false, nil
	case "tool":
		return stream.ToolNotification{ToolName: l.ToolName, DisplayText: l.DisplayText, Failure: l.Error}, false, nil
	case "done":
		return nil, true, nil
	case "error":
		msg := l.Message
		if msg == "" {
			msg = "agent reported an error"
		}
		return nil, false, fmt.Errorf("agent error: %s", msg)
	default:
		c.log.Debug("agent: ignoring unknown line type", "type", l.Type)
		return nil, false, nil
	}
}
