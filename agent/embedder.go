package agent

import (
	"context"
	"fmt"
)

// Embed implements store.Embedder against the agent's embeddings endpoint.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var reply struct {
		Embedding []float32 `json:"embedding"`
	}
	err := c.postJSON(ctx, "/embeddings", map[string]any{"text": text}, &reply)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(reply.Embedding) == 0 {
		return nil, fmt.Errorf("agent returned an empty embedding")
	}
	return reply.Embedding, nil
}
