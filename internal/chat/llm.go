package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/barkeepapp/barkeep/backend/config"
)

// Message is one chat-completions message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is the model's election to invoke a tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDef declares a callable tool to the model.
type ToolDef struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef is the schema half of a tool declaration.
type FunctionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Chunk is one fragment of a streamed completion.
type Chunk struct {
	Content string
	Done    bool
	Err     error
}

// LLM is the language-model boundary the orchestrator talks to.
type LLM interface {
	// Complete runs one buffered completion. Tools, when non-nil, lets the
	// model elect a tool call instead of answering directly.
	Complete(ctx context.Context, messages []Message, tools []ToolDef) (*Message, error)
	// Stream runs a streaming completion, emitting ordered chunks until a
	// terminal Done chunk. The channel closes after the terminal chunk.
	Stream(ctx context.Context, messages []Message) (<-chan Chunk, error)
}

// Client talks to the DeepSeek chat-completions API.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

// NewClient builds a DeepSeek client from the config. The API key may also
// be supplied via a file path in DEEPSEEK_API_KEY_FILE.
func NewClient(cfg *config.Config) (*Client, error) {
	apiKey := cfg.DeepSeekAPIKey
	if apiKey == "" {
		apiKeyFile := os.Getenv("DEEPSEEK_API_KEY_FILE")
		if apiKeyFile == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY or DEEPSEEK_API_KEY_FILE must be set")
		}
		apiKeyBytes, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read API key file: %w", err)
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		if apiKey == "" {
			return nil, fmt.Errorf("API key file is empty")
		}
	}

	return &Client{
		apiKey:     apiKey,
		apiURL:     cfg.DeepSeekAPIURL,
		model:      "deepseek-chat",
		httpClient: &http.Client{},
	}, nil
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []ToolDef `json:"tools,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete runs one buffered chat completion.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDef) (*Message, error) {
	reqBody := completionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: 0.7,
	}

	resp, err := c.send(ctx, reqBody, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return &completion.Choices[0].Message, nil
}

// Stream runs a streaming chat completion and forwards content deltas.
func (c *Client) Stream(ctx context.Context, messages []Message) (<-chan Chunk, error) {
	reqBody := completionRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      true,
		Temperature: 0.7,
	}

	resp, err := c.send(ctx, reqBody, "text/event-stream")
	if err != nil {
		return nil, err
	}

	chunks := make(chan Chunk, 10)
	go c.readStream(ctx, resp, chunks)
	return chunks, nil
}

func (c *Client) send(ctx context.Context, body completionRequest, accept string) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(errBody))
	}
	return resp, nil
}

// readStream walks the SSE body line by line, forwarding delta content in
// arrival order and closing with a terminal Done chunk on the [DONE] marker.
func (c *Client) readStream(ctx context.Context, resp *http.Response, chunks chan<- Chunk) {
	defer close(chunks)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			c.emit(ctx, chunks, Chunk{Done: true})
			return
		}

		var delta struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			continue
		}
		if len(delta.Choices) == 0 || delta.Choices[0].Delta.Content == "" {
			continue
		}
		if !c.emit(ctx, chunks, Chunk{Content: delta.Choices[0].Delta.Content}) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.emit(ctx, chunks, Chunk{Err: fmt.Errorf("stream read error: %w", err)})
		return
	}
	// Upstream closed without a [DONE]; still terminate cleanly.
	c.emit(ctx, chunks, Chunk{Done: true})
}

func (c *Client) emit(ctx context.Context, chunks chan<- Chunk, chunk Chunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
