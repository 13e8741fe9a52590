// Package chat orchestrates assistant conversations: it validates incoming
// requests, lets the model elect a tool call, executes tools through the
// registry, and delivers the reply either buffered or as an ordered event
// stream with an explicit terminal marker.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/barkeepapp/barkeep/backend/internal/tools"
)

// MaxMessageLength caps a single user message.
const MaxMessageLength = 1000

// State tracks a request through the orchestration pipeline.
type State string

const (
	StateReceived               State = "RECEIVED"
	StateValidatingInput        State = "VALIDATING_INPUT"
	StateToolSelection          State = "TOOL_SELECTION"
	StateDirectResponse         State = "DIRECT_RESPONSE"
	StateToolExecuting          State = "TOOL_EXECUTING"
	StateToolResultIncorporated State = "TOOL_RESULT_INCORPORATED"
	StateResponding             State = "RESPONDING"
	StateDone                   State = "DONE"
	StateFailed                 State = "FAILED"
)

const systemPrompt = `You are a knowledgeable bartender assistant for a home cocktail bar.
You help with cocktail recipes, techniques, and substitutions.
You can create and edit recipes with the provided tools; use them whenever the
user asks to save or change a recipe. After a tool runs, tell the user what
happened, including failures.`

const apology = "I'm sorry, I'm having trouble thinking right now. Please try again in a moment."

// Turn is one prior conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is an incoming chat request.
type Request struct {
	Message string `json:"message"`
	History []Turn `json:"history"`
}

// ToolCallSummary reports a tool invocation's outcome alongside the reply.
type ToolCallSummary struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Reply is the buffered response shape.
type Reply struct {
	Response string           `json:"response"`
	ToolCall *ToolCallSummary `json:"toolCall,omitempty"`
}

// Event is one increment of a streamed response. Content events carry a
// fragment of the eventual full text; the final event sets Done.
type Event struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// RequestError rejects a malformed chat request; callers map it to a 400.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return e.Reason
}

// Orchestrator drives one conversation turn per request against a shared
// LLM client and tool registry.
type Orchestrator struct {
	llm      LLM
	registry *tools.Registry
}

// NewOrchestrator wires the model to the tool registry.
func NewOrchestrator(llm LLM, registry *tools.Registry) *Orchestrator {
	return &Orchestrator{llm: llm, registry: registry}
}

// validateRequest checks the message and the prior-turn history. Malformed
// history fails the whole request rather than being silently dropped.
func validateRequest(req Request) *RequestError {
	if strings.TrimSpace(req.Message) == "" {
		return &RequestError{Reason: "message is required"}
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		return &RequestError{Reason: "message exceeds the maximum length of 1000 characters"}
	}
	for i, turn := range req.History {
		if turn.Role != "user" && turn.Role != "assistant" {
			return &RequestError{Reason: "history entry " + strconv.Itoa(i) + " has an invalid role"}
		}
	}
	return nil
}

func (o *Orchestrator) buildMessages(req Request) []Message {
	msgs := make([]Message, 0, len(req.History)+2)
	msgs = append(msgs, Message{Role: "system", Content: systemPrompt})
	for _, turn := range req.History {
		msgs = append(msgs, Message{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, Message{Role: "user", Content: req.Message})
	return msgs
}

func (o *Orchestrator) toolDefs() []ToolDef {
	all := o.registry.All()
	defs := make([]ToolDef, 0, len(all))
	for _, t := range all {
		defs = append(defs, ToolDef{
			Type: "function",
			Function: FunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}
	return defs
}

// runTool executes the elected tool and returns the messages extended with
// the assistant's election and the structured result, plus a summary.
// Committed side effects are never rolled back, whatever happens to the
// reply afterwards.
func (o *Orchestrator) runTool(ctx context.Context, msgs []Message, election *Message) ([]Message, *ToolCallSummary) {
	tc := election.ToolCalls[0]
	result := o.registry.Execute(ctx, tc.Function.Name, json.RawMessage(tc.Function.Arguments))

	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte(`{"success":false,"message":"tool result could not be encoded"}`)
	}

	msgs = append(msgs, *election)
	msgs = append(msgs, Message{
		Role:       "tool",
		ToolCallID: tc.ID,
		Content:    string(resultJSON),
	})
	return msgs, &ToolCallSummary{
		Name:    tc.Function.Name,
		Success: result.Success,
		Message: result.Message,
	}
}

// Respond handles a buffered (non-streaming) conversation turn. Model
// failures degrade to a conversational apology rather than an error; only
// malformed requests return a RequestError.
func (o *Orchestrator) Respond(ctx context.Context, req Request) (*Reply, error) {
	state := StateValidatingInput
	if verr := validateRequest(req); verr != nil {
		return nil, verr
	}

	state = StateToolSelection
	msgs := o.buildMessages(req)
	election, err := o.llm.Complete(ctx, msgs, o.toolDefs())
	if err != nil {
		log.Printf("chat: model call failed in %s: %v", state, err)
		return &Reply{Response: apology}, nil
	}

	if len(election.ToolCalls) == 0 {
		return &Reply{Response: election.Content}, nil
	}

	msgs, summary := o.runTool(ctx, msgs, election)

	state = StateResponding
	final, err := o.llm.Complete(ctx, msgs, nil)
	if err != nil {
		// The tool already committed; report its outcome even though the
		// follow-up generation failed.
		log.Printf("chat: model call failed in %s: %v", state, err)
		return &Reply{Response: summary.Message, ToolCall: summary}, nil
	}

	return &Reply{Response: final.Content, ToolCall: summary}, nil
}

// Stream handles a streaming conversation turn. The returned channel emits
// content deltas in order and closes after a terminal Done event. A
// cancelled context stops emission; side effects already committed by a
// tool are not rolled back.
func (o *Orchestrator) Stream(ctx context.Context, req Request) (<-chan Event, error) {
	if verr := validateRequest(req); verr != nil {
		return nil, verr
	}

	events := make(chan Event, 10)
	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		msgs := o.buildMessages(req)
		election, err := o.llm.Complete(ctx, msgs, o.toolDefs())
		if err != nil {
			log.Printf("chat: model call failed: %v", err)
			if emit(Event{Content: apology}) {
				emit(Event{Done: true})
			}
			return
		}

		if len(election.ToolCalls) == 0 {
			// Nothing further to generate; deliver the selection call's
			// answer as a single delta.
			if election.Content != "" && !emit(Event{Content: election.Content}) {
				return
			}
			emit(Event{Done: true})
			return
		}

		msgs, summary := o.runTool(ctx, msgs, election)

		chunks, err := o.llm.Stream(ctx, msgs)
		if err != nil {
			log.Printf("chat: follow-up stream failed: %v", err)
			if emit(Event{Content: summary.Message}) {
				emit(Event{Done: true})
			}
			return
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				log.Printf("chat: stream error: %v", chunk.Err)
				break
			}
			if chunk.Done {
				break
			}
			if !emit(Event{Content: chunk.Content}) {
				return
			}
		}
		emit(Event{Done: true})
	}()

	return events, nil
}
