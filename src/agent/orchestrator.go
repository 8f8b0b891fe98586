package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat/src/aisdk"
	"github.com/taskchat/taskchat/src/mcp"
	"github.com/taskchat/taskchat/src/normalize"
	"github.com/taskchat/taskchat/src/storage"
)

// runState tracks where an orchestration run is in its lifecycle.
type runState int

const (
	stateIdle runState = iota
	stateLoadingContext
	stateCallingModel
	stateExecutingTools
	statePersisting
	stateDone
	stateFailed
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateLoadingContext:
		return "loading_context"
	case stateCallingModel:
		return "calling_model"
	case stateExecutingTools:
		return "executing_tools"
	case statePersisting:
		return "persisting"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	defaultMaxIterations = 5
	maxTitleLength       = 80

	clarifyReferenceMessage = "I'm not sure which task you're referring to. The list may be out of date. Could you name the task, or ask me to list your tasks again?"
)

// ChatRequest is one user turn.
type ChatRequest struct {
	// ConversationID is empty for a new conversation.
	ConversationID string

	// Message is the user's text.
	Message string

	// Timezone is an IANA zone name. Invalid or empty falls back to UTC.
	Timezone string

	// Locale is a BCP-47 tag used for week-boundary conventions.
	Locale string

	// UserID is the authenticated caller.
	UserID string
}

// ChatResponse is the outcome of a completed run.
type ChatResponse struct {
	ConversationID   string
	AssistantMessage string
	Operations       []OperationResult
}

// Options configures an Orchestrator.
type Options struct {
	Store         ConversationStore
	Model         aisdk.ModelClient
	ToolConfig    mcp.Config
	Resolver      *ReferenceResolver
	Window        *ContextWindowManager
	DayTimes      normalize.DayTimes
	MaxIterations int
	Logger        *slog.Logger
}

// Orchestrator drives one chat turn: it assembles the model context, runs
// the model/tool loop against a per-request tool session, and persists the
// exchange.
type Orchestrator struct {
	store         ConversationStore
	model         aisdk.ModelClient
	toolConfig    mcp.Config
	resolver      *ReferenceResolver
	window        *ContextWindowManager
	dayTimes      normalize.DayTimes
	maxIterations int
	logger        *slog.Logger
}

// NewOrchestrator builds an orchestrator from options. Store, Model, Window
// and Resolver are required.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if opts.Window == nil {
		return nil, fmt.Errorf("context window manager is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("reference resolver is required")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.DayTimes == (normalize.DayTimes{}) {
		opts.DayTimes = normalize.DefaultDayTimes()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Orchestrator{
		store:         opts.Store,
		model:         opts.Model,
		toolConfig:    opts.ToolConfig,
		resolver:      opts.Resolver,
		window:        opts.Window,
		dayTimes:      opts.DayTimes,
		maxIterations: opts.MaxIterations,
		logger:        opts.Logger.With("component", "orchestrator"),
	}, nil
}

// Run executes one chat turn. Failures come back as *RunError with a class
// the transport layer can map to a status code.
func (o *Orchestrator) Run(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	resp, err := o.run(ctx, req)
	if err != nil {
		runErr := classifyError(err)
		o.logger.Error("run failed",
			"conversation_id", req.ConversationID,
			"user_id", req.UserID,
			"class", runErr.Class,
			"error", err)
		return nil, runErr
	}
	return resp, nil
}

func (o *Orchestrator) run(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	state := stateLoadingContext
	now := time.Now().UTC()

	loc, tzName := loadTimezone(req.Timezone)
	logger := o.logger.With("user_id", req.UserID)

	conversation, history, err := o.prepareConversation(ctx, req, now)
	if err != nil {
		return nil, err
	}
	logger = logger.With("conversation_id", conversation.ID)

	system := &aisdk.Message{
		Role:    "system",
		Content: BuildSystemPrompt(tzName, now, loc, req.Locale),
	}
	userMsg := &aisdk.Message{
		Role:      "user",
		Content:   req.Message,
		CreatedAt: now,
	}

	messages := make([]*aisdk.Message, 0, len(history)+2)
	messages = append(messages, system)
	messages = append(messages, history...)
	messages = append(messages, userMsg)

	var (
		final      *aisdk.Message
		operations []OperationResult
		displayed  []DisplayedEntity
	)

	err = mcp.WithConnection(ctx, o.toolConfig, req.UserID, o.logger, func(session *mcp.Session) error {
		tools, err := session.ListOperations(ctx)
		if err != nil {
			return err
		}
		chatTools, err := buildChatTools(tools)
		if err != nil {
			return err
		}

		for iteration := 0; iteration < o.maxIterations; iteration++ {
			state = stateCallingModel
			resp, err := o.model.CreateChatCompletion(ctx, &aisdk.ChatCompletionRequest{
				Model:    o.model.ModelID(),
				Messages: messages,
				Tools:    chatTools,
				User:     req.UserID,
			})
			if err != nil {
				return err
			}

			msg := resp.Choices[0].Message
			if len(msg.ToolCalls) == 0 {
				final = &msg
				return nil
			}

			state = stateExecutingTools
			messages = append(messages, &msg)

			for _, call := range msg.ToolCalls {
				outcome, err := o.executeToolCall(ctx, session, conversation.ID, call, now, loc)
				if err != nil {
					return err
				}
				if outcome.needsClarification {
					final = &aisdk.Message{
						Role:    "assistant",
						Content: clarifyReferenceMessage,
					}
					return nil
				}

				operations = append(operations, outcome.operation)
				if outcome.displayed != nil {
					displayed = outcome.displayed
				}
				messages = append(messages, &aisdk.Message{
					Role:       "tool",
					Name:       call.Function.Name,
					ToolCallID: call.ID,
					Content:    outcome.resultText,
				})
			}

			logger.Debug("tool iteration complete", "state", state.String(), "iteration", iteration+1, "calls", len(msg.ToolCalls))
		}

		return fmt.Errorf("model did not produce a final answer within %d iterations", o.maxIterations)
	})
	if err != nil {
		state = stateFailed
		return nil, err
	}

	state = statePersisting
	if len(displayed) > 0 {
		if err := o.resolver.RecordDisplay(ctx, conversation.ID, displayed); err != nil {
			return nil, err
		}
	}

	if err := o.persistTurn(ctx, conversation.ID, userMsg, final, operations, now); err != nil {
		return nil, err
	}

	state = stateDone
	logger.Info("turn complete", "state", state.String(), "operations", len(operations))

	return &ChatResponse{
		ConversationID:   conversation.ID,
		AssistantMessage: final.Content,
		Operations:       operations,
	}, nil
}

// prepareConversation resolves the target conversation: either an
// ownership-checked lookup with its truncated history, or a fresh one.
func (o *Orchestrator) prepareConversation(ctx context.Context, req *ChatRequest, now time.Time) (*storage.Conversation, []*aisdk.Message, error) {
	if req.ConversationID != "" {
		conversation, err := o.store.OwnedConversation(ctx, req.ConversationID, req.UserID)
		if err != nil {
			return nil, nil, err
		}
		history, err := o.window.Load(ctx, conversation.ID, req.UserID)
		if err != nil {
			return nil, nil, err
		}
		return conversation, history, nil
	}

	conversation := &storage.Conversation{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Title:     titleFromMessage(req.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.CreateConversation(ctx, conversation); err != nil {
		return nil, nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil, nil
}

// toolOutcome is the result of one tool call: either a clarification signal
// or a result to feed back to the model.
type toolOutcome struct {
	needsClarification bool
	resultText         string
	operation          OperationResult
	displayed          []DisplayedEntity
}

// executeToolCall normalizes the call's arguments, resolves positional task
// references, and invokes the operation. Tool-level failures come back as a
// normal outcome with status "error" so the model can see and correct them;
// only transport failures return an error.
func (o *Orchestrator) executeToolCall(ctx context.Context, session *mcp.Session, conversationID string, call aisdk.ToolCall, now time.Time, loc *time.Location) (*toolOutcome, error) {
	name := call.Function.Name

	var args map[string]interface{}
	if len(call.Function.Arguments) > 0 {
		if err := json.Unmarshal(call.Function.Arguments, &args); err != nil {
			return &toolOutcome{
				resultText: fmt.Sprintf("invalid arguments for %s: %v", name, err),
				operation:  OperationResult{OperationName: name, Status: "error", Detail: "invalid arguments"},
			}, nil
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	if ref, ok := args["task_ref"].(string); ok && ref != "" {
		id, err := o.resolver.Resolve(ctx, conversationID, ref)
		if errors.Is(err, ErrNoReference) {
			return &toolOutcome{needsClarification: true}, nil
		}
		if err != nil {
			return nil, err
		}
		args["task_id"] = id
		delete(args, "task_ref")
	}

	o.normalizeArguments(args, now, loc)

	result, err := session.Invoke(ctx, name, args)
	if errors.Is(err, mcp.ErrToolFailed) {
		return &toolOutcome{
			resultText: fmt.Sprintf("operation failed: %v", err),
			operation:  OperationResult{OperationName: name, Status: "error", Detail: err.Error()},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	text := result.Text()
	if result.IsError {
		return &toolOutcome{
			resultText: text,
			operation:  OperationResult{OperationName: name, Status: "error", Detail: text},
		}, nil
	}

	outcome := &toolOutcome{
		resultText: text,
		operation: OperationResult{
			OperationName:    name,
			Status:           "success",
			AffectedEntityID: affectedEntityID(args, text),
		},
	}
	if name == "list_tasks" {
		outcome.displayed = parseDisplayedEntities(text)
	}
	return outcome, nil
}

// normalizeArguments canonicalizes known attribute values in place: priority
// synonyms and day-phrase due dates.
func (o *Orchestrator) normalizeArguments(args map[string]interface{}, now time.Time, loc *time.Location) {
	if raw, ok := args["priority"].(string); ok && raw != "" {
		canonical, _ := normalize.NormalizePriority(raw)
		args["priority"] = string(canonical)
	}

	if raw, ok := args["due_date"].(string); ok && raw != "" {
		if result := o.dayTimes.TimeOfDay(raw, now, loc); result.Matched {
			args["due_date"] = result.Time.Format(time.RFC3339)
		}
	}
}

// persistTurn appends the user and assistant messages and bumps the
// conversation's updated timestamp.
func (o *Orchestrator) persistTurn(ctx context.Context, conversationID string, userMsg, assistantMsg *aisdk.Message, operations []OperationResult, now time.Time) error {
	stored, err := ToStoredMessage(conversationID, userMsg, nil)
	if err != nil {
		return err
	}
	if err := o.store.Append(ctx, stored); err != nil {
		return fmt.Errorf("failed to persist user message: %w", err)
	}

	assistantMsg.CreatedAt = now
	stored, err = ToStoredMessage(conversationID, assistantMsg, operations)
	if err != nil {
		return err
	}
	if err := o.store.Append(ctx, stored); err != nil {
		return fmt.Errorf("failed to persist assistant message: %w", err)
	}

	return o.store.Touch(ctx, conversationID)
}

// buildChatTools converts the server's operation list into the shape the
// chat completion API expects.
func buildChatTools(tools []mcp.Tool) ([]*aisdk.ChatTool, error) {
	out := make([]*aisdk.ChatTool, 0, len(tools))
	for _, tool := range tools {
		fn := aisdk.ChatToolFunction{
			Name:        tool.Name,
			Description: tool.Description,
		}
		if len(tool.InputSchema) > 0 {
			if err := json.Unmarshal(tool.InputSchema, &fn.Parameters); err != nil {
				return nil, fmt.Errorf("invalid input schema for %s: %w", tool.Name, err)
			}
		}
		out = append(out, &aisdk.ChatTool{Type: "function", Function: fn})
	}
	return out, nil
}

// displayedTask is the slice of a task document the resolver needs.
type displayedTask struct {
	ID    interface{} `json:"id"`
	Title string      `json:"title"`
}

// parseDisplayedEntities extracts positioned task rows from a list result.
// Accepts either a bare JSON array of tasks or an object with a "tasks"
// field. Non-JSON results yield nothing; resolution then simply has no
// context to work with.
func parseDisplayedEntities(text string) []DisplayedEntity {
	var tasks []displayedTask
	if err := json.Unmarshal([]byte(text), &tasks); err != nil {
		var wrapper struct {
			Tasks []displayedTask `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
			return nil
		}
		tasks = wrapper.Tasks
	}

	if len(tasks) == 0 {
		return nil
	}

	out := make([]DisplayedEntity, 0, len(tasks))
	for i, task := range tasks {
		out = append(out, DisplayedEntity{
			Position: i + 1,
			ID:       stringifyID(task.ID),
			Title:    task.Title,
		})
	}
	return out
}

// affectedEntityID recovers the id of the entity a mutating operation acted
// on, preferring the resolved argument over the result body.
func affectedEntityID(args map[string]interface{}, resultText string) string {
	if id, ok := args["task_id"]; ok {
		return stringifyID(id)
	}

	var body struct {
		ID interface{} `json:"id"`
	}
	if err := json.Unmarshal([]byte(resultText), &body); err == nil && body.ID != nil {
		return stringifyID(body.ID)
	}
	return ""
}

// stringifyID renders a JSON id value (string or number) as a string.
func stringifyID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}

// loadTimezone resolves an IANA zone name; invalid or empty input falls back
// to UTC with a nil location so downstream normalization flags the result as
// low confidence.
func loadTimezone(name string) (*time.Location, string) {
	if name == "" {
		return nil, "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "UTC"
	}
	return loc, name
}

// titleFromMessage derives a conversation title from the opening message.
// Truncation happens on rune boundaries so multibyte text stays valid.
func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength])
	}
	return message
}
