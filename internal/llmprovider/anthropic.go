// Package llmprovider implements the concrete streammanager.Provider the
// daemon wires in — the one piece of the control flow spec.md treats as an
// opaque "LM provider SDK" contract. It is grounded on
// roelfdiedericks-goclaw's internal/llm/anthropic.go: the same
// anthropic-sdk-go streaming/accumulate shape, generalized from that
// repo's single-turn StreamMessage into the multi-turn tool-calling loop
// the Stream Manager expects from one Provider.Stream call.
package llmprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"mux/internal/streammanager"
	"mux/internal/workspace"
	"mux/pkg/logging"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ToolExecutor invokes one MCP tool call on behalf of the model, returning
// its result (or an error message) to feed back into the conversation.
// Implementations are expected to go through the MCP Server Manager's
// leased client set.
type ToolExecutor func(ctx context.Context, workspaceID, name string, args map[string]interface{}) (result interface{}, isError bool, errMsg string)

// AnthropicProvider drives the Claude Messages API, running the tool-calling
// loop internally so one Stream call corresponds to one complete assistant
// turn regardless of how many tool round trips it takes.
type AnthropicProvider struct {
	client    anthropic.Client
	executor  ToolExecutor
	maxTokens int64
}

// New builds an AnthropicProvider authenticated with apiKey. executor may be
// nil, in which case any tool call the model requests fails with an error
// result rather than panicking.
func New(apiKey string, executor ToolExecutor) *AnthropicProvider {
	return &AnthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		executor:  executor,
		maxTokens: 8192,
	}
}

// Stream implements streammanager.Provider.
func (p *AnthropicProvider) Stream(ctx context.Context, req streammanager.StreamRequest) (<-chan streammanager.ProviderEvent, error) {
	events := make(chan streammanager.ProviderEvent, 16)
	go p.run(ctx, req, events)
	return events, nil
}

func (p *AnthropicProvider) run(ctx context.Context, req streammanager.StreamRequest, events chan<- streammanager.ProviderEvent) {
	defer close(events)

	messages := toAnthropicMessages(req.Messages)
	tools := toAnthropicTools(req.Tools)

	var usage workspace.TokenUsage
	for {
		if ctx.Err() != nil {
			return
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(req.Model),
			MaxTokens: p.maxTokens,
			Messages:  messages,
		}
		if req.SystemMessage != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.SystemMessage}}
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		message, err := p.streamOneTurn(ctx, params, events)
		if err != nil {
			events <- streammanager.ProviderEvent{Kind: streammanager.ProviderError, Err: err, ProviderError: "unknown"}
			return
		}

		usage.InputTokens += int(message.Usage.InputTokens)
		usage.OutputTokens += int(message.Usage.OutputTokens)

		if message.StopReason != anthropic.StopReasonToolUse {
			events <- streammanager.ProviderEvent{Kind: streammanager.ProviderDone, Usage: &usage}
			return
		}

		assistantContent, toolUses := splitToolUses(message)
		messages = append(messages, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: assistantContent})

		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, tu := range toolUses {
			args := map[string]interface{}{}
			if len(tu.Input) > 0 {
				_ = json.Unmarshal(tu.Input, &args)
			}
			events <- streammanager.ProviderEvent{Kind: streammanager.ProviderToolCallStart, ToolCallID: tu.ID, ToolName: tu.Name, Args: args}

			result, isError, errMsg := p.execute(ctx, req.WorkspaceID, tu.Name, args)
			events <- streammanager.ProviderEvent{Kind: streammanager.ProviderToolCallEnd, ToolCallID: tu.ID, ToolName: tu.Name, Result: result, IsError: isError, ErrMsg: errMsg}

			content := errMsg
			if !isError {
				content = stringifyResult(result)
			}
			resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(tu.ID, content, isError))
		}
		messages = append(messages, anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: resultBlocks})
	}
}

func (p *AnthropicProvider) execute(ctx context.Context, workspaceID, name string, args map[string]interface{}) (interface{}, bool, string) {
	if p.executor == nil {
		return nil, true, fmt.Sprintf("no tool executor configured for %s", name)
	}
	return p.executor(ctx, workspaceID, name, args)
}

// streamOneTurn drives a single Messages.NewStreaming call to completion,
// relaying text/thinking deltas as they arrive, and returns the accumulated
// message once the stream closes.
func (p *AnthropicProvider) streamOneTurn(ctx context.Context, params anthropic.MessageNewParams, events chan<- streammanager.ProviderEvent) (*anthropic.Message, error) {
	stream := p.client.Messages.NewStreaming(ctx, params)

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate stream event: %w", err)
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		switch d := delta.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			events <- streammanager.ProviderEvent{Kind: streammanager.ProviderTextDelta, Delta: d.Text}
		case anthropic.ThinkingDelta:
			events <- streammanager.ProviderEvent{Kind: streammanager.ProviderReasoningDelta, Delta: d.Thinking}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}
	return &message, nil
}

func splitToolUses(message *anthropic.Message) ([]anthropic.ContentBlockParamUnion, []anthropic.ToolUseBlock) {
	var content []anthropic.ContentBlockParamUnion
	var toolUses []anthropic.ToolUseBlock
	for _, block := range message.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			content = append(content, anthropic.NewTextBlock(v.Text))
		case anthropic.ToolUseBlock:
			content = append(content, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{ID: v.ID, Name: v.Name, Input: v.Input},
			})
			toolUses = append(toolUses, v)
		}
	}
	return content, toolUses
}

func stringifyResult(result interface{}) string {
	switch v := result.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			logging.Warn("llmprovider", "could not marshal tool result: %v", err)
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// toAnthropicMessages converts persisted history into the request format.
// Reasoning and image parts are not yet round-tripped back to the API;
// tool-call parts become paired ToolUse/ToolResult blocks.
func toAnthropicMessages(msgs []workspace.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range msgs {
		switch m.Role {
		case workspace.RoleUser:
			var blocks []anthropic.ContentBlockParamUnion
			for _, part := range m.Parts {
				if part.Kind == workspace.PartText && part.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(part.Text))
				}
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: blocks})
			}

		case workspace.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			var results []anthropic.ContentBlockParamUnion
			for _, part := range m.Parts {
				switch part.Kind {
				case workspace.PartText:
					if part.Text != "" {
						content = append(content, anthropic.NewTextBlock(part.Text))
					}
				case workspace.PartToolCall:
					content = append(content, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{ID: part.ToolCallID, Name: part.ToolName, Input: part.Input},
					})
					resultText := part.Error
					isError := part.State == workspace.ToolCallError
					if !isError {
						resultText = stringifyResult(part.Result)
					}
					results = append(results, anthropic.NewToolResultBlock(part.ToolCallID, resultText, isError))
				}
			}
			if len(content) > 0 {
				out = append(out, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: content})
			}
			if len(results) > 0 {
				out = append(out, anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: results})
			}
		}
	}
	return out
}

func toAnthropicTools(tools []streammanager.ToolDescriptor) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var properties interface{}
		if t.InputSchema != nil {
			if props, ok := t.InputSchema["properties"]; ok {
				properties = props
			}
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: properties},
			},
		})
	}
	return out
}
