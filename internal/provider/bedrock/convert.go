package bedrock

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cyclone1070/lumen/internal/provider/model"
)

// normalizeMessages renders history into a strictly alternating wire list.
// System messages are dropped (they travel in the system field), as are
// messages that render empty or carry a failure text without tool calls.
// Consecutive same-role messages are merged block by block.
func (c *Client) normalizeMessages(messages []model.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		if model.IsErrorText(msg.Content) && !msg.HasToolCalls() {
			continue
		}

		blocks := c.renderBlocks(msg)
		if len(blocks) == 0 {
			continue
		}

		role := string(msg.Role)
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			continue
		}
		out = append(out, wireMessage{Role: role, Content: blocks})
	}

	for i := range out {
		out[i].Content = orderBlocks(out[i].Content)
	}
	return out
}

// renderBlocks turns one message into wire blocks according to its role.
// Assistant: reasoning, text, tool_use. User: tool_result, images, text.
func (c *Client) renderBlocks(msg model.Message) []contentBlock {
	var blocks []contentBlock
	switch msg.Role {
	case model.RoleAssistant:
		for _, r := range msg.Reasoning {
			blocks = append(blocks, reasoningBlock(r))
		}
		if hasText(msg.Content) {
			blocks = append(blocks, contentBlock{Type: blockText, Text: msg.Content})
		}
		for _, call := range msg.ToolCalls {
			blocks = append(blocks, contentBlock{
				Type:  blockToolUse,
				ID:    call.ID,
				Name:  call.Name,
				Input: toolInput(call.Arguments),
			})
		}
	case model.RoleUser:
		for _, call := range msg.ToolCalls {
			blocks = append(blocks, contentBlock{
				Type:      blockToolResult,
				ToolUseID: call.ID,
				Content:   call.Result,
				IsError:   call.IsError,
			})
		}
		for _, att := range msg.Attachments {
			blocks = append(blocks, c.imageBlock(att))
		}
		if hasText(msg.Content) {
			blocks = append(blocks, contentBlock{Type: blockText, Text: msg.Content})
		}
	}
	return blocks
}

// hasText reports whether content should become a text block. Failure texts
// never reach the model, even on a message kept for its tool calls.
func hasText(content string) bool {
	return strings.TrimSpace(content) != "" && !model.IsErrorText(content)
}

func reasoningBlock(r model.ReasoningBlock) contentBlock {
	if r.Kind == model.ReasoningRedacted {
		return contentBlock{Type: blockRedactedThinking, Data: r.Data}
	}
	return contentBlock{Type: blockThinking, Thinking: r.Thinking, Signature: r.Signature}
}

func (c *Client) imageBlock(att model.Attachment) contentBlock {
	if c.attachments == nil {
		return contentBlock{Type: blockText, Text: fmt.Sprintf("[image %s unavailable]", att.Filename)}
	}
	data, err := c.attachments.Load(att)
	if err != nil {
		c.logger.Warn("attachment unavailable", "attachment", att.ID, "error", err)
		return contentBlock{Type: blockText, Text: fmt.Sprintf("[image %s unavailable]", att.Filename)}
	}
	return contentBlock{
		Type: blockImage,
		Source: &imageSource{
			Type:      "base64",
			MediaType: att.MimeType,
			Data:      base64.StdEncoding.EncodeToString(data),
		},
	}
}

// toolInput returns the arguments as a JSON object, or {} when they are not one.
func toolInput(arguments string) json.RawMessage {
	trimmed := bytes.TrimSpace([]byte(arguments))
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(trimmed)
}

// orderBlocks keeps the provider's positional rules after merging: reasoning
// leads an assistant message and tool results lead a user message. The
// relative order within each group is preserved.
func orderBlocks(blocks []contentBlock) []contentBlock {
	rank := func(b contentBlock) int {
		switch b.Type {
		case blockThinking, blockRedactedThinking, blockToolResult:
			return 0
		default:
			return 1
		}
	}
	ordered := make([]contentBlock, 0, len(blocks))
	for want := 0; want <= 1; want++ {
		for _, b := range blocks {
			if rank(b) == want {
				ordered = append(ordered, b)
			}
		}
	}
	return ordered
}

// fromWireResponse converts the response envelope. Unknown block kinds are ignored.
func fromWireResponse(resp *invokeResponse) *model.Response {
	out := &model.Response{
		StopReason: resp.StopReason,
		Model:      resp.Model,
		Usage: model.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}

	var text strings.Builder
	for _, b := range resp.Content {
		switch b.Type {
		case blockText:
			text.WriteString(b.Text)
		case blockThinking:
			out.Reasoning = append(out.Reasoning, model.ReasoningBlock{
				Kind:      model.ReasoningThinking,
				Thinking:  b.Thinking,
				Signature: b.Signature,
			})
		case blockRedactedThinking:
			out.Reasoning = append(out.Reasoning, model.ReasoningBlock{
				Kind: model.ReasoningRedacted,
				Data: b.Data,
			})
		case blockToolUse:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: inputText(b.Input),
			})
		}
	}
	out.Text = text.String()
	return out
}

func inputText(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// flattenToolBlocks rewrites tool_use and tool_result blocks as plain text.
// The provider rejects tool blocks in a request that declares no tools.
func flattenToolBlocks(messages []wireMessage) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		blocks := make([]contentBlock, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case blockToolUse:
				blocks = append(blocks, contentBlock{Type: blockText, Text: fmt.Sprintf("[called tool %s with %s]", b.Name, b.Input)})
			case blockToolResult:
				label := "result"
				if b.IsError {
					label = "error"
				}
				blocks = append(blocks, contentBlock{Type: blockText, Text: fmt.Sprintf("[tool %s: %s]", label, b.Content)})
			default:
				blocks = append(blocks, b)
			}
		}
		out[i] = wireMessage{Role: m.Role, Content: blocks}
	}
	return out
}
