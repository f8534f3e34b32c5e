package server

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolStatus is the outcome of a tool call as seen by the client.
type ToolStatus string

const (
	ToolStatusOK    ToolStatus = "ok"
	ToolStatusError ToolStatus = "error"
	// ToolStatusPartial marks a usable result that came with warnings, such
	// as template rules whose node was missing.
	ToolStatusPartial ToolStatus = "partial"
)

// ToolLink suggests a follow-up call with prefilled arguments.
type ToolLink struct {
	Rel    string         `json:"rel"`
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params,omitempty"`
}

// ToolResponse is the JSON document every tool returns as its single text
// content.
type ToolResponse struct {
	Status    ToolStatus `json:"status"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
	RequestID string     `json:"requestId,omitempty"`
	Data      any        `json:"data,omitempty"`
	Links     []ToolLink `json:"links,omitempty"`
	Hint      string     `json:"hint,omitempty"`
}

// encode renders the envelope without HTML escaping so XML payloads stay
// readable.
func (r ToolResponse) encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// NewResult converts resp into an MCP result. Error envelopes set IsError.
func NewResult(resp ToolResponse) *mcp.CallToolResult {
	text, err := resp.encode()
	if err != nil {
		slog.Default().Error("Failed to encode tool response", "code", resp.Code, "error", err)
		text, _ = ToolResponse{
			Status:  ToolStatusError,
			Code:    CodeInternal,
			Message: "failed to serialize tool response",
		}.encode()
		return mcp.NewToolResultError(text)
	}

	if resp.Status == ToolStatusError {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

func OK(message string, data any) *mcp.CallToolResult {
	return NewResult(ToolResponse{Status: ToolStatusOK, Message: message, Data: data})
}

func Error(code, message, hint string, data any) *mcp.CallToolResult {
	return NewResult(ToolResponse{Status: ToolStatusError, Code: code, Message: message, Hint: hint, Data: data})
}

func Partial(message string, data any) *mcp.CallToolResult {
	return NewResult(ToolResponse{Status: ToolStatusPartial, Message: message, Data: data})
}
