package server

import (
	"errors"
	"os"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeMalformedXML    = "MALFORMED_XML"
	CodeUnsupported     = "UNSUPPORTED_DOCUMENT"
	CodeInvalidPattern  = "INVALID_PATTERN"
	CodeInputTooLarge   = "INPUT_TOO_LARGE"
	CodeDiffTooLarge    = "DIFF_TOO_LARGE"
	CodeInputNotFound   = "INPUT_NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorCode classifies err for the tool envelope.
func ErrorCode(err error) string {
	switch {
	case workflow.IsMalformedXML(err):
		return CodeMalformedXML
	case workflow.IsUnsupported(err):
		return CodeUnsupported
	case errors.Is(err, workflow.ErrInvalidPattern):
		return CodeInvalidPattern
	case errors.Is(err, workflow.ErrDiffTooLarge):
		return CodeDiffTooLarge
	case errors.Is(err, files.ErrFileTooLarge):
		return CodeInputTooLarge
	case errors.Is(err, os.ErrNotExist):
		return CodeInputNotFound
	case errors.Is(err, files.ErrNoInput), errors.Is(err, files.ErrAmbiguous):
		return CodeInvalidArgument
	default:
		return CodeInternal
	}
}

var hints = map[string]string{
	CodeMalformedXML:    "Check that the document is well-formed XML.",
	CodeUnsupported:     "Alteryx documents need <Nodes>; ODI packages need <Steps>.",
	CodeInvalidPattern:  "Go regular expressions do not support lookaround or backreferences.",
	CodeInputTooLarge:   "Raise limits.max_file_size or split the document.",
	CodeDiffTooLarge:    "Raise diff.max_cells or compare smaller sections.",
	CodeInputNotFound:   "Paths are resolved relative to the server's working directory.",
	CodeInvalidArgument: "Pass either path or xml.",
}

// ToolError turns a failed operation into an error envelope.
func ToolError(err error) *mcp.CallToolResult {
	code := ErrorCode(err)
	return Error(code, err.Error(), hints[code], nil)
}

// InvalidArgument reports a bad or missing tool argument.
func InvalidArgument(message string) *mcp.CallToolResult {
	return Error(CodeInvalidArgument, message, "", nil)
}
