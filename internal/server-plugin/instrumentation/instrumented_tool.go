package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/audit"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
	"github.com/mark3labs/mcp-go/mcp"
)

type requestIDKey struct{}

// RequestID returns the identifier assigned to the current tool call.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// WrapTool records every call of tool with collector and sink. A call counts
// as failed when the handler errors or returns an error result.
func WrapTool(
	tool domain.Tool,
	pluginID string,
	collector metrics.Collector,
	sink audit.EventSink,
	logger *slog.Logger,
) domain.Tool {
	originalHandler := tool.Handler
	instrumentedHandler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := audit.NewRequestID()
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)

		logger.Debug("Tool call started",
			"tool", tool.Name,
			"plugin", pluginID,
			"request_id", requestID)

		start := time.Now()
		result, err := originalHandler(ctx, request)
		duration := time.Since(start)

		success := err == nil && (result == nil || !result.IsError)
		collector.RecordToolExecution(ctx, tool.Name, duration, success)

		event := audit.Event{
			Timestamp:  start,
			Action:     tool.Name,
			Parameters: request.GetArguments(),
			Result:     audit.ResultSuccess,
			Duration:   duration,
			RequestID:  requestID,
			Metadata:   map[string]string{"plugin": pluginID},
		}
		if !success {
			event.Result = audit.ResultError
			if err != nil {
				event.ErrorMessage = err.Error()
			} else {
				event.ErrorMessage = resultText(result)
			}
		}
		if path, ok := event.Parameters["path"].(string); ok {
			event.Resource = path
		}
		if recErr := sink.Record(ctx, event); recErr != nil {
			logger.Warn("Failed to record audit event",
				"tool", tool.Name,
				"request_id", requestID,
				"error", recErr)
		}

		return result, err
	}

	return domain.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		Builder:     tool.Builder,
		Handler:     instrumentedHandler,
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
