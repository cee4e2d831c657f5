package extract

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

var _ callbacks.Handler = LogCallbackHandler{}

// LogCallbackHandler logs model calls. Only generation and errors are
// interesting here; everything else is a no-op.
type LogCallbackHandler struct {
	callbacks.SimpleHandler

	Logger *slog.Logger
}

func (l LogCallbackHandler) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l LogCallbackHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	l.logger().DebugContext(ctx, "LLM generate content start", "messages", len(ms))
}

func (l LogCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if res == nil || len(res.Choices) == 0 {
		l.logger().DebugContext(ctx, "LLM generate content end", "choices", 0)
		return
	}
	l.logger().DebugContext(ctx, "LLM generate content end",
		"choices", len(res.Choices),
		"stop_reason", res.Choices[0].StopReason,
	)
}

func (l LogCallbackHandler) HandleLLMError(ctx context.Context, err error) {
	l.logger().ErrorContext(ctx, "LLM error", "error", err)
}
