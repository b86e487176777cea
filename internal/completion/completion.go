package completion

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mossview/concierge/internal/groq"
	"github.com/mossview/concierge/internal/store"
)

// Sentinel is the reserved token the model returns, verbatim and alone, to
// signal that a query needs human hand-off. It is never shown to the user.
const Sentinel = "ESCALATE_TO_AGENT"

const systemPrompt = "You are a helpful and concise customer support assistant. " +
	"If the user's request is illegal, harmful, or requires human intervention, " +
	"reply EXACTLY with the token: " + Sentinel

type Kind int

const (
	KindAnswer Kind = iota
	KindEscalate
	KindProviderError
)

// Result is the outcome of one completion attempt. Provider failures are a
// value here, not an error: the orchestrator owns the user-facing fallback.
type Result struct {
	Kind   Kind
	Text   string
	Model  string
	Detail string
}

// ChatCompleter is the raw model transport. *groq.Client satisfies it.
type ChatCompleter interface {
	Complete(ctx context.Context, model string, messages []groq.Message) (string, error)
}

// Client builds the bounded message window and interprets the raw model
// output. Models are tried in configured order; the first that responds wins.
type Client struct {
	llm    ChatCompleter
	models []string
	window int
	logger *slog.Logger
}

func NewClient(llm ChatCompleter, models []string, window int, logger *slog.Logger) *Client {
	return &Client{
		llm:    llm,
		models: models,
		window: window,
		logger: logger,
	}
}

// Complete sends system prompt + windowed history + query to the model.
// History is truncated to the most recent window turns, dropping the oldest
// first.
func (c *Client) Complete(ctx context.Context, history []store.Turn, query string) Result {
	if c.window > 0 && len(history) > c.window {
		history = history[len(history)-c.window:]
	}

	messages := make([]groq.Message, 0, len(history)+2)
	messages = append(messages, groq.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, groq.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, groq.Message{Role: "user", Content: query})

	var lastErr error
	for _, model := range c.models {
		text, err := c.llm.Complete(ctx, model, messages)
		if err != nil {
			c.logger.Warn("model failed", "model", model, "error", err)
			lastErr = err
			continue
		}
		text = strings.TrimSpace(text)
		if text == Sentinel {
			return Result{Kind: KindEscalate, Model: model}
		}
		return Result{Kind: KindAnswer, Text: text, Model: model}
	}

	detail := "no models configured"
	if lastErr != nil {
		detail = lastErr.Error()
	}
	return Result{Kind: KindProviderError, Detail: detail}
}
