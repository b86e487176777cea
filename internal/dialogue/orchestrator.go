package dialogue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mossview/concierge/internal/completion"
	"github.com/mossview/concierge/internal/store"
)

// HandoffMessage is what the user sees when a query is routed to a human,
// regardless of whether the keyword filter or the model triggered it.
const HandoffMessage = "I cannot help with that. Connecting you to a human agent..."

// ApologyMessage substitutes for the model's answer when every provider
// attempt fails. The request still succeeds and is persisted, so the log
// reflects what the user actually saw.
const ApologyMessage = "Sorry, I'm having trouble answering right now. Please try again in a moment."

// Matcher is the FAQ lookup contract.
type Matcher interface {
	Match(query string) (answer string, score float64, ok bool)
}

// Escalator is the pre-model safety check.
type Escalator interface {
	ShouldEscalate(query string) bool
}

// Completer produces the model-backed reply.
type Completer interface {
	Complete(ctx context.Context, history []store.Turn, query string) completion.Result
}

// Notifier publishes hand-off events. May be backed by a nil *events.Publisher
// when no broker is configured.
type Notifier interface {
	PublishHandoff(sessionID, query, reason string) error
}

// Reply is the final response returned to the transport layer.
type Reply struct {
	SessionID  string
	Response   string
	Source     string // "faq", "rule-based", "llm:<model>" or "fallback"
	Action     string // "responded" or "escalated"
	MatchScore float64
}

// Orchestrator runs the per-request pipeline: FAQ lookup, keyword escalation,
// context load, completion, persistence. All collaborators except the store
// are stateless; nothing here holds a lock across I/O.
type Orchestrator struct {
	faq      Matcher
	filter   Escalator
	turns    store.Store
	complete Completer
	notifier Notifier
	window   int
	logger   *slog.Logger
}

func New(faq Matcher, filter Escalator, turns store.Store, complete Completer, notifier Notifier, window int, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		faq:      faq,
		filter:   filter,
		turns:    turns,
		complete: complete,
		notifier: notifier,
		window:   window,
		logger:   logger,
	}
}

// Handle processes one query through the pipeline and persists both sides of
// the exchange. An empty session id starts a new session; the generated id
// comes back in the Reply for the client to reuse.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	reply := Reply{SessionID: sessionID}

	if answer, score, ok := o.faq.Match(message); ok {
		// Canned answers are pre-vetted, so the escalation check and the
		// model are both skipped.
		reply.Response = answer
		reply.Source = "faq"
		reply.Action = "responded"
		reply.MatchScore = score
	} else if o.filter.ShouldEscalate(message) {
		reply.Response = HandoffMessage
		reply.Source = "rule-based"
		reply.Action = "escalated"
		o.notifyHandoff(sessionID, message, "keyword")
	} else {
		history, err := o.turns.History(ctx, sessionID, o.window)
		if err != nil {
			return Reply{}, newError(ErrorStoreUnavailable, "history_read_error", err)
		}

		res := o.complete.Complete(ctx, history, message)
		switch res.Kind {
		case completion.KindEscalate:
			reply.Response = HandoffMessage
			reply.Source = "llm:" + res.Model
			reply.Action = "escalated"
			o.notifyHandoff(sessionID, message, "model_token")
		case completion.KindProviderError:
			o.logger.Error("completion failed", "session_id", sessionID, "detail", res.Detail)
			reply.Response = ApologyMessage
			reply.Source = "fallback"
			reply.Action = "responded"
		default:
			reply.Response = res.Text
			reply.Source = "llm:" + res.Model
			reply.Action = "responded"
		}
	}

	if _, err := o.turns.Append(ctx, sessionID, store.RoleUser, message); err != nil {
		return Reply{}, newError(ErrorStoreUnavailable, "append_user_turn", err)
	}
	if _, err := o.turns.Append(ctx, sessionID, store.RoleAssistant, reply.Response); err != nil {
		return Reply{}, newError(ErrorStoreUnavailable, "append_assistant_turn", err)
	}

	o.logger.Info("handled query",
		"session_id", sessionID,
		"source", reply.Source,
		"action", reply.Action,
	)
	return reply, nil
}

func (o *Orchestrator) notifyHandoff(sessionID, query, reason string) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.PublishHandoff(sessionID, query, reason); err != nil {
		o.logger.Warn("failed to publish hand-off event", "session_id", sessionID, "error", err)
	}
}
