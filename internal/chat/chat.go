// Package chat implements the conversational side of retirex: a keyword
// pre-filter backed by a spreadsheet, falling back to a language model.
//
// The projection engine never depends on this package.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Message roles accepted from callers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Reply sources.
const (
	SourceSheet = "sheet"
	SourceModel = "model"
)

var (
	// ErrInvalidHistory wraps every problem with a caller-supplied history.
	ErrInvalidHistory = errors.New("invalid conversation history")
	// ErrNoAnswerer is returned on a keyword miss when no model is configured.
	ErrNoAnswerer = errors.New("no language model configured")
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answerer turns a conversation into a free-text reply.
type Answerer interface {
	Answer(ctx context.Context, history []Message) (string, error)
}

// KeywordLookup resolves a normalized keyword to a canned answer.
type KeywordLookup interface {
	Lookup(ctx context.Context, keyword string) (string, bool, error)
}

// Exchange is one answered question, as recorded for operators.
type Exchange struct {
	Time     time.Time
	Question string
	Answer   string
	Source   string
}

// Recorder persists exchanges.
type Recorder interface {
	Record(ctx context.Context, exchange Exchange) error
}

// Reply is the outcome of Service.Reply.
type Reply struct {
	Text   string
	Source string
}

// NormalizeKeyword lowercases and trims a question for lookup.
func NormalizeKeyword(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Options wires the collaborators of a Service. Every field except Logger
// may be nil to disable that capability.
type Options struct {
	Lookup      KeywordLookup
	Answerer    Answerer
	Recorder    Recorder
	MaxMessages int
	Logger      *zap.Logger
	Now         func() time.Time
}

// Service answers conversations.
type Service struct {
	lookup      KeywordLookup
	answerer    Answerer
	recorder    Recorder
	maxMessages int
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a chat service from its collaborators.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		lookup:      opts.Lookup,
		answerer:    opts.Answerer,
		recorder:    opts.Recorder,
		maxMessages: opts.MaxMessages,
		logger:      logger,
		now:         now,
	}
}

// ValidateHistory checks a caller-supplied conversation.
func (s *Service) ValidateHistory(history []Message) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrInvalidHistory)
	}
	if s.maxMessages > 0 && len(history) > s.maxMessages {
		return fmt.Errorf("%w: at most %d messages are accepted, got %d", ErrInvalidHistory, s.maxMessages, len(history))
	}
	for i, msg := range history {
		switch msg.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return fmt.Errorf("%w: message %d has unsupported role %q", ErrInvalidHistory, i, msg.Role)
		}
		if strings.TrimSpace(msg.Content) == "" {
			return fmt.Errorf("%w: message %d has empty content", ErrInvalidHistory, i)
		}
	}
	if lastUserMessage(history) == "" {
		return fmt.Errorf("%w: no user message found", ErrInvalidHistory)
	}
	return nil
}

// Reply answers the last user message, from the keyword sheet when it knows
// the question and from the language model otherwise.
func (s *Service) Reply(ctx context.Context, history []Message) (Reply, error) {
	if err := s.ValidateHistory(history); err != nil {
		return Reply{}, err
	}

	question := lastUserMessage(history)
	keyword := NormalizeKeyword(question)

	if s.lookup != nil {
		answer, ok, err := s.lookup.Lookup(ctx, keyword)
		switch {
		case err != nil:
			s.logger.Warn("keyword lookup failed, falling back to language model",
				zap.String("op", "chat.Reply"),
				zap.Error(err),
			)
		case ok:
			reply := Reply{Text: answer, Source: SourceSheet}
			s.record(ctx, question, reply)
			return reply, nil
		}
	}

	if s.answerer == nil {
		return Reply{}, ErrNoAnswerer
	}

	text, err := s.answerer.Answer(ctx, history)
	if err != nil {
		return Reply{}, fmt.Errorf("language model: %w", err)
	}

	reply := Reply{Text: text, Source: SourceModel}
	s.record(ctx, question, reply)
	return reply, nil
}

func (s *Service) record(ctx context.Context, question string, reply Reply) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.Record(ctx, Exchange{
		Time:     s.now(),
		Question: question,
		Answer:   reply.Text,
		Source:   reply.Source,
	})
	if err != nil {
		s.logger.Warn("failed to record chat exchange",
			zap.String("op", "chat.record"),
			zap.String("source", reply.Source),
			zap.Error(err),
		)
	}
}

func lastUserMessage(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}
