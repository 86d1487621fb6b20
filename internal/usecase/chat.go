package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ollama-chatbot/internal/domain"
	"ollama-chatbot/internal/integrations/ollama"
	"ollama-chatbot/internal/repository"
	"ollama-chatbot/pkg/logger"
	"ollama-chatbot/pkg/metrics"
)

type HistoryStore interface {
	QueryRecent(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error)
	Put(ctx context.Context, turn domain.ChatTurn) error
}

type ModelInvoker interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ActivityRecorder is best-effort: it never reports failure to the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, message string)
}

type Clock interface {
	NowMillis() int64
}

type ChatService struct {
	store         HistoryStore
	model         ModelInvoker
	activity      ActivityRecorder
	log           *zap.Logger
	clock         Clock
	defaultUserID string
}

type ChatInput struct {
	Message string
	UserID  string
}

type ChatOutput struct {
	Reply  string
	UserID string
}

type Option func(*ChatService)

func WithLogger(l *zap.Logger) Option {
	return func(s *ChatService) {
		s.log = l
	}
}

func WithClock(c Clock) Option {
	return func(s *ChatService) {
		s.clock = c
	}
}

func NewChatService(store HistoryStore, model ModelInvoker, activity ActivityRecorder, defaultUserID string, opts ...Option) (*ChatService, error) {
	if store == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if model == nil {
		return nil, errors.New("usecase: model invoker must not be nil")
	}
	if activity == nil {
		return nil, errors.New("usecase: activity recorder must not be nil")
	}
	defaultUserID = strings.TrimSpace(defaultUserID)
	if defaultUserID == "" {
		return nil, errors.New("usecase: default user id must not be empty")
	}
	s := &ChatService{
		store:         store,
		model:         model,
		activity:      activity,
		defaultUserID: defaultUserID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)
	if s.clock == nil {
		s.clock = repository.NewClock()
	}
	return s, nil
}

// Chat answers one message. Only validation and model failures are returned;
// history and activity-log failures are logged and dropped so a successful
// model reply always reaches the caller.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		metrics.RecordChat("invalid_input")
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	userID := s.userID(in.UserID)
	log := s.log.With(zap.String("user_id", userID))

	history, err := s.store.QueryRecent(ctx, userID, repository.HistoryLimit)
	if err != nil {
		metrics.RecordSideEffectFailure("history_query")
		log.Warn("history query failed, continuing without context", zap.Error(err))
		history = nil
	}
	history = repository.LastN(history, repository.ContextTurns)

	reply, err := s.model.Generate(ctx, buildPrompt(history, message))
	if err != nil {
		ucErr := modelError(err)
		metrics.RecordChat(strings.ToLower(string(ucErr.Code)))
		log.Error("model invocation failed", zap.String("code", string(ucErr.Code)), zap.Error(err))
		return ChatOutput{}, ucErr
	}

	turn := domain.ChatTurn{
		UserID:      userID,
		Timestamp:   s.clock.NowMillis(),
		UserMessage: message,
		BotReply:    reply,
	}
	if err := s.store.Put(ctx, turn); err != nil {
		metrics.RecordSideEffectFailure("history_put")
		log.Warn("history put failed", zap.Int64("timestamp", turn.Timestamp), zap.Error(err))
	}

	s.activity.Record(ctx, activityLine(message, reply))
	metrics.RecordChat("ok")

	return ChatOutput{Reply: reply, UserID: userID}, nil
}

// History returns the user's stored turns, oldest first, capped at the
// history limit. The result is never nil.
func (s *ChatService) History(ctx context.Context, userID string) ([]domain.ChatTurn, error) {
	userID = s.userID(userID)
	turns, err := s.store.QueryRecent(ctx, userID, repository.HistoryLimit)
	if err != nil {
		s.log.Error("history fetch error", zap.String("user_id", userID), zap.Error(err))
		return nil, newError(ErrorStore, "history_query_error", err)
	}
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	return turns, nil
}

func (s *ChatService) userID(raw string) string {
	if id := strings.TrimSpace(raw); id != "" {
		return id
	}
	return s.defaultUserID
}

func modelError(err error) *Error {
	var (
		exitErr    *ollama.ExitError
		launchErr  *ollama.LaunchError
		timeoutErr *ollama.TimeoutError
	)
	switch {
	case errors.As(err, &exitErr):
		return newError(ErrorModel, "model_exit_error", err)
	case errors.As(err, &launchErr):
		return newError(ErrorSubprocess, "model_launch_error", err)
	case errors.As(err, &timeoutErr):
		return newError(ErrorTimeout, "model_timeout", err)
	default:
		return newError(ErrorInternal, "model_error", err)
	}
}
