package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"hackathon-assistant/internal/domain"
	"hackathon-assistant/internal/extract"
	"hackathon-assistant/internal/temporal"
)

const (
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 800

	defaultMaxQuestion = 1000

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// HackathonStore is the record store. Implementations fail soft: lookups
// report absence and writes report false, logging the cause themselves.
type HackathonStore interface {
	Get(ctx context.Context, id string) (domain.Hackathon, bool)
	GetBySlug(ctx context.Context, slug string) (domain.Hackathon, bool)
	ListAll(ctx context.Context) []domain.Hackathon
	Insert(ctx context.Context, doc domain.Document) bool
	Update(ctx context.Context, id string, partial domain.Document) bool
}

type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// AnswerOptions tunes the completion call and input limits. Zero values take
// the defaults.
type AnswerOptions struct {
	Model             string
	Temperature       *float32
	MaxTokens         int
	MaxQuestionLen    int
	CompletionTimeout time.Duration
}

type AnswerService struct {
	store  HackathonStore
	llm    Completer
	clock  temporal.Clock
	logger *slog.Logger

	model          string
	temperature    float32
	maxTokens      int
	maxQuestionLen int
	timeout        time.Duration
	systemPrompt   string
}

type AnswerInput struct {
	HackathonID string
	Question    string
	History     []domain.ChatMessage
}

type AnswerOutput struct {
	Answer     string
	Confidence string
	Timestamp  string
	History    []domain.ChatMessage
}

func NewAnswerService(store HackathonStore, llm Completer, clock temporal.Clock, opts AnswerOptions, logger *slog.Logger) (*AnswerService, error) {
	if store == nil {
		return nil, errors.New("usecase: hackathon store must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if clock == nil {
		clock = temporal.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &AnswerService{
		store:          store,
		llm:            llm,
		clock:          clock,
		logger:         logger.With(slog.String("module", "answer")),
		model:          strings.TrimSpace(opts.Model),
		temperature:    DefaultTemperature,
		maxTokens:      opts.MaxTokens,
		maxQuestionLen: opts.MaxQuestionLen,
		timeout:        opts.CompletionTimeout,
		systemPrompt:   SystemPrompt(),
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if opts.Temperature != nil {
		s.temperature = *opts.Temperature
	}
	if s.maxTokens <= 0 {
		s.maxTokens = DefaultMaxTokens
	}
	if s.maxQuestionLen <= 0 {
		s.maxQuestionLen = defaultMaxQuestion
	}
	return s, nil
}

// AnswerQuestion answers a question about one hackathon. The context sent
// upstream is extracted from the stored record at the current instant; the
// returned history is the bounded conversation including this exchange.
func (s *AnswerService) AnswerQuestion(ctx context.Context, in AnswerInput) (AnswerOutput, error) {
	id := strings.TrimSpace(in.HackathonID)
	if id == "" {
		return AnswerOutput{}, newError(ErrorInvalidInput, "missing_hackathon_id", nil)
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return AnswerOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if utf8.RuneCountInString(question) > s.maxQuestionLen {
		return AnswerOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}
	for _, turn := range in.History {
		if !domain.IsConversationRole(turn.Role) {
			return AnswerOutput{}, newError(ErrorInvalidInput, "invalid_history_role", nil)
		}
	}

	hackathon, ok := s.store.Get(ctx, id)
	if !ok {
		return AnswerOutput{}, newError(ErrorNotFound, "hackathon_not_found", nil)
	}

	now := s.clock.Now().UTC()
	contextText := extract.Extract(hackathon, question, now)
	history := domain.RecentTurns(in.History, domain.MaxHistoryTurns)

	answer, err := s.complete(ctx, Compose(s.systemPrompt, contextText, history, in.Question))
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
			return AnswerOutput{}, newError(ErrorRateLimited, "completion_rate_limited", err)
		}
		return AnswerOutput{}, newError(ErrorUpstream, "completion_error", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return AnswerOutput{}, newError(ErrorUpstream, "completion_empty_answer", nil)
	}

	confidence := Confidence(answer)
	s.logger.Info("question answered",
		slog.String("hackathon_id", id),
		slog.Any("categories", extract.Match(question)),
		slog.Int("history_turns", len(history)),
		slog.String("confidence", confidence),
	)

	history = append(history,
		domain.ChatMessage{Role: domain.RoleUser, Content: in.Question},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: answer},
	)
	return AnswerOutput{
		Answer:     answer,
		Confidence: confidence,
		Timestamp:  s.clock.Now().UTC().Format(time.RFC3339Nano),
		History:    domain.RecentTurns(history, domain.MaxHistoryTurns),
	}, nil
}

func (s *AnswerService) complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
}

// Model is the completion model id the service sends.
func (s *AnswerService) Model() string { return s.model }

// Confidence labels an answer "low" when the model reported it could not
// find the information, "high" otherwise.
func Confidence(answer string) string {
	if strings.Contains(strings.ToLower(answer), "couldn't find") {
		return ConfidenceLow
	}
	return ConfidenceHigh
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
