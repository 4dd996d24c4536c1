package service

import (
	"context"

	"github.com/dom/codementor/internal/assistant"
	"github.com/dom/codementor/internal/domain"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"
)

const maxCodeLength = 20000

var ErrAssistantFailed = domain.NewError(domain.KindInternal, "Code assistant request failed")

// AssistantService fronts the code assistant. Callers may be anonymous.
type AssistantService struct {
	assistant assistant.Assistant
	logger    *zap.Logger
}

func NewAssistantService(a assistant.Assistant, logger *zap.Logger) *AssistantService {
	if a == nil {
		a = assistant.Offline{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{assistant: a, logger: logger.Named("assistant_service")}
}

// AssistInput is the union of the fields the four assistant tasks use.
type AssistInput struct {
	Task         assistant.Task `json:"task"`
	Code         string         `json:"code"`
	Language     string         `json:"language"`
	Error        string         `json:"error"`
	Context      string         `json:"context"`
	ExerciseID   string         `json:"exerciseId"`
	AttemptCount int            `json:"attemptCount"`
}

func (in AssistInput) Validate() error {
	codeRules := []validation.Rule{validation.Length(0, maxCodeLength)}
	var errorRules, exerciseRules []validation.Rule
	switch in.Task {
	case assistant.TaskHint:
		exerciseRules = append(exerciseRules, validation.Required)
	case assistant.TaskDebug:
		errorRules = append(errorRules, validation.Required)
		codeRules = append(codeRules, validation.Required)
	default:
		codeRules = append(codeRules, validation.Required)
	}

	return validationError(validation.ValidateStruct(&in,
		validation.Field(&in.Task, validation.Required, validation.In(
			assistant.TaskExplain, assistant.TaskDebug, assistant.TaskHint, assistant.TaskReview,
		)),
		validation.Field(&in.Code, codeRules...),
		validation.Field(&in.Language, validation.Length(0, 50)),
		validation.Field(&in.Error, errorRules...),
		validation.Field(&in.ExerciseID, exerciseRules...),
		validation.Field(&in.AttemptCount, validation.Min(0)),
	))
}

type AssistResult struct {
	Text          string
	Suggestions   []string
	Model         string
	Authenticated bool
}

// Assist runs one assistant task. caller is nil for anonymous requests.
func (s *AssistantService) Assist(ctx context.Context, caller *domain.Identity, in AssistInput) (*AssistResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("task", string(in.Task))}
	if caller != nil {
		fields = append(fields, zap.String("user_id", caller.ID.String()))
	} else {
		fields = append(fields, zap.Bool("anonymous", true))
	}

	resp, err := s.assistant.Complete(ctx, assistant.Request{
		Task:         in.Task,
		Code:         in.Code,
		Language:     in.Language,
		Error:        in.Error,
		Context:      in.Context,
		ExerciseID:   in.ExerciseID,
		AttemptCount: in.AttemptCount,
	})
	if err != nil {
		s.logger.Error("assistant request failed", append(fields, zap.Error(err))...)
		return nil, ErrAssistantFailed.WithCause(err)
	}

	s.logger.Info("assistant request served", append(fields, zap.String("model", resp.Model))...)
	return &AssistResult{
		Text:          resp.Text,
		Suggestions:   resp.Suggestions,
		Model:         resp.Model,
		Authenticated: caller != nil,
	}, nil
}
