// Package assistant is the contract with the code-assistant model. Callers
// hand it a task and the learner's code and get text back; prompt design
// lives entirely behind the Assistant implementations.
package assistant

import (
	"context"
	"fmt"
	"strings"
)

type Task string

const (
	TaskExplain Task = "explain"
	TaskDebug   Task = "debug"
	TaskHint    Task = "hint"
	TaskReview  Task = "review"
)

func (t Task) Valid() bool {
	switch t {
	case TaskExplain, TaskDebug, TaskHint, TaskReview:
		return true
	}
	return false
}

type Request struct {
	Task         Task
	Code         string
	Language     string
	Error        string
	Context      string
	ExerciseID   string
	AttemptCount int
}

type Response struct {
	Text        string
	Suggestions []string
	Model       string
}

type Assistant interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Offline answers every request with a fixed notice. It is used when no
// model credentials are configured so the endpoints stay usable.
type Offline struct{}

func (Offline) Complete(_ context.Context, req Request) (*Response, error) {
	return &Response{
		Text:  fmt.Sprintf("The code assistant is not configured, so no %s is available right now.", req.Task),
		Model: "offline",
	}, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	lang := req.Language
	if lang == "" {
		lang = "the given language"
	}

	switch req.Task {
	case TaskExplain:
		fmt.Fprintf(&b, "Explain what this %s code does, step by step, for a beginner.\n", lang)
	case TaskDebug:
		fmt.Fprintf(&b, "This %s code fails with the error below. Explain the cause and suggest a fix.\nError: %s\n", lang, req.Error)
	case TaskHint:
		fmt.Fprintf(&b, "Give hint number %d for exercise %s without revealing the full solution.\n", req.AttemptCount, req.ExerciseID)
	case TaskReview:
		fmt.Fprintf(&b, "Review this %s code. List each suggestion on its own line starting with \"- \".\n", lang)
		if req.Context != "" {
			fmt.Fprintf(&b, "Context: %s\n", req.Context)
		}
	}

	if req.Code != "" {
		b.WriteString("```\n")
		b.WriteString(req.Code)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// suggestions collects "- " prefixed lines from a review answer.
func suggestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if item, ok := strings.CutPrefix(line, "- "); ok && item != "" {
			out = append(out, item)
		}
	}
	return out
}
