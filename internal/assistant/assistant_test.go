package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		contains []string
	}{
		{
			name:     "explain",
			req:      Request{Task: TaskExplain, Code: "print(1)", Language: "python"},
			contains: []string{"Explain", "python", "print(1)"},
		},
		{
			name:     "debug includes error",
			req:      Request{Task: TaskDebug, Code: "x = ", Error: "SyntaxError"},
			contains: []string{"SyntaxError", "x = "},
		},
		{
			name:     "hint includes attempt and exercise",
			req:      Request{Task: TaskHint, ExerciseID: "ex-1", AttemptCount: 2},
			contains: []string{"hint number 2", "ex-1"},
		},
		{
			name:     "review includes context",
			req:      Request{Task: TaskReview, Code: "func f() {}", Language: "go", Context: "lesson 3"},
			contains: []string{"Review", "lesson 3", "func f() {}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildPrompt(tt.req)
			for _, want := range tt.contains {
				assert.Contains(t, prompt, want)
			}
		})
	}
}

func TestSuggestions(t *testing.T) {
	text := "Overall fine.\n- Rename x to count\n  - Handle the error\n-\nThanks"
	assert.Equal(t, []string{"Rename x to count", "Handle the error"}, suggestions(text))
	assert.Nil(t, suggestions("nothing to list"))
}

func TestOffline(t *testing.T) {
	resp, err := Offline{}.Complete(context.Background(), Request{Task: TaskHint})
	require.NoError(t, err)
	assert.Equal(t, "offline", resp.Model)
	assert.Contains(t, resp.Text, "hint")
}

func TestTaskValid(t *testing.T) {
	assert.True(t, TaskExplain.Valid())
	assert.True(t, TaskReview.Valid())
	assert.False(t, Task("translate").Valid())
}
