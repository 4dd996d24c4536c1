package handlers_test

import (
	"net/http"
	"testing"

	"github.com/dom/codementor/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAIHandler_OptionalAuth(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name              string
		token             string
		wantAuthenticated bool
	}{
		{name: "anonymous", wantAuthenticated: false},
		{name: "authenticated", token: token, wantAuthenticated: true},
		{name: "invalid token falls back to anonymous", token: testutil.TamperSignature(token), wantAuthenticated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/ai/explain"),
				map[string]string{"code": "print('hi')", "language": "python"}, tt.token)
			resp := testutil.Do(t, req)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, http.StatusOK)
			var result struct {
				Explanation   string `json:"explanation"`
				Authenticated bool   `json:"authenticated"`
			}
			testutil.AssertJSONResponse(t, resp, &result)
			assert.NotEmpty(t, result.Explanation)
			assert.Equal(t, tt.wantAuthenticated, result.Authenticated)
		})
	}
}

func TestAIHandler_Endpoints(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		path           string
		request        map[string]any
		expectedStatus int
		textField      string
	}{
		{
			name:           "debug",
			path:           "/ai/debug",
			request:        map[string]any{"code": "x = ", "error": "SyntaxError", "language": "python"},
			expectedStatus: http.StatusOK,
			textField:      "suggestion",
		},
		{
			name:           "debug without error",
			path:           "/ai/debug",
			request:        map[string]any{"code": "x = "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "hint",
			path:           "/ai/hint",
			request:        map[string]any{"exerciseId": "loops-1", "currentCode": "for", "attemptCount": 2},
			expectedStatus: http.StatusOK,
			textField:      "hint",
		},
		{
			name:           "hint without exercise",
			path:           "/ai/hint",
			request:        map[string]any{"currentCode": "for"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "review",
			path:           "/ai/review",
			request:        map[string]any{"code": "func f() {}", "language": "go"},
			expectedStatus: http.StatusOK,
			textField:      "review",
		},
		{
			name:           "explain without code",
			path:           "/ai/explain",
			request:        map[string]any{"language": "go"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL(tt.path), tt.request)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.textField == "" {
				return
			}

			var result map[string]any
			testutil.AssertJSONResponse(t, resp, &result)
			assert.NotEmpty(t, result[tt.textField])
			assert.Equal(t, false, result["authenticated"])
			if tt.name == "hint" {
				assert.Equal(t, float64(2), result["level"])
			}
			if tt.name == "review" {
				assert.NotNil(t, result["suggestions"])
			}
		})
	}
}
