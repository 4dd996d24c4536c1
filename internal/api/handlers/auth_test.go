package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/codementor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerResponse struct {
	Message string         `json:"message"`
	User    map[string]any `json:"user"`
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().
		WithEmail("existing@example.com").
		WithUsername("existing").
		Build(t, ts.Users)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"email":     "newuser@example.com",
				"username":  "newuser",
				"password":  "password123",
				"firstName": "New",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result registerResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "User registered successfully", result.Message)
				assert.Equal(t, "newuser@example.com", result.User["email"])
				assert.Equal(t, "newuser", result.User["username"])
				assert.Equal(t, "New", result.User["firstName"])
				assert.Equal(t, true, result.User["isActive"])
				assert.NotEmpty(t, result.User["id"])
				assert.NotContains(t, result.User, "password")
				assert.NotContains(t, result.User, "passwordHash")
			},
		},
		{
			name: "duplicate email",
			request: map[string]string{
				"email":    "existing@example.com",
				"username": "someoneelse",
				"password": "password123",
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "User with this email or username already exists",
		},
		{
			name: "duplicate username",
			request: map[string]string{
				"email":    "someoneelse@example.com",
				"username": "existing",
				"password": "password123",
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "User with this email or username already exists",
		},
		{
			name: "missing password",
			request: map[string]string{
				"email":    "nopass@example.com",
				"username": "nopass",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			request: map[string]string{
				"email":    "not-an-email",
				"username": "bademail",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/auth/register"), tt.request)
			defer resp.Body.Close()

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_RegisterMalformedBody(t *testing.T) {
	ts := testutil.NewTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.APIURL("/auth/register"), strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp := testutil.Do(t, req)
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().
		WithEmail("grace@example.com").
		WithUsername("grace").
		Build(t, ts.Users)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful login",
			request:        map[string]string{"email": "grace@example.com", "password": password},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			request:        map[string]string{"email": "grace@example.com", "password": "wrongpassword"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid email or password",
		},
		{
			name:           "unknown email",
			request:        map[string]string{"email": "nobody@example.com", "password": password},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid email or password",
		},
		{
			name:           "missing fields",
			request:        map[string]string{"email": "grace@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Email and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/auth/login"), tt.request)
			defer resp.Body.Close()

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result testutil.AuthResponse
			testutil.AssertJSONResponse(t, resp, &result)
			assert.Equal(t, user.ID, result.User.ID)
			assert.NotEmpty(t, result.Token)
			assert.NotNil(t, result.User.LastLogin)
			assert.False(t, result.ExpiresAt.IsZero())
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	t.Run("returns user with zero progress", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, token)
		resp := testutil.Do(t, req)
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var result map[string]any
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, user.ID.String(), result["id"])
		assert.Equal(t, user.Email, result["email"])
		assert.Equal(t, float64(0), result["totalExercises"])
		assert.Equal(t, float64(0), result["completedExercises"])
		assert.Equal(t, float64(0), result["currentStreak"])
		assert.Equal(t, float64(0), result["totalTimeSpent"])
		assert.NotContains(t, result, "passwordHash")
	})

	t.Run("without token", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, "")
		resp := testutil.Do(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Access token required")
	})

	t.Run("after deactivation", func(t *testing.T) {
		ts.Users.Deactivate(user.ID)

		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, token)
		resp := testutil.Do(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "Invalid or expired token")
	})
}

func TestAuthHandler_Verify(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	t.Run("valid token is accepted repeatedly", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/verify"), nil, token)
			resp := testutil.Do(t, req)

			testutil.AssertStatusCode(t, resp, http.StatusOK)
			var result struct {
				Valid bool `json:"valid"`
				User  struct {
					ID       string `json:"id"`
					Email    string `json:"email"`
					Username string `json:"username"`
				} `json:"user"`
			}
			testutil.AssertJSONResponse(t, resp, &result)
			resp.Body.Close()

			assert.True(t, result.Valid)
			assert.Equal(t, user.ID.String(), result.User.ID)
			assert.Equal(t, user.Email, result.User.Email)
			assert.Equal(t, user.Username, result.User.Username)
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/verify"), nil, testutil.TamperSignature(token))
		resp := testutil.Do(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "Invalid or expired token")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/verify"), nil, "garbage")
		resp := testutil.Do(t, req)
		defer resp.Body.Close()

		testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "Invalid or expired token")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	for _, tok := range []string{token, ""} {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/auth/logout"), nil, tok)
		resp := testutil.Do(t, req)

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var result map[string]string
		testutil.AssertJSONResponse(t, resp, &result)
		resp.Body.Close()
		assert.Equal(t, "Logout successful", result["message"])
	}

	// Tokens are stateless, so the old token still verifies after logout.
	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/verify"), nil, token)
	resp := testutil.Do(t, req)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
}

func TestAuthFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := testutil.PostJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "a@x.com",
		"username": "alice",
		"password": "secret1",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var registered registerResponse
	testutil.AssertJSONResponse(t, resp, &registered)
	resp.Body.Close()
	assert.Equal(t, "a@x.com", registered.User["email"])
	assert.NotContains(t, registered.User, "passwordHash")

	resp = testutil.PostJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "a@x.com",
		"username": "alice2",
		"password": "secret1",
	})
	testutil.AssertErrorResponse(t, resp, http.StatusConflict, "User with this email or username already exists")
	resp.Body.Close()

	resp = testutil.PostJSON(t, ts.APIURL("/auth/login"), map[string]string{"email": "a@x.com", "password": "wrong"})
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
	resp.Body.Close()

	resp = testutil.PostJSON(t, ts.APIURL("/auth/login"), map[string]string{"email": "a@x.com", "password": "secret1"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var login testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &login)
	resp.Body.Close()
	require.NotEmpty(t, login.Token)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, login.Token))
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var me map[string]any
	testutil.AssertJSONResponse(t, resp, &me)
	resp.Body.Close()
	assert.Equal(t, "a@x.com", me["email"])
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, float64(0), me["totalExercises"])
	assert.Equal(t, float64(0), me["completedExercises"])
	assert.Equal(t, float64(0), me["totalTimeSpent"])

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/verify"), nil, testutil.TamperSignature(login.Token)))
	defer resp.Body.Close()
	testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "Invalid or expired token")
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		request        map[string]any
		expectedStatus int
		expectedError  string
		checkResponse  func(*testing.T, map[string]any)
	}{
		{
			name:           "update first name",
			request:        map[string]any{"firstName": "Ada"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, result map[string]any) {
				assert.Equal(t, "Ada", result["firstName"])
				assert.Equal(t, user.Email, result["email"])
			},
		},
		{
			name:           "unrecognized fields only",
			request:        map[string]any{"email": "hijack@example.com", "isActive": false},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No valid fields to update",
		},
		{
			name:           "empty body",
			request:        map[string]any{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No valid fields to update",
		},
		{
			name:           "earlier fields are kept",
			request:        map[string]any{"lastName": "Lovelace"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, result map[string]any) {
				assert.Equal(t, "Ada", result["firstName"])
				assert.Equal(t, "Lovelace", result["lastName"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodPut, ts.APIURL("/auth/profile"), tt.request, token)
			resp := testutil.Do(t, req)
			defer resp.Body.Close()

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result map[string]any
			testutil.AssertJSONResponse(t, resp, &result)
			tt.checkResponse(t, result)
		})
	}
}

func TestHealthAndIndex(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.BaseURL() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, err = http.Get(ts.APIURL(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var index struct {
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&index))
	assert.NotEmpty(t, index.Version)
	assert.Equal(t, "/api/auth", index.Endpoints["auth"])
}
